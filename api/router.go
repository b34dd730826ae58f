package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apthunt/apartment-crawler/api/handler"
	"github.com/apthunt/apartment-crawler/api/middleware"
	"github.com/apthunt/apartment-crawler/internal/service"
)

func SetupRouter(apartmentService *service.ApartmentService, ingestService *service.IngestService) *gin.Engine {
	r := gin.Default()

	generalLimiter := middleware.NewRateLimiter(100, time.Hour)

	apartmentHandler := handler.NewApartmentHandler(apartmentService)
	ingestHandler := handler.NewIngestHandler(ingestService)

	r.Use(middleware.CORSMiddleware())
	r.Use(generalLimiter.Middleware())

	r.GET("/apartments", apartmentHandler.GetApartments)
	r.GET("/apartments/search", apartmentHandler.SearchApartments)
	r.POST("/contacts/blocked", apartmentHandler.BlockContact)

	r.POST("/ingest", ingestHandler.IngestURL)

	crawlerGroup := r.Group("/crawler")
	{
		crawlerGroup.POST("/trigger", ingestHandler.TriggerCrawler)
		crawlerGroup.POST("/cancel", ingestHandler.CancelCrawler)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "apartment-crawler-api",
			"version": "1.0.0",
		})
	})

	return r
}
