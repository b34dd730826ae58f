package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/apthunt/apartment-crawler/api"
	"github.com/apthunt/apartment-crawler/internal/ai"
	"github.com/apthunt/apartment-crawler/internal/config"
	"github.com/apthunt/apartment-crawler/internal/repository"
	"github.com/apthunt/apartment-crawler/internal/scraper"
	"github.com/apthunt/apartment-crawler/internal/service"
	"github.com/apthunt/apartment-crawler/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using default environment variables")
	}

	cfg := config.LoadConfig()
	ctx := context.Background()

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := repository.InitSchema(ctx, pool); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	apartments := repository.NewPostgresApartmentRepository(pool)
	images := repository.NewPostgresImageRepository(pool)
	urls := repository.NewPostgresURLRepository(pool)
	blocked := repository.NewPostgresBlockedContactRepository(pool)

	// The assist is optional: without an API key the pipeline runs with
	// enrichment disabled
	var assist scraper.AssistCapability
	if assistService, err := ai.NewAssistService(ctx, cfg.GeminiAPIKey); err != nil {
		log.Printf("Assist disabled: %v", err)
	} else {
		assist = assistService
	}

	fetcher := scraper.NewFetcher(cfg.AdPageTimeout)
	resolver := scraper.NewContactResolver(fetcher)
	filter := scraper.NewAdmissionFilter(apartments, images, blocked)
	imageStore := storage.NewImageStore(cfg.ImageDir, cfg.MaxImagesPerAd)

	pipeline := scraper.NewPipeline(fetcher, resolver, filter, assist, imageStore,
		apartments, images, urls,
		scraper.PipelineConfig{TranslateLanguage: cfg.TranslateLanguage})
	discoverer := scraper.NewDiscoverer(urls, scraper.DiscoveryConfig{
		MaxPages:    cfg.MaxPages,
		PageTimeout: cfg.ListingPageTimeout,
	})

	apartmentService := service.NewApartmentService(apartments, blocked)
	ingestService := service.NewIngestService(pipeline, discoverer, scraper.NewRunRegistry(), urls, cfg.FilterURL)

	router := api.SetupRouter(apartmentService, ingestService)

	log.Printf("Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
