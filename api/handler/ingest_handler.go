package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apthunt/apartment-crawler/internal/service"
)

type IngestHandler struct {
	Service *service.IngestService
}

func NewIngestHandler(s *service.IngestService) *IngestHandler {
	return &IngestHandler{Service: s}
}

type ingestRequest struct {
	URL   string `json:"url" binding:"required"`
	Phone string `json:"phone"`
}

// IngestURL runs the admission pipeline for one submitted ad URL and
// returns its terminal outcome.
func (h *IngestHandler) IngestURL(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	outcome, err := h.Service.IngestURL(c.Request.Context(), req.URL, req.Phone)
	if errors.Is(err, service.ErrInvalidPhone) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone must normalize to 9 digits"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ingestion failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

type triggerRequest struct {
	FilterURL string `json:"filter_url"`
	Operator  string `json:"operator"`
}

// TriggerCrawler starts a bulk discovery+ingest run for the operator,
// replacing any run that operator already has.
func (h *IngestHandler) TriggerCrawler(c *gin.Context) {
	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Operator == "" {
		req.Operator = "default"
	}

	if err := h.Service.StartDiscovery(req.Operator, req.FilterURL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Discovery run started", "operator": req.Operator})
}

type cancelRequest struct {
	Operator string `json:"operator" binding:"required"`
}

// CancelCrawler cooperatively cancels the operator's active run
func (h *IngestHandler) CancelCrawler(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "operator is required"})
		return
	}

	if !h.Service.CancelDiscovery(req.Operator) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active run for operator"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cancellation requested"})
}
