package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/apthunt/apartment-crawler/internal/repository"
	"github.com/apthunt/apartment-crawler/internal/service"
)

type ApartmentHandler struct {
	Service *service.ApartmentService
}

func NewApartmentHandler(s *service.ApartmentService) *ApartmentHandler {
	return &ApartmentHandler{Service: s}
}

func (h *ApartmentHandler) GetApartments(c *gin.Context) {
	apartments, err := h.Service.GetAllApartments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch apartments"})
		return
	}
	c.JSON(http.StatusOK, apartments)
}

// SearchApartments filters admitted listings by district, room count and
// price window, paginated.
func (h *ApartmentHandler) SearchApartments(c *gin.Context) {
	filter := repository.ApartmentFilter{
		District: c.Query("district"),
	}

	if rooms := c.Query("rooms"); rooms != "" {
		if val, err := strconv.Atoi(rooms); err == nil {
			filter.Rooms = val
		}
	}
	if priceMin := c.Query("price_min"); priceMin != "" {
		if val, err := strconv.Atoi(priceMin); err == nil {
			filter.PriceMin = val
		}
	}
	if priceMax := c.Query("price_max"); priceMax != "" {
		if val, err := strconv.Atoi(priceMax); err == nil {
			filter.PriceMax = val
		}
	}

	pagination := repository.PaginationParams{Page: 1, PageSize: 10}
	if page := c.Query("page"); page != "" {
		if val, err := strconv.Atoi(page); err == nil && val > 0 {
			pagination.Page = val
		}
	}
	if pageSize := c.Query("page_size"); pageSize != "" {
		if val, err := strconv.Atoi(pageSize); err == nil && val > 0 && val <= 100 {
			pagination.PageSize = val
		}
	}

	result, err := h.Service.SearchApartments(c.Request.Context(), filter, pagination)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to search apartments", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

type blockContactRequest struct {
	Phone     string `json:"phone" binding:"required"`
	AgentName string `json:"agent_name"`
}

// BlockContact records an operator-submitted agent number
func (h *ApartmentHandler) BlockContact(c *gin.Context) {
	var req blockContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone is required"})
		return
	}

	err := h.Service.BlockContact(c.Request.Context(), req.Phone, req.AgentName)
	if errors.Is(err, service.ErrInvalidPhone) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone must normalize to 9 digits"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to block contact"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contact blocked"})
}
