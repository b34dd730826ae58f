package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apthunt/apartment-crawler/internal/repository"
	"github.com/apthunt/apartment-crawler/internal/service"
)

type stubApartmentRepo struct {
	lastFilter     repository.ApartmentFilter
	lastPagination repository.PaginationParams
	result         *repository.ApartmentSearchResult
	all            []repository.Apartment
}

func (s *stubApartmentRepo) Save(ctx context.Context, apartment *repository.Apartment, urlID int64) error {
	return nil
}

func (s *stubApartmentRepo) FindByID(ctx context.Context, id int64) (*repository.Apartment, error) {
	return nil, nil
}

func (s *stubApartmentRepo) FindByPhone(ctx context.Context, phone string) (*repository.Apartment, error) {
	return nil, nil
}

func (s *stubApartmentRepo) FindAll(ctx context.Context) ([]repository.Apartment, error) {
	return s.all, nil
}

func (s *stubApartmentRepo) FindWithFilters(ctx context.Context, filter repository.ApartmentFilter, pagination repository.PaginationParams) (*repository.ApartmentSearchResult, error) {
	s.lastFilter = filter
	s.lastPagination = pagination
	if s.result != nil {
		return s.result, nil
	}
	return &repository.ApartmentSearchResult{CurrentPage: pagination.Page, PageSize: pagination.PageSize}, nil
}

func (s *stubApartmentRepo) Delete(ctx context.Context, id int64) error {
	return nil
}

type stubBlockedRepo struct {
	blockedPhones []string
}

func (s *stubBlockedRepo) IsBlocked(ctx context.Context, phone string) (bool, error) {
	return false, nil
}

func (s *stubBlockedRepo) Block(ctx context.Context, phone string, agentName *string) error {
	s.blockedPhones = append(s.blockedPhones, phone)
	return nil
}

func (s *stubBlockedRepo) FindAll(ctx context.Context) ([]repository.BlockedContact, error) {
	return nil, nil
}

func newTestRouter(repo *stubApartmentRepo, blocked *stubBlockedRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewApartmentHandler(service.NewApartmentService(repo, blocked))

	r := gin.New()
	r.GET("/apartments", h.GetApartments)
	r.GET("/apartments/search", h.SearchApartments)
	r.POST("/contacts/blocked", h.BlockContact)
	return r
}

func TestGetApartments(t *testing.T) {
	repo := &stubApartmentRepo{all: []repository.Apartment{{ID: 1, Title: "Квартира"}}}
	router := newTestRouter(repo, &stubBlockedRepo{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/apartments", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Квартира")
}

func TestSearchApartments_ParsesQueryParams(t *testing.T) {
	repo := &stubApartmentRepo{}
	router := newTestRouter(repo, &stubBlockedRepo{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/apartments/search?district=Юнусабадский&rooms=2&price_min=30000&price_max=60000&page=3&page_size=20", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Юнусабадский", repo.lastFilter.District)
	assert.Equal(t, 2, repo.lastFilter.Rooms)
	assert.Equal(t, 30000, repo.lastFilter.PriceMin)
	assert.Equal(t, 60000, repo.lastFilter.PriceMax)
	assert.Equal(t, 3, repo.lastPagination.Page)
	assert.Equal(t, 20, repo.lastPagination.PageSize)
}

func TestSearchApartments_DefaultsAndBounds(t *testing.T) {
	repo := &stubApartmentRepo{}
	router := newTestRouter(repo, &stubBlockedRepo{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/apartments/search?page_size=500", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, repo.lastPagination.Page)
	// An out-of-range page size falls back to the default
	assert.Equal(t, 10, repo.lastPagination.PageSize)
}

func TestBlockContact_Success(t *testing.T) {
	blocked := &stubBlockedRepo{}
	router := newTestRouter(&stubApartmentRepo{}, blocked)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/contacts/blocked",
		strings.NewReader(`{"phone":"+998901234567","agent_name":"Агент"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"901234567"}, blocked.blockedPhones)
}

func TestBlockContact_InvalidPhone(t *testing.T) {
	blocked := &stubBlockedRepo{}
	router := newTestRouter(&stubApartmentRepo{}, blocked)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/contacts/blocked",
		strings.NewReader(`{"phone":"123"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, blocked.blockedPhones)
}

func TestBlockContact_MissingPhone(t *testing.T) {
	router := newTestRouter(&stubApartmentRepo{}, &stubBlockedRepo{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/contacts/blocked",
		strings.NewReader(`{"agent_name":"Агент"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
