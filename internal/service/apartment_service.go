package service

import (
	"context"
	"errors"

	"github.com/apthunt/apartment-crawler/internal/logger"
	"github.com/apthunt/apartment-crawler/internal/repository"
	"github.com/apthunt/apartment-crawler/internal/scraper"
)

// ErrInvalidPhone is returned for contact numbers that do not normalize
// to the canonical nine-digit format
var ErrInvalidPhone = errors.New("invalid phone number")

// ApartmentService exposes the read side of the store plus operator
// curation of the blocked-contact list.
type ApartmentService struct {
	apartments repository.ApartmentRepository
	blocked    repository.BlockedContactRepository
	logger     *logger.Logger
}

func NewApartmentService(
	apartments repository.ApartmentRepository,
	blocked repository.BlockedContactRepository,
) *ApartmentService {
	return &ApartmentService{
		apartments: apartments,
		blocked:    blocked,
		logger:     logger.NewLogger("apartment_service"),
	}
}

func (s *ApartmentService) GetAllApartments(ctx context.Context) ([]repository.Apartment, error) {
	return s.apartments.FindAll(ctx)
}

func (s *ApartmentService) SearchApartments(ctx context.Context, filter repository.ApartmentFilter, pagination repository.PaginationParams) (*repository.ApartmentSearchResult, error) {
	return s.apartments.FindWithFilters(ctx, filter, pagination)
}

// BlockContact adds an operator-submitted agent number to the blocked list
func (s *ApartmentService) BlockContact(ctx context.Context, rawPhone string, agentName string) error {
	phone, ok := scraper.NormalizePhone(rawPhone)
	if !ok {
		return ErrInvalidPhone
	}
	var name *string
	if agentName != "" {
		name = &agentName
	}
	if err := s.blocked.Block(ctx, phone, name); err != nil {
		return err
	}
	s.logger.WithField("phone", phone).Info("Contact blocked by operator")
	return nil
}
