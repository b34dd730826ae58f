package service

import (
	"context"
	"errors"

	"github.com/apthunt/apartment-crawler/internal/logger"
	"github.com/apthunt/apartment-crawler/internal/repository"
	"github.com/apthunt/apartment-crawler/internal/scraper"
)

// ErrNoFilterURL is returned when a discovery run is requested but no
// filter URL is available
var ErrNoFilterURL = errors.New("no filter url configured")

const pendingBatchSize = 100

// IngestService drives single-URL admission and per-operator bulk
// discovery runs.
type IngestService struct {
	pipeline   *scraper.Pipeline
	discoverer *scraper.Discoverer
	registry   *scraper.RunRegistry
	urls       repository.URLRepository

	defaultFilterURL string
	logger           *logger.Logger
}

func NewIngestService(
	pipeline *scraper.Pipeline,
	discoverer *scraper.Discoverer,
	registry *scraper.RunRegistry,
	urls repository.URLRepository,
	defaultFilterURL string,
) *IngestService {
	return &IngestService{
		pipeline:         pipeline,
		discoverer:       discoverer,
		registry:         registry,
		urls:             urls,
		defaultFilterURL: defaultFilterURL,
		logger:           logger.NewLogger("ingest_service"),
	}
}

// IngestURL runs the admission pipeline for one operator-submitted ad URL.
// An operator-supplied phone, when present, must normalize cleanly.
func (s *IngestService) IngestURL(ctx context.Context, adURL, rawPhone string) (*scraper.Outcome, error) {
	var phone string
	if rawPhone != "" {
		var ok bool
		phone, ok = scraper.NormalizePhone(rawPhone)
		if !ok {
			return nil, ErrInvalidPhone
		}
	}
	return s.pipeline.ProcessURL(ctx, adURL, phone)
}

// StartDiscovery launches a background discovery+ingest run for the
// operator, displacing any run the operator already has. The call returns
// once the run is registered; progress is observable through the store.
func (s *IngestService) StartDiscovery(operator, filterURL string) error {
	if filterURL == "" {
		filterURL = s.defaultFilterURL
	}
	if filterURL == "" {
		return ErrNoFilterURL
	}

	ctx, finish := s.registry.Begin(context.Background(), operator)
	go func() {
		defer finish()
		log := s.logger.WithField("operator", operator)

		inserted, err := s.discoverer.Discover(ctx, filterURL)
		if err != nil {
			log.Error("URL discovery failed", err)
			return
		}
		log.WithField("inserted", inserted).Info("URL discovery finished")

		admitted, err := s.ProcessPending(ctx)
		if err != nil {
			log.Error("Pending ingestion failed", err)
			return
		}
		log.WithField("admitted", admitted).Info("Discovery run finished")
	}()
	return nil
}

// CancelDiscovery requests cancellation of the operator's active run
func (s *IngestService) CancelDiscovery(operator string) bool {
	return s.registry.Cancel(operator)
}

// ProcessPending walks the pending listing URLs one unit of work at a
// time. A failed unit is logged and skipped; it never terminates the
// enclosing run. Cancellation is honored between units.
func (s *IngestService) ProcessPending(ctx context.Context) (int, error) {
	pending, err := s.urls.FindByStatus(ctx, repository.URLStatusNew, pendingBatchSize)
	if err != nil {
		return 0, err
	}

	admitted := 0
	for _, u := range pending {
		if err := ctx.Err(); err != nil {
			s.logger.Info("Pending ingestion cancelled")
			return admitted, nil
		}
		outcome, err := s.pipeline.ProcessURL(ctx, u.URL, "")
		if err != nil {
			s.logger.WithField("url", u.URL).Error("Unit of work failed", err)
			continue
		}
		if outcome.Admitted {
			admitted++
		}
	}
	return admitted, nil
}
