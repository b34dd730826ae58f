package scraper

import (
	"context"
	"errors"

	"github.com/PuerkitoBio/goquery"

	"github.com/apthunt/apartment-crawler/internal/ai"
	"github.com/apthunt/apartment-crawler/internal/logger"
	"github.com/apthunt/apartment-crawler/internal/repository"
	"github.com/apthunt/apartment-crawler/internal/storage"
)

// DocumentFetcher retrieves and parses one page
type DocumentFetcher interface {
	GetDocument(ctx context.Context, url string) (*goquery.Document, error)
}

// ContactSource resolves the poster's contact for an ad URL
type ContactSource interface {
	Resolve(ctx context.Context, adURL string) (string, bool)
}

// AssistCapability is the optional LLM-backed enrichment. A nil assist
// disables enrichment without affecting the rest of the pipeline.
type AssistCapability interface {
	ExtractLandmark(ctx context.Context, text string) string
	Translate(ctx context.Context, text, targetLang string) string
}

// ImageSaver downloads one image and returns its stored relative path
type ImageSaver interface {
	Save(ctx context.Context, apartmentID int64, imageURL string) (string, error)
}

// Outcome is the terminal result reported for one submitted URL. The
// front-end never sees a raw internal failure surface.
type Outcome struct {
	Admitted    bool   `json:"admitted"`
	ApartmentID int64  `json:"apartment_id,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Retryable   bool   `json:"retryable,omitempty"`
}

// Pipeline sequences extraction, parameter parsing, contact resolution and
// the admission filter for one ad URL, persisting admitted records.
type Pipeline struct {
	fetcher    DocumentFetcher
	extractor  *AdExtractor
	contacts   ContactSource
	filter     *AdmissionFilter
	assist     AssistCapability
	imageStore ImageSaver

	apartments repository.ApartmentRepository
	images     repository.ImageRepository
	urls       repository.URLRepository

	translateLanguage string
	logger            *logger.Logger
}

type PipelineConfig struct {
	TranslateLanguage string
}

func NewPipeline(
	fetcher DocumentFetcher,
	contacts ContactSource,
	filter *AdmissionFilter,
	assist AssistCapability,
	imageStore ImageSaver,
	apartments repository.ApartmentRepository,
	images repository.ImageRepository,
	urls repository.URLRepository,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.TranslateLanguage == "" {
		cfg.TranslateLanguage = "Russian"
	}
	return &Pipeline{
		fetcher:           fetcher,
		extractor:         NewAdExtractor(),
		contacts:          contacts,
		filter:            filter,
		assist:            assist,
		imageStore:        imageStore,
		apartments:        apartments,
		images:            images,
		urls:              urls,
		translateLanguage: cfg.TranslateLanguage,
		logger:            logger.NewLogger("admission_pipeline"),
	}
}

// ProcessURL runs the whole admission for one ad URL. operatorPhone, when
// present, is attached as the listing contact instead of resolving one.
// The returned error covers store-level failures only; every scrape-level
// failure is folded into the Outcome.
func (p *Pipeline) ProcessURL(ctx context.Context, adURL string, operatorPhone string) (*Outcome, error) {
	log := p.logger.WithField("url", adURL)

	urlRec, err := p.urls.GetOrCreate(ctx, adURL)
	if err != nil {
		return nil, err
	}
	if urlRec.Status == repository.URLStatusDone {
		return &Outcome{Reason: "already_processed"}, nil
	}

	if err := p.urls.SetStatus(ctx, urlRec.ID, repository.URLStatusInProgress); err != nil {
		return nil, err
	}

	doc, err := p.fetcher.GetDocument(ctx, adURL)
	if err != nil {
		// Nothing was parsed yet, leave the URL eligible for a retry pass
		log.WithError(err).Warn("Ad page fetch failed before parsing")
		if stErr := p.urls.SetStatus(ctx, urlRec.ID, repository.URLStatusNew); stErr != nil {
			return nil, stErr
		}
		return &Outcome{Reason: "fetch_failed", Retryable: true}, nil
	}

	rec := p.extractor.Extract(doc, adURL)
	if rec.IsEmpty() {
		// A determinate "no usable data" decision is terminal
		log.Info("No usable data on ad page")
		if err := p.urls.SetStatus(ctx, urlRec.ID, repository.URLStatusDone); err != nil {
			return nil, err
		}
		return &Outcome{Reason: "no_data"}, nil
	}

	attrs := ParseParameters(rec.Parameters)
	if attrs.Floor != nil && attrs.TotalStoreys == nil {
		// Single-story fallback: a lone floor label implies the building
		// has no separately listed height
		attrs.TotalStoreys = attrs.Floor
	}

	p.enrich(ctx, &rec)

	contact := operatorPhone
	if contact == "" && p.contacts != nil {
		contact, _ = p.contacts.Resolve(ctx, adURL)
	}

	decision, err := p.filter.Admit(ctx, rec, attrs, contact)
	if err != nil {
		if stErr := p.urls.SetStatus(ctx, urlRec.ID, repository.URLStatusError); stErr != nil {
			log.Error("Failed to mark url errored", stErr)
		}
		return nil, err
	}
	if decision != DecisionAdmit {
		log.WithField("decision", decision.String()).Info("Ad rejected")
		if err := p.urls.SetStatus(ctx, urlRec.ID, repository.URLStatusDone); err != nil {
			return nil, err
		}
		return &Outcome{Reason: decision.String()}, nil
	}

	// Apartment insert and URL back-link commit together; a failure of
	// either leaves no partially admitted listing behind.
	apartment := buildApartment(rec, attrs, contact)
	if err := p.apartments.Save(ctx, apartment, urlRec.ID); err != nil {
		if stErr := p.urls.SetStatus(ctx, urlRec.ID, repository.URLStatusError); stErr != nil {
			log.Error("Failed to mark url errored", stErr)
		}
		return nil, err
	}

	p.storeImages(ctx, apartment.ID, rec.Images)

	if err := p.urls.SetStatus(ctx, urlRec.ID, repository.URLStatusDone); err != nil {
		return nil, err
	}

	log.WithField("apartment_id", apartment.ID).Info("Apartment admitted")
	return &Outcome{Admitted: true, ApartmentID: apartment.ID}, nil
}

// enrich applies the optional post-processing steps. Each one is
// individually skippable; a failure in one never loses the others.
func (p *Pipeline) enrich(ctx context.Context, rec *RawAdRecord) {
	rec.Title = ai.RedactPhones(rec.Title)
	rec.Description = ai.RedactPhones(rec.Description)

	if p.assist == nil {
		return
	}
	combined := rec.Title + " " + rec.Description
	if rec.MapLink == "" {
		rec.Landmark = p.assist.ExtractLandmark(ctx, combined)
	}
	rec.Description = p.assist.Translate(ctx, rec.Title+"\n\n"+rec.Description, p.translateLanguage)
}

// storeImages downloads and records the listing's images sequentially.
// Per-image failures are logged and skipped, never aborting the record.
func (p *Pipeline) storeImages(ctx context.Context, apartmentID int64, imageURLs []string) {
	if p.imageStore == nil {
		return
	}
	for _, imageURL := range imageURLs {
		localPath, err := p.imageStore.Save(ctx, apartmentID, imageURL)
		if err != nil {
			if errors.Is(err, storage.ErrTooManyImages) {
				break
			}
			p.logger.WithField("image_url", imageURL).WithError(err).Warn("Image download failed, skipping")
			continue
		}
		img := &repository.ApartmentImage{
			ApartmentID: apartmentID,
			OriginalURL: imageURL,
			LocalPath:   localPath,
		}
		if err := p.images.Save(ctx, img); err != nil {
			p.logger.WithField("image_url", imageURL).WithError(err).Warn("Image record insert failed, skipping")
		}
	}
}

func buildApartment(rec RawAdRecord, attrs ParsedAttributes, contact string) *repository.Apartment {
	district := rec.LocationText
	if district == "" {
		district = rec.Landmark
	}

	apartment := &repository.Apartment{
		Title:        rec.Title,
		Description:  rec.Description,
		Price:        *rec.Price,
		Floor:        *attrs.Floor,
		TotalStoreys: *attrs.TotalStoreys,
		Area:         *attrs.Area,
		Rooms:        *attrs.Rooms,
		District:     district,
		BuildingType: attrs.BuildingType,
		Repair:       attrs.Repair,
		Latitude:     rec.Latitude,
		Longitude:    rec.Longitude,
		Status:       repository.ApartmentStatusNew,
	}
	if attrs.IsFurnished != nil {
		apartment.IsFurnished = *attrs.IsFurnished
	}
	if rec.SellerName != "" {
		owner := rec.SellerName
		apartment.OwnerName = &owner
	}
	if rec.MapLink != "" {
		link := rec.MapLink
		apartment.MapLink = &link
	}
	if contact != "" {
		phone := contact
		apartment.PhoneNumber = &phone
	}
	return apartment
}
