package scraper

import (
	"context"

	"github.com/apthunt/apartment-crawler/internal/logger"
	"github.com/apthunt/apartment-crawler/internal/repository"
)

// Decision is the outcome of the duplicate & block filter
type Decision int

const (
	// DecisionNone is the zero value, returned only alongside an error
	// when a store lookup prevented reaching a verdict
	DecisionNone Decision = iota
	DecisionAdmit
	DecisionRejectDuplicateImage
	DecisionRejectDuplicateContact
	DecisionRejectBlockedContact
	DecisionRejectIncomplete
)

func (d Decision) String() string {
	switch d {
	case DecisionNone:
		return "none"
	case DecisionAdmit:
		return "admit"
	case DecisionRejectDuplicateImage:
		return "duplicate_image"
	case DecisionRejectDuplicateContact:
		return "duplicate_contact"
	case DecisionRejectBlockedContact:
		return "blocked_contact"
	case DecisionRejectIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// AdmissionFilter decides whether an extracted ad may become a persisted
// listing. Repeat contacts are treated as broker activity: both the prior
// and the current listing under that contact are purged/rejected.
type AdmissionFilter struct {
	apartments repository.ApartmentRepository
	images     repository.ImageRepository
	blocked    repository.BlockedContactRepository
	logger     *logger.Logger
}

func NewAdmissionFilter(
	apartments repository.ApartmentRepository,
	images repository.ImageRepository,
	blocked repository.BlockedContactRepository,
) *AdmissionFilter {
	return &AdmissionFilter{
		apartments: apartments,
		images:     images,
		blocked:    blocked,
		logger:     logger.NewLogger("admission_filter"),
	}
}

// Admit applies the rejection rules in order. Store lookup failures are
// surfaced as errors so the caller can roll the unit of work back.
func (f *AdmissionFilter) Admit(ctx context.Context, rec RawAdRecord, attrs ParsedAttributes, contact string) (Decision, error) {
	// 1. Same image already stored means the identical ad was ingested
	for _, imageURL := range rec.Images {
		exists, err := f.images.ExistsByOriginalURL(ctx, imageURL)
		if err != nil {
			return DecisionNone, err
		}
		if exists {
			f.logger.WithField("image_url", imageURL).Info("Duplicate image detected")
			return DecisionRejectDuplicateImage, nil
		}
	}

	if contact != "" {
		// 2. Known agent number
		blocked, err := f.blocked.IsBlocked(ctx, contact)
		if err != nil {
			return DecisionNone, err
		}
		if blocked {
			return DecisionRejectBlockedContact, nil
		}

		// 3. A contact repeating across ads taints both occurrences:
		// block the number, purge the prior listing, reject the new ad.
		existing, err := f.apartments.FindByPhone(ctx, contact)
		if err != nil {
			return DecisionNone, err
		}
		if existing != nil {
			if err := f.blocked.Block(ctx, contact, existing.OwnerName); err != nil {
				return DecisionNone, err
			}
			if err := f.apartments.Delete(ctx, existing.ID); err != nil {
				return DecisionNone, err
			}
			f.logger.WithFields(map[string]interface{}{
				"contact":      contact,
				"apartment_id": existing.ID,
			}).Info("Repeat contact blocked, prior listing purged")
			return DecisionRejectDuplicateContact, nil
		}
	}

	// 4. Required-field completeness
	if missing := MissingFields(rec, attrs); len(missing) > 0 {
		f.logger.WithField("missing", missing).Debug("Record incomplete")
		return DecisionRejectIncomplete, nil
	}

	return DecisionAdmit, nil
}

// MissingFields lists the required fields absent from the record. A record
// is only constructed once this comes back empty.
func MissingFields(rec RawAdRecord, attrs ParsedAttributes) []string {
	var missing []string
	if rec.Title == "" {
		missing = append(missing, "title")
	}
	if rec.Description == "" {
		missing = append(missing, "description")
	}
	if rec.Price == nil {
		missing = append(missing, "price")
	}
	if attrs.Rooms == nil {
		missing = append(missing, "rooms")
	}
	if attrs.Floor == nil {
		missing = append(missing, "floor")
	}
	if attrs.TotalStoreys == nil {
		missing = append(missing, "total_storeys")
	}
	if attrs.Area == nil {
		missing = append(missing, "area")
	}
	return missing
}
