package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/apthunt/apartment-crawler/internal/logger"
)

var (
	offerIDRe  = regexp.MustCompile(`ID:\s*(\d+)`)
	nonDigitRe = regexp.MustCompile(`\D`)
)

// countryCodePrefix is stripped from resolved numbers before the
// nine-digit check.
const countryCodePrefix = "998"

// ContactResolver obtains the poster's phone number for an ad through the
// site's limited-phones endpoint. Every failure along the way yields an
// absent result; nothing here is fatal to the pipeline.
type ContactResolver struct {
	fetcher *Fetcher
	logger  *logger.Logger
}

func NewContactResolver(fetcher *Fetcher) *ContactResolver {
	return &ContactResolver{
		fetcher: fetcher,
		logger:  logger.NewLogger("contact_resolver"),
	}
}

// Resolve fetches the ad page to locate the embedded offer id, then asks
// the limited-phones endpoint for candidates. Returns ("", false) on any
// network failure, missing id or empty phone list.
func (r *ContactResolver) Resolve(ctx context.Context, adURL string) (string, bool) {
	body, err := r.fetcher.Get(ctx, adURL)
	if err != nil {
		r.logger.WithField("url", adURL).WithError(err).Debug("Ad page fetch failed")
		return "", false
	}

	m := offerIDRe.FindSubmatch(body)
	if m == nil {
		r.logger.WithField("url", adURL).Debug("No offer id found on ad page")
		return "", false
	}
	offerID := string(m[1])

	endpoint, err := phonesEndpoint(adURL, offerID)
	if err != nil {
		return "", false
	}

	respBody, err := r.fetcher.Get(ctx, endpoint)
	if err != nil {
		r.logger.WithField("offer_id", offerID).WithError(err).Debug("Phones endpoint failed")
		return "", false
	}

	var payload struct {
		Data struct {
			Phones []string `json:"phones"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return "", false
	}

	for _, candidate := range payload.Data.Phones {
		if phone, ok := NormalizePhone(candidate); ok {
			return phone, true
		}
	}
	return "", false
}

// NormalizePhone reduces a free-form phone string to the canonical
// nine-digit local format: non-digits stripped, the country-code prefix
// removed when present. Anything that does not end up as exactly nine
// digits is rejected.
func NormalizePhone(raw string) (string, bool) {
	digits := nonDigitRe.ReplaceAllString(raw, "")
	if strings.HasPrefix(digits, countryCodePrefix) && len(digits) > len(countryCodePrefix) {
		digits = digits[len(countryCodePrefix):]
	}
	if len(digits) != 9 {
		return "", false
	}
	return digits, true
}

func phonesEndpoint(adURL, offerID string) (string, error) {
	u, err := url.Parse(adURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid ad url %q", adURL)
	}
	return fmt.Sprintf("%s://%s/api/v1/offers/%s/limited-phones/", u.Scheme, u.Host, offerID), nil
}
