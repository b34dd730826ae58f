package scraper

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/apthunt/apartment-crawler/internal/logger"
)

// RawAdRecord is the flat, still-unvalidated result of extracting one ad
// page. Missing structural elements leave the corresponding field empty.
type RawAdRecord struct {
	Title        string
	Description  string
	Price        *int
	Images       []string
	LocationText string
	Landmark     string
	SellerName   string
	MapLink      string
	Latitude     *float64
	Longitude    *float64
	Parameters   map[string]string
}

// IsEmpty reports whether extraction found no usable data at all
func (r RawAdRecord) IsEmpty() bool {
	return r.Title == "" && r.Description == "" && r.Price == nil && len(r.Images) == 0
}

const (
	locationHeading = "Местоположение"
	districtKeyword = "район"
)

var (
	priceDigitsRe = regexp.MustCompile(`[\d\s]+`)
	mapLinkRe     = regexp.MustCompile(`maps\.google\.com/maps\?ll=`)
)

// AdExtractor turns a parsed ad page into a RawAdRecord
type AdExtractor struct {
	logger *logger.Logger
}

func NewAdExtractor() *AdExtractor {
	return &AdExtractor{logger: logger.NewLogger("ad_extractor")}
}

// Extract pulls the flat ad record out of a parsed document. It fails
// softly: any absent element yields an absent field, never an error.
func (e *AdExtractor) Extract(doc *goquery.Document, pageURL string) RawAdRecord {
	rec := RawAdRecord{Parameters: map[string]string{}}
	base, _ := url.Parse(pageURL)

	rec.Title = e.extractTitle(doc)
	rec.Price = e.extractPrice(doc)
	rec.Parameters = e.extractParameters(doc)
	rec.Description = e.extractDescription(doc)
	rec.Images = e.extractImages(doc, base)
	rec.LocationText = e.extractLocation(doc)
	rec.SellerName = cleanText(doc.Find(`[data-testid="user-profile-user-name"]`).First().Text())
	rec.MapLink, rec.Latitude, rec.Longitude = e.extractMapLink(doc, base)

	e.logger.WithFields(map[string]interface{}{
		"url":    pageURL,
		"title":  rec.Title,
		"images": len(rec.Images),
	}).Debug("Ad page extracted")

	return rec
}

func (e *AdExtractor) extractTitle(doc *goquery.Document) string {
	if t := cleanText(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	return cleanText(doc.Find(`div[data-testid="offer_title"] h4`).First().Text())
}

// extractPrice takes the first integer-like run of digits in the price
// container, tolerating whitespace and non-breaking-space separators.
func (e *AdExtractor) extractPrice(doc *goquery.Document) *int {
	text := doc.Find(`div[data-testid="ad-price-container"] h3`).First().Text()
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, " ", " ")
	m := priceDigitsRe.FindString(text)
	if m == "" {
		return nil
	}
	m = strings.ReplaceAll(strings.TrimSpace(m), " ", "")
	price, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &price
}

func (e *AdExtractor) extractParameters(doc *goquery.Document) map[string]string {
	params := map[string]string{}
	var other []string
	doc.Find(`div[data-testid="ad-parameters-container"] p`).Each(func(_ int, s *goquery.Selection) {
		txt := cleanText(s.Text())
		if txt == "" {
			return
		}
		if k, v, found := strings.Cut(txt, ":"); found {
			params[strings.TrimSpace(k)] = strings.TrimSpace(v)
		} else {
			other = append(other, txt)
		}
	})
	if len(other) > 0 {
		params["OtherInfo"] = strings.Join(other, "; ")
	}
	return params
}

func (e *AdExtractor) extractDescription(doc *goquery.Document) string {
	return cleanText(doc.Find(`div[data-testid="ad_description"] div`).First().Text())
}

// extractImages unions the photo-container images with the carousel
// images, preserving first-seen order and de-duplicating by absolute URL.
func (e *AdExtractor) extractImages(doc *goquery.Document, base *url.URL) []string {
	var images []string
	seen := map[string]bool{}

	appendImage := func(s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" {
			src, _ = s.Attr("data-src")
		}
		if src == "" {
			return
		}
		abs := absoluteURL(base, src)
		if abs != "" && !seen[abs] {
			seen[abs] = true
			images = append(images, abs)
		}
	}

	doc.Find(`div[data-testid="ad-photo"] img`).Each(func(_ int, s *goquery.Selection) {
		appendImage(s)
	})
	doc.Find(`img[data-testid*="swiper-image"]`).Each(func(_ int, s *goquery.Selection) {
		appendImage(s)
	})
	return images
}

// extractLocation joins the detail lines of the landmark-labeled block and
// collapses the result to coarse "<...> район" granularity when a district
// keyword is present. The collapse keeps the last two tokens before the
// keyword; multi-word district names beyond two tokens get truncated.
func (e *AdExtractor) extractLocation(doc *goquery.Document) string {
	var location string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if cleanText(s.Text()) != locationHeading {
			return true
		}
		var lines []string
		s.Parent().Find("p").Each(func(_ int, p *goquery.Selection) {
			if txt := cleanText(p.Text()); txt != "" && txt != locationHeading {
				lines = append(lines, txt)
			}
		})
		location = strings.Join(lines, ", ")
		return false
	})

	if location == "" {
		return ""
	}
	if strings.Contains(location, districtKeyword) {
		before, _, _ := strings.Cut(location, districtKeyword)
		tokens := strings.Fields(before)
		if len(tokens) > 2 {
			tokens = tokens[len(tokens)-2:]
		}
		if len(tokens) > 0 {
			return strings.Join(tokens, " ") + " " + districtKeyword
		}
	}
	return location
}

func (e *AdExtractor) extractMapLink(doc *goquery.Document, base *url.URL) (string, *float64, *float64) {
	var link string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if mapLinkRe.MatchString(href) {
			link = absoluteURL(base, href)
			return false
		}
		return true
	})
	if link == "" {
		return "", nil, nil
	}

	lat, lon := parseCoordinates(link)
	return link, lat, lon
}

func parseCoordinates(mapLink string) (*float64, *float64) {
	u, err := url.Parse(mapLink)
	if err != nil {
		return nil, nil
	}
	q := u.Query()
	ll := q.Get("ll")
	if ll == "" {
		ll = q.Get("q")
	}
	parts := strings.Split(ll, ",")
	if len(parts) < 2 {
		return nil, nil
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return nil, nil
	}
	return &lat, &lon
}

func absoluteURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
