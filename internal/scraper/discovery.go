package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"

	"github.com/apthunt/apartment-crawler/internal/logger"
	"github.com/apthunt/apartment-crawler/internal/repository"
)

// listingCardSelector marks the anchor of one listing card on a search
// results page of the source site.
const listingCardSelector = "a.css-1tqlkj0"

// DiscoveryConfig bounds the paginated listing walk
type DiscoveryConfig struct {
	MaxPages    int
	PageTimeout time.Duration
}

// Discoverer walks the paginated listing pages of a filter URL and feeds
// newly seen ad URLs into the store with status "new".
type Discoverer struct {
	urls   repository.URLRepository
	config DiscoveryConfig
	logger *logger.Logger
}

func NewDiscoverer(urls repository.URLRepository, config DiscoveryConfig) *Discoverer {
	if config.MaxPages <= 0 {
		config.MaxPages = 3
	}
	if config.PageTimeout <= 0 {
		config.PageTimeout = 15 * time.Second
	}
	return &Discoverer{
		urls:   urls,
		config: config,
		logger: logger.NewLogger("url_discovery"),
	}
}

// Discover visits pages 1..MaxPages of the filter URL and inserts unseen
// ad URLs. Cancellation is cooperative: the context is checked between
// pages and between individual link insertions, and inserts are committed
// per link, so a cancelled run keeps everything discovered so far.
// Per-page fetch errors skip that page only. Returns the insert count.
func (d *Discoverer) Discover(ctx context.Context, filterURL string) (int, error) {
	collector := colly.NewCollector()
	extensions.RandomUserAgent(collector)
	extensions.Referer(collector)
	collector.SetRequestTimeout(d.config.PageTimeout)

	var pageLinks []string
	collector.OnHTML(listingCardSelector, func(e *colly.HTMLElement) {
		href := e.Attr("href")
		if href == "" {
			return
		}
		pageLinks = append(pageLinks, e.Request.AbsoluteURL(href))
	})

	seen := map[string]bool{}
	inserted := 0

	for page := 1; page <= d.config.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			d.logger.WithField("page", page).Info("Discovery cancelled")
			return inserted, nil
		}

		pageURL, err := pageURLFor(filterURL, page)
		if err != nil {
			return inserted, err
		}

		pageLinks = pageLinks[:0]
		if err := collector.Visit(pageURL); err != nil {
			d.logger.WithFields(map[string]interface{}{
				"page": page,
				"url":  pageURL,
			}).WithError(err).Warn("Listing page fetch failed, skipping")
			continue
		}
		collector.Wait()

		for _, link := range pageLinks {
			if err := ctx.Err(); err != nil {
				d.logger.WithField("page", page).Info("Discovery cancelled mid-page")
				return inserted, nil
			}
			if seen[link] {
				continue
			}
			seen[link] = true

			created, err := d.urls.Add(ctx, link)
			if err != nil {
				return inserted, err
			}
			if created {
				inserted++
			}
		}

		d.logger.WithFields(map[string]interface{}{
			"page":  page,
			"links": len(pageLinks),
		}).Info("Listing page processed")
	}

	return inserted, nil
}

// pageURLFor sets the page query parameter on the filter URL
func pageURLFor(filterURL string, page int) (string, error) {
	u, err := url.Parse(filterURL)
	if err != nil {
		return "", fmt.Errorf("invalid filter url: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
