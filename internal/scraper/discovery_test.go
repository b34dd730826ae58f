package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingPage(links ...string) string {
	page := "<html><body>"
	for _, link := range links {
		page += fmt.Sprintf(`<a class="css-1tqlkj0" href="%s">card</a>`, link)
	}
	return page + "</body></html>"
}

func newListingServer(t *testing.T, pages map[string]string) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var visited []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/list" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		page := r.URL.Query().Get("page")
		mu.Lock()
		visited = append(visited, page)
		mu.Unlock()
		body, ok := pages[page]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, body)
	}))
	return server, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), visited...)
	}
}

func TestDiscover_WalksPagesAndDeduplicates(t *testing.T) {
	server, visitedPages := newListingServer(t, map[string]string{
		"1": listingPage("/obyavlenie/a.html", "/obyavlenie/b.html"),
		"2": listingPage("/obyavlenie/b.html", "/obyavlenie/c.html"),
	})
	defer server.Close()

	urls := newFakeURLRepo()
	discoverer := NewDiscoverer(urls, DiscoveryConfig{MaxPages: 2, PageTimeout: 5 * time.Second})

	inserted, err := discoverer.Discover(context.Background(), server.URL+"/list?rooms=2")

	require.NoError(t, err)
	assert.Equal(t, 3, inserted)
	assert.Equal(t, []string{"1", "2"}, visitedPages())

	for _, path := range []string{"/obyavlenie/a.html", "/obyavlenie/b.html", "/obyavlenie/c.html"} {
		exists, err := urls.Exists(context.Background(), server.URL+path)
		require.NoError(t, err)
		assert.True(t, exists, path)
	}
}

// cancellingURLRepo cancels the run's context once a given number of links
// has been committed, simulating a stop request arriving between pages.
type cancellingURLRepo struct {
	*fakeURLRepo
	cancel context.CancelFunc
	after  int
	adds   int
}

func (c *cancellingURLRepo) Add(ctx context.Context, url string) (bool, error) {
	created, err := c.fakeURLRepo.Add(ctx, url)
	c.adds++
	if c.adds == c.after {
		c.cancel()
	}
	return created, err
}

func TestDiscover_StopBeforeNextPageKeepsCommittedLinks(t *testing.T) {
	server, visitedPages := newListingServer(t, map[string]string{
		"1": listingPage("/obyavlenie/a.html", "/obyavlenie/b.html"),
		"2": listingPage("/obyavlenie/c.html"),
	})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	urls := &cancellingURLRepo{fakeURLRepo: newFakeURLRepo(), cancel: cancel, after: 2}

	discoverer := NewDiscoverer(urls, DiscoveryConfig{MaxPages: 3, PageTimeout: 5 * time.Second})
	inserted, err := discoverer.Discover(ctx, server.URL+"/list")

	require.NoError(t, err, "cancellation is a clean stop, not a failure")
	assert.Equal(t, 2, inserted, "everything committed before the stop survives")
	assert.Equal(t, []string{"1"}, visitedPages(), "page 2 is never fetched")
}

func TestDiscover_PageErrorSkipsThatPageOnly(t *testing.T) {
	server, visitedPages := newListingServer(t, map[string]string{
		// page 1 intentionally absent: the server answers it with a 500
		"2": listingPage("/obyavlenie/a.html"),
	})
	defer server.Close()

	urls := newFakeURLRepo()
	discoverer := NewDiscoverer(urls, DiscoveryConfig{MaxPages: 2, PageTimeout: 5 * time.Second})

	inserted, err := discoverer.Discover(context.Background(), server.URL+"/list")

	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, []string{"1", "2"}, visitedPages())
}

func TestDiscover_InvalidFilterURL(t *testing.T) {
	discoverer := NewDiscoverer(newFakeURLRepo(), DiscoveryConfig{MaxPages: 1})

	_, err := discoverer.Discover(context.Background(), "://not-a-url")

	assert.Error(t, err)
}
