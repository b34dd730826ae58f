package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"formatted with country code", "+998 90 123-45-67", "901234567", true},
		{"bare nine digits", "901234567", "901234567", true},
		{"parentheses and spaces", "(90) 123 45 67", "901234567", true},
		{"country code without plus", "998901234567", "901234567", true},
		{"too short", "12345", "", false},
		{"too long", "90123456789", "", false},
		{"empty", "", "", false},
		{"letters only", "нет телефона", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizePhone(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_HappyPath(t *testing.T) {
	var phonesPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/obyavlenie/kvartira.html":
			fmt.Fprint(w, `<html><body><span>ID: 123456</span></body></html>`)
		case "/api/v1/offers/123456/limited-phones/":
			phonesPath = r.URL.Path
			fmt.Fprint(w, `{"data":{"phones":["+998 90 123-45-67"]}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	resolver := NewContactResolver(NewFetcher(5 * time.Second))
	phone, ok := resolver.Resolve(context.Background(), server.URL+"/obyavlenie/kvartira.html")

	require.True(t, ok)
	assert.Equal(t, "901234567", phone)
	assert.Equal(t, "/api/v1/offers/123456/limited-phones/", phonesPath)
}

func TestResolve_SkipsUnparseableCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ad" {
			fmt.Fprint(w, `ID: 77`)
			return
		}
		fmt.Fprint(w, `{"data":{"phones":["скрыт","12345","998911112233"]}}`)
	}))
	defer server.Close()

	resolver := NewContactResolver(NewFetcher(5 * time.Second))
	phone, ok := resolver.Resolve(context.Background(), server.URL+"/ad")

	require.True(t, ok)
	assert.Equal(t, "911112233", phone)
}

func TestResolve_NoOfferID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>no identifier here</body></html>`)
	}))
	defer server.Close()

	resolver := NewContactResolver(NewFetcher(5 * time.Second))
	phone, ok := resolver.Resolve(context.Background(), server.URL+"/ad")

	assert.False(t, ok)
	assert.Empty(t, phone)
}

func TestResolve_PhonesEndpointFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ad" {
			fmt.Fprint(w, `ID: 500`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	resolver := NewContactResolver(NewFetcher(5 * time.Second))
	_, ok := resolver.Resolve(context.Background(), server.URL+"/ad")

	assert.False(t, ok)
}

func TestResolve_EmptyPhoneList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ad" {
			fmt.Fprint(w, `ID: 9`)
			return
		}
		fmt.Fprint(w, `{"data":{"phones":[]}}`)
	}))
	defer server.Close()

	resolver := NewContactResolver(NewFetcher(5 * time.Second))
	_, ok := resolver.Resolve(context.Background(), server.URL+"/ad")

	assert.False(t, ok)
}
