package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://www.olx.uz", cfg.SiteBaseURL)
	assert.Equal(t, 3, cfg.MaxPages)
	assert.Equal(t, 10, cfg.MaxImagesPerAd)
	assert.Equal(t, "Russian", cfg.TranslateLanguage)
	assert.Equal(t, 10*time.Second, cfg.AdPageTimeout)
	assert.Equal(t, 15*time.Second, cfg.ListingPageTimeout)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_PAGES", "7")
	t.Setenv("FILTER_URL", "https://www.olx.uz/nedvizhimost/kvartiry/?page=1")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 7, cfg.MaxPages)
	assert.Equal(t, "https://www.olx.uz/nedvizhimost/kvartiry/?page=1", cfg.FilterURL)
}
