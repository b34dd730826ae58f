package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/apthunt/apartment-crawler/internal/ai"
	"github.com/apthunt/apartment-crawler/internal/config"
	"github.com/apthunt/apartment-crawler/internal/repository"
	"github.com/apthunt/apartment-crawler/internal/scraper"
	"github.com/apthunt/apartment-crawler/internal/service"
	"github.com/apthunt/apartment-crawler/internal/storage"
)

// One-shot run: discover ad URLs for the configured filter URL, then push
// every pending URL through the admission pipeline.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using default environment variables")
	}

	cfg := config.LoadConfig()
	if cfg.FilterURL == "" {
		log.Fatal("FILTER_URL is required")
	}

	ctx := context.Background()

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := repository.InitSchema(ctx, pool); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	apartments := repository.NewPostgresApartmentRepository(pool)
	images := repository.NewPostgresImageRepository(pool)
	urls := repository.NewPostgresURLRepository(pool)
	blocked := repository.NewPostgresBlockedContactRepository(pool)

	var assist scraper.AssistCapability
	if assistService, err := ai.NewAssistService(ctx, cfg.GeminiAPIKey); err != nil {
		log.Printf("Assist disabled: %v", err)
	} else {
		assist = assistService
	}

	fetcher := scraper.NewFetcher(cfg.AdPageTimeout)
	resolver := scraper.NewContactResolver(fetcher)
	filter := scraper.NewAdmissionFilter(apartments, images, blocked)
	imageStore := storage.NewImageStore(cfg.ImageDir, cfg.MaxImagesPerAd)

	pipeline := scraper.NewPipeline(fetcher, resolver, filter, assist, imageStore,
		apartments, images, urls,
		scraper.PipelineConfig{TranslateLanguage: cfg.TranslateLanguage})
	discoverer := scraper.NewDiscoverer(urls, scraper.DiscoveryConfig{
		MaxPages:    cfg.MaxPages,
		PageTimeout: cfg.ListingPageTimeout,
	})

	ingestService := service.NewIngestService(pipeline, discoverer, scraper.NewRunRegistry(), urls, cfg.FilterURL)

	inserted, err := discoverer.Discover(ctx, cfg.FilterURL)
	if err != nil {
		log.Fatalf("URL discovery failed: %v", err)
	}
	log.Printf("Discovered %d new listing URLs", inserted)

	admitted, err := ingestService.ProcessPending(ctx)
	if err != nil {
		log.Fatalf("Ingestion failed: %v", err)
	}
	log.Printf("Admitted %d apartments", admitted)
}
