package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apthunt/apartment-crawler/internal/logger"
)

// ErrTooManyImages is returned once a listing has reached its image limit
var ErrTooManyImages = errors.New("image limit reached for apartment")

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ImageStore downloads listing images into a per-apartment directory and
// returns paths relative to the base directory ("<id>/<token>.<ext>").
type ImageStore struct {
	baseDir         string
	maxPerApartment int
	client          *http.Client
	logger          *logger.Logger
}

func NewImageStore(baseDir string, maxPerApartment int) *ImageStore {
	return &ImageStore{
		baseDir:         baseDir,
		maxPerApartment: maxPerApartment,
		client:          &http.Client{Timeout: 10 * time.Second},
		logger:          logger.NewLogger("image_store"),
	}
}

// Save downloads one image for the apartment. The caller owns the policy
// of skipping failed images; this only reports them.
func (s *ImageStore) Save(ctx context.Context, apartmentID int64, imageURL string) (string, error) {
	dir := filepath.Join(s.baseDir, strconv.FormatInt(apartmentID, 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read image directory %s: %w", dir, err)
	}
	if s.maxPerApartment > 0 && len(entries) >= s.maxPerApartment {
		return "", ErrTooManyImages
	}

	filename := uuid.NewString() + extensionFor(imageURL)
	fullPath := filepath.Join(dir, filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create image request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image %s: %w", imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for image %s", resp.StatusCode, imageURL)
	}

	out, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	rel := fmt.Sprintf("%d/%s", apartmentID, filename)
	s.logger.WithFields(map[string]interface{}{
		"apartment_id": apartmentID,
		"path":         rel,
	}).Debug("Image stored")
	return rel, nil
}

// extensionFor normalizes the source URL's extension to a known image
// extension, defaulting to .jpg when undeterminable.
func extensionFor(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return ".jpg"
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if !allowedExtensions[ext] {
		return ".jpg"
	}
	return ext
}
