package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ImageRepository defines the store operations on listing images
type ImageRepository interface {
	Save(ctx context.Context, image *ApartmentImage) error
	ExistsByOriginalURL(ctx context.Context, originalURL string) (bool, error)
}

// PostgresImageRepository implements ImageRepository on pgx
type PostgresImageRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresImageRepository(pool *pgxpool.Pool) *PostgresImageRepository {
	return &PostgresImageRepository{pool: pool}
}

func (r *PostgresImageRepository) Save(ctx context.Context, image *ApartmentImage) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO apartment_images (apartment_id, original_url, local_path, telegram_file_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		image.ApartmentID, image.OriginalURL, image.LocalPath, image.TelegramFileID,
	).Scan(&image.ID, &image.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert apartment image: %w", err)
	}
	return nil
}

// ExistsByOriginalURL reports whether the source URL has been ingested
// before; identical image sets mean the identical ad.
func (r *PostgresImageRepository) ExistsByOriginalURL(ctx context.Context, originalURL string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM apartment_images WHERE original_url = $1)`,
		originalURL,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check image url: %w", err)
	}
	return exists, nil
}
