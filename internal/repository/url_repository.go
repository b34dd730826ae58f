package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// URLRepository defines the store operations on discovered listing URLs
type URLRepository interface {
	Add(ctx context.Context, url string) (bool, error)
	GetOrCreate(ctx context.Context, url string) (*ApartmentURL, error)
	Exists(ctx context.Context, url string) (bool, error)
	SetStatus(ctx context.Context, id int64, status string) error
	FindByStatus(ctx context.Context, status string, limit int) ([]ApartmentURL, error)
}

// PostgresURLRepository implements URLRepository on pgx
type PostgresURLRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresURLRepository(pool *pgxpool.Pool) *PostgresURLRepository {
	return &PostgresURLRepository{pool: pool}
}

// Add inserts the URL with status "new" unless it is already known.
// Returns true when a new row was created.
func (r *PostgresURLRepository) Add(ctx context.Context, url string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO apartmenturls (url, status) VALUES ($1, $2)
		ON CONFLICT (url) DO NOTHING`,
		url, URLStatusNew)
	if err != nil {
		return false, fmt.Errorf("failed to insert url: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetOrCreate returns the existing row for the URL or creates a fresh one.
func (r *PostgresURLRepository) GetOrCreate(ctx context.Context, url string) (*ApartmentURL, error) {
	var u ApartmentURL
	err := r.pool.QueryRow(ctx, `
		INSERT INTO apartmenturls (url, status) VALUES ($1, $2)
		ON CONFLICT (url) DO UPDATE SET url = EXCLUDED.url
		RETURNING id, url, status, apartment_id`,
		url, URLStatusNew,
	).Scan(&u.ID, &u.URL, &u.Status, &u.ApartmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create url: %w", err)
	}
	return &u, nil
}

func (r *PostgresURLRepository) Exists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM apartmenturls WHERE url = $1)`, url,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check url: %w", err)
	}
	return exists, nil
}

func (r *PostgresURLRepository) SetStatus(ctx context.Context, id int64, status string) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE apartmenturls SET status = $1 WHERE id = $2`, status, id); err != nil {
		return fmt.Errorf("failed to set url status: %w", err)
	}
	return nil
}

func (r *PostgresURLRepository) FindByStatus(ctx context.Context, status string, limit int) ([]ApartmentURL, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, url, status, apartment_id FROM apartmenturls
		WHERE status = $1 ORDER BY id LIMIT $2`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find urls by status: %w", err)
	}
	defer rows.Close()

	var urls []ApartmentURL
	for rows.Next() {
		var u ApartmentURL
		if err := rows.Scan(&u.ID, &u.URL, &u.Status, &u.ApartmentID); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate urls: %w", err)
	}
	return urls, nil
}
