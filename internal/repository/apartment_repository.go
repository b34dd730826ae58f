package repository

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ApartmentRepository defines the store operations on admitted listings
type ApartmentRepository interface {
	Save(ctx context.Context, apartment *Apartment, urlID int64) error
	FindByID(ctx context.Context, id int64) (*Apartment, error)
	FindByPhone(ctx context.Context, phone string) (*Apartment, error)
	FindAll(ctx context.Context) ([]Apartment, error)
	FindWithFilters(ctx context.Context, filter ApartmentFilter, pagination PaginationParams) (*ApartmentSearchResult, error)
	Delete(ctx context.Context, id int64) error
}

// PostgresApartmentRepository implements ApartmentRepository on pgx
type PostgresApartmentRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresApartmentRepository(pool *pgxpool.Pool) *PostgresApartmentRepository {
	return &PostgresApartmentRepository{pool: pool}
}

const apartmentColumns = `id, owner_name, title, description, price, floor, total_storeys,
	area, rooms, is_furnished, district, phone_number, building_type, repair,
	map_link, latitude, longitude, status, created_at`

// Save inserts the apartment and links its origin URL (when urlID is
// non-zero) in one transaction, so a partially admitted listing can never
// be observed. Fills in the generated id and timestamp.
func (r *PostgresApartmentRepository) Save(ctx context.Context, apartment *Apartment, urlID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO apartments (
			owner_name, title, description, price, floor, total_storeys,
			area, rooms, is_furnished, district, phone_number, building_type,
			repair, map_link, latitude, longitude, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING id, created_at`,
		apartment.OwnerName, apartment.Title, apartment.Description, apartment.Price,
		apartment.Floor, apartment.TotalStoreys, apartment.Area, apartment.Rooms,
		apartment.IsFurnished, apartment.District, apartment.PhoneNumber,
		apartment.BuildingType, apartment.Repair, apartment.MapLink,
		apartment.Latitude, apartment.Longitude, apartment.Status,
	).Scan(&apartment.ID, &apartment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert apartment: %w", err)
	}

	if urlID != 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE apartmenturls SET apartment_id = $1 WHERE id = $2`,
			apartment.ID, urlID); err != nil {
			return fmt.Errorf("failed to link listing url: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit apartment: %w", err)
	}
	return nil
}

func scanApartment(row pgx.Row) (*Apartment, error) {
	var a Apartment
	err := row.Scan(
		&a.ID, &a.OwnerName, &a.Title, &a.Description, &a.Price, &a.Floor,
		&a.TotalStoreys, &a.Area, &a.Rooms, &a.IsFurnished, &a.District,
		&a.PhoneNumber, &a.BuildingType, &a.Repair, &a.MapLink,
		&a.Latitude, &a.Longitude, &a.Status, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PostgresApartmentRepository) FindByID(ctx context.Context, id int64) (*Apartment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+apartmentColumns+` FROM apartments WHERE id = $1`, id)
	apartment, err := scanApartment(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find apartment by id: %w", err)
	}
	return apartment, nil
}

// FindByPhone returns the first apartment carrying the contact, or nil.
func (r *PostgresApartmentRepository) FindByPhone(ctx context.Context, phone string) (*Apartment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+apartmentColumns+` FROM apartments WHERE phone_number = $1 LIMIT 1`, phone)
	apartment, err := scanApartment(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find apartment by phone: %w", err)
	}
	return apartment, nil
}

func (r *PostgresApartmentRepository) FindAll(ctx context.Context) ([]Apartment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+apartmentColumns+` FROM apartments ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to find apartments: %w", err)
	}
	defer rows.Close()

	return r.collectWithImages(ctx, rows)
}

// FindWithFilters searches with the operator-facing filters plus pagination.
func (r *PostgresApartmentRepository) FindWithFilters(ctx context.Context, filter ApartmentFilter, pagination PaginationParams) (*ApartmentSearchResult, error) {
	where := " WHERE 1=1"
	args := []interface{}{}

	if filter.District != "" {
		args = append(args, "%"+filter.District+"%")
		where += fmt.Sprintf(" AND district ILIKE $%d", len(args))
	}
	if filter.Rooms > 0 {
		args = append(args, filter.Rooms)
		where += fmt.Sprintf(" AND rooms = $%d", len(args))
	}
	if filter.PriceMin > 0 {
		args = append(args, filter.PriceMin)
		where += fmt.Sprintf(" AND price >= $%d", len(args))
	}
	if filter.PriceMax > 0 {
		args = append(args, filter.PriceMax)
		where += fmt.Sprintf(" AND price <= $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM apartments"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count apartments: %w", err)
	}

	if pagination.Page < 1 {
		pagination.Page = 1
	}
	if pagination.PageSize < 1 {
		pagination.PageSize = 10
	}
	args = append(args, pagination.PageSize, (pagination.Page-1)*pagination.PageSize)
	query := `SELECT ` + apartmentColumns + ` FROM apartments` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search apartments: %w", err)
	}
	defer rows.Close()

	apartments, err := r.collectWithImages(ctx, rows)
	if err != nil {
		return nil, err
	}

	return &ApartmentSearchResult{
		Apartments:  apartments,
		TotalItems:  total,
		TotalPages:  int(math.Ceil(float64(total) / float64(pagination.PageSize))),
		CurrentPage: pagination.Page,
		PageSize:    pagination.PageSize,
	}, nil
}

// Delete removes an apartment; its images follow via the FK cascade.
func (r *PostgresApartmentRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM apartments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete apartment: %w", err)
	}
	return nil
}

func (r *PostgresApartmentRepository) collectWithImages(ctx context.Context, rows pgx.Rows) ([]Apartment, error) {
	var apartments []Apartment
	for rows.Next() {
		apartment, err := scanApartment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan apartment: %w", err)
		}
		apartments = append(apartments, *apartment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate apartments: %w", err)
	}

	for i := range apartments {
		imgRows, err := r.pool.Query(ctx, `
			SELECT id, apartment_id, original_url, local_path, telegram_file_id, created_at
			FROM apartment_images WHERE apartment_id = $1 ORDER BY id`, apartments[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load apartment images: %w", err)
		}
		for imgRows.Next() {
			var img ApartmentImage
			if err := imgRows.Scan(&img.ID, &img.ApartmentID, &img.OriginalURL,
				&img.LocalPath, &img.TelegramFileID, &img.CreatedAt); err != nil {
				imgRows.Close()
				return nil, fmt.Errorf("failed to scan apartment image: %w", err)
			}
			apartments[i].Images = append(apartments[i].Images, img)
		}
		imgRows.Close()
		if err := imgRows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate apartment images: %w", err)
		}
	}
	return apartments, nil
}
