package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS apartments (
	id             BIGSERIAL PRIMARY KEY,
	owner_name     VARCHAR(100),
	title          VARCHAR(200) NOT NULL,
	description    TEXT NOT NULL,
	price          INTEGER NOT NULL,
	floor          INTEGER NOT NULL,
	total_storeys  INTEGER NOT NULL,
	area           DECIMAL(10,2) NOT NULL,
	rooms          INTEGER NOT NULL,
	is_furnished   BOOLEAN NOT NULL,
	district       VARCHAR(100) NOT NULL,
	phone_number   VARCHAR(50),
	building_type  VARCHAR(50),
	repair         VARCHAR(50),
	map_link       VARCHAR(500),
	latitude       DECIMAL(9,6),
	longitude      DECIMAL(9,6),
	status         VARCHAR(50) NOT NULL DEFAULT 'new',
	created_at     TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS apartment_images (
	id               BIGSERIAL PRIMARY KEY,
	apartment_id     BIGINT NOT NULL REFERENCES apartments(id) ON DELETE CASCADE,
	original_url     VARCHAR(500) UNIQUE,
	local_path       VARCHAR(500) NOT NULL,
	telegram_file_id VARCHAR(200),
	created_at       TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS apartmenturls (
	id           BIGSERIAL PRIMARY KEY,
	url          VARCHAR(500) NOT NULL UNIQUE,
	status       VARCHAR(50) NOT NULL DEFAULT 'new',
	apartment_id BIGINT REFERENCES apartments(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS agentphonenumbers (
	id           BIGSERIAL PRIMARY KEY,
	agent_name   VARCHAR(100),
	phone_number VARCHAR(50) NOT NULL UNIQUE
);

CREATE INDEX IF NOT EXISTS idx_apartments_phone ON apartments(phone_number);
CREATE INDEX IF NOT EXISTS idx_apartments_district ON apartments(district);
CREATE INDEX IF NOT EXISTS idx_apartmenturls_status ON apartmenturls(status);
`

// NewPool connects to Postgres and verifies the connection
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// InitSchema creates the tables and indexes if they do not exist yet
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
