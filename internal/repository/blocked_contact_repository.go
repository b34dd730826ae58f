package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BlockedContactRepository defines the store operations on the agent list
type BlockedContactRepository interface {
	IsBlocked(ctx context.Context, phone string) (bool, error)
	Block(ctx context.Context, phone string, agentName *string) error
	FindAll(ctx context.Context) ([]BlockedContact, error)
}

// PostgresBlockedContactRepository implements BlockedContactRepository on pgx
type PostgresBlockedContactRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresBlockedContactRepository(pool *pgxpool.Pool) *PostgresBlockedContactRepository {
	return &PostgresBlockedContactRepository{pool: pool}
}

func (r *PostgresBlockedContactRepository) IsBlocked(ctx context.Context, phone string) (bool, error) {
	var blocked bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM agentphonenumbers WHERE phone_number = $1)`, phone,
	).Scan(&blocked)
	if err != nil {
		return false, fmt.Errorf("failed to check blocked contact: %w", err)
	}
	return blocked, nil
}

// Block records the contact as an agent number. Blocking an already
// blocked number is a no-op.
func (r *PostgresBlockedContactRepository) Block(ctx context.Context, phone string, agentName *string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO agentphonenumbers (phone_number, agent_name) VALUES ($1, $2)
		ON CONFLICT (phone_number) DO NOTHING`,
		phone, agentName)
	if err != nil {
		return fmt.Errorf("failed to block contact: %w", err)
	}
	return nil
}

func (r *PostgresBlockedContactRepository) FindAll(ctx context.Context) ([]BlockedContact, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, agent_name, phone_number FROM agentphonenumbers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to find blocked contacts: %w", err)
	}
	defer rows.Close()

	var contacts []BlockedContact
	for rows.Next() {
		var c BlockedContact
		if err := rows.Scan(&c.ID, &c.AgentName, &c.PhoneNumber); err != nil {
			return nil, fmt.Errorf("failed to scan blocked contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blocked contacts: %w", err)
	}
	return contacts, nil
}
