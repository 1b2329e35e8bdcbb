package registry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPartyNotFound indicates no party is registered under the given key or name.
var ErrPartyNotFound = errors.New("party not found")

// Repository persists registered parties.
type Repository interface {
	Create(ctx context.Context, party Party) error
	FindByKey(ctx context.Context, key string) (Party, error)
	FindByName(ctx context.Context, name string) (Party, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed party repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new party.
func (r *PostgresRepository) Create(ctx context.Context, party Party) error {
	partyID, err := uuid.Parse(party.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO parties (id, name, key, secret_hash, created_at)
        VALUES ($1, $2, $3, $4, $5)`, partyID, party.Name, party.Key, party.SecretHash, party.CreatedAt.UTC())
	return err
}

// FindByKey fetches a party by owning key.
func (r *PostgresRepository) FindByKey(ctx context.Context, key string) (Party, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, key, secret_hash, created_at FROM parties WHERE key = $1`, key)
	return scanParty(row)
}

// FindByName fetches a party by display name.
func (r *PostgresRepository) FindByName(ctx context.Context, name string) (Party, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, key, secret_hash, created_at FROM parties WHERE name = $1`, name)
	return scanParty(row)
}

func scanParty(row pgx.Row) (Party, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		party     Party
	)
	if err := row.Scan(&id, &party.Name, &party.Key, &party.SecretHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Party{}, ErrPartyNotFound
		}
		return Party{}, err
	}
	party.ID = id.String()
	party.CreatedAt = createdAt.UTC()
	return party, nil
}
