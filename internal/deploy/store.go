package deploy

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists triggers in deploy_triggers.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a PostgreSQL trigger store.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// LatestTrigger returns the newest created_at, or the zero time when empty.
func (s *PGStore) LatestTrigger(ctx context.Context) (time.Time, error) {
	var createdAt time.Time
	err := s.pool.QueryRow(ctx, `SELECT created_at FROM deploy_triggers ORDER BY created_at DESC LIMIT 1`).Scan(&createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	return createdAt, err
}

// RecordTrigger appends a trigger row.
func (s *PGStore) RecordTrigger(ctx context.Context, t Trigger) error {
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO deploy_triggers (created_at, triggered_by, triggered_by_email) VALUES ($1, $2, $3)`,
		createdAt.UTC(),
		pgtype.Text{String: t.TriggeredBy, Valid: t.TriggeredBy != ""},
		pgtype.Text{String: t.TriggeredByEmail, Valid: t.TriggeredByEmail != ""},
	)
	return err
}
