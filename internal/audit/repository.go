package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `id::text, created_at, coalesce(actor_id::text, ''), coalesce(actor_email, ''), action,
	coalesce(entity_type, ''), coalesce(entity_id, ''), metadata, coalesce(ip, ''), coalesce(user_agent, '')`

// PGStore persists audit entries in PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a PostgreSQL store.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Insert appends an entry. Re-delivering an entry with the same ID is a no-op.
func (s *PGStore) Insert(ctx context.Context, e Entry) error {
	var metadata []byte
	if len(e.Metadata) > 0 {
		encoded, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("audit: encode metadata: %w", err)
		}
		metadata = encoded
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO audit_logs (id, created_at, actor_id, actor_email, action, entity_type, entity_id, metadata, ip, user_agent)
VALUES (coalesce($1::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO NOTHING`,
		optionalText(e.ID), createdAt, optionalText(e.ActorID), optionalText(e.ActorEmail), e.Action,
		optionalText(e.EntityType), optionalText(e.EntityID), metadata, optionalText(e.IP), optionalText(e.UserAgent),
	)
	return err
}

// Deliver implements Sink by inserting synchronously.
func (s *PGStore) Deliver(ctx context.Context, e Entry) error {
	return s.Insert(ctx, e)
}

// Recent returns the newest entries.
func (s *PGStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+entryColumns+` FROM audit_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

// List returns one filtered page together with the filtered total.
func (s *PGStore) List(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, int, error) {
	where, args := filterClause(filters)
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM audit_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM audit_logs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		entryColumns, where, len(args)-1, len(args))
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// LoginHistory returns the actor's newest login and logout entries.
func (s *PGStore) LoginHistory(ctx context.Context, actorID string, limit int) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+entryColumns+` FROM audit_logs
WHERE actor_id = $1 AND action IN ('login', 'logout')
ORDER BY created_at DESC LIMIT $2`, actorID, limit)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

func filterClause(filters TimelineFilters) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if v := strings.TrimSpace(filters.Action); v != "" {
		args = append(args, "%"+escapeLike(v)+"%")
		conds = append(conds, fmt.Sprintf("action ILIKE $%d", len(args)))
	}
	if v := strings.TrimSpace(filters.Actor); v != "" {
		args = append(args, "%"+escapeLike(v)+"%")
		conds = append(conds, fmt.Sprintf("actor_email ILIKE $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(v string) string {
	return likeEscaper.Replace(v)
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	entries := []Entry{}
	for rows.Next() {
		var (
			e        Entry
			metadata []byte
		)
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.ActorID, &e.ActorEmail, &e.Action,
			&e.EntityType, &e.EntityID, &metadata, &e.IP, &e.UserAgent); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("audit: decode metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func optionalText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}
