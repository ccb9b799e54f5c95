package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yonetim/adminpanel/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RoleOf returns the stored role of a user, or RoleNone when no profile exists.
func (r *Repository) RoleOf(ctx context.Context, userID string) (shared.Role, error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT role FROM profiles WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.RoleNone, nil
		}
		return shared.RoleNone, fmt.Errorf("profiles: role of: %w", err)
	}
	return shared.ParseRole(role), nil
}

// ListProfiles returns all profiles, newest first.
func (r *Repository) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text, coalesce(email, ''), role, created_at FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var profiles []Profile
	for rows.Next() {
		var (
			p    Profile
			role string
		)
		if err := rows.Scan(&p.ID, &p.Email, &role, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Role = shared.ParseRole(role)
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// UpdateRole stores a new role for the profile.
func (r *Repository) UpdateRole(ctx context.Context, id string, role shared.Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE profiles SET role = $2 WHERE id = $1`, id, role.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteProfile removes the profile row. The auth user itself is untouched.
func (r *Repository) DeleteProfile(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountByRole returns the number of profiles per role.
func (r *Repository) CountByRole(ctx context.Context) (map[shared.Role]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT role, count(*) FROM profiles GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[shared.Role]int{}
	for rows.Next() {
		var (
			role  string
			count int
		)
		if err := rows.Scan(&role, &count); err != nil {
			return nil, err
		}
		out[shared.ParseRole(role)] += count
	}
	return out, rows.Err()
}
