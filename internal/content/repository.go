package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yonetim/adminpanel/internal/platform/httpx"
	"github.com/yonetim/adminpanel/internal/shared"
)

const uniqueViolation = "23505"

const itemColumns = `id::text, title, coalesce(summary, ''), coalesce(body, ''), coalesce(image_url, ''),
	coalesce(slug, ''), coalesce(location, ''), event_date, published_at, coalesce(created_by::text, ''),
	created_at, updated_at`

// Repository provides PostgreSQL backed persistence for every content table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns items newest first, optionally filtered by a title substring.
func (r *Repository) List(ctx context.Context, kind Kind, query string, limit int) ([]Item, error) {
	sql := fmt.Sprintf(`SELECT %s FROM %s
		WHERE ($1 = '' OR title ILIKE '%%' || $1 || '%%')
		ORDER BY created_at DESC
		LIMIT $2`, itemColumns, kind.Table())
	rows, err := r.pool.Query(ctx, sql, escapeLike(strings.TrimSpace(query)), limit)
	if err != nil {
		return nil, fmt.Errorf("content: list %s: %w", kind, err)
	}
	return collectItems(kind, rows)
}

// Get returns a single item.
func (r *Repository) Get(ctx context.Context, kind Kind, id string) (Item, error) {
	sql := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, itemColumns, kind.Table())
	item, err := scanItem(kind, r.pool.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.ErrNotFound
		}
		return Item{}, fmt.Errorf("content: get %s: %w", kind, err)
	}
	return item, nil
}

// Insert stores a new item and returns it as persisted.
func (r *Repository) Insert(ctx context.Context, kind Kind, item Item) (Item, error) {
	sql := fmt.Sprintf(`INSERT INTO %s
		(title, summary, body, image_url, slug, location, event_date, published_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::uuid)
		RETURNING %s`, kind.Table(), itemColumns)
	row := r.pool.QueryRow(ctx, sql,
		item.Title, optionalText(item.Summary), optionalText(item.Body), optionalText(item.ImageURL),
		optionalText(item.Slug), optionalText(item.Location), item.EventDate, item.PublishedAt,
		optionalText(item.CreatedBy))
	saved, err := scanItem(kind, row)
	if err != nil {
		return Item{}, mapWriteError(kind, "insert", err)
	}
	return saved, nil
}

// Update overwrites the editable fields of an item. Publication state is left untouched.
func (r *Repository) Update(ctx context.Context, kind Kind, item Item) (Item, error) {
	sql := fmt.Sprintf(`UPDATE %s SET
		title = $2, summary = $3, body = $4, image_url = $5, slug = $6, location = $7,
		event_date = $8, updated_at = now()
		WHERE id = $1
		RETURNING %s`, kind.Table(), itemColumns)
	row := r.pool.QueryRow(ctx, sql, item.ID,
		item.Title, optionalText(item.Summary), optionalText(item.Body), optionalText(item.ImageURL),
		optionalText(item.Slug), optionalText(item.Location), item.EventDate)
	saved, err := scanItem(kind, row)
	if err != nil {
		return Item{}, mapWriteError(kind, "update", err)
	}
	return saved, nil
}

// SetPublished stamps or clears published_at.
func (r *Repository) SetPublished(ctx context.Context, kind Kind, id string, at *time.Time) error {
	sql := fmt.Sprintf(`UPDATE %s SET published_at = $2, updated_at = now() WHERE id = $1`, kind.Table())
	tag, err := r.pool.Exec(ctx, sql, id, at)
	if err != nil {
		return fmt.Errorf("content: publish %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an item.
func (r *Repository) Delete(ctx context.Context, kind Kind, id string) error {
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, kind.Table()), id)
	if err != nil {
		return fmt.Errorf("content: delete %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count returns the published/draft split of a collection.
func (r *Repository) Count(ctx context.Context, kind Kind) (KindCount, error) {
	out := KindCount{Kind: kind}
	sql := fmt.Sprintf(`SELECT
		count(*) FILTER (WHERE published_at IS NOT NULL),
		count(*) FILTER (WHERE published_at IS NULL)
		FROM %s`, kind.Table())
	if err := r.pool.QueryRow(ctx, sql).Scan(&out.Published, &out.Draft); err != nil {
		return KindCount{}, fmt.Errorf("content: count %s: %w", kind, err)
	}
	return out, nil
}

// UpcomingEvents returns events dated at or after now, soonest first.
func (r *Repository) UpcomingEvents(ctx context.Context, now time.Time, limit int) ([]Item, error) {
	sql := fmt.Sprintf(`SELECT %s FROM %s
		WHERE event_date >= $1
		ORDER BY event_date ASC
		LIMIT $2`, itemColumns, KindEvents.Table())
	rows, err := r.pool.Query(ctx, sql, now, limit)
	if err != nil {
		return nil, fmt.Errorf("content: upcoming events: %w", err)
	}
	return collectItems(KindEvents, rows)
}

func collectItems(kind Kind, rows pgx.Rows) ([]Item, error) {
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		item, err := scanItem(kind, rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanItem(kind Kind, row pgx.Row) (Item, error) {
	item := Item{Kind: kind}
	err := row.Scan(&item.ID, &item.Title, &item.Summary, &item.Body, &item.ImageURL,
		&item.Slug, &item.Location, &item.EventDate, &item.PublishedAt, &item.CreatedBy,
		&item.CreatedAt, &item.UpdatedAt)
	return item, err
}

func mapWriteError(kind Kind, op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("content: %s %s slug: %w", op, kind, httpx.ErrDuplicate)
	}
	return fmt.Errorf("content: %s %s: %w", op, kind, err)
}

func escapeLike(v string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(v)
}

func optionalText(value string) pgtype.Text {
	if value == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: value, Valid: true}
}
