package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yonetim/adminpanel/internal/platform/httpx"
)

const (
	// ListLimit caps list responses.
	ListLimit = 200
	// UpcomingLimit is the number of events shown on the dashboard.
	UpcomingLimit = 5
)

// RepositoryPort defines data access for content tables.
type RepositoryPort interface {
	List(ctx context.Context, kind Kind, query string, limit int) ([]Item, error)
	Get(ctx context.Context, kind Kind, id string) (Item, error)
	Insert(ctx context.Context, kind Kind, item Item) (Item, error)
	Update(ctx context.Context, kind Kind, item Item) (Item, error)
	SetPublished(ctx context.Context, kind Kind, id string, at *time.Time) error
	Delete(ctx context.Context, kind Kind, id string) error
	Count(ctx context.Context, kind Kind) (KindCount, error)
	UpcomingEvents(ctx context.Context, now time.Time, limit int) ([]Item, error)
}

// Service implements content editing rules.
type Service struct {
	repo      RepositoryPort
	sanitizer *Sanitizer
	now       func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, sanitizer *Sanitizer) *Service {
	if sanitizer == nil {
		sanitizer = NewSanitizer()
	}
	return &Service{repo: repo, sanitizer: sanitizer, now: time.Now}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List returns items of a kind.
func (s *Service) List(ctx context.Context, kind Kind, query string) ([]Item, error) {
	return s.repo.List(ctx, kind, query, ListLimit)
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, kind Kind, id string) (Item, error) {
	return s.repo.Get(ctx, kind, id)
}

// Create stores a new item, published immediately when in.Publish is set.
func (s *Service) Create(ctx context.Context, kind Kind, actorID string, in Input) (Item, error) {
	item, err := s.itemFrom(in)
	if err != nil {
		return Item{}, err
	}
	item.CreatedBy = actorID
	if in.Publish {
		now := s.now().UTC()
		item.PublishedAt = &now
	}
	saved, err := s.repo.Insert(ctx, kind, item)
	if errors.Is(err, httpx.ErrDuplicate) && strings.TrimSpace(in.Slug) == "" {
		// Generated slugs collide on repeated titles; disambiguate once.
		item.Slug = item.Slug + "-" + uuid.NewString()[:8]
		saved, err = s.repo.Insert(ctx, kind, item)
	}
	return saved, err
}

// Update overwrites the editable fields of an item.
func (s *Service) Update(ctx context.Context, kind Kind, id string, in Input) (Item, error) {
	item, err := s.itemFrom(in)
	if err != nil {
		return Item{}, err
	}
	item.ID = id
	return s.repo.Update(ctx, kind, item)
}

// Publish makes an item visible.
func (s *Service) Publish(ctx context.Context, kind Kind, id string) error {
	now := s.now().UTC()
	return s.repo.SetPublished(ctx, kind, id, &now)
}

// Unpublish hides an item again.
func (s *Service) Unpublish(ctx context.Context, kind Kind, id string) error {
	return s.repo.SetPublished(ctx, kind, id, nil)
}

// Delete removes an item.
func (s *Service) Delete(ctx context.Context, kind Kind, id string) error {
	return s.repo.Delete(ctx, kind, id)
}

// Summary gathers per-kind counts and upcoming events concurrently.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	counts := make([]KindCount, len(Kinds))
	var upcoming []Item

	g, ctx := errgroup.WithContext(ctx)
	for i, kind := range Kinds {
		g.Go(func() error {
			c, err := s.repo.Count(ctx, kind)
			if err != nil {
				return err
			}
			counts[i] = c
			return nil
		})
	}
	g.Go(func() error {
		events, err := s.repo.UpcomingEvents(ctx, s.now().UTC(), UpcomingLimit)
		if err != nil {
			return err
		}
		upcoming = events
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	if upcoming == nil {
		upcoming = []Item{}
	}
	return Summary{Counts: counts, UpcomingEvents: upcoming}, nil
}

func (s *Service) itemFrom(in Input) (Item, error) {
	in.Normalize()
	if in.Title == "" {
		return Item{}, fmt.Errorf("content: title: %w", httpx.ErrValidation)
	}
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(in.Title)
	}
	return Item{
		Title:     in.Title,
		Summary:   in.Summary,
		Body:      s.sanitizer.Sanitize(in.Body),
		ImageURL:  in.ImageURL,
		Slug:      slug,
		Location:  in.Location,
		EventDate: in.EventDate,
	}, nil
}
