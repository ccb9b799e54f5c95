package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/yonetim/adminpanel/internal/shared"
)

const (
	// RecentLimit is the size of the newest-entries listing.
	RecentLimit = 100
	// PageSize is the activity log page size.
	PageSize = 50
	// LoginHistoryLimit bounds the caller's own sign-in history.
	LoginHistoryLimit = 10
	// ExportLimit caps a CSV export.
	ExportLimit = 5000
)

// Repository is the persistence contract the service needs.
type Repository interface {
	Insert(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	List(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, int, error)
	LoginHistory(ctx context.Context, actorID string, limit int) ([]Entry, error)
}

// Service coordinates reading and synchronous writing of audit entries.
type Service struct {
	repo Repository
}

// NewService constructs an audit service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Append writes an entry synchronously and reports storage failures.
func (s *Service) Append(ctx context.Context, e Entry) error {
	if s.repo == nil {
		return fmt.Errorf("audit: repository not configured")
	}
	if strings.TrimSpace(e.Action) == "" {
		return fmt.Errorf("audit: missing action")
	}
	return s.repo.Insert(ctx, e)
}

// Recent returns the RecentLimit newest entries.
func (s *Service) Recent(ctx context.Context) ([]Entry, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	return s.repo.Recent(ctx, RecentLimit)
}

// Timeline returns one page of the filtered activity log.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 || pageSize > PageSize {
		pageSize = PageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	paging := shared.NewPagination(page, pageSize, 0)
	entries, total, err := s.repo.List(ctx, filters, pageSize, paging.Offset())
	if err != nil {
		return Result{}, err
	}
	return Result{Entries: entries, Pagination: shared.NewPagination(page, pageSize, total)}, nil
}

// Export returns every filtered entry up to ExportLimit.
func (s *Service) Export(ctx context.Context, filters TimelineFilters) ([]Entry, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	entries, _, err := s.repo.List(ctx, filters, ExportLimit, 0)
	return entries, err
}

// LoginHistory returns the actor's newest sign-ins and sign-outs.
func (s *Service) LoginHistory(ctx context.Context, actorID string) ([]Entry, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	return s.repo.LoginHistory(ctx, actorID, LoginHistoryLimit)
}
