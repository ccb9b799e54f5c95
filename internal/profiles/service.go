package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/yonetim/adminpanel/internal/shared"
)

// ErrSelfDelete is returned when a caller tries to delete their own profile.
var ErrSelfDelete = errors.New("cannot delete own profile")

// ErrRoleNotAssignable is returned for roles the panel cannot grant.
var ErrRoleNotAssignable = errors.New("role cannot be assigned")

// RepositoryPort defines data access methods for profiles.
type RepositoryPort interface {
	RoleOf(ctx context.Context, userID string) (shared.Role, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
	UpdateRole(ctx context.Context, id string, role shared.Role) error
	DeleteProfile(ctx context.Context, id string) error
	CountByRole(ctx context.Context) (map[shared.Role]int, error)
}

// Service handles profile business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// RoleOf returns the role of a user. It satisfies the gate's role lookup.
func (s *Service) RoleOf(ctx context.Context, userID string) (shared.Role, error) {
	return s.repo.RoleOf(ctx, userID)
}

// ListProfiles returns all profiles.
func (s *Service) ListProfiles(ctx context.Context) ([]Profile, error) {
	return s.repo.ListProfiles(ctx)
}

// CountByRole returns profile counts keyed by role.
func (s *Service) CountByRole(ctx context.Context) (map[shared.Role]int, error) {
	return s.repo.CountByRole(ctx)
}

// ChangeRole assigns user or admin to a profile. Superadmin is provisioned out of band.
func (s *Service) ChangeRole(ctx context.Context, id string, role shared.Role) error {
	if role != shared.RoleUser && role != shared.RoleAdmin {
		return fmt.Errorf("%w: %q", ErrRoleNotAssignable, role)
	}
	return s.repo.UpdateRole(ctx, id, role)
}

// DeleteProfile removes a profile other than the caller's own.
func (s *Service) DeleteProfile(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return ErrSelfDelete
	}
	return s.repo.DeleteProfile(ctx, id)
}

// Describe builds the caller's view of themself.
func Describe(identity *shared.Identity, role shared.Role) Me {
	return Me{
		ID:           identity.ID,
		Email:        identity.Email,
		Role:         role,
		Capabilities: shared.CapabilitiesFor(role),
		Nav:          shared.NavigationFor(role),
	}
}
