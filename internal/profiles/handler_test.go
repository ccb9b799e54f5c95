package profiles_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yonetim/adminpanel/internal/profiles"
	"github.com/yonetim/adminpanel/internal/shared"
	_ "github.com/yonetim/adminpanel/testing"
)

const (
	selfID  = "11111111-1111-1111-1111-111111111111"
	otherID = "22222222-2222-2222-2222-222222222222"
)

type stubRepo struct {
	profiles map[string]profiles.Profile
	updated  map[string]shared.Role
	deleted  []string
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		profiles: map[string]profiles.Profile{
			selfID:  {ID: selfID, Email: "root@example.org", Role: shared.RoleSuperadmin, CreatedAt: time.Now()},
			otherID: {ID: otherID, Email: "editor@example.org", Role: shared.RoleUser, CreatedAt: time.Now()},
		},
		updated: map[string]shared.Role{},
	}
}

func (s *stubRepo) RoleOf(_ context.Context, id string) (shared.Role, error) {
	return s.profiles[id].Role, nil
}

func (s *stubRepo) ListProfiles(context.Context) ([]profiles.Profile, error) {
	return []profiles.Profile{s.profiles[otherID], s.profiles[selfID]}, nil
}

func (s *stubRepo) UpdateRole(_ context.Context, id string, role shared.Role) error {
	if _, ok := s.profiles[id]; !ok {
		return shared.ErrNotFound
	}
	s.updated[id] = role
	return nil
}

func (s *stubRepo) DeleteProfile(_ context.Context, id string) error {
	if _, ok := s.profiles[id]; !ok {
		return shared.ErrNotFound
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubRepo) CountByRole(context.Context) (map[shared.Role]int, error) {
	return map[shared.Role]int{shared.RoleUser: 1, shared.RoleSuperadmin: 1}, nil
}

type recordingAuditor struct {
	events []shared.AuditEvent
}

func (a *recordingAuditor) Record(_ context.Context, event shared.AuditEvent) {
	a.events = append(a.events, event)
}

func newRouter(t *testing.T, repo *stubRepo, auditor shared.Auditor) http.Handler {
	t.Helper()
	handler := profiles.NewHandler(nil, profiles.NewService(repo), auditor)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := &shared.Session{Identity: &shared.Identity{ID: selfID, Email: "root@example.org"}}
			next.ServeHTTP(w, req.WithContext(shared.ContextWithPrincipal(req.Context(), sess, shared.RoleSuperadmin)))
		})
	})
	r.Route("/users", handler.MountRoutes)
	r.Get("/api/me", handler.Me)
	return r
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestListProfiles(t *testing.T) {
	rr := serve(newRouter(t, newStubRepo(), nil), http.MethodGet, "/users/", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		OK    bool               `json:"ok"`
		Users []profiles.Profile `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Len(t, body.Users, 2)
}

func TestChangeRoleRecordsAudit(t *testing.T) {
	repo := newStubRepo()
	auditor := &recordingAuditor{}
	rr := serve(newRouter(t, repo, auditor), http.MethodPatch, "/users/"+otherID+"/role", `{"role":"admin"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, shared.RoleAdmin, repo.updated[otherID])
	require.Len(t, auditor.events, 1)
	assert.Equal(t, "role_changed", auditor.events[0].Action)
	assert.Equal(t, otherID, auditor.events[0].EntityID)
}

func TestChangeRoleRejectsSuperadmin(t *testing.T) {
	repo := newStubRepo()
	rr := serve(newRouter(t, repo, nil), http.MethodPatch, "/users/"+otherID+"/role", `{"role":"superadmin"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, repo.updated)
}

func TestChangeRoleInvalidID(t *testing.T) {
	rr := serve(newRouter(t, newStubRepo(), nil), http.MethodPatch, "/users/not-a-uuid/role", `{"role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestChangeRoleUnknownProfile(t *testing.T) {
	rr := serve(newRouter(t, newStubRepo(), nil), http.MethodPatch, "/users/33333333-3333-3333-3333-333333333333/role", `{"role":"user"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteProfileRejectsSelf(t *testing.T) {
	repo := newStubRepo()
	auditor := &recordingAuditor{}
	rr := serve(newRouter(t, repo, auditor), http.MethodDelete, "/users/"+selfID, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, repo.deleted)
	assert.Empty(t, auditor.events)
}

func TestDeleteProfile(t *testing.T) {
	repo := newStubRepo()
	auditor := &recordingAuditor{}
	rr := serve(newRouter(t, repo, auditor), http.MethodDelete, "/users/"+otherID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{otherID}, repo.deleted)
	require.Len(t, auditor.events, 1)
	assert.Equal(t, "profile_deleted", auditor.events[0].Action)
}

func TestMeIncludesCapabilitiesAndNav(t *testing.T) {
	rr := serve(newRouter(t, newStubRepo(), nil), http.MethodGet, "/api/me", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Me profiles.Me `json:"me"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, shared.RoleSuperadmin, body.Me.Role)
	assert.True(t, body.Me.Capabilities.CanManageUsers)
	urls := make([]string, 0, len(body.Me.Nav))
	for _, item := range body.Me.Nav {
		urls = append(urls, item.URL)
	}
	assert.Contains(t, urls, "/users")
	assert.Contains(t, urls, "/system")
}

func TestDescribeAdminHidesSuperadminNav(t *testing.T) {
	me := profiles.Describe(&shared.Identity{ID: selfID}, shared.RoleAdmin)
	assert.False(t, me.Capabilities.CanManageUsers)
	assert.True(t, me.Capabilities.CanViewLogs)
	for _, item := range me.Nav {
		assert.NotEqual(t, "/users", item.URL)
		assert.NotEqual(t, "/system", item.URL)
	}
}

type countingRoles struct {
	stubRepo
	roles []shared.Role
	calls int
}

func (c *countingRoles) RoleOf(context.Context, string) (shared.Role, error) {
	role := c.roles[c.calls]
	c.calls++
	return role, nil
}

func TestRoleOfReadsStoreEveryTime(t *testing.T) {
	repo := &countingRoles{roles: []shared.Role{shared.RoleAdmin, shared.RoleUser}}
	svc := profiles.NewService(repo)

	first, err := svc.RoleOf(context.Background(), otherID)
	require.NoError(t, err)
	second, err := svc.RoleOf(context.Background(), otherID)
	require.NoError(t, err)

	assert.Equal(t, shared.RoleAdmin, first)
	assert.Equal(t, shared.RoleUser, second, "a downgrade must be visible on the next request")
	assert.Equal(t, 2, repo.calls)
}

func TestRoleOfMissingProfileIsNone(t *testing.T) {
	role, err := profiles.NewService(newStubRepo()).RoleOf(context.Background(), "33333333-3333-3333-3333-333333333333")
	require.NoError(t, err)
	assert.Equal(t, shared.RoleNone, role)
	assert.False(t, role.IsAdminTier())
}
