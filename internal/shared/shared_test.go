package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole(" Admin "))
	assert.Equal(t, RoleSuperadmin, ParseRole("superadmin"))
	assert.Equal(t, RoleUser, ParseRole("user"))
	assert.Equal(t, RoleNone, ParseRole("editor"))
	assert.Equal(t, RoleNone, ParseRole(""))
}

func TestRoleTiers(t *testing.T) {
	assert.False(t, RoleNone.IsAdminTier())
	assert.False(t, RoleUser.IsAdminTier())
	assert.True(t, RoleAdmin.IsAdminTier())
	assert.True(t, RoleSuperadmin.IsAdminTier())
	assert.False(t, RoleAdmin.IsSuperadmin())
	assert.True(t, RoleSuperadmin.IsSuperadmin())
}

func TestNavigationHidesSuperadminSections(t *testing.T) {
	adminNav := NavigationFor(RoleAdmin)
	for _, item := range adminNav {
		assert.NotEqual(t, "/users", item.URL)
		assert.NotEqual(t, "/system", item.URL)
	}

	superNav := NavigationFor(RoleSuperadmin)
	urls := make([]string, 0, len(superNav))
	for _, item := range superNav {
		urls = append(urls, item.URL)
	}
	assert.Contains(t, urls, "/users")
	assert.Contains(t, urls, "/system")

	assert.Empty(t, NavigationFor(RoleUser))
}

func TestCapabilitiesFor(t *testing.T) {
	assert.Equal(t, Capabilities{}, CapabilitiesFor(RoleUser))
	admin := CapabilitiesFor(RoleAdmin)
	assert.True(t, admin.CanDeleteContent)
	assert.False(t, admin.CanManageUsers)
	assert.True(t, CapabilitiesFor(RoleSuperadmin).CanManageUsers)
}

func TestSessionCookies(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, HasSessionCookies(req))

	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "a"})
	assert.False(t, HasSessionCookies(req))

	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "r"})
	assert.True(t, HasSessionCookies(req))
	access, refresh := SessionCookies(req)
	assert.Equal(t, "a", access)
	assert.Equal(t, "r", refresh)
}

func TestCookieWriterWriteAndClear(t *testing.T) {
	writer := NewCookieWriter(true)
	rr := httptest.NewRecorder()
	writer.Write(rr, Tokens{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: time.Hour})

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, AccessTokenCookie, cookies[0].Name)
	assert.Equal(t, "new-access", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, RefreshTokenCookie, cookies[1].Name)

	rr = httptest.NewRecorder()
	writer.Clear(rr)
	for _, c := range rr.Result().Cookies() {
		assert.Equal(t, "", c.Value)
		assert.Less(t, c.MaxAge, 0)
	}
}

func TestPagination(t *testing.T) {
	p := NewPagination(3, 50, 120)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 100, p.Offset())

	empty := NewPagination(0, 0, 0)
	assert.Equal(t, 1, empty.Page)
	assert.Equal(t, 1, empty.TotalPages)
	assert.Equal(t, 0, empty.Offset())
}
