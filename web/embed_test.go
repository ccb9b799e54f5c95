package web

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthPagesPresent(t *testing.T) {
	pages := AuthPages()
	for _, name := range []string{"sign-in.html", "forgot-password.html", "reset-password.html"} {
		data, err := fs.ReadFile(pages, name)
		require.NoError(t, err, name)
		assert.NotContains(t, strings.ToLower(string(data)), "<script>", "%s must not carry inline scripts", name)
	}
}

func TestAssetsServeAuthStylesheet(t *testing.T) {
	_, err := fs.Stat(Assets(), "auth/auth.css")
	assert.NoError(t, err)
}
