package gate

import (
	"path"
	"strings"
)

// Class partitions request paths for the access gate.
type Class int

const (
	// ClassProtected requires an admin-tier session.
	ClassProtected Class = iota
	// ClassPublicAsset is served without any session check.
	ClassPublicAsset
	// ClassPublicAuth hosts the sign-in flow; signed-in callers are sent home.
	ClassPublicAuth
)

func (c Class) String() string {
	switch c {
	case ClassPublicAsset:
		return "asset"
	case ClassPublicAuth:
		return "auth"
	default:
		return "protected"
	}
}

// Classification is the derived, stateless view of a request path.
type Classification struct {
	Class          Class
	SuperadminOnly bool
}

var (
	assetPrefixes      = []string{"/static", "/favicon.ico", "/images", "/public", "/logo", "/healthz"}
	authPrefixes       = []string{"/auth/sign-in", "/auth/forgot-password", "/auth/reset-password"}
	superadminPrefixes = []string{"/users", "/system"}
)

// Classify maps a request path onto its class. Matching is segment-aware, so
// /usersettings is not under /users.
func Classify(p string) Classification {
	p = Normalize(p)
	switch {
	case matchesAny(p, assetPrefixes) || isLogoFile(p):
		return Classification{Class: ClassPublicAsset}
	case matchesAny(p, authPrefixes):
		return Classification{Class: ClassPublicAuth}
	default:
		return Classification{Class: ClassProtected, SuperadminOnly: matchesAny(p, superadminPrefixes)}
	}
}

// Normalize cleans p into a rooted path without a trailing slash.
func Normalize(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func matchesAny(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// isLogoFile accepts root-level logo files such as /logo.svg or /logo-dark.png.
func isLogoFile(p string) bool {
	name := strings.TrimPrefix(p, "/")
	if strings.Contains(name, "/") || !strings.HasPrefix(name, "logo") {
		return false
	}
	rest := name[len("logo"):]
	if rest == "" || (rest[0] != '.' && rest[0] != '-') {
		return false
	}
	return path.Ext(name) != ""
}
