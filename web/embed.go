// Package web embeds the panel's static assets and the public auth pages.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var files embed.FS

// Assets returns the tree served under /static.
func Assets() fs.FS {
	return mustSub("static")
}

// AuthPages returns sign-in.html, forgot-password.html and reset-password.html.
func AuthPages() fs.FS {
	return mustSub("static/auth")
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
