// Package web embeds the page templates and static assets so the app ships
// as a single binary.
package web

import (
	"embed"
	"io/fs"
	"log"
)

//go:embed static templates
var assets embed.FS

// StaticFS returns the stylesheet and other static assets, rooted so they
// can be served directly under /static/.
func StaticFS() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		log.Fatalf("embedded static assets missing: %v", err)
	}
	return sub
}

// TemplatesFS returns the page templates, rooted for template parsing.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(assets, "templates")
	if err != nil {
		log.Fatalf("embedded templates missing: %v", err)
	}
	return sub
}
