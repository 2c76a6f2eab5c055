// Package web serves the registration and search pages bundled into the
// binary.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// Static is the asset tree rooted at static/.
var Static = mustSub(staticFS, "static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// Register mounts the static pages and redirects "/" to the
// registration form.
func Register(mux *http.ServeMux) {
	mux.Handle("GET /{$}", http.RedirectHandler("/register.html", http.StatusFound))
	mux.Handle("GET /", http.FileServerFS(Static))
}
