package handlers

import (
	"embed"
	"net/http"
)

//go:embed static/index.html
var staticFS embed.FS

// ServeUI handles GET / with the embedded single-page interface.
func ServeUI(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}
