package controlplane

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const defaultIndexHTML = `<!DOCTYPE html>
<html><head><title>probe</title></head>
<body><h1>probe control plane</h1></body></html>
`

// handleIndex implements "GET / and SPA paths": it serves AssetsRoot's
// index.html if configured, or a minimal built-in page otherwise, so the
// control plane is usable with no bundled frontend.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if h.AssetsRoot != "" {
		data, err := os.ReadFile(filepath.Join(h.AssetsRoot, "index.html"))
		if err == nil {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write(data)
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(defaultIndexHTML))
}

// handleStaticAsset implements "GET /<asset>": a single path segment
// served from AssetsRoot with MIME type inferred from the file extension.
func (h *Handler) handleStaticAsset(w http.ResponseWriter, r *http.Request) {
	asset := r.PathValue("asset")
	if h.AssetsRoot == "" || asset == "" || strings.Contains(asset, "..") {
		writeText(w, http.StatusNotFound, "not found")
		return
	}

	data, err := os.ReadFile(filepath.Join(h.AssetsRoot, asset))
	if err != nil {
		writeText(w, http.StatusNotFound, "not found")
		return
	}

	if ctype := mime.TypeByExtension(filepath.Ext(asset)); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	_, _ = w.Write(data)
}
