package controlplane

import (
	"net/http"

	"github.com/oriys/probe/internal/perr"
)

// handleGetConfig implements GET /config/<key>.
func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" || h.Ext == nil {
		writeText(w, http.StatusNotFound, "unknown option")
		return
	}
	value, err := h.Ext.Get(key)
	if err != nil {
		writeText(w, statusForError(err), err.Error())
		return
	}
	writeText(w, http.StatusOK, value)
}

// handleExtensionCall implements GET /<ext>/<subpath>, delegated to the
// named extension's Caller implementation.
func (h *Handler) handleExtensionCall(w http.ResponseWriter, r *http.Request) {
	ext := r.PathValue("ext")
	subpath := r.PathValue("subpath")
	if h.Ext == nil {
		writeText(w, http.StatusNotFound, "no extension registry configured")
		return
	}

	extension, ok := h.Ext.Extension(ext)
	if !ok {
		writeText(w, http.StatusNotFound, "unknown extension: "+ext)
		return
	}
	caller, ok := extension.(interface {
		Call(path string, params map[string]string, body []byte) ([]byte, error)
	})
	if !ok {
		writeText(w, http.StatusNotFound, "extension has no callable API: "+ext)
		return
	}

	params := make(map[string]string, len(r.URL.Query()))
	for k := range r.URL.Query() {
		params[k] = r.URL.Query().Get(k)
	}

	result, err := caller.Call("/"+subpath, params, nil)
	if err != nil {
		writeText(w, statusForError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result)
}

// statusForError maps a typed perr.Error to an HTTP status per §7; any
// other error is a 500 with a short diagnostic.
func statusForError(err error) int {
	perrErr, ok := err.(*perr.Error)
	if !ok {
		return http.StatusInternalServerError
	}
	switch perrErr.Code {
	case perr.CodeInvalidRequest, perr.CodeInvalidOptionValue, perr.CodeTypeMismatch:
		return http.StatusBadRequest
	case perr.CodeUnsupportedOption:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
