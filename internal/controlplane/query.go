package controlplane

import (
	"io"
	"net/http"

	"github.com/oriys/probe/internal/queryengine"
)

// handleQuery implements POST /query: a RON-encoded Message(Query(...))
// body, replied to with a RON-encoded Message(QueryDataFormat).
func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := queryengine.ParseQueryRequest(string(body))
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.Engine == nil {
		writeText(w, http.StatusInternalServerError, "engine not initialized")
		return
	}

	batch, err := h.Engine.AsyncQuery(r.Context(), req.Expr)
	reply := queryengine.EncodeQueryReplyRON(batch, err)

	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
	}
	writeText(w, status, reply)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
