// Package controlplane implements the agent's HTTP control surface: query
// execution, control signals, probe calls, a small REST API for process
// introspection, the extension/config registry, and static asset serving.
// It is served identically over a TCP listener and a Unix domain socket
// (see server.go), matching the dual-transport design of the teacher's
// internal/api package.
package controlplane

import (
	"net/http"
	"time"

	"github.com/oriys/probe/internal/extconfig"
	"github.com/oriys/probe/internal/injector"
	"github.com/oriys/probe/internal/queryengine"
)

// Handler bundles every dependency the control-plane routes need. It has
// no behavior of its own beyond RegisterRoutes; each concern lives in its
// own file the way oriys-nova splits ai_handlers.go / node_handlers.go /
// etc. under internal/api/controlplane.
type Handler struct {
	Engine         *queryengine.Engine
	Ext            *extconfig.Manager
	Process        *injector.Process
	AssetsRoot     string
	AuthToken      string
	RequestTimeout time.Duration

	nodes *nodeRegistry
}

// NewHandler builds a Handler with its own node registry initialized.
func NewHandler() *Handler {
	return &Handler{
		RequestTimeout: 30 * time.Second,
		nodes:          newNodeRegistry(),
	}
}

// RegisterRoutes wires every route in spec §6.1 onto mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /query", h.handleQuery)
	mux.HandleFunc("POST /ctrl", h.handleCtrl)
	mux.HandleFunc("POST /probe", h.handleProbe)

	mux.HandleFunc("GET /apis/overview", h.handleOverview)
	mux.HandleFunc("GET /apis/callstack", h.handleCallstack)
	mux.HandleFunc("GET /apis/flamegraph", h.handleFlamegraph)
	mux.HandleFunc("GET /apis/files", h.handleFiles)
	mux.HandleFunc("GET /apis/nodes", h.handleListNodes)
	mux.HandleFunc("PUT /apis/nodes", h.handlePutNode)

	mux.HandleFunc("GET /config/{key}", h.handleGetConfig)
	mux.HandleFunc("GET /{ext}/{subpath...}", h.handleExtensionCall)

	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /{asset}", h.handleStaticAsset)
	mux.HandleFunc("GET /", h.handleIndex)
}
