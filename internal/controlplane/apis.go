package controlplane

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/oriys/probe/internal/unwind"
)

// overview is the JSON shape of GET /apis/overview.
type overview struct {
	PID        int      `json:"pid"`
	Exe        string   `json:"exe"`
	Cmd        []string `json:"cmd"`
	Cwd        string   `json:"cwd"`
	Env        []string `json:"env"`
	MainThread int      `json:"main_thread"`
	Threads    []int    `json:"threads"`
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	pid := os.Getpid()
	if h.Process != nil {
		pid = h.Process.Pid()
	}

	exe, _ := os.Executable()
	cwd, _ := os.Getwd()

	var threads []int
	if h.Process != nil {
		if ids, err := h.Process.ThreadIDs(); err == nil {
			threads = ids
		}
	}

	ov := overview{
		PID:        pid,
		Exe:        exe,
		Cmd:        os.Args,
		Cwd:        cwd,
		Env:        os.Environ(),
		MainThread: pid,
		Threads:    threads,
	}
	writeJSON(w, http.StatusOK, ov)
}

// callFrameJSON is the wire shape of a unwind.CallFrame for /apis/callstack.
type callFrameJSON struct {
	Kind   string `json:"kind"` // "native" or "managed"
	Func   string `json:"func"`
	File   string `json:"file"`
	Lineno int64  `json:"lineno"`
	IP     string `json:"ip,omitempty"`
}

func toCallFrameJSON(f unwind.CallFrame) callFrameJSON {
	if f.C != nil {
		return callFrameJSON{Kind: "native", Func: f.C.Func, File: f.C.File, Lineno: f.C.Lineno, IP: f.C.IP}
	}
	if f.Py != nil {
		return callFrameJSON{Kind: "managed", Func: f.Py.Func, File: f.Py.File, Lineno: f.Py.Lineno}
	}
	return callFrameJSON{}
}

func (h *Handler) handleCallstack(w http.ResponseWriter, r *http.Request) {
	tidStr := r.URL.Query().Get("tid")
	tid, err := strconv.ParseInt(tidStr, 10, 32)
	if err != nil {
		writeText(w, http.StatusBadRequest, "missing or invalid tid query parameter")
		return
	}

	pid := int32(os.Getpid())
	if h.Process != nil {
		pid = int32(h.Process.Pid())
	}

	frames, err := unwind.Backtrace(pid, int32(tid))
	if err != nil {
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]callFrameJSON, len(frames))
	for i, f := range frames {
		out[i] = toCallFrameJSON(f)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleFiles(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeText(w, http.StatusBadRequest, "missing path query parameter")
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		writeText(w, http.StatusNotFound, err.Error())
		return
	}
	writeText(w, http.StatusOK, string(data))
}

// Node is a cluster member record for GET/PUT /apis/nodes, as tracked by
// an in-memory node registry (each control plane instance tracks the
// peers it has been told about; there is no distributed membership
// protocol).
type Node struct {
	ID      string `json:"id"`
	Addr    string `json:"addr"`
	PID     int    `json:"pid"`
	Version string `json:"version"`
}

type nodeRegistry struct {
	mu    sync.RWMutex
	nodes map[string]Node
}

func newNodeRegistry() *nodeRegistry {
	return &nodeRegistry{nodes: make(map[string]Node)}
}

func (r *nodeRegistry) put(n Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[n.ID] = n
}

func (r *nodeRegistry) list() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n)
	}
	return out
}

func (h *Handler) handleListNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.nodes.list())
}

func (h *Handler) handlePutNode(w http.ResponseWriter, r *http.Request) {
	var n Node
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeText(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(n.ID) == "" {
		writeText(w, http.StatusBadRequest, "node id is required")
		return
	}
	h.nodes.put(n)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
