package controlplane

import (
	"io"
	"net/http"

	"github.com/oriys/probe/internal/queryengine"
	"github.com/oriys/probe/internal/unwind"
)

// handleProbe implements POST /probe: a RON-encoded ProbeCall, replied to
// with a RON-encoded ProbeCall reply. This control plane recognizes
// Backtrace(pid, tid), and answers Nil with Nil; anything else is echoed
// back as Err(...), matching the reference server's "unexpected call"
// handling.
func (h *Handler) handleProbe(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}

	call, err := queryengine.ParseRON(string(body))
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	reply := h.dispatchProbeCall(call)
	writeText(w, http.StatusOK, reply.Encode())
}

func (h *Handler) dispatchProbeCall(call queryengine.RonValue) queryengine.RonValue {
	switch call.Ident {
	case "Backtrace":
		pid, tid, ok := backtraceArgs(call)
		if !ok {
			return queryengine.Call("Err", queryengine.Str("malformed Backtrace call"))
		}
		frames, err := unwind.Backtrace(pid, tid)
		if err != nil {
			return queryengine.Call("Err", queryengine.Str(err.Error()))
		}
		return queryengine.Call("Frames", framesToRON(frames))
	case "Nil":
		return queryengine.Unit("Nil")
	default:
		return queryengine.Call("Err", queryengine.Str("unsupported probe call: "+call.Ident))
	}
}

func backtraceArgs(call queryengine.RonValue) (pid, tid int32, ok bool) {
	if p, has := call.Field("pid"); has {
		t, hasT := call.Field("tid")
		if has && hasT && p.IsNumber && t.IsNumber {
			return int32(p.Number), int32(t.Number), true
		}
	}
	if len(call.Positional) == 2 && call.Positional[0].IsNumber && call.Positional[1].IsNumber {
		return int32(call.Positional[0].Number), int32(call.Positional[1].Number), true
	}
	return 0, 0, false
}

func framesToRON(frames []unwind.CallFrame) queryengine.RonValue {
	items := make([]queryengine.RonValue, len(frames))
	for i, f := range frames {
		items[i] = queryengine.Str(f.String())
	}
	return queryengine.ArrayOf(items...)
}
