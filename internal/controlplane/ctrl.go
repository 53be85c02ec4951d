package controlplane

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/oriys/probe/internal/queryengine"
)

// handleCtrl implements POST /ctrl: a RON-encoded CtrlSignal, or an array
// of them, each routed to a matching config action. The response is plain
// text summarizing each signal's outcome, one line per signal.
func (h *Handler) handleCtrl(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}

	v, err := queryengine.ParseRON(string(body))
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	signals := []queryengine.RonValue{v}
	if v.IsArray {
		signals = v.Array
	}

	var out strings.Builder
	status := http.StatusOK
	for _, sig := range signals {
		result, err := h.applyCtrlSignal(sig)
		if err != nil {
			status = http.StatusBadRequest
			fmt.Fprintf(&out, "error: %s\n", err.Error())
			continue
		}
		out.WriteString(result)
		out.WriteByte('\n')
	}
	writeText(w, status, strings.TrimSuffix(out.String(), "\n"))
}

// applyCtrlSignal dispatches a single decoded CtrlSignal. The only
// variant this control plane recognizes is Set(key, value) / Set(key:
// "...", value: "..."); unknown variants return a plain error, which
// handleCtrl reports with status 400.
func (h *Handler) applyCtrlSignal(sig queryengine.RonValue) (string, error) {
	if sig.Ident != "Set" {
		return "", fmt.Errorf("controlplane: unsupported ctrl signal %q", sig.Ident)
	}

	key, value, ok := ctrlSetArgs(sig)
	if !ok {
		return "", fmt.Errorf("controlplane: malformed Set signal")
	}
	if h.Ext == nil {
		return "", fmt.Errorf("controlplane: no extension registry configured")
	}
	if err := h.Ext.Set(key, value); err != nil {
		return "", err
	}
	return fmt.Sprintf("set %s=%s", key, value), nil
}

func ctrlSetArgs(sig queryengine.RonValue) (key, value string, ok bool) {
	if k, has := sig.Field("key"); has {
		v, hasV := sig.Field("value")
		if has && hasV && k.IsString && v.IsString {
			return k.String, v.String, true
		}
	}
	if len(sig.Positional) == 2 && sig.Positional[0].IsString && sig.Positional[1].IsString {
		return sig.Positional[0].String, sig.Positional[1].String, true
	}
	return "", "", false
}
