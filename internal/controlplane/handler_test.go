package controlplane

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oriys/probe/internal/config"
	"github.com/oriys/probe/internal/extconfig"
	"github.com/oriys/probe/internal/queryengine"
)

func newTestHandler() *Handler {
	h := NewHandler()
	h.Ext = extconfig.NewManager()
	h.Ext.Register(extconfig.NewServerExtension(&config.ServerConfig{Address: ":9700"}))
	h.Engine = queryengine.NewEngine(h.Ext)
	return h
}

func TestHandleGetConfig(t *testing.T) {
	h := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/config/server.address", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != ":9700" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestHandleGetConfigUnknownKey(t *testing.T) {
	h := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/config/nonsense.key", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleCtrlSet(t *testing.T) {
	h := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/ctrl", strings.NewReader(`Set(key: "server.address", value: ":9800")`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}

	got, err := h.Ext.Get("server.address")
	if err != nil || got != ":9800" {
		t.Fatalf("server.address = %q, %v", got, err)
	}
}

func TestHandleCtrlArraySet(t *testing.T) {
	h := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	body := `[Set(key: "server.address", value: ":9900"), Set(key: "server.report_addr", value: "localhost:1234")]`
	req := httptest.NewRequest(http.MethodPost, "/ctrl", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
	if got, _ := h.Ext.Get("server.address"); got != ":9900" {
		t.Fatalf("server.address = %q", got)
	}
	if got, _ := h.Ext.Get("server.report_addr"); got != "localhost:1234" {
		t.Fatalf("server.report_addr = %q", got)
	}
}

func TestHandleCtrlUnknownSignal(t *testing.T) {
	h := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/ctrl", strings.NewReader(`Frobnicate(1, 2)`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleQueryAllSetIsNil(t *testing.T) {
	h := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`Query(expr: "SET server.address=:9999;", opts: None)`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "Message(Nil)" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestHandleHealthBypassesAuth(t *testing.T) {
	h := newTestHandler()
	h.AuthToken = "secret"
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = AuthMiddleware(h.AuthToken)(handler)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for exempt health path", rec.Code)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	h := newTestHandler()
	h.AuthToken = "secret"
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = AuthMiddleware(h.AuthToken)(handler)

	req := httptest.NewRequest(http.MethodGet, "/config/server.address", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	h := newTestHandler()
	h.AuthToken = "secret"
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = AuthMiddleware(h.AuthToken)(handler)

	req := httptest.NewRequest(http.MethodGet, "/config/server.address", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
}

func TestHandleListAndPutNodes(t *testing.T) {
	h := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	putReq := httptest.NewRequest(http.MethodPut, "/apis/nodes", strings.NewReader(`{"id":"n1","addr":"10.0.0.1:9700","pid":42,"version":"1.0"}`))
	putRec := httptest.NewRecorder()
	mux.ServeHTTP(putRec, putReq)
	if putRec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %q", putRec.Code, putRec.Body.String())
	}

	getReq := httptest.NewRequest(http.MethodGet, "/apis/nodes", nil)
	getRec := httptest.NewRecorder()
	mux.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", getRec.Code)
	}
	if !strings.Contains(getRec.Body.String(), "n1") {
		t.Fatalf("body = %q, expected node n1", getRec.Body.String())
	}
}

func TestHandleFilesMissingPath(t *testing.T) {
	h := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/apis/files", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleIndexServesBuiltinFallback(t *testing.T) {
	h := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "probe control plane") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}
