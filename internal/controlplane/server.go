package controlplane

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/oriys/probe/internal/config"
	"github.com/oriys/probe/internal/logging"
	"github.com/oriys/probe/internal/observability"
)

// Servers bundles the TCP and Unix-socket listeners serving the same
// route tree, per §4.6's "two listeners... the same service tree is
// served on both".
type Servers struct {
	TCP        *http.Server
	Unix       *http.Server
	unixPath   string
	unixIsFile bool
}

// StartServers builds the route tree once and serves it over both a TCP
// listener and a Unix domain socket, mirroring oriys-nova's
// StartHTTPServer(addr, cfg) constructor shape.
func StartServers(h *Handler, cfg *config.ServerConfig) (*Servers, error) {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = observability.HTTPMiddleware(handler)
	handler = AuthMiddleware(cfg.AuthToken)(handler)
	handler = timeoutMiddleware(cfg.RequestTimeout)(handler)

	servers := &Servers{}

	if cfg.Address != "" {
		tcp := &http.Server{Addr: cfg.Address, Handler: handler}
		ln, err := net.Listen("tcp", cfg.Address)
		if err != nil {
			return nil, fmt.Errorf("controlplane: listening on %s: %w", cfg.Address, err)
		}
		go func() {
			if err := tcp.Serve(ln); err != nil && err != http.ErrServerClosed {
				logging.Op().Error("control plane TCP server error", "error", err)
			}
		}()
		servers.TCP = tcp
	}

	unixPath, abstract := socketPath(cfg.CtrlRoot)
	unixLn, err := net.Listen("unix", unixPath)
	if err != nil {
		logging.Op().Warn("control plane unix socket unavailable", "path", unixPath, "error", err)
	} else {
		unixSrv := &http.Server{Handler: handler}
		go func() {
			if err := unixSrv.Serve(unixLn); err != nil && err != http.ErrServerClosed {
				logging.Op().Error("control plane unix server error", "error", err)
			}
		}()
		servers.Unix = unixSrv
		servers.unixPath = unixPath
		servers.unixIsFile = !abstract
	}

	return servers, nil
}

// Shutdown gracefully stops both listeners and removes the filesystem
// socket path, per §6.3's "the filesystem path is removed on normal
// shutdown".
func (s *Servers) Shutdown(ctx context.Context) error {
	var firstErr error
	if s.TCP != nil {
		if err := s.TCP.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.Unix != nil {
		if err := s.Unix.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.unixIsFile && s.unixPath != "" {
		_ = os.Remove(s.unixPath)
	}
	return firstErr
}

// socketPath resolves the control socket address per §6.3/§6.4: an
// abstract Linux socket "@probing-<pid>" by default, or a filesystem path
// under ctrlRoot (or /tmp/probing) if PROBING_CTRL_ROOT is set or the
// platform doesn't support abstract sockets.
func socketPath(ctrlRoot string) (path string, abstract bool) {
	pid := os.Getpid()
	if ctrlRoot == "" && runtime.GOOS == "linux" {
		return fmt.Sprintf("@probing-%d", pid), true
	}
	root := ctrlRoot
	if root == "" {
		root = "/tmp/probing"
	}
	_ = os.MkdirAll(root, 0o755)
	return fmt.Sprintf("%s/%d", root, pid), false
}

// timeoutMiddleware enforces a per-request timeout (§5, default 30s),
// aborting the handler without leaving any sender slot installed: the
// unwind package's slots are cleared on every exit path internally
// (senderSlot.clear via defer in Backtrace), so an aborted HTTP handler
// never needs to reach back into that package to clean up.
func timeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, "request timed out")
	}
}
