package rtbridge

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/oriys/probe/internal/perr"
	"github.com/oriys/probe/internal/unwind"
)

// crashSignals are the synchronous faults a crash handler can usefully
// react to. They are not safe to recover from: the handler records what
// it can and re-raises with the default disposition so the process dies
// the way it would have without this hook installed.
var crashSignals = []os.Signal{syscall.SIGSEGV, syscall.SIGABRT, syscall.SIGBUS}

var crashOnce sync.Once

// InstallCrashHandler registers a handler for SIGSEGV/SIGABRT/SIGBUS that
// writes a native-only backtrace (the managed runtime is not safe to
// re-enter from a crash context) to writePath and then re-raises the
// signal with its default disposition. Only the first call installs the
// handler; a later call on the same Bridge fails with ReadOnlyOption and
// leaves the write path unchanged, matching the read-only-after-first-set
// semantics of the crash_handler option.
func (b *Bridge) InstallCrashHandler(writePath string) error {
	if writePath == "" {
		return perr.New(perr.CodeInvalidRequest, "rtbridge.install_crash_handler", "empty crash handler path")
	}

	b.mu.Lock()
	if b.crashHandlerPath != "" {
		b.mu.Unlock()
		return perr.New(perr.CodeReadOnlyOption, "rtbridge.install_crash_handler", "crash handler already installed")
	}
	b.crashHandlerPath = writePath
	b.mu.Unlock()

	crashOnce.Do(func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, crashSignals...)
		go b.handleCrashSignals(sigs)
	})
	return nil
}

func (b *Bridge) handleCrashSignals(sigs chan os.Signal) {
	for sig := range sigs {
		b.mu.Lock()
		path := b.crashHandlerPath
		b.mu.Unlock()

		frames := unwind.CaptureNative(2)
		if path != "" {
			_ = writeCrashReport(path, sig, frames)
		}

		reraise(sig)
	}
}

func writeCrashReport(path string, sig os.Signal, frames []unwind.CallFrame) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "signal: %s\ntime: %s\n", sig, time.Now().UTC().Format(time.RFC3339))
	for i, f := range frames {
		fmt.Fprintf(&sb, "#%d %s\n", i, f.String())
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// reraise restores the default disposition for sig and sends it to the
// current process again, so the OS terminates it the way it would have
// had no handler ever been installed.
func reraise(sig os.Signal) {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return
	}
	signal.Reset(sig)
	_ = syscall.Kill(os.Getpid(), s)
}
