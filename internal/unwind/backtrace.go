package unwind

import (
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/oriys/probe/internal/perr"
)

const (
	nativeRecvTimeout  = 2 * time.Second
	managedRecvTimeout = 3 * time.Second
)

// Backtrace captures a merged call stack for the given thread: native
// frames from the Go-side unwinder plus, where the thread is executing
// managed-runtime code, frames from the registered ManagedFrameCollector.
// Only one Backtrace can be in flight process-wide; concurrent callers
// fail fast instead of queueing.
func Backtrace(pid, tid int32) ([]CallFrame, error) {
	if !backtraceMu.TryLock() {
		return nil, perr.New(perr.CodeBacktraceError, "unwind.backtrace", "another backtrace is already in progress")
	}
	defer backtraceMu.Unlock()

	nativeCh := nativeSlot.install()
	pyCh := pySlot.install()
	defer nativeSlot.clear()
	defer pySlot.clear()

	if err := unix.Tgkill(int(pid), int(tid), syscall.SIGUSR2); err != nil {
		return nil, perr.Wrap(perr.CodeBacktraceError, "unwind.backtrace", "signalling target thread", err)
	}

	var native, managed []CallFrame

	select {
	case native = <-nativeCh:
	case <-time.After(nativeRecvTimeout):
		return nil, perr.New(perr.CodeBacktraceError, "unwind.backtrace", "timed out waiting for native frames")
	}

	select {
	case managed = <-pyCh:
	case <-time.After(managedRecvTimeout):
		// Soft failure: the target may not have been executing managed
		// code, or the collector hung. Return what native unwinding found.
		managed = nil
	}

	return mergeFrames(managed, native), nil
}

// mergeFrames walks the native frame stack and substitutes managed-runtime
// frames wherever the native frame is an interpreter eval-loop trampoline,
// in call order. PyEval_EvalFrameDefault and PyEval_EvalFrameEx frames are
// replaced by the next available managed frame (advancing the managed
// cursor even if none remain, so a later real PyEval frame doesn't pick up
// a stale one); any other PyEval_* frame is dropped as interpreter-internal
// noise; everything else (whitelisted runtime-support prefixes included)
// is kept as-is.
func mergeFrames(managed, native []CallFrame) []CallFrame {
	out := make([]CallFrame, 0, len(native))
	mi := 0

	for _, frame := range native {
		name := frame.funcName()
		head, rest, has := cutAtSeparator(name)
		if has && head == "PyEval" {
			switch {
			case rest == "EvalFrameDefault" || rest == "EvalFrameEx":
				if mi < len(managed) {
					out = append(out, managed[mi])
				}
				mi++
			default:
				// drop other PyEval_* internals
			}
			continue
		}
		out = append(out, frame)
	}
	return out
}

// cutAtSeparator splits a mangled symbol name on its first '_' or '.',
// mirroring the tokenization the reference unwinder performs to decide
// whether a native frame is part of the interpreter's eval loop.
func cutAtSeparator(name string) (head, rest string, ok bool) {
	if i := strings.IndexAny(name, "_."); i >= 0 {
		return name[:i], name[i+1:], true
	}
	return name, "", false
}
