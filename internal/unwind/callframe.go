// Package unwind implements the agent's signal-driven cross-runtime
// stack unwinder: a SIGUSR2 handler captures the native Go-side call
// stack, optionally schedules a managed-runtime frame collection via a
// registered hook, and backtrace() rendezvous-receives both over two
// single-writer single-reader sender slots before merging them into one
// call stack.
package unwind

import "fmt"

// CallFrame is either a native frame (CFrame) or a managed-runtime frame
// (PyFrame, named for the reference interpreter this was modeled on).
// Exactly one of the two embedded pointers is non-nil.
type CallFrame struct {
	C  *CFrame
	Py *PyFrame
}

// CFrame is a single native call frame.
type CFrame struct {
	IP     string
	File   string
	Func   string
	Lineno int64
}

// PyFrame is a single managed-runtime call frame.
type PyFrame struct {
	File   string
	Func   string
	Lineno int64
}

// NewCFrame wraps a native frame as a CallFrame.
func NewCFrame(f CFrame) CallFrame { return CallFrame{C: &f} }

// NewPyFrame wraps a managed-runtime frame as a CallFrame.
func NewPyFrame(f PyFrame) CallFrame { return CallFrame{Py: &f} }

// funcName returns the frame's function name regardless of variant, used
// by the merge's whitelist/PyEval matching.
func (f CallFrame) funcName() string {
	if f.C != nil {
		return f.C.Func
	}
	if f.Py != nil {
		return f.Py.Func
	}
	return ""
}

// String renders a frame as a single human-readable line, used by crash
// reports and diagnostic dumps.
func (f CallFrame) String() string {
	if f.C != nil {
		return fmt.Sprintf("%s (%s:%d) [%s]", f.C.Func, f.C.File, f.C.Lineno, f.C.IP)
	}
	if f.Py != nil {
		return fmt.Sprintf("%s (%s:%d)", f.Py.Func, f.Py.File, f.Py.Lineno)
	}
	return "<empty frame>"
}
