package unwind

import (
	"fmt"
	"runtime"
)

// captureNativeFrames walks the calling goroutine's own Go call stack.
// This agent is loaded into the target process rather than attaching to
// an arbitrary external binary, so "native" unwinding here means the Go
// runtime's own frame-pointer-based unwinder (runtime.Callers) rather
// than a general-purpose DWARF unwinder over an unrelated process image.
// CaptureNative exposes the native Go-side unwinder for callers outside
// this package, such as the managed-runtime bridge's crash handler, which
// needs a stack without going through the signal/sender-slot protocol
// (re-entering the managed runtime from a crash handler is not safe).
func CaptureNative(skip int) []CallFrame {
	return captureNativeFrames(skip + 1)
}

func captureNativeFrames(skip int) []CallFrame {
	pcs := make([]uintptr, 128)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs[:n])

	var out []CallFrame
	for {
		frame, more := frames.Next()
		out = append(out, NewCFrame(CFrame{
			IP:     fmt.Sprintf("%#x", frame.PC),
			File:   frame.File,
			Func:   frame.Function,
			Lineno: int64(frame.Line),
		}))
		if !more {
			break
		}
	}
	return out
}
