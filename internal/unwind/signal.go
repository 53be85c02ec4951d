package unwind

import (
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
)

// ManagedFrameCollector is registered by the managed-runtime bridge to
// supply PyFrame-equivalent frames when a backtrace needs them. nil
// until the bridge installs one, in which case managed frames are
// treated as unavailable (empty, not an error).
var ManagedFrameCollector func(tid int32) []CallFrame

var installOnce sync.Once

// Install starts the SIGUSR2 listener goroutine that answers
// backtrace() requests. It is idempotent; call it once during agent
// startup.
func Install() {
	installOnce.Do(func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGUSR2)
		go func() {
			for range sigs {
				handleSignal()
			}
		}()
	})
}

func handleSignal() {
	native := captureNativeFrames(1)
	hasPythonContext := containsPyEvalFrame(native)

	if !nativeSlot.send(native) {
		return
	}

	if !hasPythonContext || ManagedFrameCollector == nil {
		pySlot.send(nil)
		return
	}
	pySlot.send(ManagedFrameCollector(0))
}

func containsPyEvalFrame(frames []CallFrame) bool {
	for _, f := range frames {
		name := f.funcName()
		if strings.Contains(name, "PyEval_EvalFrameDefault") || strings.Contains(name, "PyEval_EvalFrameEx") {
			return true
		}
	}
	return false
}
