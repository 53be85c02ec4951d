package injector

import (
	"golang.org/x/sys/unix"

	"github.com/oriys/probe/internal/perr"
)

// runUntilTrap resumes tid and waits for it to stop on SIGTRAP (the
// shellcode's closing int3/brk). Exit, or a stop on any other signal
// (group-stops included), is treated as a failure of the injected call.
func runUntilTrap(tid int) error {
	for {
		ws, err := cont(tid, 0)
		if err != nil {
			return err
		}
		switch {
		case ws.Exited():
			return perr.New(perr.CodeInjectionError, "injection.run_until_trap", "tracee exited while running shellcode")
		case ws.Stopped() && ws.StopSignal() == unix.SIGTRAP:
			return nil
		case ws.Stopped():
			return perr.New(perr.CodeInjectionError, "injection.run_until_trap",
				"tracee stopped by "+ws.StopSignal().String()+" instead of SIGTRAP")
		default:
			continue
		}
	}
}
