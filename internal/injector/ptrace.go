package injector

import (
	"golang.org/x/sys/unix"

	"github.com/oriys/probe/internal/perr"
)

// attach ptrace-attaches to tid and waits for it to stop.
func attach(tid int) error {
	if err := unix.PtraceAttach(tid); err != nil {
		return perr.Wrap(perr.CodeInjectionError, "ptrace.attach", "PTRACE_ATTACH", err)
	}
	var ws unix.WaitStatus
	if _, err := unix.Wait4(tid, &ws, 0, nil); err != nil {
		return perr.Wrap(perr.CodeInjectionError, "ptrace.attach", "wait4 after attach", err)
	}
	return nil
}

// detach ptrace-detaches from tid, letting it resume independently.
func detach(tid int) error {
	if err := unix.PtraceDetach(tid); err != nil {
		return perr.Wrap(perr.CodeInjectionError, "ptrace.detach", "PTRACE_DETACH", err)
	}
	return nil
}

// readMemory copies n bytes from the tracee's address space starting at addr.
func readMemory(tid int, addr uintptr, n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := unix.PtracePeekData(tid, addr, buf)
	if err != nil {
		return nil, perr.Wrap(perr.CodeInjectionError, "ptrace.read_memory", "PTRACE_PEEKDATA", err)
	}
	return buf[:got], nil
}

// writeMemory writes data into the tracee's address space at addr.
func writeMemory(tid int, addr uintptr, data []byte) error {
	n, err := unix.PtracePokeData(tid, addr, data)
	if err != nil {
		return perr.Wrap(perr.CodeInjectionError, "ptrace.write_memory", "PTRACE_POKEDATA", err)
	}
	if n != len(data) {
		return perr.New(perr.CodeInjectionError, "ptrace.write_memory", "short write")
	}
	return nil
}

// cont resumes the tracee, optionally re-delivering signal, and waits for
// its next stop.
func cont(tid int, signal int) (unix.WaitStatus, error) {
	if err := unix.PtraceCont(tid, signal); err != nil {
		return 0, perr.Wrap(perr.CodeInjectionError, "ptrace.cont", "PTRACE_CONT", err)
	}
	var ws unix.WaitStatus
	if _, err := unix.Wait4(tid, &ws, 0, nil); err != nil {
		return 0, perr.Wrap(perr.CodeInjectionError, "ptrace.cont", "wait4", err)
	}
	return ws, nil
}
