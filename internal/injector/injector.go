package injector

import (
	"log/slog"

	"github.com/oriys/probe/internal/perr"
)

// Injector owns the ptrace attachment to every thread of a target
// process and drives the injection lifecycle on its main thread. Callers
// use Attach, then Inject, and should always call Close to detach, even
// on error paths.
type Injector struct {
	proc     *Process
	attached []int // every tid we've ptrace-attached to, for cleanup
	inj      *Injection
}

// Attach ptrace-attaches to every thread of pid.
func Attach(pid int) (*Injector, error) {
	proc := NewProcess(pid)
	tids, err := proc.ThreadIDs()
	if err != nil {
		return nil, err
	}

	in := &Injector{proc: proc}
	for _, tid := range tids {
		if err := attach(tid); err != nil {
			in.Close()
			return nil, err
		}
		in.attached = append(in.attached, tid)
	}
	return in, nil
}

// Inject writes the shellcode trampoline into the process and uses it to
// dlopen libraryPath, optionally setenv'ing env first. env is applied
// inside the target process, not the local one.
func (in *Injector) Inject(libraryPath string, env map[string]string) error {
	if len(in.attached) == 0 {
		return perr.New(perr.CodeInjectionError, "injector.inject", "not attached to any thread")
	}
	mainTid := in.proc.Pid()

	inj, err := Inject(in.proc, mainTid)
	if err != nil {
		return err
	}
	in.inj = inj

	if err := inj.Execute(libraryPath, env); err != nil {
		_ = inj.Remove()
		return err
	}
	slog.Info("injected library", "pid", in.proc.Pid(), "library", libraryPath)
	return nil
}

// Close removes the injection (if any) and detaches from every attached
// thread. Safe to call multiple times.
func (in *Injector) Close() error {
	var firstErr error
	if in.inj != nil {
		if err := in.inj.Remove(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, tid := range in.attached {
		if err := detach(tid); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	in.attached = nil
	return firstErr
}
