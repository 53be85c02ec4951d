package injector

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/oriys/probe/internal/perr"
)

// State tracks an Injection's lifecycle: Attached (shellcode written, no
// call run yet), Executing (a call is in flight), Injected (set after each
// completed call and after Execute's dlopen), and Removed once Remove
// restores the tracee.
type State int

const (
	StateAttached State = iota
	StateInjected
	StateExecuting
	StateRemoved
)

// Injection manages writing, running, and removing a shellcode
// trampoline inside a single traced thread (tid), used to make arbitrary
// libc calls (malloc, dlopen, free, setenv) inside the target process.
type Injection struct {
	tid int

	savedRegs   unix.PtraceRegs
	savedMemory []byte
	injectedAt  uintptr

	libc  LibcAddrs
	state State
}

// Inject writes shellcode into tid, which must already be ptrace-attached,
// at an executable region found via proc.FindExecutableSpace, saving
// the overwritten memory and registers so Remove can restore them.
func Inject(proc *Process, tid int) (*Injection, error) {
	injectedAt, err := proc.FindExecutableSpace()
	if err != nil {
		return nil, err
	}

	saved, err := readMemory(tid, injectedAt, len(shellcode))
	if err != nil {
		return nil, err
	}

	if err := writeMemory(tid, injectedAt, shellcode); err != nil {
		return nil, err
	}

	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(tid, &regs); err != nil {
		_ = writeMemory(tid, injectedAt, saved)
		return nil, perr.Wrap(perr.CodeInjectionError, "injection.inject", "PTRACE_GETREGS", err)
	}

	libc, err := ForProcess(proc)
	if err != nil {
		_ = writeMemory(tid, injectedAt, saved)
		return nil, err
	}

	return &Injection{
		tid:         tid,
		savedRegs:   regs,
		savedMemory: saved,
		injectedAt:  injectedAt,
		libc:        libc,
		state:       StateAttached,
	}, nil
}

// Execute writes libraryPath to the tracee, dlopen's it, and frees the
// scratch allocation. env, if non-empty, is set in the tracee via setenv
// before the library is loaded.
func (inj *Injection) Execute(libraryPath string, env map[string]string) error {
	abs, err := filepath.Abs(libraryPath)
	if err != nil {
		return perr.Wrap(perr.CodeInjectionError, "injection.execute", "resolving library path", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return perr.Wrap(perr.CodeInjectionError, "injection.execute", "library not found", err)
	}

	for name, value := range env {
		if err := inj.setenv(name, value); err != nil {
			return err
		}
	}

	addr, err := inj.writeCString(abs)
	if err != nil {
		return perr.Wrap(perr.CodeInjectionError, "injection.execute", "writing library path", err)
	}
	result, err := inj.callFunction(inj.libc.Dlopen, uintptr(addr), 1, 0)
	if err != nil {
		return perr.Wrap(perr.CodeInjectionError, "injection.execute", "calling dlopen", err)
	}
	if result == 0 {
		return perr.New(perr.CodeInjectionError, "injection.execute", "dlopen returned NULL")
	}
	_ = inj.freeAlloc(addr) // cleanup only, result not checked (matches upstream)

	inj.state = StateInjected
	return nil
}

// setenv allocates and writes name/value in the tracee and calls setenv.
func (inj *Injection) setenv(name, value string) error {
	nameAddr, err := inj.writeCString(name)
	if err != nil {
		return err
	}
	valueAddr, err := inj.writeCString(value)
	if err != nil {
		return err
	}
	_, _ = inj.callFunction(inj.libc.Setenv, uintptr(nameAddr), uintptr(valueAddr), 1)
	_ = inj.freeAlloc(nameAddr)
	_ = inj.freeAlloc(valueAddr)
	return nil
}

// writeCString mallocs len(s)+1 bytes in the tracee and writes s,
// null-terminated, returning its address.
func (inj *Injection) writeCString(s string) (uintptr, error) {
	buf := append([]byte(s), 0)
	addr, err := inj.callFunction(inj.libc.Malloc, uintptr(len(buf)), 0, 0)
	if err != nil {
		return 0, err
	}
	if addr == 0 {
		return 0, perr.New(perr.CodeInjectionError, "injection.write_cstring", "malloc returned NULL")
	}
	if err := writeMemory(inj.tid, uintptr(addr), buf); err != nil {
		return 0, err
	}
	return uintptr(addr), nil
}

// freeAlloc frees an allocation made with writeCString. Its return value
// is not checked, matching the reference implementation's behavior.
func (inj *Injection) freeAlloc(addr uintptr) error {
	_, err := inj.callFunction(inj.libc.Free, addr, 0, 0)
	return err
}

// Remove restores the tracee's original memory and registers. Idempotent:
// calling it twice is a no-op the second time.
func (inj *Injection) Remove() error {
	if inj.state == StateRemoved {
		return nil
	}
	if err := writeMemory(inj.tid, inj.injectedAt, inj.savedMemory); err != nil {
		return err
	}
	if err := unix.PtraceSetRegs(inj.tid, &inj.savedRegs); err != nil {
		return perr.Wrap(perr.CodeInjectionError, "injection.remove", "PTRACE_SETREGS", err)
	}
	inj.state = StateRemoved
	return nil
}
