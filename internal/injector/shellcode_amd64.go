//go:build amd64

package injector

import (
	"golang.org/x/sys/unix"

	"github.com/oriys/probe/internal/perr"
)

// shellcode is a 2-byte nop slide (to absorb the imprecise jump back to
// injectedAt after PTRACE_CONT), a call through r9 (which we point at the
// target libc function), and a trap so the tracer regains control.
var shellcode = []byte{
	0x90, 0x90, // nop; nop
	0x41, 0xff, 0xd1, // call r9
	0xcc, // int3
}

// callFunction runs fn(a0, a1, a2) inside the tracee via the injected
// trampoline and returns its return value (rax).
func (inj *Injection) callFunction(fn, a0, a1, a2 uintptr) (uint64, error) {
	regs := inj.savedRegs
	// rip is decremented by one on the next PTRACE_CONT stop-and-resume
	// dance in some kernels; the two-byte nop slide absorbs that slop.
	regs.Rip = uint64(inj.injectedAt) + 2
	regs.R9 = uint64(fn)
	regs.Rdi = uint64(a0)
	regs.Rsi = uint64(a1)
	regs.Rdx = uint64(a2)
	regs.Rsp = inj.savedRegs.Rsp &^ 0xf // 16-byte align per the x86-64 ABI

	if err := unix.PtraceSetRegs(inj.tid, &regs); err != nil {
		return 0, perr.Wrap(perr.CodeInjectionError, "injection.call_function", "PTRACE_SETREGS", err)
	}

	inj.state = StateExecuting
	if err := runUntilTrap(inj.tid); err != nil {
		return 0, err
	}
	inj.state = StateInjected

	var after unix.PtraceRegs
	if err := unix.PtraceGetRegs(inj.tid, &after); err != nil {
		return 0, perr.Wrap(perr.CodeInjectionError, "injection.call_function", "PTRACE_GETREGS", err)
	}
	return after.Rax, nil
}
