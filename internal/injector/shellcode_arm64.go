//go:build arm64

package injector

import (
	"golang.org/x/sys/unix"

	"github.com/oriys/probe/internal/perr"
)

// shellcode is a 2-instruction nop slide, a branch-with-link through x8
// (pointed at the target libc function), and a breakpoint so the tracer
// regains control. Unlike amd64, the aarch64 PC is not off-by-one on
// resume, so no PC adjustment is needed when setting up the call.
var shellcode = []byte{
	0x1f, 0x20, 0x03, 0xd5, // nop
	0x1f, 0x20, 0x03, 0xd5, // nop
	0x00, 0x01, 0x3f, 0xd6, // blr x8
	0x00, 0x00, 0x20, 0xd4, // brk #0
}

// callFunction runs fn(a0, a1, a2) inside the tracee via the injected
// trampoline and returns its return value (x0).
func (inj *Injection) callFunction(fn, a0, a1, a2 uintptr) (uint64, error) {
	regs := inj.savedRegs
	regs.Pc = uint64(inj.injectedAt)
	regs.Regs[8] = uint64(fn)
	regs.Regs[0] = uint64(a0)
	regs.Regs[1] = uint64(a1)
	regs.Regs[2] = uint64(a2)
	regs.Sp = inj.savedRegs.Sp &^ 0xf

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
	return after.Regs[0], nil
}
