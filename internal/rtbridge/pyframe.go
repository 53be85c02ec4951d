package rtbridge

import (
	"github.com/dop251/goja"

	"github.com/oriys/probe/internal/unwind"
)

// frameWalker produces managed-runtime call frames from the bridge's VM.
// Kept as a per-version dispatch entry, mirroring the reference
// interpreter's "version probe selects a layout walker" design, even
// though every entry here targets the same goja runtime.
type frameWalker func(vm *goja.Runtime) []unwind.CallFrame

var walkersByVersion = map[Version]frameWalker{
	{3, 10}: walkGojaStack,
	{3, 11}: walkGojaStack,
	{3, 12}: walkGojaStack,
	{3, 13}: walkGojaStack,
}

// walkGojaStack reads goja's own call stack and converts each frame to a
// PyFrame CallFrame, the same shape a CPython thread-state frame chain
// walk would have produced.
func walkGojaStack(vm *goja.Runtime) []unwind.CallFrame {
	if vm == nil {
		return nil
	}
	stack := vm.CaptureCallStack(0, nil)
	out := make([]unwind.CallFrame, 0, len(stack))
	for _, f := range stack {
		pos := f.Position()
		out = append(out, unwind.NewPyFrame(unwind.PyFrame{
			File:   pos.Filename,
			Func:   frameFuncName(f),
			Lineno: int64(pos.Line),
		}))
	}
	return out
}

func frameFuncName(f goja.StackFrame) string {
	if name := f.FuncName(); name != "" {
		return name
	}
	return "<anonymous>"
}
