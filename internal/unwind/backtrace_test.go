package unwind

import "testing"

func TestMergeFramesSubstitutesEvalLoop(t *testing.T) {
	native := []CallFrame{
		NewCFrame(CFrame{Func: "main.run"}),
		NewCFrame(CFrame{Func: "PyEval_EvalFrameDefault"}),
		NewCFrame(CFrame{Func: "PyEval_Vector"}),
		NewCFrame(CFrame{Func: "PyEval_EvalFrameDefault"}),
		NewCFrame(CFrame{Func: "os.chdir"}),
	}
	managed := []CallFrame{
		NewPyFrame(PyFrame{Func: "outer", File: "app.py", Lineno: 10}),
		NewPyFrame(PyFrame{Func: "inner", File: "app.py", Lineno: 20}),
	}

	got := mergeFrames(managed, native)

	want := []string{"main.run", "outer", "inner", "os.chdir"}
	if len(got) != len(want) {
		t.Fatalf("merge len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i, name := range want {
		if got[i].funcName() != name {
			t.Fatalf("frame %d = %q, want %q", i, got[i].funcName(), name)
		}
	}
}

func TestMergeFramesNoManagedFramesDropsEvalLoop(t *testing.T) {
	native := []CallFrame{
		NewCFrame(CFrame{Func: "main.run"}),
		NewCFrame(CFrame{Func: "PyEval_EvalFrameDefault"}),
	}

	got := mergeFrames(nil, native)

	if len(got) != 1 || got[0].funcName() != "main.run" {
		t.Fatalf("merge = %v, want just [main.run]", got)
	}
}

func TestMergeFramesKeepsWhitelistedPrefixes(t *testing.T) {
	native := []CallFrame{
		NewCFrame(CFrame{Func: "PyGilState_Ensure"}),
		NewCFrame(CFrame{Func: "PyThread_acquire_lock"}),
		NewCFrame(CFrame{Func: "thread.start"}),
	}

	got := mergeFrames(nil, native)

	if len(got) != 3 {
		t.Fatalf("merge dropped whitelisted frames: %v", got)
	}
}

func TestCutAtSeparator(t *testing.T) {
	head, rest, ok := cutAtSeparator("PyEval_EvalFrameDefault")
	if !ok || head != "PyEval" || rest != "EvalFrameDefault" {
		t.Fatalf("cutAtSeparator = %q, %q, %v", head, rest, ok)
	}
	if _, _, ok := cutAtSeparator("nolabel"); ok {
		t.Fatalf("expected no separator in 'nolabel'")
	}
}

func TestSenderSlotSendWithoutReceiver(t *testing.T) {
	var s senderSlot
	if !s.send([]CallFrame{NewCFrame(CFrame{Func: "x"})}) {
		t.Fatalf("send with no installed channel should report success")
	}
}

func TestSenderSlotInstallAndReceive(t *testing.T) {
	var s senderSlot
	ch := s.install()
	defer s.clear()

	frames := []CallFrame{NewCFrame(CFrame{Func: "x"})}
	if !s.send(frames) {
		t.Fatalf("send should succeed with an installed, empty channel")
	}

	got := <-ch
	if len(got) != 1 || got[0].funcName() != "x" {
		t.Fatalf("received %v, want %v", got, frames)
	}
}
