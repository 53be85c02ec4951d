package rtbridge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oriys/probe/internal/perr"
)

func TestIsSupported(t *testing.T) {
	if !IsSupported(Version{3, 11}) {
		t.Fatalf("3.11 should be supported")
	}
	if IsSupported(Version{2, 7}) {
		t.Fatalf("2.7 should not be supported")
	}
}

func TestVersionString(t *testing.T) {
	if got := (Version{3, 12}).String(); got != "3.12" {
		t.Fatalf("String() = %q", got)
	}
}

func TestBridgeLoadExtensionLifecycle(t *testing.T) {
	b := New(Version{3, 12})

	src := `
	(function() {
		var calls = [];
		return {
			init: function() { calls.push("init"); },
			deinit: function() { calls.push("deinit"); },
		};
	})()
	`
	if err := b.LoadExtension("probe", src); err != nil {
		t.Fatalf("LoadExtension: %v", err)
	}
	if err := b.LoadExtension("probe", src); err == nil {
		t.Fatalf("expected error re-loading extension with the same name")
	}

	loaded := b.LoadedExtensions()
	if len(loaded) != 1 || loaded[0] != "probe" {
		t.Fatalf("LoadedExtensions() = %v", loaded)
	}

	if err := b.UnloadExtension("probe"); err != nil {
		t.Fatalf("UnloadExtension: %v", err)
	}
	if err := b.UnloadExtension("probe"); err == nil {
		t.Fatalf("expected error unloading an extension that is no longer registered")
	}
}

func TestBridgeLoadExtensionMissingInit(t *testing.T) {
	b := New(Version{3, 12})
	if err := b.LoadExtension("broken", `({})`); err == nil {
		t.Fatalf("expected error for extension object without init()")
	}
}

func TestBridgeInstallMonitoring(t *testing.T) {
	b := New(Version{3, 12})
	dir := t.TempDir()
	path := filepath.Join(dir, "monitor.js")
	writeFile(t, path, `var x = 1 + 1;`)

	if err := b.InstallMonitoring(path); err != nil {
		t.Fatalf("InstallMonitoring: %v", err)
	}
}

func TestBridgeInstallMonitoringBadScript(t *testing.T) {
	b := New(Version{3, 12})
	dir := t.TempDir()
	path := filepath.Join(dir, "monitor.js")
	writeFile(t, path, `this is not valid javascript {{{`)

	if err := b.InstallMonitoring(path); err == nil {
		t.Fatalf("expected error evaluating invalid monitoring script")
	}
}

func TestBridgeInstallCrashHandlerReadOnly(t *testing.T) {
	b := New(Version{3, 12})
	dir := t.TempDir()
	path := filepath.Join(dir, "crash.log")

	if err := b.InstallCrashHandler(path); err != nil {
		t.Fatalf("InstallCrashHandler: %v", err)
	}

	err := b.InstallCrashHandler(path)
	if err == nil {
		t.Fatalf("expected read-only error on second InstallCrashHandler")
	}
	perrErr, ok := err.(*perr.Error)
	if !ok || perrErr.Code != perr.CodeReadOnlyOption {
		t.Fatalf("expected CodeReadOnlyOption, got %v", err)
	}
}

func TestBridgeInstallCrashHandlerEmptyPath(t *testing.T) {
	b := New(Version{3, 12})
	if err := b.InstallCrashHandler(""); err == nil {
		t.Fatalf("expected error for empty crash handler path")
	}
}

func TestCollectFramesUnknownVersionReturnsNil(t *testing.T) {
	b := New(Version{9, 9})
	if frames := b.collectFrames(0); frames != nil {
		t.Fatalf("collectFrames() = %v, want nil for unsupported version", frames)
	}
}

func TestCollectFramesRenderWithLocation(t *testing.T) {
	b := New(Version{3, 12})
	if _, err := b.vm.RunString(`1 + 1`); err != nil {
		t.Fatalf("RunString: %v", err)
	}
	frames := b.collectFrames(0)
	for _, f := range frames {
		if !strings.Contains(f.String(), "(") {
			t.Fatalf("unexpected frame rendering: %q", f.String())
		}
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
