package extconfig

import (
	"testing"

	"github.com/oriys/probe/internal/config"
	"github.com/oriys/probe/internal/perr"
)

func TestManagerDispatchFirstAccepts(t *testing.T) {
	m := NewManager()
	cfg := config.DefaultConfig()
	m.Register(NewServerExtension(&cfg.Server))
	m.Register(NewPprofExtension(&cfg.Pprof))

	if err := m.Set("pprof.sample_freq", "199"); err != nil {
		t.Fatalf("Set(pprof.sample_freq) failed: %v", err)
	}
	got, err := m.Get("pprof.sample_freq")
	if err != nil {
		t.Fatalf("Get(pprof.sample_freq) failed: %v", err)
	}
	if got != "199" {
		t.Fatalf("Get(pprof.sample_freq) = %q, want 199", got)
	}
	if cfg.Pprof.SampleFreq != 199 {
		t.Fatalf("cfg.Pprof.SampleFreq = %v, want 199", cfg.Pprof.SampleFreq)
	}
}

func TestManagerUnknownKeyFails(t *testing.T) {
	m := NewManager()
	cfg := config.DefaultConfig()
	m.Register(NewServerExtension(&cfg.Server))

	_, err := m.Get("nonexistent.key")
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	pe, ok := err.(*perr.Error)
	if !ok || pe.Code != perr.CodeUnsupportedOption {
		t.Fatalf("expected UnsupportedOption, got %v", err)
	}
}

func TestPythonCrashHandlerReadOnly(t *testing.T) {
	cfg := config.DefaultConfig()
	ext := NewPythonExtension(&cfg.Python)

	if _, err := ext.Set("python.crash_handler", "/tmp/crash.log"); err != nil {
		t.Fatalf("first set failed: %v", err)
	}
	_, err := ext.Set("python.crash_handler", "/tmp/other.log")
	if err == nil {
		t.Fatalf("expected ReadOnlyOption on re-set")
	}
	pe, ok := err.(*perr.Error)
	if !ok || pe.Code != perr.CodeReadOnlyOption {
		t.Fatalf("expected ReadOnlyOption, got %v", err)
	}
}

func TestPprofInvalidOptionValue(t *testing.T) {
	cfg := config.DefaultConfig()
	ext := NewPprofExtension(&cfg.Pprof)

	_, err := ext.Set("pprof.sample_freq", "not-a-number")
	if err == nil {
		t.Fatalf("expected InvalidOptionValue")
	}
	pe, ok := err.(*perr.Error)
	if !ok || pe.Code != perr.CodeInvalidOptionValue {
		t.Fatalf("expected InvalidOptionValue, got %v", err)
	}
}

func TestManagerCallRouting(t *testing.T) {
	m := NewManager()
	m.Register(&fakeCaller{name: "torch"})

	out, err := m.Call("/torch/flamegraph", map[string]string{}, nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if string(out) != "flamegraph" {
		t.Fatalf("Call() = %q, want flamegraph", out)
	}
}

type fakeCaller struct{ name string }

func (f *fakeCaller) Name() string                               { return f.name }
func (f *fakeCaller) Set(string, string) (string, error)         { return "", perr.ErrUnsupportedOption }
func (f *fakeCaller) Get(string) (string, error)                 { return "", perr.ErrUnsupportedOption }
func (f *fakeCaller) Options() []OptionDescriptor                { return nil }
func (f *fakeCaller) Call(path string, _ map[string]string, _ []byte) ([]byte, error) {
	return []byte(path), nil
}
