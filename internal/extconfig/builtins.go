package extconfig

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oriys/probe/internal/config"
	"github.com/oriys/probe/internal/perr"
)

// ServerExtension exposes the server.* SET keys over the control plane's
// ServerConfig. Re-binding address/unix_socket takes effect on the next
// listener restart; it does not hot-swap an already-bound socket.
type ServerExtension struct {
	mu  sync.Mutex
	cfg *config.ServerConfig
}

func NewServerExtension(cfg *config.ServerConfig) *ServerExtension {
	return &ServerExtension{cfg: cfg}
}

func (e *ServerExtension) Name() string { return "server" }

func (e *ServerExtension) Set(key, value string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch key {
	case "server.address":
		old := e.cfg.Address
		e.cfg.Address = value
		return old, nil
	case "server.unix_socket":
		old := e.cfg.UnixSocket
		e.cfg.UnixSocket = value
		return old, nil
	case "server.report_addr":
		old := e.cfg.ReportAddr
		e.cfg.ReportAddr = value
		return old, nil
	case "server.max_concurrent_requests":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return "", perr.New(perr.CodeInvalidOptionValue, "server.set", key+"="+value)
		}
		old := strconv.Itoa(e.cfg.MaxConcurrentRequests)
		e.cfg.MaxConcurrentRequests = n
		return old, nil
	case "server.request_timeout_ms":
		ms, err := strconv.Atoi(value)
		if err != nil || ms <= 0 {
			return "", perr.New(perr.CodeInvalidOptionValue, "server.set", key+"="+value)
		}
		old := strconv.FormatInt(e.cfg.RequestTimeout.Milliseconds(), 10)
		e.cfg.RequestTimeout = time.Duration(ms) * time.Millisecond
		return old, nil
	default:
		return "", perr.New(perr.CodeUnsupportedOption, "server.set", key)
	}
}

func (e *ServerExtension) Get(key string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch key {
	case "server.address":
		return e.cfg.Address, nil
	case "server.unix_socket":
		return e.cfg.UnixSocket, nil
	case "server.report_addr":
		return e.cfg.ReportAddr, nil
	case "server.max_concurrent_requests":
		return strconv.Itoa(e.cfg.MaxConcurrentRequests), nil
	case "server.request_timeout_ms":
		return strconv.FormatInt(e.cfg.RequestTimeout.Milliseconds(), 10), nil
	default:
		return "", perr.New(perr.CodeUnsupportedOption, "server.get", key)
	}
}

func (e *ServerExtension) Options() []OptionDescriptor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return []OptionDescriptor{
		{Key: "server.address", Value: e.cfg.Address, Help: "control-plane TCP listen address"},
		{Key: "server.unix_socket", Value: e.cfg.UnixSocket, Help: "control-plane unix socket path"},
		{Key: "server.report_addr", Value: e.cfg.ReportAddr, Help: "external report sink address"},
		{Key: "server.max_concurrent_requests", Value: strconv.Itoa(e.cfg.MaxConcurrentRequests), Help: "inbound request concurrency cap (stored; not enforced by the control plane)"},
		{Key: "server.request_timeout_ms", Value: strconv.FormatInt(e.cfg.RequestTimeout.Milliseconds(), 10), Help: "per-request timeout in milliseconds"},
	}
}

// PprofExtension exposes pprof.sample_freq; setting it reconfigures the
// CPU sampler (wired by the caller via the OnChange hook) and validates
// the rate is non-negative.
type PprofExtension struct {
	mu       sync.Mutex
	cfg      *config.PprofConfig
	OnChange func(freq float64)
}

func NewPprofExtension(cfg *config.PprofConfig) *PprofExtension {
	return &PprofExtension{cfg: cfg}
}

func (e *PprofExtension) Name() string { return "pprof" }

func (e *PprofExtension) Set(key, value string) (string, error) {
	if key != "pprof.sample_freq" && key != "pprof_sample_freq" && key != "pprof.sample.freq" {
		return "", perr.New(perr.CodeUnsupportedOption, "pprof.set", key)
	}
	freq, err := strconv.ParseFloat(value, 64)
	if err != nil || freq < 0 {
		return "", perr.New(perr.CodeInvalidOptionValue, "pprof.set", key+"="+value)
	}
	e.mu.Lock()
	old := e.cfg.SampleFreq
	e.cfg.SampleFreq = freq
	onChange := e.OnChange
	e.mu.Unlock()
	if onChange != nil {
		onChange(freq)
	}
	return strconv.FormatFloat(old, 'g', -1, 64), nil
}

func (e *PprofExtension) Get(key string) (string, error) {
	if key != "pprof.sample_freq" && key != "pprof_sample_freq" && key != "pprof.sample.freq" {
		return "", perr.New(perr.CodeUnsupportedOption, "pprof.get", key)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return strconv.FormatFloat(e.cfg.SampleFreq, 'g', -1, 64), nil
}

func (e *PprofExtension) Options() []OptionDescriptor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return []OptionDescriptor{
		{
			Key:     "pprof.sample_freq",
			Aliases: []string{"pprof_sample_freq", "pprof.sample.freq"},
			Value:   strconv.FormatFloat(e.cfg.SampleFreq, 'g', -1, 64),
			Help:    "CPU sampler frequency in Hz",
		},
	}
}

// TaskStatsExtension exposes taskstats.interval.
type TaskStatsExtension struct {
	mu  sync.Mutex
	cfg *config.TaskStatsConfig
}

func NewTaskStatsExtension(cfg *config.TaskStatsConfig) *TaskStatsExtension {
	return &TaskStatsExtension{cfg: cfg}
}

func (e *TaskStatsExtension) Name() string { return "taskstats" }

func (e *TaskStatsExtension) Set(key, value string) (string, error) {
	if key != "taskstats.interval" {
		return "", perr.New(perr.CodeUnsupportedOption, "taskstats.set", key)
	}
	ms, err := strconv.Atoi(value)
	if err != nil || ms <= 0 {
		return "", perr.New(perr.CodeInvalidOptionValue, "taskstats.set", key+"="+value)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	old := e.cfg.Interval
	e.cfg.Interval = time.Duration(ms) * time.Millisecond
	return strconv.FormatInt(old.Milliseconds(), 10), nil
}

func (e *TaskStatsExtension) Get(key string) (string, error) {
	if key != "taskstats.interval" {
		return "", perr.New(perr.CodeUnsupportedOption, "taskstats.get", key)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return strconv.FormatInt(e.cfg.Interval.Milliseconds(), 10), nil
}

func (e *TaskStatsExtension) Options() []OptionDescriptor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return []OptionDescriptor{
		{Key: "taskstats.interval", Value: strconv.FormatInt(e.cfg.Interval.Milliseconds(), 10), Help: "task-stats collection interval in milliseconds"},
	}
}

// TorchExtension exposes torch.sample_ratio, torch.profiling_mode, and
// torch.watch_vars for the flamegraph/profiler subsystem.
type TorchExtension struct {
	mu  sync.Mutex
	cfg *config.TorchConfig
}

func NewTorchExtension(cfg *config.TorchConfig) *TorchExtension {
	return &TorchExtension{cfg: cfg}
}

func (e *TorchExtension) Name() string { return "torch" }

func (e *TorchExtension) Set(key, value string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch key {
	case "torch.sample_ratio":
		ratio, err := strconv.ParseFloat(value, 64)
		if err != nil || ratio < 0 || ratio > 1 {
			return "", perr.New(perr.CodeInvalidOptionValue, "torch.set", key+"="+value)
		}
		old := strconv.FormatFloat(e.cfg.SampleRatio, 'g', -1, 64)
		e.cfg.SampleRatio = ratio
		return old, nil
	case "torch.profiling_mode":
		old := e.cfg.ProfilingMode
		e.cfg.ProfilingMode = value
		return old, nil
	case "torch.watch_vars":
		old := e.cfg.WatchVars
		e.cfg.WatchVars = value
		return old, nil
	default:
		return "", perr.New(perr.CodeUnsupportedOption, "torch.set", key)
	}
}

func (e *TorchExtension) Get(key string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch key {
	case "torch.sample_ratio":
		return strconv.FormatFloat(e.cfg.SampleRatio, 'g', -1, 64), nil
	case "torch.profiling_mode":
		return e.cfg.ProfilingMode, nil
	case "torch.watch_vars":
		return e.cfg.WatchVars, nil
	default:
		return "", perr.New(perr.CodeUnsupportedOption, "torch.get", key)
	}
}

func (e *TorchExtension) Options() []OptionDescriptor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return []OptionDescriptor{
		{Key: "torch.sample_ratio", Value: strconv.FormatFloat(e.cfg.SampleRatio, 'g', -1, 64), Help: "fraction of calls sampled for flamegraphs"},
		{Key: "torch.profiling_mode", Value: e.cfg.ProfilingMode, Help: "off, cpu, or wall"},
		{Key: "torch.watch_vars", Value: e.cfg.WatchVars, Help: "comma-separated variable names to watch"},
	}
}

// PythonExtension exposes python.crash_handler (read-only once set),
// python.monitoring, python.enabled, and python.disabled.
type PythonExtension struct {
	mu  sync.Mutex
	cfg *config.PythonConfig
}

func NewPythonExtension(cfg *config.PythonConfig) *PythonExtension {
	return &PythonExtension{cfg: cfg}
}

func (e *PythonExtension) Name() string { return "python" }

func (e *PythonExtension) Set(key, value string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch key {
	case "python.crash_handler":
		if e.cfg.CrashHandler != "" {
			return "", perr.New(perr.CodeReadOnlyOption, "python.set", key)
		}
		e.cfg.CrashHandler = value
		return "", nil
	case "python.monitoring":
		old := e.cfg.Monitoring
		e.cfg.Monitoring = value
		return old, nil
	case "python.enabled":
		old := e.cfg.Enabled
		e.cfg.Enabled = mergeCSV(old, value)
		return old, nil
	case "python.disabled":
		old := e.cfg.Disabled
		e.cfg.Disabled = mergeCSV(old, value)
		return old, nil
	default:
		return "", perr.New(perr.CodeUnsupportedOption, "python.set", key)
	}
}

func (e *PythonExtension) Get(key string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch key {
	case "python.crash_handler":
		return e.cfg.CrashHandler, nil
	case "python.monitoring":
		return e.cfg.Monitoring, nil
	case "python.enabled":
		return e.cfg.Enabled, nil
	case "python.disabled":
		return e.cfg.Disabled, nil
	default:
		return "", perr.New(perr.CodeUnsupportedOption, "python.get", key)
	}
}

func (e *PythonExtension) Options() []OptionDescriptor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return []OptionDescriptor{
		{Key: "python.crash_handler", Value: e.cfg.CrashHandler, Help: "crash backtrace output path (set-once)"},
		{Key: "python.monitoring", Value: e.cfg.Monitoring, Help: "path to a user monitoring-hook script"},
		{Key: "python.enabled", Value: e.cfg.Enabled, Help: "comma list of hook names to enable"},
		{Key: "python.disabled", Value: e.cfg.Disabled, Help: "comma list of hook names to disable"},
	}
}

func mergeCSV(old, add string) string {
	if old == "" {
		return add
	}
	if add == "" {
		return old
	}
	return strings.Join([]string{old, add}, ",")
}
