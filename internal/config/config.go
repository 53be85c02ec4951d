// Package config holds the agent's typed, layered configuration: compiled
// defaults, overlaid by an optional JSON file, overlaid by PROBING_* environment
// variables.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds control-plane listener settings.
type ServerConfig struct {
	Address               string        `json:"address"`                  // server.address, e.g. "0.0.0.0:9700"
	UnixSocket            string        `json:"unix_socket"`              // server.unix_socket; the listener path comes from CtrlRoot, not this field
	ReportAddr            string        `json:"report_addr"`              // server.report_addr, optional external sink
	MaxConcurrentRequests int           `json:"max_concurrent_requests"`  // server.max_concurrent_requests; stored, not enforced
	RequestTimeout        time.Duration `json:"request_timeout"`          // server.request_timeout_ms
	AuthToken             string        `json:"auth_token"`               // PROBING_AUTH_TOKEN
	CtrlRoot              string        `json:"ctrl_root"`                // PROBING_CTRL_ROOT
}

// UnwindConfig holds the stack unwinder's blocking timeouts.
type UnwindConfig struct {
	NativeTimeout  time.Duration `json:"native_timeout"`  // default 2s
	ManagedTimeout time.Duration `json:"managed_timeout"` // default 3s
}

// StoreConfig holds SeriesConfig-shaped store settings. Nothing reads them
// when series are created; series without an explicit configuration use
// tsstore.DefaultSeriesConfig.
type StoreConfig struct {
	ChunkSize            int     `json:"chunk_size"`
	CompressionThreshold int64   `json:"compression_threshold"`
	DiscardThreshold     int64   `json:"discard_threshold"`
	CompressionLevel     int     `json:"compression_level"`
}

// PprofConfig mirrors the pprof.* extension options.
type PprofConfig struct {
	SampleFreq float64 `json:"sample_freq"`
}

// TaskStatsConfig mirrors the taskstats.* extension options.
type TaskStatsConfig struct {
	Interval time.Duration `json:"interval"`
}

// TorchConfig mirrors the torch.* extension options.
type TorchConfig struct {
	SampleRatio    float64 `json:"sample_ratio"`
	ProfilingMode  string  `json:"profiling_mode"`
	WatchVars      string  `json:"watch_vars"`
}

// PythonConfig mirrors the python.* extension options exposed by the
// managed-runtime bridge.
type PythonConfig struct {
	CrashHandler string `json:"crash_handler"` // file path, empty disables; read-only once set
	Monitoring   string `json:"monitoring"`    // path to user script
	Enabled      string `json:"enabled"`       // comma list of hook names to enable
	Disabled     string `json:"disabled"`      // comma list of hook names to disable
}

// TracingConfig holds OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled     bool    `json:"enabled"`
	Exporter    string  `json:"exporter"`     // otlp-http, stdout
	Endpoint    string  `json:"endpoint"`     // localhost:4318
	ServiceName string  `json:"service_name"` // probe
	SampleRate  float64 `json:"sample_rate"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace"` // probe
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text, json
}

// ObservabilityConfig bundles the ambient observability settings.
type ObservabilityConfig struct {
	Tracing TracingConfig `json:"tracing"`
	Metrics MetricsConfig `json:"metrics"`
	Logging LoggingConfig `json:"logging"`
}

// Config is the central configuration struct embedding all component configs.
type Config struct {
	Server        ServerConfig        `json:"server"`
	Unwind        UnwindConfig        `json:"unwind"`
	Store         StoreConfig         `json:"store"`
	Pprof         PprofConfig         `json:"pprof"`
	TaskStats     TaskStatsConfig     `json:"taskstats"`
	Torch         TorchConfig         `json:"torch"`
	Python        PythonConfig        `json:"python"`
	Observability ObservabilityConfig `json:"observability"`
	AssetsRoot    string              `json:"assets_root"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:               ":9700",
			MaxConcurrentRequests: 64,
			RequestTimeout:        30 * time.Second,
		},
		Unwind: UnwindConfig{
			NativeTimeout:  2 * time.Second,
			ManagedTimeout: 3 * time.Second,
		},
		Store: StoreConfig{
			ChunkSize:            1024,
			CompressionThreshold: 1 << 16,
			DiscardThreshold:     1 << 24,
			CompressionLevel:     3,
		},
		Pprof: PprofConfig{
			SampleFreq: 99,
		},
		TaskStats: TaskStatsConfig{
			Interval: time.Second,
		},
		Torch: TorchConfig{
			SampleRatio:   0.01,
			ProfilingMode: "off",
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{
				Enabled:     false,
				Exporter:    "otlp-http",
				Endpoint:    "localhost:4318",
				ServiceName: "probe",
				SampleRate:  1.0,
			},
			Metrics: MetricsConfig{
				Enabled:   true,
				Namespace: "probe",
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "text",
			},
		},
	}
}

// LoadFromFile loads configuration from a JSON file, layered on top of
// DefaultConfig.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv applies PROBING_* environment variable overrides to the config.
// Recognized section/key pairs match §6.3/§6.4 of the specification; any
// other PROBING_<SECTION>_<KEY> is left for the extension registry to replay
// as a SET statement (see ExtraEnvSettings).
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("PROBING_PORT"); v != "" {
		cfg.Server.Address = ":" + v
	}
	if v := os.Getenv("PROBING_SERVER_ADDRPATTERN"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("PROBING_LOGLEVEL"); v != "" {
		cfg.Observability.Logging.Level = v
	}
	if v := os.Getenv("PROBING_ASSETS_ROOT"); v != "" {
		cfg.AssetsRoot = v
	}
	if v := os.Getenv("PROBING_AUTH_TOKEN"); v != "" {
		cfg.Server.AuthToken = v
	}
	if v := os.Getenv("PROBING_CTRL_ROOT"); v != "" {
		cfg.Server.CtrlRoot = v
	}
}

// reservedEnvNames are the PROBING_* variables consumed directly by
// LoadFromEnv; ExtraEnvSettings excludes them per §6.4.
var reservedEnvNames = map[string]bool{
	"PROBING_PORT":               true,
	"PROBING_LOGLEVEL":           true,
	"PROBING_ASSETS_ROOT":        true,
	"PROBING_SERVER_ADDRPATTERN": true,
	"PROBING_AUTH_TOKEN":         true,
	"PROBING_ARGS":               true,
	"PROBING_CTRL_ROOT":          true,
}

// ExtraEnvSettings scans the environment for PROBING_<SECTION>_<KEY> pairs
// not already consumed by LoadFromEnv and returns them as lower-cased,
// dot-joined "section.key=value" SET statements ready to dispatch through
// the extension registry at startup.
func ExtraEnvSettings() []string {
	var sets []string
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, "PROBING_") || reservedEnvNames[name] {
			continue
		}
		rest := strings.TrimPrefix(name, "PROBING_")
		idx := strings.Index(rest, "_")
		if idx < 0 {
			continue
		}
		section := strings.ToLower(rest[:idx])
		key := strings.ToLower(rest[idx+1:])
		sets = append(sets, section+"."+key+"="+value)
	}
	return sets
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes"
}

func parseInt(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
