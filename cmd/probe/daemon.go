package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oriys/probe/internal/config"
	"github.com/oriys/probe/internal/controlplane"
	"github.com/oriys/probe/internal/extconfig"
	"github.com/oriys/probe/internal/logging"
	"github.com/oriys/probe/internal/metrics"
	"github.com/oriys/probe/internal/observability"
	"github.com/oriys/probe/internal/pkg/crypto"
	"github.com/oriys/probe/internal/queryengine"
	"github.com/oriys/probe/internal/reporter"
	"github.com/oriys/probe/internal/rtbridge"
	"github.com/oriys/probe/internal/tsstore"
	"github.com/oriys/probe/internal/unwind"
)

func daemonCmd() *cobra.Command {
	var (
		httpAddr  string
		authToken string
		assets    string
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "run the control plane in the foreground",
		Long:  "Serves the query/ctrl/probe HTTP surface over both TCP and a Unix domain socket, keyed to this process' PID, until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *config.Config
			if configFile != "" {
				var err error
				cfg, err = config.LoadFromFile(configFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
			} else {
				cfg = config.DefaultConfig()
			}
			config.LoadFromEnv(cfg)

			if cmd.Flags().Changed("http") {
				cfg.Server.Address = httpAddr
			}
			if cmd.Flags().Changed("auth-token") {
				cfg.Server.AuthToken = authToken
			}
			if cmd.Flags().Changed("assets") {
				cfg.AssetsRoot = assets
			}

			logging.SetLevelFromString(cfg.Observability.Logging.Level)
			logging.InitStructured(cfg.Observability.Logging.Format, cfg.Observability.Logging.Level)

			if err := observability.Init(context.Background(), observability.Config{
				Enabled:     cfg.Observability.Tracing.Enabled,
				Exporter:    cfg.Observability.Tracing.Exporter,
				Endpoint:    cfg.Observability.Tracing.Endpoint,
				ServiceName: cfg.Observability.Tracing.ServiceName,
				SampleRate:  cfg.Observability.Tracing.SampleRate,
			}); err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			defer observability.Shutdown(context.Background())

			if cfg.Observability.Metrics.Enabled {
				metrics.InitPrometheus(cfg.Observability.Metrics.Namespace)
			}

			ext := extconfig.NewManager()
			ext.Register(extconfig.NewServerExtension(&cfg.Server))
			ext.Register(extconfig.NewPprofExtension(&cfg.Pprof))
			ext.Register(extconfig.NewTaskStatsExtension(&cfg.TaskStats))
			ext.Register(extconfig.NewTorchExtension(&cfg.Torch))
			ext.Register(extconfig.NewPythonExtension(&cfg.Python))

			for _, set := range config.ExtraEnvSettings() {
				if err := applySetString(ext, set); err != nil {
					logging.Op().Warn("ignoring malformed PROBING_* env override", "set", set, "error", err)
				}
			}

			engine := queryengine.NewEngine(ext)

			store := tsstore.NewStore()
			if err := engine.Enable(tsstore.NewNamespacePlugin("probe", store)); err != nil {
				return fmt.Errorf("enable namespace plugin: %w", err)
			}

			unwind.Install()

			bridge := rtbridge.New(rtbridge.Version{Major: 3, Minor: 12})
			if cfg.Python.CrashHandler != "" {
				if err := bridge.InstallCrashHandler(cfg.Python.CrashHandler); err != nil {
					logging.Op().Warn("crash handler not installed", "error", err)
				}
			}
			if cfg.Python.Monitoring != "" {
				if err := bridge.InstallMonitoring(cfg.Python.Monitoring); err != nil {
					logging.Op().Warn("monitoring script not installed", "error", err)
				}
			}

			handler := controlplane.NewHandler()
			handler.Engine = engine
			handler.Ext = ext
			handler.AssetsRoot = cfg.AssetsRoot
			handler.AuthToken = cfg.Server.AuthToken
			handler.RequestTimeout = cfg.Server.RequestTimeout

			servers, err := controlplane.StartServers(handler, &cfg.Server)
			if err != nil {
				return fmt.Errorf("start control plane: %w", err)
			}

			var rep *reporter.Reporter
			if cfg.Server.ReportAddr != "" {
				rep = reporter.New(cfg.Server.ReportAddr)
				hostname, _ := os.Hostname()
				rep.Start(context.Background(), reporter.NodeInfo{
					ID:      crypto.HashString(hostname + ":" + strconv.Itoa(os.Getpid())),
					Addr:    cfg.Server.Address,
					PID:     os.Getpid(),
					Version: "1.0",
				})
				defer rep.Close()
			}

			logging.Op().Info("probe daemon started", "addr", cfg.Server.Address, "pid", os.Getpid())

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			logging.Op().Info("shutdown signal received")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return servers.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", ":9700", "control plane listen address")
	cmd.Flags().StringVar(&authToken, "auth-token", "", "bearer token required on every route but /health")
	cmd.Flags().StringVar(&assets, "assets", "", "directory of static dashboard assets served at /")

	return cmd
}

// applySetString dispatches one "section.key=value" pair (as produced by
// config.ExtraEnvSettings) through the extension registry at startup.
func applySetString(ext *extconfig.Manager, set string) error {
	idx := indexByte(set, '=')
	if idx < 0 {
		return fmt.Errorf("malformed set statement: %q", set)
	}
	return ext.Set(set[:idx], set[idx+1:])
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}
