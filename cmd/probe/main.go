// Command probe is the CLI entrypoint for the in-process observability
// agent: it can run as a standalone daemon exposing the control plane,
// attach to and inject itself into a running process, or act as a thin
// client sending queries/control signals at an already-running instance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	targetAddr string // host:port or unix socket path of a running daemon
	configFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "probe",
		Short: "probe - in-process observability agent",
		Long:  "probe attaches to, and runs inside, a target process to serve live diagnostics over a SQL-like query surface.",
	}

	rootCmd.PersistentFlags().StringVar(&targetAddr, "addr", "127.0.0.1:9700", "control plane address of a running daemon")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (optional, flags/env override)")

	rootCmd.AddCommand(
		daemonCmd(),
		attachCmd(),
		injectCmd(),
		queryCmd(),
		ctrlCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the probe version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("probe dev")
			return nil
		},
	}
}
