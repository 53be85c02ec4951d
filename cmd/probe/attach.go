package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/oriys/probe/internal/injector"
	"github.com/oriys/probe/internal/pkg/fsutil"
)

// attachCmd ptrace-attaches to a running process and reports its thread
// count and mapped libc, without injecting anything — useful to sanity
// check that the target is traceable before running inject.
func attachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach <pid>",
		Short: "attach to a running process and report its threads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid pid: %s", args[0])
			}

			in, err := injector.Attach(pid)
			if err != nil {
				return err
			}
			defer in.Close()

			proc := injector.NewProcess(pid)
			tids, err := proc.ThreadIDs()
			if err != nil {
				return err
			}
			fmt.Printf("Attached to pid %d (%d threads)\n", pid, len(tids))

			base, path, err := proc.LibcAddress()
			if err != nil {
				fmt.Printf("  libc: not found (%v)\n", err)
			} else {
				fmt.Printf("  libc: %s @ 0x%x\n", path, base)
			}
			return nil
		},
	}
	return cmd
}

// injectCmd attaches to pid and loads the agent's shared library into it.
func injectCmd() *cobra.Command {
	var (
		libraryPath string
		envVars     []string
	)

	cmd := &cobra.Command{
		Use:   "inject <pid>",
		Short: "inject the agent shared library into a running process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid pid: %s", args[0])
			}
			if libraryPath == "" {
				return fmt.Errorf("--library is required")
			}

			libHash, err := fsutil.HashFile(libraryPath)
			if err != nil {
				return fmt.Errorf("hash library: %w", err)
			}

			env := make(map[string]string, len(envVars))
			for _, kv := range envVars {
				idx := indexByte(kv, '=')
				if idx < 0 {
					continue
				}
				env[kv[:idx]] = kv[idx+1:]
			}

			in, err := injector.Attach(pid)
			if err != nil {
				return fmt.Errorf("attach to %d: %w", pid, err)
			}
			defer in.Close()

			if err := in.Inject(libraryPath, env); err != nil {
				return fmt.Errorf("inject into %d: %w", pid, err)
			}

			fmt.Printf("Injected %s (sha256 prefix %s) into pid %d\n", libraryPath, libHash, pid)
			return nil
		},
	}

	cmd.Flags().StringVarP(&libraryPath, "library", "l", "", "path to the agent shared library to dlopen in the target")
	cmd.Flags().StringArrayVarP(&envVars, "env", "e", nil, "environment variables to set in the target before dlopen (KEY=VALUE)")
	cmd.MarkFlagRequired("library")

	return cmd
}
