package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// queryCmd sends a SQL statement to a running daemon's /query endpoint
// and prints the RON-encoded reply.
func queryCmd() *cobra.Command {
	var authToken string

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "run a SQL statement against a running daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := fmt.Sprintf("Query(expr: %q, opts: None)", args[0])
			reply, err := postRON(targetAddr, "/query", body, authToken)
			if err != nil {
				return err
			}
			fmt.Println(reply)
			return nil
		},
	}

	cmd.Flags().StringVar(&authToken, "auth-token", "", "bearer token, if the daemon requires one")
	return cmd
}

// ctrlCmd sends a control signal (currently only SET key=value) to a
// running daemon's /ctrl endpoint.
func ctrlCmd() *cobra.Command {
	var authToken string

	cmd := &cobra.Command{
		Use:   "ctrl <key>=<value>",
		Short: "set a configuration option on a running daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value, ok := strings.Cut(args[0], "=")
			if !ok {
				return fmt.Errorf("expected <key>=<value>, got %q", args[0])
			}
			body := fmt.Sprintf("Set(key: %q, value: %q)", key, value)
			reply, err := postRON(targetAddr, "/ctrl", body, authToken)
			if err != nil {
				return err
			}
			fmt.Println(reply)
			return nil
		},
	}

	cmd.Flags().StringVar(&authToken, "auth-token", "", "bearer token, if the daemon requires one")
	return cmd
}

func postRON(addr, path, body, authToken string) (string, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequest(http.MethodPost, "http://"+addr+path, strings.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/plain")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: %s (status %d)", path, data, resp.StatusCode)
	}
	return string(data), nil
}
