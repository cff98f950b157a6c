package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func apiClient() *http.Client {
	socketPath := defaultSocketPath()
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return net.Dial("unix", socketPath)
			},
		},
	}
}

func apiGet(path string, v any) error {
	resp, err := apiClient().Get("http://loomvault" + path)
	if err != nil {
		return fmt.Errorf("connecting to daemon: %w (is loomvault daemon running?)", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return fmt.Errorf("API error %d: %s", resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status and configured providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		var status struct {
			Service    string   `json:"service"`
			Providers  []string `json:"providers"`
			Configured bool     `json:"configured"`
		}
		if err := apiGet("/v1/status", &status); err != nil {
			return err
		}

		fmt.Printf("Service: %s\n", status.Service)
		if status.Configured {
			fmt.Println("Credentials: configured")
		} else {
			fmt.Println("Credentials: none stored")
		}

		var creds map[string]*string
		if err := apiGet("/v1/credentials", &creds); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tKEY")
		for _, p := range status.Providers {
			state := "-"
			if creds[p] != nil {
				state = "set"
			}
			fmt.Fprintf(w, "%s\t%s\n", p, state)
		}
		w.Flush()
		return nil
	},
}

// logs command
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent daemon log lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("lines")

		var result struct {
			Lines []string `json:"lines"`
		}
		if err := apiGet(fmt.Sprintf("/v1/logs?n=%d", n), &result); err != nil {
			return err
		}
		for _, line := range result.Lines {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().Int("lines", 100, "Number of log lines to show")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logsCmd)
}
