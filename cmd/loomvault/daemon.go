package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/loomchat/loomvault/internal/api"
	"github.com/loomchat/loomvault/internal/audit"
	"github.com/loomchat/loomvault/internal/daemon"
	"github.com/loomchat/loomvault/internal/logbuf"
	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the loomvault daemon",
	Long:  "Serve the credential API over a Unix socket and reload the vault when the config changes.",
	RunE:  runDaemon,
}

var apiAddr string

func init() {
	daemonCmd.Flags().StringVar(&apiAddr, "api-addr", "", "Optional TCP address for API (e.g. 127.0.0.1:9090)")
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	home, err := loomHome()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(home, 0755); err != nil {
		return fmt.Errorf("creating home dir: %w", err)
	}

	// Tee logs into a ring so the API can serve recent lines.
	ring := logbuf.New(500)
	slog.SetDefault(slog.New(slog.NewTextHandler(io.MultiWriter(os.Stderr, ring), nil)))

	slog.Info("loomvault daemon starting", "config", resolveConfigPath())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	opts := []daemon.Option{}
	if log, err := audit.NewLogger(auditLogPath()); err == nil {
		defer log.Close()
		opts = append(opts, daemon.WithAudit(log))
	} else {
		slog.Warn("audit log unavailable", "error", err)
	}

	d := daemon.New(resolveConfigPath(), opts...)
	if err := d.Start(); err != nil {
		return fmt.Errorf("starting daemon: %w", err)
	}

	go func() {
		if err := d.StartWatcher(ctx); err != nil {
			slog.Error("config watcher error", "error", err)
		}
	}()

	// Start API server
	socketPath := defaultSocketPath()
	// Remove stale socket
	os.Remove(socketPath)
	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return fmt.Errorf("creating socket dir: %w", err)
	}

	srv := api.NewServer(d, ring)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenUnix(socketPath)
	}()

	// Optionally listen on TCP as well; the config file can set this too.
	addr := apiAddr
	if addr == "" {
		addr = d.Config().APIAddr
	}
	if addr != "" {
		go func() {
			if err := srv.ListenTCP(addr); err != nil {
				slog.Error("TCP API error", "error", err)
			}
		}()
	}

	slog.Info("loomvault daemon ready")

	select {
	case sig := <-sigCh:
		slog.Info("received signal, shutting down", "signal", sig)
	case err := <-errCh:
		if err != nil {
			slog.Error("API server error", "error", err)
		}
	}

	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		slog.Warn("API shutdown", "error", err)
	}
	os.Remove(socketPath)
	return nil
}
