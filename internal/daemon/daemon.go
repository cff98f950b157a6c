// Package daemon owns the running vault instance: it builds the vault from
// configuration, swaps in a fresh one when the config changes, and hands the
// current instance to the API façade.
package daemon

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/loomchat/loomvault/internal/audit"
	"github.com/loomchat/loomvault/internal/config"
	"github.com/loomchat/loomvault/internal/keystore"
	"github.com/loomchat/loomvault/internal/vault"
)

// Daemon holds the current vault and rebuilds it on config reload.
type Daemon struct {
	configPath string
	newStore   func(service string) (keystore.Store, error)
	auditLog   *audit.Logger

	mu     sync.RWMutex
	vault  *vault.Vault
	cfg    *config.Config
	logger *slog.Logger
}

// Option configures the daemon.
type Option func(*Daemon)

// WithStoreFactory overrides how the platform store is constructed. Tests
// use this to substitute an in-memory store.
func WithStoreFactory(f func(service string) (keystore.Store, error)) Option {
	return func(d *Daemon) {
		d.newStore = f
	}
}

// WithAudit records credential operations to the given audit log.
func WithAudit(l *audit.Logger) Option {
	return func(d *Daemon) {
		d.auditLog = l
	}
}

// New creates a daemon that builds its vault from the config file at path.
func New(configPath string, opts ...Option) *Daemon {
	d := &Daemon{
		configPath: configPath,
		newStore: func(service string) (keystore.Store, error) {
			return keystore.NewSystemStore(service)
		},
		logger: slog.With("component", "daemon"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start builds the initial vault from the config file.
func (d *Daemon) Start() error {
	return d.Reload()
}

// Reload re-reads the config file and swaps in a vault built from it. The
// namespace and provider set are construction-time inputs of the vault, so
// a config change means a new vault value; in-flight operations finish
// against the old one.
func (d *Daemon) Reload() error {
	cfg, err := config.Load(d.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := d.newStore(cfg.Service)
	if err != nil {
		return fmt.Errorf("opening platform store: %w", err)
	}

	opts := []vault.Option{vault.WithLogger(slog.With("component", "vault"))}
	if d.auditLog != nil {
		opts = append(opts, vault.WithAudit(d.auditLog, "daemon"))
	}
	v, err := vault.New(cfg.Service, cfg.Providers, store, opts...)
	if err != nil {
		return fmt.Errorf("building vault: %w", err)
	}

	d.mu.Lock()
	d.vault = v
	d.cfg = cfg
	d.mu.Unlock()

	d.logger.Info("vault ready", "service", cfg.Service, "providers", cfg.Providers)
	return nil
}

// Vault returns the current vault instance.
func (d *Daemon) Vault() *vault.Vault {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.vault
}

// Config returns the config the current vault was built from.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}
