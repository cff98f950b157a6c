package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/loomchat/loomvault/internal/audit"
	"github.com/loomchat/loomvault/internal/config"
	"github.com/loomchat/loomvault/internal/keystore"
	"github.com/loomchat/loomvault/internal/vault"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// buildVault constructs a vault against the live platform store, using the
// same config the daemon would.
func buildVault() (*vault.Vault, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, err
	}

	store, err := keystore.NewSystemStore(cfg.Service)
	if err != nil {
		return nil, err
	}

	// Audit logging is best-effort: a CLI invocation without a writable
	// home directory still works.
	opts := []vault.Option{}
	if home, err := loomHome(); err == nil {
		if err := os.MkdirAll(home, 0755); err == nil {
			if log, err := audit.NewLogger(auditLogPath()); err == nil {
				opts = append(opts, vault.WithAudit(log, "cli"))
			}
		}
	}

	return vault.New(cfg.Service, cfg.Providers, store, opts...)
}

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage provider API keys in the platform secret store",
}

var keySetCmd = &cobra.Command{
	Use:   "set <provider> [value]",
	Short: "Store an API key for a provider",
	Long:  "Store an API key. If value is omitted, reads from stdin (useful for piping).",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := buildVault()
		if err != nil {
			return err
		}
		provider := args[0]

		var value string
		if len(args) == 2 {
			value = args[1]
		} else {
			// Read from stdin
			if term.IsTerminal(int(os.Stdin.Fd())) {
				fmt.Printf("Enter API key for %s: ", provider)
				b, err := term.ReadPassword(int(os.Stdin.Fd()))
				if err != nil {
					return fmt.Errorf("reading key: %w", err)
				}
				fmt.Println()
				value = string(b)
			} else {
				b, err := os.ReadFile("/dev/stdin")
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				value = strings.TrimRight(string(b), "\n")
			}
		}

		if err := v.Set(provider, value); err != nil {
			return err
		}
		fmt.Printf("API key for %q stored\n", provider)
		return nil
	},
}

var keyGetCmd = &cobra.Command{
	Use:   "get <provider>",
	Short: "Retrieve a provider's API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := buildVault()
		if err != nil {
			return err
		}
		val, ok, err := v.Get(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no API key stored for %q", args[0])
		}
		fmt.Println(val)
		return nil
	},
}

var keyListCmd = &cobra.Command{
	Use:     "list",
	Short:   "Show which providers have API keys",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := buildVault()
		if err != nil {
			return err
		}
		creds, err := v.All()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tKEY")
		for _, p := range v.Providers() {
			status := "-"
			if creds[p] != nil {
				status = "set"
			}
			fmt.Fprintf(w, "%s\t%s\n", p, status)
		}
		w.Flush()
		return nil
	},
}

var keyDeleteCmd = &cobra.Command{
	Use:     "delete <provider>",
	Short:   "Remove a provider's API key",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := buildVault()
		if err != nil {
			return err
		}
		if err := v.Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("API key for %q removed\n", args[0])
		return nil
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every configured provider's API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := buildVault()
		if err != nil {
			return err
		}
		if err := v.ClearAll(); err != nil {
			return err
		}
		fmt.Println("All API keys removed")
		return nil
	},
}

func init() {
	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyGetCmd)
	keyCmd.AddCommand(keyListCmd)
	keyCmd.AddCommand(keyDeleteCmd)
	keyCmd.AddCommand(keyClearCmd)
	rootCmd.AddCommand(keyCmd)
}
