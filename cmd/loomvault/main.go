package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "loomvault",
	Short: "Credential vault for the Loom chat client",
}

var configPath string

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.loomvault/config.yaml)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
