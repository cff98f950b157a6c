package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the platform secret store round-trips credentials",
	Long: "Write a probe credential through the live platform secret store, read it " +
		"back, and clean it up. Distinguishes entitlement/permission problems from " +
		"code defects when credential operations misbehave.",
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	v, err := buildVault()
	if err != nil {
		return err
	}

	report, err := v.SelfTest()
	if err != nil {
		color.Red("FAIL")
		return err
	}

	color.Green("PASS")
	fmt.Println(report)
	return nil
}
