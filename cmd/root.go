// Package cmd implements the anklume CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	outputDir     string
	verbose       bool
	themeOverride string

	appVersion = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "anklume",
	Short: "anklume - synchronize a declarative lab description into its config tree",
	Long: "anklume reads one declarative description of an isolated multi-domain lab\n" +
		"(domains, machines, profiles, network policies) and synchronizes it into an\n" +
		"Ansible-style tree of generated configuration files.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", ".", "output tree root")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&themeOverride, "theme", "", "terminal color theme: dark, light, or auto")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(initCmd)
}

// SetVersionInfo sets the version and commit for display.
func SetVersionInfo(version, commit string) {
	appVersion = version
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("anklume %s (commit: %s)\n", version, commit))
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
