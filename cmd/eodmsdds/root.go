package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"eodmsdds/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	envFile    string
	logLevel   string
	useTUI     bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "eodmsdds",
	Short: "Download Earth observation archives from the EODMS Data Delivery Service",
	Long: `eodmsdds is a command-line tool for requesting and downloading satellite
imagery archives from the EODMS (Earth Observation Data Management System)
Data Delivery Service.

Features:
  - Secure credential storage using system keychain
  - Item metadata fetch with server-friendly request pacing
  - Concurrent archive downloads with configurable worker count
  - Atomic downloads with size verification and skip-if-complete
  - Optional unzip of downloaded archives
  - Optional SQLite download ledger
  - Automatic retry with exponential backoff honouring Retry-After`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			return
		}
		// Don't show logo for plumbing commands
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" && !useTUI {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.eodmsdds.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file with EODMS_USER and EODMS_PASSWORD (must exist when set)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&useTUI, "tui", false, "use interactive terminal UI with real-time progress")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress banner output")

	// Version template
	rootCmd.SetVersionTemplate(`eodmsdds {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
