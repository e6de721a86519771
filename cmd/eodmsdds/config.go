package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"eodmsdds/pkg/config"
	"eodmsdds/pkg/ledger"
	"eodmsdds/pkg/ui"
)

var configInitLedger string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage eodmsdds configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - Environment file (.env)
  - Configuration file
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'eodmsdds.yaml'
unless a different path is specified with the --config flag. With
--ledger-db an empty download ledger database is created as well.`,
	Run: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources.

Sensitive values like the account password are masked.`,
	Run: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVar(&configInitLedger, "ledger-db", "", "also create an empty download ledger at this path")
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "eodmsdds.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists: %s", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# eodmsdds configuration file
#
# Credentials can also come from the environment (EODMS_USER and
# EODMS_PASSWORD), a .env file, or 'eodmsdds auth login'.

eodms:
  # EODMS account username (optional when using stored credentials)
  username: ""

  # EODMS account password (prefer stored credentials or env vars)
  password: ""

  # Deployment environment: prod or staging
  environment: "prod"

  # DDS catalog to query
  catalog: "EODMS"

# Item metadata fetch settings
items:
  # Max metadata requests per second
  rate_per_second: 4.0

  # Per-request timeout
  timeout: 60s

# Download settings
download:
  # Output directory; archives land in <output>/completed
  output_directory: "./downloads"

  # Number of concurrent download workers
  workers: 3

  # Extract downloaded zip archives
  unzip: false

  # Keep zip archives after extraction
  keep_zip: true

# Retry behaviour for API and download requests
retry:
  max_attempts: 5
  base_delay: 1s
  max_delay: 30s
  backoff_multiplier: 2.0

# Optional SQLite download ledger; leave path empty to disable
ledger:
  path: ""

# Logging configuration
logging:
  # debug, info, warn, or error
  level: "info"

  # Optional log file; empty logs to stderr
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file: %v", err)
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)

	if configInitLedger != "" {
		if err := ledger.CreateSchema(configInitLedger); err != nil {
			ui.PrintError("Failed to create ledger database: %v", err)
			os.Exit(1)
		}
		ui.PrintSuccess("Ledger database created: " + configInitLedger)
		fmt.Println("\nPoint the ledger at it in " + configPath + ":")
		fmt.Printf("  ledger:\n    path: %q\n", configInitLedger)
	}

	fmt.Println("\nEdit the file, then verify it with:")
	fmt.Printf("  eodmsdds config validate --config %s\n", configPath)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	flags := make(map[string]interface{})
	if cmd.Root().PersistentFlags().Changed("log-level") {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, envFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// Mask secrets before printing
	shown := *cfg
	if shown.EODMS.Password != "" {
		shown.EODMS.Password = "********"
	}

	out, err := yaml.Marshal(&shown)
	if err != nil {
		ui.PrintError("Failed to render configuration: %v", err)
		os.Exit(1)
	}

	fmt.Println("Current configuration:")
	fmt.Println()
	fmt.Print(string(out))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile == "" {
		ui.PrintError("No configuration file specified; use --config")
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		ui.PrintError("Configuration file is invalid: %v", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		ui.PrintError("Configuration is invalid: %v", err)
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file is valid: " + configFile)
}
