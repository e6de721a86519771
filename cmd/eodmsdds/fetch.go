package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"eodmsdds/pkg/auth"
	"eodmsdds/pkg/config"
	"eodmsdds/pkg/fetcher"
	"eodmsdds/pkg/logger"
	"eodmsdds/pkg/ui"
	"eodmsdds/pkg/ui/tui"
)

var (
	fetchIDsFile     string
	fetchCollection  string
	fetchOutput      string
	fetchWorkers     int
	fetchRate        float64
	fetchUnzip       bool
	fetchKeepZip     bool
	fetchCatalog     string
	fetchEnvironment string
	fetchLedgerDB    string
	fetchAccount     string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [collection/archiveId...]",
	Short: "Fetch item metadata and download ready archives",
	Long: `Fetch item metadata for the given identifiers and download every
archive the service reports as available.

Identifiers take the form collection/archiveId. Bare archive ids are
accepted when --collection is set. Identifiers can also be read from a
file with --ids-file (one per line, # comments allowed). Input order is
preserved and duplicates are requested again.

Items the service reports as queued are counted but not downloaded;
re-run the command later to pick them up once they become available.

Examples:
  eodmsdds fetch RCMImageProducts/13531983
  eodmsdds fetch --collection RCMImageProducts 13531983 13531984
  eodmsdds fetch --ids-file orders.txt --unzip -o ./archives`,
	Args: cobra.ArbitraryArgs,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchIDsFile, "ids-file", "", "file with one identifier per line")
	fetchCmd.Flags().StringVar(&fetchCollection, "collection", "", "default collection for bare archive ids")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "output directory for downloads")
	fetchCmd.Flags().IntVarP(&fetchWorkers, "workers", "w", 0, "number of concurrent download workers")
	fetchCmd.Flags().Float64Var(&fetchRate, "rate-per-second", 0, "max item metadata requests per second")
	fetchCmd.Flags().BoolVar(&fetchUnzip, "unzip", false, "extract downloaded zip archives")
	fetchCmd.Flags().BoolVar(&fetchKeepZip, "keep-zip", false, "keep zip archives after extraction")
	fetchCmd.Flags().StringVar(&fetchCatalog, "catalog", "", "DDS catalog (default EODMS)")
	fetchCmd.Flags().StringVar(&fetchEnvironment, "environment", "", "deployment environment (prod or staging)")
	fetchCmd.Flags().StringVar(&fetchLedgerDB, "ledger-db", "", "path to SQLite download ledger")
	fetchCmd.Flags().StringVar(&fetchAccount, "account", "", "stored account username to authenticate with")
}

// buildFlagOverrides collects the fetch command flags that were explicitly
// set so config precedence stays flags over env over file
func buildFlagOverrides(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})

	if cmd.Flags().Changed("output") {
		flags["output"] = fetchOutput
	}
	if cmd.Flags().Changed("workers") {
		flags["workers"] = fetchWorkers
	}
	if cmd.Flags().Changed("rate-per-second") {
		flags["rate-per-second"] = fetchRate
	}
	if cmd.Flags().Changed("unzip") {
		flags["unzip"] = fetchUnzip
	}
	if cmd.Flags().Changed("keep-zip") {
		flags["keep-zip"] = fetchKeepZip
	}
	if cmd.Flags().Changed("catalog") {
		flags["catalog"] = fetchCatalog
	}
	if cmd.Flags().Changed("environment") {
		flags["environment"] = fetchEnvironment
	}
	if cmd.Flags().Changed("ledger-db") {
		flags["ledger-db"] = fetchLedgerDB
	}
	if cmd.Root().PersistentFlags().Changed("log-level") {
		flags["log-level"] = logLevel
	}

	return flags
}

// loadConfigWithFlags resolves configuration for a command run. A missing
// explicit env file is fatal before any network activity.
func loadConfigWithFlags(flags map[string]interface{}) (*config.Config, error) {
	cfg, err := config.Load(configFile, envFile, flags)
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// resolveAccount loads the named stored account into the config so the
// fetcher authenticates with it
func resolveAccount(cfg *config.Config, username string) error {
	if username == "" {
		return nil
	}
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	account, err := manager.Retrieve(username)
	if err != nil {
		return fmt.Errorf("no stored credentials for %s: %w", username, err)
	}
	cfg.EODMS.Username = account.Username
	cfg.EODMS.Password = account.Password
	return nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigWithFlags(buildFlagOverrides(cmd))
	if err != nil {
		return err
	}

	entries, err := collectEntries(args, fetchIDsFile, fetchCollection)
	if err != nil {
		return err
	}

	if err := resolveAccount(cfg, fetchAccount); err != nil {
		return err
	}

	f, err := fetcher.New(cfg)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	var summary *fetcher.Summary
	if useTUI {
		terminal := tui.NewTUI(cfg.Download.Workers)
		f.SetTUI(terminal)
		err = runWithTUI(cancel, terminal, func() error {
			var runErr error
			summary, runErr = f.Run(ctx, entries)
			return runErr
		})
		if err != nil {
			return err
		}
	} else {
		if !quiet {
			ui.PrintInfo("Catalog", cfg.EODMS.Catalog)
			ui.PrintInfo("Environment", cfg.EODMS.Environment)
			ui.PrintInfo("Output", cfg.Download.OutputDirectory)
			ui.PrintInfo("Items", fmt.Sprintf("%d", len(entries)))
			fmt.Println()
		}

		summary, err = f.Run(ctx, entries)
		if err != nil {
			return err
		}
		printSummary(summary)
	}

	if summary != nil && summary.Failed > 0 {
		// Deferred cleanup does not run past os.Exit
		f.Close()
		os.Exit(1)
	}
	return nil
}

// uiRunner is the part of the terminal UI the fetch loop drives
type uiRunner interface {
	Start() error
	Stop()
}

// runWithTUI runs the fetch alongside the terminal UI event loop. The UI
// owns the foreground; the fetch runs in a goroutine and stops the UI when
// it finishes. If the UI exits first the fetch is cancelled and drained.
func runWithTUI(cancel context.CancelFunc, terminal uiRunner, run func() error) error {
	runDone := make(chan error, 1)
	go func() {
		runDone <- run()
	}()

	tuiDone := make(chan error, 1)
	go func() {
		tuiDone <- terminal.Start()
	}()

	select {
	case err := <-runDone:
		terminal.Stop()
		<-tuiDone
		return err
	case err := <-tuiDone:
		cancel()
		runErr := <-runDone
		if err != nil {
			return fmt.Errorf("terminal UI failed: %w", err)
		}
		return runErr
	}
}

func printSummary(summary *fetcher.Summary) {
	fmt.Println()
	ui.PrintHighlight("Run summary")
	ui.PrintInfo("Items requested", fmt.Sprintf("%d", summary.Total))
	ui.PrintInfo("Ready", fmt.Sprintf("%d", summary.Ready))
	ui.PrintInfo("Queued", fmt.Sprintf("%d", summary.Queued))
	ui.PrintInfo("Unknown", fmt.Sprintf("%d", summary.Unknown))
	ui.PrintInfo("Downloaded", fmt.Sprintf("%d", summary.Downloaded))
	if summary.Skipped > 0 {
		ui.PrintInfo("Skipped", fmt.Sprintf("%d (already complete)", summary.Skipped))
	}
	if summary.Failed > 0 {
		ui.PrintError("Failed: %d", summary.Failed)
	}
	if summary.Queued > 0 {
		ui.PrintWarning("%d items are still queued; re-run later to download them", summary.Queued)
	}
}
