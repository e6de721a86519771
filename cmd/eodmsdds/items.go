package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"eodmsdds/pkg/fetcher"
	"eodmsdds/pkg/ui"
)

var (
	itemsIDsFile     string
	itemsCollection  string
	itemsRate        float64
	itemsCatalog     string
	itemsEnvironment string
	itemsAccount     string
	itemsJSON        bool
)

var itemsCmd = &cobra.Command{
	Use:   "items [collection/archiveId...]",
	Short: "Fetch item metadata without downloading",
	Long: `Fetch item metadata for the given identifiers and report each
item's availability status. Nothing is downloaded.

With --json the raw item payloads are printed as a JSON array in input
order, with failed lookups reported as null entries.`,
	Args: cobra.ArbitraryArgs,
	RunE: runItems,
}

func init() {
	rootCmd.AddCommand(itemsCmd)

	itemsCmd.Flags().StringVar(&itemsIDsFile, "ids-file", "", "file with one identifier per line")
	itemsCmd.Flags().StringVar(&itemsCollection, "collection", "", "default collection for bare archive ids")
	itemsCmd.Flags().Float64Var(&itemsRate, "rate-per-second", 0, "max item metadata requests per second")
	itemsCmd.Flags().StringVar(&itemsCatalog, "catalog", "", "DDS catalog (default EODMS)")
	itemsCmd.Flags().StringVar(&itemsEnvironment, "environment", "", "deployment environment (prod or staging)")
	itemsCmd.Flags().StringVar(&itemsAccount, "account", "", "stored account username to authenticate with")
	itemsCmd.Flags().BoolVar(&itemsJSON, "json", false, "print raw item payloads as JSON")
}

func runItems(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("rate-per-second") {
		flags["rate-per-second"] = itemsRate
	}
	if cmd.Flags().Changed("catalog") {
		flags["catalog"] = itemsCatalog
	}
	if cmd.Flags().Changed("environment") {
		flags["environment"] = itemsEnvironment
	}
	if cmd.Root().PersistentFlags().Changed("log-level") {
		flags["log-level"] = logLevel
	}

	cfg, err := loadConfigWithFlags(flags)
	if err != nil {
		return err
	}

	entries, err := collectEntries(args, itemsIDsFile, itemsCollection)
	if err != nil {
		return err
	}

	if err := resolveAccount(cfg, itemsAccount); err != nil {
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

	results, buckets, _, err := f.FetchItems(ctx, entries)
	if err != nil {
		return err
	}

	if itemsJSON {
		payloads := make([]json.RawMessage, 0, len(results))
		for _, result := range results {
			if result.Item != nil && len(result.Item.Raw) > 0 {
				payloads = append(payloads, result.Item.Raw)
			} else {
				payloads = append(payloads, json.RawMessage("null"))
			}
		}
		out, err := json.MarshalIndent(payloads, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode items: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Println()
	for _, result := range results {
		if result.Err != nil {
			ui.PrintError("%s/%s: %v", result.Entry.CollectionID, result.Entry.ArchiveID, result.Err)
			continue
		}
		ui.PrintInfo(fmt.Sprintf("%s/%s", result.Entry.CollectionID, result.Entry.ArchiveID), result.Item.Status)
	}
	fmt.Println()
	ui.PrintInfo("Ready", fmt.Sprintf("%d", len(buckets.Ready)))
	ui.PrintInfo("Queued", fmt.Sprintf("%d", len(buckets.Queued)))
	ui.PrintInfo("Unknown", fmt.Sprintf("%d", len(buckets.Unknown)))

	return nil
}
