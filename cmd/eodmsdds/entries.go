package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"eodmsdds/pkg/dds"
)

// parseEntry parses a single "collection/archiveId" identifier, falling
// back to the default collection for bare archive ids
func parseEntry(raw, defaultCollection string) (dds.Entry, error) {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, "/"); idx >= 0 {
		collection := strings.TrimSpace(raw[:idx])
		archiveID := strings.TrimSpace(raw[idx+1:])
		if collection == "" || archiveID == "" {
			return dds.Entry{}, fmt.Errorf("invalid identifier %q: expected collection/archiveId", raw)
		}
		return dds.Entry{CollectionID: collection, ArchiveID: archiveID}, nil
	}
	if defaultCollection == "" {
		return dds.Entry{}, fmt.Errorf("identifier %q has no collection: use collection/archiveId or set --collection", raw)
	}
	return dds.Entry{CollectionID: defaultCollection, ArchiveID: raw}, nil
}

// collectEntries builds the entry list from command arguments and an
// optional ids file, preserving order exactly as given. Entries are not
// deduplicated.
func collectEntries(args []string, idsFile, defaultCollection string) ([]dds.Entry, error) {
	var entries []dds.Entry

	for _, arg := range args {
		entry, err := parseEntry(arg, defaultCollection)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if idsFile != "" {
		f, err := os.Open(idsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open ids file: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			entry, err := parseEntry(line, defaultCollection)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read ids file: %w", err)
		}
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no identifiers given: pass collection/archiveId arguments or --ids-file")
	}

	return entries, nil
}
