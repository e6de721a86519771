package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseEntry(t *testing.T) {
	tests := []struct {
		raw        string
		collection string
		wantColl   string
		wantID     string
		wantErr    bool
	}{
		{"RCMImageProducts/13531983", "", "RCMImageProducts", "13531983", false},
		{"  Radarsat2/999  ", "", "Radarsat2", "999", false},
		{"13531983", "RCMImageProducts", "RCMImageProducts", "13531983", false},
		{"13531983", "", "", "", true},
		{"/13531983", "", "", "", true},
		{"RCMImageProducts/", "", "", "", true},
	}

	for _, test := range tests {
		entry, err := parseEntry(test.raw, test.collection)
		if test.wantErr {
			if err == nil {
				t.Errorf("parseEntry(%q) expected error", test.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseEntry(%q) failed: %v", test.raw, err)
			continue
		}
		if entry.CollectionID != test.wantColl || entry.ArchiveID != test.wantID {
			t.Errorf("parseEntry(%q) = %s/%s, expected %s/%s",
				test.raw, entry.CollectionID, entry.ArchiveID, test.wantColl, test.wantID)
		}
	}
}

func TestCollectEntriesFromFile(t *testing.T) {
	dir := t.TempDir()
	idsFile := filepath.Join(dir, "ids.txt")
	content := `# queued orders
RCMImageProducts/100

200
RCMImageProducts/100
`
	if err := os.WriteFile(idsFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := collectEntries([]string{"Radarsat2/50"}, idsFile, "RCMImageProducts")
	if err != nil {
		t.Fatalf("collectEntries failed: %v", err)
	}

	// Args first, then file lines in order, duplicates kept
	want := []struct{ coll, id string }{
		{"Radarsat2", "50"},
		{"RCMImageProducts", "100"},
		{"RCMImageProducts", "200"},
		{"RCMImageProducts", "100"},
	}
	if len(entries) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(entries))
	}
	for i, w := range want {
		if entries[i].CollectionID != w.coll || entries[i].ArchiveID != w.id {
			t.Errorf("entry %d = %s/%s, expected %s/%s",
				i, entries[i].CollectionID, entries[i].ArchiveID, w.coll, w.id)
		}
	}
}

func TestCollectEntriesEmpty(t *testing.T) {
	if _, err := collectEntries(nil, "", ""); err == nil {
		t.Error("Expected error for empty input")
	}
}
