// Package inventory resolves which catalog records are already present in
// the download directory. The directory contents are the only ledger of
// prior downloads; there is no manifest.
package inventory

import (
	"fmt"
	"os"

	"github.com/spacefreq/ificsync/internal/catalog"
)

// Inventory is a snapshot of the filenames present in a directory at
// resolution time. It is not live-updated during a run; a file added mid-run
// by another process is not detected.
type Inventory struct {
	names map[string]bool
}

// Snapshot lists the download directory once. A directory that does not
// exist yet resolves to an empty inventory.
func Snapshot(dir string) (*Inventory, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Inventory{names: map[string]bool{}}, nil
		}
		return nil, fmt.Errorf("list download directory %s: %w", dir, err)
	}

	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names[e.Name()] = true
		}
	}
	return &Inventory{names: names}, nil
}

// Has reports whether a filename was present when the snapshot was taken.
func (inv *Inventory) Has(name string) bool {
	return inv.names[name]
}

// Len returns the number of files in the snapshot.
func (inv *Inventory) Len() int {
	return len(inv.names)
}

// Missing returns the catalog records whose names are absent from the
// snapshot, preserving catalog order. An empty result with a non-empty
// catalog means everything is already local.
func (inv *Inventory) Missing(records []catalog.Record) []catalog.Record {
	missing := make([]catalog.Record, 0, len(records))
	for _, rec := range records {
		if !inv.names[rec.Name] {
			missing = append(missing, rec)
		}
	}
	return missing
}
