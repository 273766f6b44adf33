package data

import (
	"context"
	"fmt"
	"strings"

	"github.com/kitu-show/kitu/internal/core/errs"
	"github.com/kitu-show/kitu/internal/persist"
)

// TMDEntry is one `key: value` line.
type TMDEntry struct {
	Key   string
	Value string
}

// TMDDocument is a parsed TMD file. Later duplicates of a key overwrite the
// value but keep the key's first position.
type TMDDocument struct {
	entries map[string]string
	order   []string
}

// ParseTMD parses `key: value` lines. Blank lines and lines starting with '#'
// are skipped; any other line without a ':' fails the whole document.
func ParseTMD(input string) (*TMDDocument, error) {
	doc := &TMDDocument{entries: make(map[string]string)}
	for i, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			return nil, errs.InvalidInput(fmt.Sprintf("line %d: expected key: value", i+1))
		}
		key = strings.TrimSpace(key)
		if _, seen := doc.entries[key]; !seen {
			doc.order = append(doc.order, key)
		}
		doc.entries[key] = strings.TrimSpace(value)
	}
	return doc, nil
}

// Get returns the entry for key.
func (d *TMDDocument) Get(key string) (TMDEntry, bool) {
	v, ok := d.entries[key]
	if !ok {
		return TMDEntry{}, false
	}
	return TMDEntry{Key: key, Value: v}, true
}

// Keys returns keys in first-seen document order.
func (d *TMDDocument) Keys() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

func (d *TMDDocument) Len() int      { return len(d.entries) }
func (d *TMDDocument) IsEmpty() bool { return len(d.entries) == 0 }

// Row returns the document as a single store row.
func (d *TMDDocument) Row() persist.Row {
	row := make(persist.Row, len(d.entries))
	for k, v := range d.entries {
		row[k] = v
	}
	return row
}

// Ingest inserts the document as one row of table, creating the table when
// it does not exist yet.
func (d *TMDDocument) Ingest(ctx context.Context, store persist.TableStore, table string) error {
	if err := persist.EnsureTable(ctx, store, table); err != nil {
		return fmt.Errorf("ingest %s: %w", table, err)
	}
	if err := store.Insert(ctx, table, d.Row()); err != nil {
		return fmt.Errorf("ingest %s: %w", table, err)
	}
	return nil
}
