// Package progress joins external per-lot progress figures against numbered
// lots.
//
// The table is a CSV export with a header row. Required columns are "zone",
// "number" and "progress" (a percentage); an optional "flagged" column marks
// lots with open observations. Column names are matched case-insensitively.
package progress

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/lotplan-mcp/internal/lots"
)

// Entry is the progress record of one lot.
type Entry struct {
	Percent float64 `json:"percent"`
	Flagged bool    `json:"flagged,omitempty"`
}

// Table maps lot keys to progress entries.
type Table struct {
	entries map[lots.Key]Entry
}

// NewTable builds a table from in-memory entries.
func NewTable(entries map[lots.Key]Entry) *Table {
	t := &Table{entries: make(map[lots.Key]Entry, len(entries))}
	for k, e := range entries {
		t.entries[k] = e
	}
	return t
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Lookup returns the entry for k. A nil table has no entries.
func (t *Table) Lookup(k lots.Key) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.entries[k]
	return e, ok
}

// Keys returns all keys sorted by zone, then number.
func (t *Table) Keys() []lots.Key {
	if t == nil {
		return nil
	}
	keys := make([]lots.Key, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Zone != keys[j].Zone {
			return keys[i].Zone < keys[j].Zone
		}
		return keys[i].Number < keys[j].Number
	})
	return keys
}

// Mean returns the average progress over all entries, or 0 for an empty table.
func (t *Table) Mean() float64 {
	if t.Len() == 0 {
		return 0
	}
	values := make([]float64, 0, len(t.entries))
	for _, k := range t.Keys() {
		values = append(values, t.entries[k].Percent)
	}
	return stat.Mean(values, nil)
}

// MeanOf averages the entries for keys. Keys without an entry count as 0.
func (t *Table) MeanOf(keys []lots.Key) float64 {
	if len(keys) == 0 {
		return 0
	}
	values := make([]float64, len(keys))
	for i, k := range keys {
		e, _ := t.Lookup(k)
		values[i] = e.Percent
	}
	return stat.Mean(values, nil)
}

// LoadFile reads the progress table at path. Errors name the file.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open progress table: %w", err)
	}
	defer f.Close()

	t, err := LoadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadCSV reads a progress table. Errors carry the 1-based line number.
func LoadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("progress table is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{"zone", "number", "progress"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("line 1: missing column %q", required)
		}
	}
	flagCol, hasFlag := cols["flagged"]

	t := &Table{entries: make(map[lots.Key]Entry)}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read progress table: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if isBlank(record) {
			continue
		}

		field := func(name string) string {
			i := cols[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		zone := field("zone")
		if zone == "" {
			return nil, fmt.Errorf("line %d: empty zone", line)
		}
		number, err := strconv.Atoi(field("number"))
		if err != nil || number < 1 {
			return nil, fmt.Errorf("line %d: invalid lot number %q", line, field("number"))
		}
		pct, err := parsePercent(field("progress"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		e := Entry{Percent: pct}
		if hasFlag && flagCol < len(record) {
			e.Flagged, err = parseFlag(record[flagCol])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}

		key := lots.Key{Zone: zone, Number: number}
		if _, dup := t.entries[key]; dup {
			return nil, fmt.Errorf("line %d: duplicate entry for %s", line, key)
		}
		t.entries[key] = e
	}
	return t, nil
}

// parsePercent accepts "42", "42.5", "42%" and "42,5".
func parsePercent(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	s = strings.Replace(s, ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid progress %q", s)
	}
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("progress %g out of range [0, 100]", v)
	}
	return v, nil
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "n":
		return false, nil
	case "1", "true", "yes", "y", "si", "sí", "x":
		return true, nil
	}
	return false, fmt.Errorf("invalid flagged value %q", s)
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
