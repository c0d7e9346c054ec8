// Package catalog holds the read-only supplement table loaded at startup.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Column names expected in the catalog header row.
const (
	ColumnName        = "supplement_name"
	ColumnDescription = "description"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("catalog: missing required column")

// Supplement is one catalog record.
type Supplement struct {
	Name        string
	Description string
}

// Catalog is an ordered, immutable list of supplements. It is safe for
// concurrent use once loaded.
type Catalog struct {
	items []Supplement
	// lowered descriptions, same index as items
	lowered []string
}

// Load reads the catalog CSV at path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close() //nolint:errcheck

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse reads a catalog from CSV. The first row must be a header naming at
// least the supplement_name and description columns; other columns are ignored.
func Parse(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	nameIdx, descIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")) {
		case ColumnName:
			nameIdx = i
		case ColumnDescription:
			descIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnName)
	}
	if descIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnDescription)
	}

	c := &Catalog{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		name := strings.TrimSpace(field(row, nameIdx))
		if name == "" {
			continue
		}
		desc := strings.TrimSpace(field(row, descIdx))
		c.items = append(c.items, Supplement{Name: name, Description: desc})
		c.lowered = append(c.lowered, strings.ToLower(desc))
	}
	return c, nil
}

// New builds a catalog from in-memory records, mostly for tests.
func New(items []Supplement) *Catalog {
	c := &Catalog{
		items:   make([]Supplement, len(items)),
		lowered: make([]string, len(items)),
	}
	copy(c.items, items)
	for i, s := range items {
		c.lowered[i] = strings.ToLower(s.Description)
	}
	return c
}

// Match returns, in catalog order, the names of supplements whose description
// contains any of the goals as a case-insensitive substring. Blank goals are
// ignored. A nil slice means nothing matched.
func (c *Catalog) Match(goals []string) []string {
	needles := make([]string, 0, len(goals))
	for _, g := range goals {
		g = strings.ToLower(strings.TrimSpace(g))
		if g != "" {
			needles = append(needles, g)
		}
	}
	if len(needles) == 0 {
		return nil
	}

	var names []string
	for i, desc := range c.lowered {
		for _, n := range needles {
			if strings.Contains(desc, n) {
				names = append(names, c.items[i].Name)
				break
			}
		}
	}
	return names
}

// Len reports the number of supplements.
func (c *Catalog) Len() int {
	return len(c.items)
}

// All returns a copy of every record in catalog order.
func (c *Catalog) All() []Supplement {
	out := make([]Supplement, len(c.items))
	copy(out, c.items)
	return out
}

func field(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}
