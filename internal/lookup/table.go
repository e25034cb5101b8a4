// Package lookup opens the read-only datasets used by lookup operations
// (country, city, asn).
package lookup

import (
	"errors"
	"fmt"
	"net/netip"
	"sort"

	"gopkg.in/yaml.v3"
)

// Table maps keys to values. Keys are exact strings or CIDR prefixes; an
// address that has no exact entry resolves to its longest matching prefix.
// A Table is immutable after LoadTable and safe for concurrent reads.
type Table struct {
	exact    map[string]string
	prefixes []prefixEntry
}

type prefixEntry struct {
	prefix netip.Prefix
	value  string
}

// tableFile is the on-disk YAML shape.
type tableFile struct {
	Entries map[string]string `yaml:"entries"`
}

// LoadTable parses a YAML lookup table:
//
//	entries:
//	  "217.69.0.0/16": RU
//	  "10.0.0.1": private
func LoadTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse lookup table: %w", err)
	}
	if len(f.Entries) == 0 {
		return nil, errors.New("lookup table has no entries")
	}
	return NewTable(f.Entries)
}

// NewTable builds a table from raw entries.
func NewTable(entries map[string]string) (*Table, error) {
	t := &Table{exact: make(map[string]string, len(entries))}
	for key, value := range entries {
		if key == "" {
			return nil, errors.New("lookup table contains an empty key")
		}
		if p, err := netip.ParsePrefix(key); err == nil {
			t.prefixes = append(t.prefixes, prefixEntry{prefix: p.Masked(), value: value})
			continue
		}
		if addr, err := netip.ParseAddr(key); err == nil {
			key = addr.Unmap().String()
		}
		t.exact[key] = value
	}

	// Longest prefix first so the first match wins.
	sort.Slice(t.prefixes, func(i, j int) bool {
		if t.prefixes[i].prefix.Bits() != t.prefixes[j].prefix.Bits() {
			return t.prefixes[i].prefix.Bits() > t.prefixes[j].prefix.Bits()
		}
		return t.prefixes[i].prefix.String() < t.prefixes[j].prefix.String()
	})
	return t, nil
}

// Lookup returns the value for key.
func (t *Table) Lookup(key string) (string, bool) {
	if v, ok := t.exact[key]; ok {
		return v, true
	}
	addr, err := netip.ParseAddr(key)
	if err != nil {
		return "", false
	}
	addr = addr.Unmap()
	if v, ok := t.exact[addr.String()]; ok {
		return v, true
	}
	for _, e := range t.prefixes {
		if e.prefix.Contains(addr) {
			return e.value, true
		}
	}
	return "", false
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.exact) + len(t.prefixes)
}
