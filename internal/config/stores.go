package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UnknownStoreName is shown in staff notices when a store id is missing
// from the directory.
const UnknownStoreName = "未知店鋪"

// StoreEntry is one row of the store directory file.
type StoreEntry struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

type storesFile struct {
	Stores []StoreEntry `yaml:"stores"`
}

// StoreDirectory resolves store ids to display names.  It is loaded once at
// start-up and read-only afterwards, so it is safe for concurrent use.
type StoreDirectory struct {
	byID map[int64]StoreEntry
}

// NewStoreDirectory builds a directory from in-memory entries.
func NewStoreDirectory(entries ...StoreEntry) *StoreDirectory {
	d := &StoreDirectory{byID: make(map[int64]StoreEntry, len(entries))}
	for _, e := range entries {
		d.byID[e.ID] = e
	}
	return d
}

// LoadStores reads the YAML store directory.  Environment references such as
// ${STORE_1_NAME} are expanded before parsing.
func LoadStores(path string) (*StoreDirectory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stores file: %w", err)
	}
	var f storesFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &f); err != nil {
		return nil, fmt.Errorf("parse stores file: %w", err)
	}
	for _, s := range f.Stores {
		if s.ID <= 0 || s.Name == "" {
			return nil, fmt.Errorf("stores file: entry %+v needs id and name", s)
		}
	}
	return NewStoreDirectory(f.Stores...), nil
}

// Name returns the display name of a store or UnknownStoreName.
func (d *StoreDirectory) Name(id int64) string {
	if d != nil {
		if e, ok := d.byID[id]; ok {
			return e.Name
		}
	}
	return UnknownStoreName
}
