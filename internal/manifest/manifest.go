// Package manifest manages the local drop manifest: one JSON document
// holding the ordered list of drop records, rewritten in full on every
// update. The manifest file is owned exclusively by this tool.
package manifest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opoerator/drop/internal/errors"
	"github.com/opoerator/drop/internal/record"
)

// Filename is the manifest file name under the drops root.
const Filename = "drops.json"

// Manifest is the ordered record of all local drops.
type Manifest struct {
	Drops []record.Record `json:"drops"`
}

// Load reads the manifest at path. A missing file is an empty manifest,
// not an error.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{Drops: []record.Record{}}, nil
		}
		return nil, errors.NewInternal(err)
	}

	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("parse manifest: %w", err))
	}
	if m.Drops == nil {
		m.Drops = []record.Record{}
	}
	return m, nil
}

// Upsert removes any existing record sharing rec's id and appends rec at
// the end. Re-dropping a source file therefore replaces its prior entry
// and moves it to the last position. Applying the same record twice
// yields the same sequence, and ids stay unique.
func (m *Manifest) Upsert(rec record.Record) {
	kept := m.Drops[:0]
	for _, d := range m.Drops {
		if d.ID != rec.ID {
			kept = append(kept, d)
		}
	}
	m.Drops = append(kept, rec)
}

// Find returns the record with the given id, or nil.
func (m *Manifest) Find(id string) *record.Record {
	for i := range m.Drops {
		if m.Drops[i].ID == id {
			return &m.Drops[i]
		}
	}
	return nil
}

// Save serializes the whole manifest to path. The write goes to a temp
// file first and is renamed into place, so readers never observe a torn
// document. There is no locking: concurrent writers race and the last
// one wins.
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("create manifest directory: %w", err))
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.NewInternal(err)
	}
	data = append(data, '\n')

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return errors.NewInternal(fmt.Errorf("write manifest: %w", err))
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.NewInternal(fmt.Errorf("replace manifest: %w", err))
	}
	return nil
}
