package manifest

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/opoerator/drop/internal/record"
)

func rec(id, title string) record.Record {
	return record.Record{
		ID:        id,
		From:      "claude-code",
		Title:     title,
		Type:      "context",
		File:      "claude-code/" + id + ".md",
		Timestamp: "2026-02-06T12:00:00Z",
	}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), Filename))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(m.Drops) != 0 {
		t.Errorf("Drops = %v, want empty", m.Drops)
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)
	if err := os.WriteFile(path, []byte("{nope"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load of malformed manifest succeeded, want error")
	}
}

func TestUpsert_AppendsNew(t *testing.T) {
	m := &Manifest{}
	m.Upsert(rec("a", "First"))
	m.Upsert(rec("b", "Second"))

	if len(m.Drops) != 2 {
		t.Fatalf("len = %d, want 2", len(m.Drops))
	}
	if m.Drops[0].ID != "a" || m.Drops[1].ID != "b" {
		t.Errorf("order = %s, %s, want a, b", m.Drops[0].ID, m.Drops[1].ID)
	}
}

func TestUpsert_ReplacesAndMovesToEnd(t *testing.T) {
	m := &Manifest{}
	m.Upsert(rec("a", "First"))
	m.Upsert(rec("b", "Second"))
	m.Upsert(rec("a", "Replaced"))

	if len(m.Drops) != 2 {
		t.Fatalf("len = %d, want 2", len(m.Drops))
	}
	if m.Drops[0].ID != "b" {
		t.Errorf("Drops[0].ID = %q, want %q (a moved to end)", m.Drops[0].ID, "b")
	}
	if m.Drops[1].ID != "a" || m.Drops[1].Title != "Replaced" {
		t.Errorf("Drops[1] = %+v, want replaced record last", m.Drops[1])
	}
}

func TestUpsert_Idempotent(t *testing.T) {
	m := &Manifest{}
	m.Upsert(rec("a", "First"))
	r := rec("b", "Second")
	m.Upsert(r)
	m.Upsert(r)

	if len(m.Drops) != 2 {
		t.Fatalf("len = %d, want 2 after repeated upsert", len(m.Drops))
	}
	if !reflect.DeepEqual(m.Drops[1], r) {
		t.Errorf("Drops[1] = %+v, want last-applied record", m.Drops[1])
	}
}

func TestUpsert_IDUniquenessInvariant(t *testing.T) {
	m := &Manifest{}
	ids := []string{"a", "b", "a", "c", "b", "a", "a"}
	for i, id := range ids {
		m.Upsert(rec(id, "v"+string(rune('0'+i))))

		seen := make(map[string]bool)
		for _, d := range m.Drops {
			if seen[d.ID] {
				t.Fatalf("duplicate id %q after upsert %d", d.ID, i)
			}
			seen[d.ID] = true
		}
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)

	m := &Manifest{}
	m.Upsert(rec("checkpoint", "Checkpoint"))
	m.Upsert(rec("notes", "Notes"))
	if err := m.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Drops) != 2 {
		t.Fatalf("len = %d, want 2", len(loaded.Drops))
	}
	if !reflect.DeepEqual(loaded.Drops, m.Drops) {
		t.Errorf("round trip mismatch: %+v", loaded.Drops)
	}
}

func TestSave_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, Filename)

	m := &Manifest{}
	m.Upsert(rec("a", "A"))
	if err := m.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestSave_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", Filename)

	m := &Manifest{}
	m.Upsert(rec("a", "A"))
	if err := m.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("manifest not written: %v", err)
	}
}

func TestFind(t *testing.T) {
	m := &Manifest{}
	m.Upsert(rec("a", "A"))

	if got := m.Find("a"); got == nil || got.Title != "A" {
		t.Errorf("Find(a) = %+v, want record A", got)
	}
	if got := m.Find("zzz"); got != nil {
		t.Errorf("Find(zzz) = %+v, want nil", got)
	}
}
