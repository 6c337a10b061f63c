package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/opoerator/drop/internal/config"
	"github.com/opoerator/drop/internal/manifest"
	"github.com/opoerator/drop/internal/record"
)

// captureStdout redirects os.Stdout for the duration of fn.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()
	w.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("read captured stdout: %v", err)
	}
	return buf.String()
}

func writeNote(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write note: %v", err)
	}
	return path
}

// TestParseTags tests the parseTags helper function.
func TestParseTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "a", []string{"a"}},
		{"multiple", "a,b,c", []string{"a", "b", "c"}},
		{"whitespace trimmed", " a , b ", []string{"a", "b"}},
		{"empty segments dropped", "a,,b,", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTags(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("parseTags(%q) = %v, want %v", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("parseTags(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestRenderDropped(t *testing.T) {
	var buf bytes.Buffer
	renderDropped(&buf, &record.Record{
		ID:     "note",
		From:   "claude-code",
		Type:   "context",
		CDNURL: "https://cdn.example.com/note.md",
	}, false)

	out := buf.String()
	for _, want := range []string{"Dropped: note", "from: claude-code", "type: context", "cdn:  https://cdn.example.com/note.md"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderDropped_UploadFailed(t *testing.T) {
	var buf bytes.Buffer
	renderDropped(&buf, &record.Record{ID: "note", From: "openclaw", Type: "checkpoint"}, false)

	if !strings.Contains(buf.String(), "(upload failed, stored without CDN)") {
		t.Errorf("output missing CDN fallback line:\n%s", buf.String())
	}
}

func TestRenderDropped_CDNSkipped(t *testing.T) {
	var buf bytes.Buffer
	renderDropped(&buf, &record.Record{ID: "note", From: "openclaw", Type: "checkpoint"}, true)

	out := buf.String()
	if !strings.Contains(out, "cdn:  (skipped)") {
		t.Errorf("output missing skipped line:\n%s", out)
	}
	if strings.Contains(out, "upload failed") {
		t.Errorf("deliberate skip rendered as failure:\n%s", out)
	}
}

func TestRenderList_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderList(&buf, nil)

	if !strings.Contains(buf.String(), "No drops found.") {
		t.Errorf("output = %q, want empty-list message", buf.String())
	}
}

func TestApp_NoAPIKeyFailsBeforeNetwork(t *testing.T) {
	cfg := config.DefaultConfig() // no API key
	app := newCLIApp(cfg)
	path := writeNote(t, "note.md", "# Hello\n")

	err := app.Run([]string{"drop", path})
	if err == nil {
		t.Fatal("expected error with no API key")
	}
	if !strings.Contains(err.Error(), "CONFIG") {
		t.Errorf("err = %v, want CONFIG code", err)
	}
	coder, ok := err.(cli.ExitCoder)
	if !ok || coder.ExitCode() != 1 {
		t.Errorf("err = %v, want exit code 1", err)
	}
}

func TestApp_RemoteDropEndToEnd(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"drop": map[string]any{"id": "drop-7", "from": "claude-code", "type": "context"},
		})
	}))
	defer srv.Close()

	cfg := &config.Config{HubURL: srv.URL, APIKey: "k"}
	app := newCLIApp(cfg)
	path := writeNote(t, "note.md", "# Hello\nbody")

	var runErr error
	out := captureStdout(t, func() {
		runErr = app.Run([]string{"drop", path})
	})
	if runErr != nil {
		t.Fatalf("app.Run failed: %v", runErr)
	}

	// Sender and type unset → defaults; title from the heading.
	if gotBody["title"] != "Hello" {
		t.Errorf("title = %v, want Hello", gotBody["title"])
	}
	if gotBody["from_agent"] != "claude-code" {
		t.Errorf("from_agent = %v, want claude-code", gotBody["from_agent"])
	}
	if gotBody["drop_type"] != "context" {
		t.Errorf("drop_type = %v, want context", gotBody["drop_type"])
	}
	if !strings.Contains(out, "Dropped: drop-7") {
		t.Errorf("output = %q, want drop summary", out)
	}
}

func TestApp_ListRendersDrops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"drops": []map[string]any{
				{"id": "a", "from": "openclaw", "type": "checkpoint", "timestamp": "2026-02-06T12:00:00Z"},
			},
		})
	}))
	defer srv.Close()

	cfg := &config.Config{HubURL: srv.URL, APIKey: "k"}
	app := newCLIApp(cfg)

	var runErr error
	out := captureStdout(t, func() {
		runErr = app.Run([]string{"drop", "--list", "--from", "openclaw"})
	})
	if runErr != nil {
		t.Fatalf("app.Run failed: %v", runErr)
	}
	if !strings.Contains(out, "1 drop(s)") || !strings.Contains(out, "from=openclaw") {
		t.Errorf("output = %q", out)
	}
}

func TestApp_ReadPrintsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"drop": map[string]any{"id": "a", "content": "# Hi\nbody\n"},
		})
	}))
	defer srv.Close()

	cfg := &config.Config{HubURL: srv.URL, APIKey: "k"}
	app := newCLIApp(cfg)

	var runErr error
	out := captureStdout(t, func() {
		runErr = app.Run([]string{"drop", "--read", "a"})
	})
	if runErr != nil {
		t.Fatalf("app.Run failed: %v", runErr)
	}
	if out != "# Hi\nbody\n" {
		t.Errorf("output = %q, want raw content", out)
	}
}

func TestApp_TransportErrorSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("bad key"))
	}))
	defer srv.Close()

	cfg := &config.Config{HubURL: srv.URL, APIKey: "k"}
	app := newCLIApp(cfg)

	err := app.Run([]string{"drop", "--read", "a"})
	if err == nil {
		t.Fatal("expected transport error")
	}
	if !strings.Contains(err.Error(), "API error (403): bad key") {
		t.Errorf("err = %v, want verbatim body", err)
	}
}

func TestApp_LocalDropTwiceKeepsOneEntry(t *testing.T) {
	dropsDir := t.TempDir()
	cfg := &config.Config{HubURL: config.DefaultHubURL, DropsDir: dropsDir}
	path := writeNote(t, "checkpoint.md", "# Checkpoint\nstate\n")

	for i := 0; i < 2; i++ {
		app := newCLIApp(cfg)
		var runErr error
		captureStdout(t, func() {
			runErr = app.Run([]string{"drop", "--local", "--no-cdn", "--from", "openclaw", "--type", "checkpoint", path})
		})
		if runErr != nil {
			t.Fatalf("run %d failed: %v", i, runErr)
		}
	}

	m, err := manifest.Load(filepath.Join(dropsDir, manifest.Filename))
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if len(m.Drops) != 1 {
		t.Fatalf("manifest entries = %d, want 1", len(m.Drops))
	}
	if m.Drops[0].ID != "checkpoint" || m.Drops[0].Type != "checkpoint" || m.Drops[0].From != "openclaw" {
		t.Errorf("record = %+v", m.Drops[0])
	}
}

func TestApp_MissingFile(t *testing.T) {
	cfg := &config.Config{HubURL: config.DefaultHubURL, APIKey: "k"}
	app := newCLIApp(cfg)

	err := app.Run([]string{"drop", filepath.Join(t.TempDir(), "missing.md")})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}
