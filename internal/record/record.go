package record

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/opoerator/drop/internal/errors"
)

// Known drop types. The hub treats the set as open; locally these are the
// documented values.
const (
	TypeCheckpoint = "checkpoint"
	TypeContext    = "context"
	TypeHandoff    = "handoff"
	TypeQuestion   = "question"
)

// Defaults applied when the caller leaves sender or type unset.
const (
	DefaultSender = "claude-code"
	DefaultType   = TypeContext
)

// StdinTitle is the derived title for stream input with no explicit title
// and no heading in the content.
const StdinTitle = "stdin-drop"

// KnownSenders enumerates the senders local mode accepts. Remote mode
// passes the sender through and lets the hub decide.
var KnownSenders = []string{"claude-code", "openclaw"}

// Record is a single drop. Content and File are mutually exclusive:
// remote mode carries the text inline, local mode stores a copy and
// records its relative path. All fields except CDNURL are immutable after
// construction; CDNURL is filled in if the upload step succeeds.
type Record struct {
	ID        string   `json:"id"`
	From      string   `json:"from"`
	Title     string   `json:"title"`
	Type      string   `json:"type"`
	Content   string   `json:"content,omitempty"`
	File      string   `json:"file,omitempty"`
	CDNURL    string   `json:"cdn_url,omitempty"`
	Timestamp string   `json:"timestamp"`
	Tags      []string `json:"tags,omitempty"`
}

// NewInput contains parameters for constructing a record.
type NewInput struct {
	Path    string // source file path; empty for stream input
	Content string // raw markdown text
	Sender  string // default: DefaultSender
	Type    string // default: DefaultType
	Title   string // optional override; else first heading, else derived
	Tags    []string
}

// New constructs a record, resolving defaults and the title precedence
// (explicit argument, extracted heading, derived default) and assigning
// the creation timestamp. The returned record has no CDN URL yet.
func New(in NewInput) *Record {
	sender := in.Sender
	if sender == "" {
		sender = DefaultSender
	}
	dropType := in.Type
	if dropType == "" {
		dropType = DefaultType
	}

	title := in.Title
	if title == "" {
		title = ExtractTitle(in.Content)
	}
	if title == "" {
		title = derivedTitle(in.Path)
	}

	return &Record{
		ID:        DeriveID(in.Path),
		From:      sender,
		Title:     title,
		Type:      dropType,
		Content:   in.Content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Tags:      in.Tags,
	}
}

// ReadSource reads the markdown source at path.
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewNotFound(path)
		}
		return "", errors.NewInternal(err)
	}
	return string(data), nil
}

// DeriveID returns the record id for a source path: the filename stem, or
// a fresh ULID for stream input.
func DeriveID(path string) string {
	if path == "" {
		return generateULID()
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ValidSender reports whether local mode accepts the sender. The sender
// names the per-sender directory, so unknown values are rejected before
// any file is copied.
func ValidSender(sender string) bool {
	for _, s := range KnownSenders {
		if s == sender {
			return true
		}
	}
	return false
}

func derivedTitle(path string) string {
	if path == "" {
		return StdinTitle
	}
	return DeriveID(path)
}

func generateULID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
