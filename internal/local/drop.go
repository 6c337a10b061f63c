// Package local implements the local drop pipeline: copy the source into
// a per-sender directory, upload to the CDN (best-effort), upsert the
// manifest, and optionally publish the drops tree with git.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/opoerator/drop/internal/config"
	"github.com/opoerator/drop/internal/errors"
	"github.com/opoerator/drop/internal/manifest"
	"github.com/opoerator/drop/internal/record"
)

// Uploader posts a stored drop file to the CDN.
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// Publisher commits and pushes the drops tree.
type Publisher interface {
	Publish(dropsDir, message string) error
}

// Pipeline holds the collaborators of a local drop. Diag receives
// warnings for the non-fatal steps (CDN upload, publish).
type Pipeline struct {
	Config    *config.Config
	Uploader  Uploader
	Publisher Publisher
	Diag      io.Writer
}

// DropInput contains parameters for a local drop.
type DropInput struct {
	Path    string // source file; empty when Content carries stdin text
	Content string // stdin text; ignored when Path is set
	Sender  string
	Type    string
	Title   string
	SkipCDN bool
	Publish bool
}

// Drop runs the pipeline and returns the final record as written to the
// manifest. A failed CDN upload leaves the CDN URL absent and is reported
// on Diag only; a failed publish likewise.
func (p *Pipeline) Drop(ctx context.Context, in DropInput) (*record.Record, error) {
	sender := in.Sender
	if sender == "" {
		sender = record.DefaultSender
	}
	if !record.ValidSender(sender) {
		return nil, errors.NewConfig(fmt.Sprintf(
			"unknown sender %q; known senders: %s", sender, strings.Join(record.KnownSenders, ", ")))
	}

	content := in.Content
	if in.Path != "" {
		var err error
		content, err = record.ReadSource(in.Path)
		if err != nil {
			return nil, err
		}
	}

	// Tags are a remote-mode concept; local manifest records carry none.
	rec := record.New(record.NewInput{
		Path:    in.Path,
		Content: content,
		Sender:  sender,
		Type:    in.Type,
		Title:   in.Title,
	})

	// Local mode persists a stored copy, not inline text.
	relPath := filepath.Join(sender, rec.ID+".md")
	storedPath := filepath.Join(p.Config.DropsDir, relPath)
	if err := os.MkdirAll(filepath.Dir(storedPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("create sender directory: %w", err))
	}
	if err := os.WriteFile(storedPath, []byte(content), 0600); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("store drop copy: %w", err))
	}
	rec.File = relPath
	rec.Content = ""

	if !in.SkipCDN {
		url, err := p.Uploader.Upload(ctx, storedPath)
		if err != nil {
			fmt.Fprintf(p.Diag, "warning: CDN upload failed, storing without CDN: %v\n", err)
		} else {
			rec.CDNURL = url
		}
	}

	manifestPath := filepath.Join(p.Config.DropsDir, manifest.Filename)
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	m.Upsert(*rec)
	if err := m.Save(manifestPath); err != nil {
		return nil, err
	}

	if in.Publish {
		if err := p.Publisher.Publish(p.Config.DropsDir, rec.Title); err != nil {
			fmt.Fprintf(p.Diag, "warning: publish failed: %v\n", err)
		}
	}

	return rec, nil
}
