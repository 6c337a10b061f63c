package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/opoerator/drop/internal/cdn"
	"github.com/opoerator/drop/internal/config"
	"github.com/opoerator/drop/internal/errors"
	"github.com/opoerator/drop/internal/hub"
	"github.com/opoerator/drop/internal/local"
	"github.com/opoerator/drop/internal/mcp"
	"github.com/opoerator/drop/internal/record"
	"github.com/opoerator/drop/internal/vcs"
)

// newCLIApp creates the CLI application. The default action drops a file
// (or stdin) to the hub; --list and --read switch to the query modes;
// --local switches to the manifest/CDN/git pipeline.
func newCLIApp(cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:      "drop",
		Usage:     "Universal agent drop CLI — posts to the hub",
		Version:   Version,
		ArgsUsage: "[file.md]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "stdin", Usage: "Read content from stdin"},
			&cli.StringFlag{Name: "from", Usage: "Who's dropping (default: claude-code for new drops)"},
			&cli.StringFlag{Name: "type", Usage: "Drop type: checkpoint, context, handoff, question (default: context for new drops)"},
			&cli.StringFlag{Name: "title", Usage: "Override title (default: first # heading)"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
			&cli.BoolFlag{Name: "list", Usage: "List drops instead of creating"},
			&cli.StringFlag{Name: "since", Usage: "Filter: only drops after this ISO timestamp"},
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "Max results"},
			&cli.StringFlag{Name: "read", Usage: "Read a specific drop by ID"},
			&cli.BoolFlag{Name: "local", Usage: "Write to the local manifest instead of the hub"},
			&cli.BoolFlag{Name: "no-cdn", Usage: "Skip the CDN upload (local mode)"},
			&cli.BoolFlag{Name: "publish", Usage: "Commit and push the drops directory after dropping (local mode)"},
		},
		Commands: []*cli.Command{
			serveCmd(cfg),
		},
		Action: func(c *cli.Context) error {
			switch {
			case c.String("read") != "":
				return cmdRead(c, cfg, os.Stdout)
			case c.Bool("list"):
				return cmdList(c, cfg, os.Stdout)
			case c.Args().Present() || c.Bool("stdin"):
				if c.Bool("local") {
					return cmdLocalDrop(c, cfg, os.Stdout)
				}
				return cmdDrop(c, cfg, os.Stdout)
			default:
				return cli.ShowAppHelp(c)
			}
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the MCP server command.
func serveCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run as an MCP server over stdio",
		Action: func(c *cli.Context) error {
			client, err := hub.New(cfg)
			if err != nil {
				return outputError(err)
			}
			if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
				fmt.Fprintf(os.Stderr, "warning: unknown disabled tools: %s\n", strings.Join(unknown, ", "))
			}
			return mcp.Run(client, cfg, Version)
		},
	}
}

// cmdDrop posts a new drop to the hub.
func cmdDrop(c *cli.Context, cfg *config.Config, out io.Writer) error {
	// Resolve the credential before reading anything: no key means no
	// network activity is even attempted.
	client, err := hub.New(cfg)
	if err != nil {
		return outputError(err)
	}

	path, content, err := resolveSource(c)
	if err != nil {
		return outputError(err)
	}

	rec := record.New(record.NewInput{
		Path:    path,
		Content: content,
		Sender:  c.String("from"),
		Type:    c.String("type"),
		Title:   c.String("title"),
		Tags:    parseTags(c.String("tags")),
	})

	stored, err := client.Create(c.Context, hub.CreateInput{
		FromAgent: rec.From,
		Title:     rec.Title,
		Content:   content,
		DropType:  rec.Type,
		Tags:      rec.Tags,
	})
	if err != nil {
		return outputError(err)
	}

	// Remote mode never uploads to the CDN itself.
	renderDropped(out, stored, true)
	return nil
}

// cmdLocalDrop runs the local manifest/CDN/git pipeline.
func cmdLocalDrop(c *cli.Context, cfg *config.Config, out io.Writer) error {
	path, content, err := resolveSource(c)
	if err != nil {
		return outputError(err)
	}

	publisher := vcs.NewPublisher(cfg.DropsDir)
	publish := c.Bool("publish")
	if publish && !publisher.IsRepo() {
		fmt.Fprintf(os.Stderr, "warning: %s is not inside a git repository, skipping publish\n", cfg.DropsDir)
		publish = false
	}

	pipeline := &local.Pipeline{
		Config:    cfg,
		Uploader:  cdn.New(cfg),
		Publisher: publisher,
		Diag:      os.Stderr,
	}

	rec, err := pipeline.Drop(c.Context, local.DropInput{
		Path:    path,
		Content: content,
		Sender:  c.String("from"),
		Type:    c.String("type"),
		Title:   c.String("title"),
		SkipCDN: c.Bool("no-cdn"),
		Publish: publish,
	})
	if err != nil {
		return outputError(err)
	}

	renderDropped(out, rec, c.Bool("no-cdn"))
	return nil
}

// cmdList fetches and renders drops matching the filters.
func cmdList(c *cli.Context, cfg *config.Config, out io.Writer) error {
	client, err := hub.New(cfg)
	if err != nil {
		return outputError(err)
	}

	drops, err := client.List(c.Context, hub.ListInput{
		FromAgent: c.String("from"),
		DropType:  c.String("type"),
		Since:     c.String("since"),
		Limit:     c.Int("limit"),
	})
	if err != nil {
		return outputError(err)
	}

	renderList(out, drops)
	return nil
}

// cmdRead fetches a single drop and prints its content.
func cmdRead(c *cli.Context, cfg *config.Config, out io.Writer) error {
	client, err := hub.New(cfg)
	if err != nil {
		return outputError(err)
	}

	rec, err := client.Read(c.Context, c.String("read"))
	if err != nil {
		return outputError(err)
	}

	if rec.Content != "" {
		fmt.Fprint(out, rec.Content)
		if !strings.HasSuffix(rec.Content, "\n") {
			fmt.Fprintln(out)
		}
		return nil
	}
	return outputJSON(out, rec)
}

// resolveSource returns the source path and content for a drop: the
// positional file argument, or stdin text when --stdin is set.
func resolveSource(c *cli.Context) (string, string, error) {
	if c.Bool("stdin") {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", errors.NewInternal(err)
		}
		return "", string(data), nil
	}

	path := c.Args().First()
	content, err := record.ReadSource(path)
	if err != nil {
		return "", "", err
	}
	return path, content, nil
}

// renderDropped prints the post-drop summary. cdnSkipped distinguishes an
// upload that was never attempted from one that failed.
func renderDropped(out io.Writer, rec *record.Record, cdnSkipped bool) {
	fmt.Fprintf(out, "Dropped: %s\n", rec.ID)
	fmt.Fprintf(out, "  from: %s\n", rec.From)
	fmt.Fprintf(out, "  type: %s\n", rec.Type)
	switch {
	case rec.CDNURL != "":
		fmt.Fprintf(out, "  cdn:  %s\n", rec.CDNURL)
	case cdnSkipped:
		fmt.Fprintf(out, "  cdn:  (skipped)\n")
	default:
		fmt.Fprintf(out, "  cdn:  (upload failed, stored without CDN)\n")
	}
}

// renderList prints the drop listing.
func renderList(out io.Writer, drops []record.Record) {
	if len(drops) == 0 {
		fmt.Fprintln(out, "No drops found.")
		return
	}

	fmt.Fprintf(out, "%d drop(s):\n\n", len(drops))
	for _, d := range drops {
		via := "git"
		if d.CDNURL != "" {
			via = "cdn"
		}
		ts := d.Timestamp
		if len(ts) > 19 {
			ts = ts[:19]
		}
		fmt.Fprintf(out, "  [%s] %s\n", color.CyanString("%-10s", d.Type), d.ID)
		fmt.Fprintf(out, "             from=%s %s %s\n", d.From, via, ts)
		if d.CDNURL != "" {
			fmt.Fprintf(out, "             %s\n", d.CDNURL)
		}
		fmt.Fprintln(out)
	}
}

func outputJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputError(err error) error {
	if dErr, ok := err.(*errors.DropError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", dErr.Code, dErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
