// Package vcs publishes the local drops tree with git. The publish step
// is fire-and-forget: callers report failures as warnings and move on.
package vcs

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// Publisher runs git against the repository containing the drops tree.
type Publisher struct {
	repoPath string
}

// NewPublisher creates a publisher rooted at repoPath.
func NewPublisher(repoPath string) *Publisher {
	return &Publisher{repoPath: repoPath}
}

// Publish stages the drops directory, commits with the given message
// (the record's title), and pushes to the remote default branch.
func (p *Publisher) Publish(dropsDir, message string) error {
	if err := p.run("add", dropsDir); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	if err := p.run("commit", "-m", message); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	if err := p.run("push"); err != nil {
		return fmt.Errorf("git push: %w", err)
	}
	return nil
}

// IsRepo reports whether the publisher's path is inside a git work tree.
func (p *Publisher) IsRepo() bool {
	out, err := p.output("rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

func (p *Publisher) run(args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = p.repoPath
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, stderr.String())
	}
	return nil
}

func (p *Publisher) output(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = p.repoPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, stderr.String())
	}
	return stdout.String(), nil
}
