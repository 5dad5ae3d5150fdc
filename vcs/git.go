// Package vcs fetches and publishes submission repositories with git.
package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/autograde/autograde/model"
	"github.com/rs/zerolog"
)

// Git runs git commands on behalf of the batch driver.
type Git struct {
	logger zerolog.Logger
	binary string
}

// New creates a Git using the git binary found in PATH.
func New(logger zerolog.Logger) *Git {
	return &Git{logger: logger, binary: "git"}
}

// CommandError reports a failed git invocation.
type CommandError struct {
	Command string
	Dir     string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s failed in %s: %v", e.Command, e.Dir, e.Err)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

// Unwrap implements the errors.Unwrap interface
func (e *CommandError) Unwrap() error {
	return e.Err
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.binary, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	command := shellescape.QuoteCommand(append([]string{g.binary}, args...))
	g.logger.Debug().Str("command", command).Str("dir", dir).Msg("Running git")

	if err := cmd.Run(); err != nil {
		return "", &CommandError{
			Command: command,
			Dir:     dir,
			Output:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Pull clones urlPrefix+name into dir/name, or fast-forwards an existing
// clone.
func (g *Git) Pull(ctx context.Context, dir, name, urlPrefix string) error {
	repoDir := filepath.Join(dir, name)
	if _, err := os.Stat(repoDir); err == nil {
		g.logger.Info().Str("submission", name).Msg("Updating")
		_, err := g.run(ctx, repoDir, "pull", "--ff-only")
		return err
	}

	if urlPrefix == "" {
		return errors.New("submissions.url_prefix is required to clone")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create submissions directory: %w", err)
	}

	g.logger.Info().Str("submission", name).Msg("Checking out")
	_, err := g.run(ctx, dir, "clone", urlPrefix+name, name)
	return err
}

// Publish commits file inside repoDir with message and pushes it.
func (g *Git) Publish(ctx context.Context, repoDir, file, message string) error {
	if _, err := g.run(ctx, repoDir, "add", "--", file); err != nil {
		return err
	}

	// Nothing staged means the file was already published
	if _, err := g.run(ctx, repoDir, "diff", "--cached", "--quiet"); err == nil {
		g.logger.Debug().Str("dir", repoDir).Str("file", file).Msg("Nothing to publish")
		return nil
	}

	if _, err := g.run(ctx, repoDir, "commit", "-m", message, "--", file); err != nil {
		return err
	}
	_, err := g.run(ctx, repoDir, "push")
	return err
}

// Head returns the current commit and branch of the repository in dir.
func (g *Git) Head(ctx context.Context, dir string) (*model.Git, error) {
	commit, err := g.run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to get git commit: %w", err)
	}

	branch, err := g.run(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to get git branch: %w", err)
	}

	return &model.Git{Commit: commit, Branch: branch}, nil
}

// LastChanged returns the commit time of the latest commit touching path.
// It returns false when path has no committed history.
func (g *Git) LastChanged(ctx context.Context, path string) (time.Time, bool, error) {
	out, err := g.run(ctx, filepath.Dir(path), "log", "-1", "--format=%cI", "--", filepath.Base(path))
	if err != nil {
		return time.Time{}, false, err
	}
	if out == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, out)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid commit date %q: %w", out, err)
	}
	return t, true, nil
}
