package grader

// This file contains file staging: copying the tests file and submission
// dependencies into the harness working directory and removing them again.

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rs/zerolog"
)

// StagingError reports a file that could not be staged, typically a required
// submission file that does not exist.
type StagingError struct {
	Path string
	Err  error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("failed to stage %s: %v", e.Path, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *StagingError) Unwrap() error {
	return e.Err
}

// Missing reports whether the source file does not exist.
func (e *StagingError) Missing() bool {
	return errors.Is(e.Err, os.ErrNotExist)
}

// IsStagingError checks if the error is or wraps a StagingError
func IsStagingError(err error) bool {
	var stagingErr *StagingError
	return err != nil && errors.As(err, &stagingErr)
}

var errIsDir = errors.New("is a directory")

// Transform rewrites the content of a staged file.
type Transform func([]byte) []byte

// ExposeAll returns a transform rewriting the module header matched by re with
// replacement, so that every top-level definition of the module is visible to
// the tests.
func ExposeAll(re *regexp.Regexp, replacement string) Transform {
	return func(src []byte) []byte {
		return re.ReplaceAll(src, []byte(replacement))
	}
}

// Stager copies files into a directory and remembers them for cleanup.
type Stager struct {
	logger zerolog.Logger
	dir    string
	staged []string
	seen   map[string]bool
}

// NewStager creates a stager writing into dir, creating it if needed.
func NewStager(logger zerolog.Logger, dir string) (*Stager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Stager{
		logger: logger,
		dir:    dir,
		seen:   make(map[string]bool),
	}, nil
}

// Dir returns the staging directory.
func (s *Stager) Dir() string {
	return s.dir
}

// Staged returns the staged paths in staging order.
func (s *Stager) Staged() []string {
	return s.staged
}

// Stage copies src into the staging directory under its base name, applying
// transform to the copy when it is not nil. The source file is never modified.
func (s *Stager) Stage(src string, transform Transform) error {
	info, err := os.Stat(src)
	if err != nil {
		return &StagingError{Path: src, Err: err}
	}
	if info.IsDir() {
		return &StagingError{Path: src, Err: errIsDir}
	}

	dst := filepath.Join(s.dir, filepath.Base(src))

	// A source already in the staging directory is used in place and never
	// claimed for cleanup.
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(info, dstInfo) {
		if transform != nil {
			s.logger.Warn().Str("file", src).Msg("File is inside the staging directory, staging it unchanged")
		} else {
			s.logger.Debug().Str("file", src).Msg("File is inside the staging directory, using it in place")
		}
		return nil
	}

	// Record before writing so that a partially written file is cleaned up too
	if !s.seen[dst] {
		s.seen[dst] = true
		s.staged = append(s.staged, dst)
	}

	if transform == nil {
		err = copyFile(src, dst, info.Mode())
	} else {
		err = transformFile(src, dst, info.Mode(), transform)
	}
	if err != nil {
		return &StagingError{Path: src, Err: err}
	}

	s.logger.Debug().Str("src", src).Str("dst", dst).Bool("transformed", transform != nil).Msg("Staged file")
	return nil
}

// Cleanup removes every staged file. Files that are already gone are ignored;
// other failures are logged.
func (s *Stager) Cleanup() {
	for _, path := range s.staged {
		err := os.Remove(path)
		switch {
		case err == nil:
			s.logger.Debug().Str("file", path).Msg("Removed staged file")
		case errors.Is(err, os.ErrNotExist):
		default:
			s.logger.Warn().Err(err).Str("file", path).Msg("Failed to remove staged file")
		}
	}
	s.staged = nil
	s.seen = make(map[string]bool)
}

func copyFile(src, dst string, mode os.FileMode) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	// Copy file permissions
	return os.Chmod(dst, mode)
}

func transformFile(src, dst string, mode os.FileMode, transform Transform) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, transform(data), mode.Perm()); err != nil {
		return err
	}
	return os.Chmod(dst, mode)
}
