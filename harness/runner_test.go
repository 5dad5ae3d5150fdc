package harness

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("harness scripts require a POSIX shell")
	}
	path := filepath.Join(dir, "harness.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestRunnerCapturesOutput(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, `echo '{"event":"runStart"}'
echo 'warming up' >&2
cat marker.txt
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("in-harness-dir"), 0o644))

	r, err := NewRunner(zerolog.Nop(), dir, []string{script}, time.Minute)
	require.NoError(t, err)

	out, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, out.ExitCode)
	require.Contains(t, string(out.Stdout), `{"event":"runStart"}`)
	require.Equal(t, "warming up", out.Stderr)

	// the harness runs inside its working directory
	require.Contains(t, string(out.Stdout), "in-harness-dir")
}

func TestRunnerNonZeroExitIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "echo '{}'\nexit 2\n")

	r, err := NewRunner(zerolog.Nop(), dir, []string{script}, time.Minute)
	require.NoError(t, err)

	out, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, out.ExitCode)
}

func TestRunnerTimeout(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "exec sleep 10\n")

	r, err := NewRunner(zerolog.Nop(), dir, []string{script}, 100*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	_, err = r.Run(context.Background())
	require.Error(t, err)
	require.True(t, IsTimeoutError(err))
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestRunnerMissingBinary(t *testing.T) {
	r, err := NewRunner(zerolog.Nop(), t.TempDir(), []string{"autograde-no-such-harness"}, time.Minute)
	require.NoError(t, err)

	out, err := r.Run(context.Background())
	require.Error(t, err)
	require.True(t, IsCrashError(err))
	require.Equal(t, -1, out.ExitCode)
}

func TestRunnerCancelled(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "exec sleep 10\n")

	r, err := NewRunner(zerolog.Nop(), dir, []string{script}, time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, IsTimeoutError(err))
}

func TestNewRunnerValidation(t *testing.T) {
	_, err := NewRunner(zerolog.Nop(), ".", nil, time.Minute)
	require.Error(t, err)

	r, err := NewRunner(zerolog.Nop(), ".", []string{"elm-test", "--report", "json"}, 0)
	require.NoError(t, err)
	require.Equal(t, DefaultTimeout, r.timeout)
	require.Equal(t, "elm-test --report json", r.String())

	r, err = NewRunner(zerolog.Nop(), ".", []string{"elm test", "it's"}, 0)
	require.NoError(t, err)
	require.Equal(t, `'elm test' 'it'"'"'s'`, r.String())
}
