package cli

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/tagloop/internal/resolver"
	"github.com/roach88/tagloop/internal/testutil"
	"github.com/roach88/tagloop/internal/unit"
	"github.com/roach88/tagloop/internal/unit/tagtext"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// stubOptions returns root options whose resolver knows only the stub unit,
// registered as "stub".
func stubOptions(stub *testutil.StubType) *RootOptions {
	return &RootOptions{
		Format: "text",
		NewResolver: func(_ tagtext.Config, logger *slog.Logger) *resolver.Resolver {
			r := resolver.New(resolver.WithLogger(logger))
			r.MustRegister("stub", func() (unit.Type, error) { return stub, nil })
			return r
		},
		RunIDs: testutil.NewFixedRunIDGenerator("run-1"),
		Clock:  testutil.NewDeterministicClock(),
		Now:    func() time.Time { return fixedNow },
	}
}

// execute runs the root command with args and returns stdout, stderr and the
// command error.
func execute(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(opts)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// executeCLI runs the CLI the way main does and returns stdout, stderr and
// the exit code.
func executeCLI(t *testing.T, opts *RootOptions, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := runCLI(opts, args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
