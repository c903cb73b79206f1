package tagtext

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTagger copies -i to -o, records the encoding env next to the output
// and reports on stdout.
const fakeTagger = `#!/bin/sh
while [ $# -gt 0 ]; do
	case "$1" in
		-i) in="$2"; shift 2 ;;
		-o) out="$2"; shift 2 ;;
		*) shift ;;
	esac
done
cat "$in" > "$out" || exit 1
echo "$JAVA_TOOL_OPTIONS" > "$out.env"
echo "tagged $in"
`

func writeFakeTagger(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tagger needs /bin/sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	script := filepath.Join(t.TempDir(), "TagText.sh")
	require.NoError(t, os.WriteFile(script, []byte(fakeTagger), 0755))
	return script
}

func TestNewType_DefaultCommand(t *testing.T) {
	typ := NewType(Config{})
	assert.Equal(t, DefaultCommand(), typ.cfg.Command)
	assert.Equal(t, Name, typ.Name())
}

func TestNew_MissingLauncher(t *testing.T) {
	typ := NewType(Config{Command: "groovy"})
	typ.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	u, err := typ.New()
	require.Error(t, err)
	assert.Nil(t, u)
	assert.ErrorIs(t, err, exec.ErrNotFound)
	assert.Contains(t, err.Error(), `launcher "groovy" not found`)
}

func TestNew_MissingScript(t *testing.T) {
	typ := NewType(Config{Command: "sh", Script: filepath.Join(t.TempDir(), "TagText.groovy")})
	typ.lookPath = func(name string) (string, error) { return "/bin/" + name, nil }

	_, err := typ.New()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNew_ScriptIsDirectory(t *testing.T) {
	typ := NewType(Config{Command: "sh", Script: t.TempDir()})
	typ.lookPath = func(name string) (string, error) { return "/bin/" + name, nil }

	_, err := typ.New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestCommandLine(t *testing.T) {
	typ := NewType(Config{Command: "groovy", Script: "", Args: []string{"-Dx=1"}})
	typ.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }

	u, err := typ.New()
	require.NoError(t, err)
	opts, err := typ.ParseOptions([]string{"-i", "in.txt", "-o", "out.txt", "-e", "-x"})
	require.NoError(t, err)
	require.NoError(t, u.SetOptions(opts))

	tagger := u.(*Tagger)
	assert.Equal(t,
		[]string{"/usr/bin/groovy", "-Dx=1", "-i", "in.txt", "-o", "out.txt", "-e", "-x"},
		tagger.CommandLine())
}

func TestProcess_RunsTagger(t *testing.T) {
	script := writeFakeTagger(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(in, []byte("hello world"), 0644))

	typ := NewType(Config{Command: "sh", Script: script})
	u, err := typ.New()
	require.NoError(t, err)

	opts, err := typ.ParseOptions([]string{"-i", in, "-o", out, "-e", "-x"})
	require.NoError(t, err)
	require.NoError(t, u.SetOptions(opts))
	require.NoError(t, u.Process(context.Background()))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))

	env, err := os.ReadFile(out + ".env")
	require.NoError(t, err)
	assert.Contains(t, string(env), "-Dfile.encoding=UTF-8")
}

func TestProcess_StdoutGoesToConfiguredWriter(t *testing.T) {
	script := writeFakeTagger(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(in, []byte("hello"), 0644))

	var stdout bytes.Buffer
	typ := NewType(Config{Command: "sh", Script: script, Stdout: &stdout})
	u, err := typ.New()
	require.NoError(t, err)

	opts, err := typ.ParseOptions([]string{"-i", in, "-o", filepath.Join(dir, "out.txt")})
	require.NoError(t, err)
	require.NoError(t, u.SetOptions(opts))
	require.NoError(t, u.Process(context.Background()))

	assert.Equal(t, "tagged "+in+"\n", stdout.String())
}

func TestNewType_StdoutDefaultsToStderr(t *testing.T) {
	typ := NewType(Config{})
	assert.Same(t, os.Stderr, typ.cfg.Stdout)
}

func TestProcess_FailureIncludesStderr(t *testing.T) {
	script := writeFakeTagger(t)
	dir := t.TempDir()

	typ := NewType(Config{Command: "sh", Script: script})
	u, err := typ.New()
	require.NoError(t, err)

	opts, err := typ.ParseOptions([]string{"-i", filepath.Join(dir, "missing.txt"), "-o", filepath.Join(dir, "out.txt")})
	require.NoError(t, err)
	require.NoError(t, u.SetOptions(opts))

	err = u.Process(context.Background())
	require.Error(t, err)

	var exitErr *exec.ExitError
	assert.True(t, errors.As(err, &exitErr))
	assert.Contains(t, err.Error(), "missing.txt")
}

func TestProcess_WithoutOptions(t *testing.T) {
	typ := NewType(Config{Command: "sh"})
	typ.lookPath = func(name string) (string, error) { return "/bin/" + name, nil }
	u, err := typ.New()
	require.NoError(t, err)

	assert.Error(t, u.Process(context.Background()))
}
