// Package tagtext adapts the external TagText tagger to the unit contract.
//
// The tagger is an out-of-process program (by default a Groovy script run by
// the groovy launcher). Construction resolves the launcher and the script once;
// every Process call runs the tagger with the current option tokens.
package tagtext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/roach88/tagloop/internal/unit"
)

// Name is the registry name of the unit.
const Name = "tagtext"

// Aliases are the class and script names the tagger has been known by.
var Aliases = []string{
	"ua.net.nlp.tools.tag.TagTextCore",
	"org.nlp_uk.tools.TagText",
	"TagText.groovy",
}

// encodingEnv forces UTF-8 in the JVM regardless of platform default.
const encodingEnv = "JAVA_TOOL_OPTIONS=-Dfile.encoding=UTF-8"

// Config describes how to launch the tagger.
type Config struct {
	// Command is the launcher binary. Defaults to "groovy" ("groovy.bat" on Windows).
	Command string `yaml:"command"`

	// Script is the tagger script passed as the launcher's first argument.
	// Leave empty when Command is a self-contained tagger binary.
	Script string `yaml:"script"`

	// Args are inserted between the script and the option tokens.
	Args []string `yaml:"args"`

	// Env holds extra KEY=VALUE entries added to the inherited environment.
	Env []string `yaml:"env"`

	// Stdout receives the tagger's standard output. Defaults to os.Stderr so
	// tagger chatter never mixes with the harness's own output.
	Stdout io.Writer `yaml:"-"`
}

// DefaultCommand returns the platform's groovy launcher name.
func DefaultCommand() string {
	if runtime.GOOS == "windows" {
		return "groovy.bat"
	}
	return "groovy"
}

// Type is the unit.Type for the external tagger.
type Type struct {
	cfg      Config
	lookPath func(string) (string, error)
}

// NewType creates a tagger type for the given launch configuration.
func NewType(cfg Config) *Type {
	if cfg.Command == "" {
		cfg.Command = DefaultCommand()
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stderr
	}
	return &Type{cfg: cfg, lookPath: exec.LookPath}
}

// Name implements unit.Type.
func (t *Type) Name() string { return Name }

// New resolves the launcher and script. It fails if either cannot be found.
func (t *Type) New() (unit.Unit, error) {
	bin, err := t.lookPath(t.cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("tagger launcher %q not found: %w", t.cfg.Command, err)
	}
	if t.cfg.Script != "" {
		info, err := os.Stat(t.cfg.Script)
		if err != nil {
			return nil, fmt.Errorf("tagger script: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("tagger script %s is a directory", t.cfg.Script)
		}
	}

	env := append(os.Environ(), encodingEnv)
	env = append(env, t.cfg.Env...)

	return &Tagger{
		bin:    bin,
		script: t.cfg.Script,
		args:   append([]string(nil), t.cfg.Args...),
		env:    env,
		stdout: t.cfg.Stdout,
	}, nil
}

// ParseOptions implements unit.Type.
func (t *Type) ParseOptions(tokens []string) (unit.Options, error) {
	opts, err := unit.ParseTagOptions(tokens)
	if err != nil {
		return nil, err
	}
	return opts, nil
}

// Tagger is a constructed tagtext unit.
type Tagger struct {
	bin    string
	script string
	args   []string
	env    []string
	stdout io.Writer
	opts   *unit.TagOptions
}

// SetOptions implements unit.Unit.
func (t *Tagger) SetOptions(opts unit.Options) error {
	tagOpts, ok := opts.(*unit.TagOptions)
	if !ok {
		return fmt.Errorf("tagtext: %w (got %T)", unit.ErrForeignOptions, opts)
	}
	t.opts = tagOpts
	return nil
}

// CommandLine returns the argv Process would run with the current options.
func (t *Tagger) CommandLine() []string {
	argv := []string{t.bin}
	if t.script != "" {
		argv = append(argv, t.script)
	}
	argv = append(argv, t.args...)
	if t.opts != nil {
		argv = append(argv, t.opts.Args()...)
	}
	return argv
}

// Process runs the tagger and waits for it to exit.
// Tagger stderr is returned in the error when the process fails.
func (t *Tagger) Process(ctx context.Context) error {
	if t.opts == nil {
		return fmt.Errorf("tagtext: process called before options were set")
	}

	argv := t.CommandLine()
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = t.env
	cmd.Stdout = t.stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("tagtext: %w: %s", err, msg)
		}
		return fmt.Errorf("tagtext: %w", err)
	}
	return nil
}
