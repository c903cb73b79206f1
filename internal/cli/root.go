package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tagloop/internal/config"
	"github.com/roach88/tagloop/internal/harness"
	"github.com/roach88/tagloop/internal/resolver"
	"github.com/roach88/tagloop/internal/store"
	"github.com/roach88/tagloop/internal/unit/tagtext"
)

// RootOptions holds global flags and the dependencies shared by all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// NewResolver builds the unit resolver. Defaults to resolver.NewDefault.
	NewResolver func(cfg tagtext.Config, logger *slog.Logger) *resolver.Resolver

	// RunIDs generates stored run ids. Defaults to UUIDv7Generator.
	RunIDs store.RunIDGenerator

	// Clock stamps record seq values. Defaults to a fresh SeqClock per run.
	Clock harness.Clock

	// Now is the wall clock for stored run timestamps. Defaults to time.Now.
	Now func() time.Time

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the tagloop CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

// Execute runs the CLI with args and returns the process exit code.
// A command error is reported once, in the selected format: a JSON error
// response on stdout, or an "Error:" line on stderr.
func Execute(args []string, stdout, stderr io.Writer) int {
	return runCLI(&RootOptions{}, args, stdout, stderr)
}

func runCLI(opts *RootOptions, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		// cobra falls back to os.Args for nil
		args = []string{}
	}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}
	if !isReported(err) {
		format := opts.Format
		if !slices.Contains(ValidFormats, format) {
			format = "text"
		}
		out := &OutputFormatter{Format: format, Writer: stdout, ErrWriter: stderr}
		_ = out.Error(err)
	}
	return GetExitCode(err)
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	runOpts := &RunOptions{RootOptions: opts}

	cmd := &cobra.Command{
		Use:   "tagloop [inputFile outputFile]",
		Short: "tagloop - repeated in-process tagging",
		Long: `Run a tagging unit many times against one long-lived unit instance.

A unit is resolved by name once, constructed once, and then invoked repeatedly
with freshly parsed option tokens. A failed invocation is recorded and the loop
moves on.

"tagloop <inputFile> <outputFile>" is short for "tagloop run <inputFile> <outputFile>"
and takes the same flags.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("accepts <inputFile> <outputFile> or a command, received %d arg(s)", len(args))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runOpts.run(cmd, args)
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML defaults file")
	addRunFlags(cmd, runOpts)

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewUnitsCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// config loads the defaults file on first use.
func (o *RootOptions) config() (config.Config, error) {
	if o.cfg != nil {
		return *o.cfg, nil
	}
	cfg, err := config.LoadOptional(o.ConfigPath)
	if err != nil {
		return cfg, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	o.cfg = &cfg
	return cfg, nil
}

// logger writes structured logs to w: JSON in json mode, text otherwise.
// Debug level with --verbose.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if o.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func (o *RootOptions) resolver(cfg tagtext.Config, logger *slog.Logger) *resolver.Resolver {
	if o.NewResolver != nil {
		return o.NewResolver(cfg, logger)
	}
	return resolver.NewDefault(cfg, resolver.WithLogger(logger))
}

func (o *RootOptions) runIDs() store.RunIDGenerator {
	if o.RunIDs != nil {
		return o.RunIDs
	}
	return store.UUIDv7Generator{}
}

func (o *RootOptions) clock() harness.Clock {
	if o.Clock != nil {
		return o.Clock
	}
	return harness.NewSeqClock()
}

func (o *RootOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
	}
}
