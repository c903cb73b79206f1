package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/tagloop/internal/config"
	"github.com/roach88/tagloop/internal/harness"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Count    int
	Unit     string
	Flags    []string
	NoFlags  bool
	Workers  int
	Database string
	Name     string
	Progress bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <inputFile> <outputFile>",
		Short: "Tag one file repeatedly with a single unit instance",
		Long: `Resolve a unit, construct it once, and invoke it --count times with the
tokens "-i <inputFile> -o <outputFile>" followed by the mode flags.

Each completed invocation prints "Done tagging: <i>". The command exits 0
when at least one invocation succeeded and 1 when all of them failed.
Resolution and initialization failures exit 2 before anything runs.

Example:
  tagloop run text.txt text.tagged.txt
  tagloop run --count 10 --flag -g --flag -q in.txt out.xml
  tagloop run --unit normalize --workers 4 --db runs.db in.txt out.txt`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}

	addRunFlags(cmd, opts)
	return cmd
}

func addRunFlags(cmd *cobra.Command, opts *RunOptions) {
	cmd.Flags().IntVarP(&opts.Count, "count", "n", config.DefaultCount, "number of invocations")
	cmd.Flags().StringVarP(&opts.Unit, "unit", "u", config.DefaultUnit, "unit name, alias, or script path")
	cmd.Flags().StringArrayVar(&opts.Flags, "flag", nil, "mode flag passed to every invocation (repeatable; default -e -x)")
	cmd.Flags().BoolVar(&opts.NoFlags, "no-flags", false, "pass no mode flags")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 1, "number of workers, each with its own unit instance")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.Name, "name", "", "run name stored with --db")
	cmd.Flags().BoolVar(&opts.Progress, "progress", false, "show a progress bar on stderr")
}

func (o *RunOptions) run(cmd *cobra.Command, args []string) error {
	p, err := o.plan(cmd, args[0], args[1])
	if err != nil {
		return err
	}
	return runPlan(cmd, o.RootOptions, p)
}

// plan merges flags over the config file. A flag wins only when set.
func (o *RunOptions) plan(cmd *cobra.Command, input, output string) (plan, error) {
	cfg, err := o.config()
	if err != nil {
		return plan{}, err
	}

	p := plan{
		Name:     o.Name,
		Unit:     cfg.Unit,
		Count:    cfg.Count,
		Workers:  cfg.Workers,
		DB:       cfg.DB,
		Progress: o.Progress,
	}
	flags := cfg.Flags

	changed := cmd.Flags().Changed
	if changed("unit") {
		p.Unit = o.Unit
	}
	if changed("count") {
		p.Count = o.Count
	}
	if changed("workers") {
		p.Workers = o.Workers
	}
	if changed("db") {
		p.DB = o.Database
	}
	if changed("flag") {
		flags = o.Flags
	}
	if o.NoFlags {
		flags = []string{}
	}
	if flags == nil {
		flags = harness.DefaultFlags
	}

	if p.Count < 0 {
		return plan{}, NewExitError(ExitCommandError, "--count must be >= 0")
	}
	if p.Workers < 1 {
		return plan{}, NewExitError(ExitCommandError, "--workers must be >= 1")
	}

	p.Tokens = harness.TagTokens(input, output, flags...)
	return p, nil
}
