package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/tagloop/internal/harness"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Workers  int
	Database string
	Progress bool
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <file.yaml>",
		Short: "Run the jobs of a batch file against one unit",
		Long: `Run every job of a YAML batch file, in order, against a single resolved
unit. Each job is invoked "repeat" times. Unknown keys in the file are rejected.

Example batch file:
  name: nightly
  unit: tagtext
  workers: 2
  jobs:
    - input: a.txt
      output: a.tagged.xml
      repeat: 4
    - input: corpus
      recursive: true
      flags: ["-e"]

Exit codes follow the run command.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.plan(cmd, args[0])
			if err != nil {
				return err
			}
			return runPlan(cmd, opts.RootOptions, p)
		},
	}

	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "override the batch file's worker count")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.Progress, "progress", false, "show a progress bar on stderr")

	return cmd
}

func (o *BatchOptions) plan(cmd *cobra.Command, path string) (plan, error) {
	cfg, err := o.config()
	if err != nil {
		return plan{}, err
	}

	b, err := harness.LoadBatch(path)
	if err != nil {
		return plan{}, WrapExitError(ExitCommandError, "failed to load batch", err)
	}

	invocations := b.Invocations(cfg.Flags)
	p := plan{
		Name:     b.Name,
		Unit:     b.Unit,
		Count:    len(invocations),
		Workers:  cfg.Workers,
		DB:       cfg.DB,
		Tokens:   harness.SequenceTokens(invocations),
		Progress: o.Progress,
	}
	if b.Workers > 0 {
		p.Workers = b.Workers
	}
	if cmd.Flags().Changed("workers") {
		if o.Workers < 1 {
			return plan{}, NewExitError(ExitCommandError, "--workers must be >= 1")
		}
		p.Workers = o.Workers
	}
	if cmd.Flags().Changed("db") {
		p.DB = o.Database
	}
	return p, nil
}
