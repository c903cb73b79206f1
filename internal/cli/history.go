package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/roach88/tagloop/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	RunID    string
	Limit    int
}

// runDetail is the JSON payload of history --run.
type runDetail struct {
	Run         store.Run          `json:"run"`
	Invocations []store.Invocation `json:"invocations"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show runs recorded with --db",
		Long: `List recorded runs, newest first, or show the invocations of one run.

Example:
  tagloop history --db runs.db
  tagloop history --db runs.db --run 01928c3e-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to the config file's db)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the invocations of this run")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")

	return cmd
}

func showHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.DB
	}
	if dbPath == "" {
		return NewExitError(ExitCommandError, "no database: pass --db or set db in the config file")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	out := opts.formatter(cmd)

	if opts.RunID != "" {
		run, err := st.GetRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrRunNotFound) {
			return WrapExitError(ExitCommandError, "unknown run", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		invocations, err := st.ReadInvocations(ctx, opts.RunID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read invocations", err)
		}
		if out.JSON() {
			return out.Success(runDetail{Run: run, Invocations: invocations})
		}
		return renderInvocations(out, run, invocations)
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if out.JSON() {
		return out.Success(runs)
	}
	if len(runs) == 0 {
		out.Printf("No runs recorded.")
		return nil
	}
	return renderRuns(out, runs)
}

func renderRuns(out *OutputFormatter, runs []store.Run) error {
	table := tablewriter.NewTable(out.Writer,
		tablewriter.WithHeader([]string{"Run", "Name", "Unit", "Count", "Workers", "Succeeded", "Failed", "Started", "Duration"}),
	)
	for _, r := range runs {
		table.Append([]string{
			r.ID,
			r.Name,
			r.Unit,
			fmt.Sprintf("%d", r.Count),
			fmt.Sprintf("%d", r.Workers),
			fmt.Sprintf("%d", r.Succeeded),
			fmt.Sprintf("%d", r.Failed),
			r.StartedAt.Local().Format(time.DateTime),
			runDuration(r),
		})
	}
	return table.Render()
}

func runDuration(r store.Run) string {
	if !r.Finished() {
		return "unfinished"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}

func renderInvocations(out *OutputFormatter, run store.Run, invocations []store.Invocation) error {
	out.Printf("Run %s (%s): %d succeeded, %d failed", run.ID, run.Unit, run.Succeeded, run.Failed)

	table := tablewriter.NewTable(out.Writer,
		tablewriter.WithHeader([]string{"Index", "Seq", "Status", "Stage", "Args", "Error", "Duration"}),
	)
	for _, inv := range invocations {
		table.Append([]string{
			fmt.Sprintf("%d", inv.Index),
			fmt.Sprintf("%d", inv.Seq),
			inv.Status,
			inv.Stage,
			strings.Join(inv.Args, " "),
			inv.Error,
			inv.Duration.String(),
		})
	}
	return table.Render()
}
