package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/roach88/tagloop/internal/harness"
	"github.com/roach88/tagloop/internal/store"
	"github.com/roach88/tagloop/internal/unit"
)

// plan is one harness run, built by the run and batch commands.
type plan struct {
	Name     string
	Unit     string
	Count    int
	Workers  int
	Tokens   harness.TokensFactory
	DB       string
	Progress bool
}

// runResult is the JSON payload of a finished run.
type runResult struct {
	RunID   string          `json:"run_id,omitempty"`
	Name    string          `json:"name,omitempty"`
	Unit    string          `json:"unit"`
	Workers int             `json:"workers"`
	Summary harness.Summary `json:"summary"`
	Records []recordView    `json:"records"`
}

type recordView struct {
	Index      int            `json:"index"`
	Seq        int64          `json:"seq"`
	Args       []string       `json:"args"`
	Status     harness.Status `json:"status"`
	Stage      harness.Stage  `json:"stage,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

func viewRecords(records []harness.Record) []recordView {
	views := make([]recordView, len(records))
	for i, rec := range records {
		views[i] = recordView{
			Index:      rec.Index,
			Seq:        rec.Seq,
			Args:       rec.Args,
			Status:     rec.Status,
			Stage:      rec.Stage(),
			Error:      rec.ErrorMessage(),
			DurationMS: rec.Duration.Milliseconds(),
		}
	}
	return views
}

// runner is satisfied by *harness.Harness and *harness.Pool.
type runner interface {
	Run(ctx context.Context, count int, tokens harness.TokensFactory) ([]harness.Record, error)
}

func newRunner(typ unit.Type, workers int, opts []harness.Option) (runner, error) {
	if workers <= 1 {
		h, err := harness.Initialize(typ, opts...)
		if err != nil {
			return nil, err
		}
		return h, nil
	}
	p, err := harness.NewPool(typ, workers, opts...)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// runPlan resolves and initializes the unit once, runs the plan, optionally
// records it, and maps the outcome to an exit code:
// ExitCommandError before any invocation, ExitFailure when every invocation
// failed or the run was interrupted, nil otherwise.
// The tagger's own stdout goes to stderr so stdout carries only run output.
func runPlan(cmd *cobra.Command, opts *RootOptions, p plan) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	out := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	tagCfg := cfg.TagText
	tagCfg.Stdout = cmd.ErrOrStderr()
	typ, err := opts.resolver(tagCfg, logger).Resolve(p.Unit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve unit", err)
	}

	var st *store.Store
	if p.DB != "" {
		st, err = store.Open(p.DB)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
	}

	var bar *progressbar.ProgressBar
	if p.Progress && p.Count > 0 {
		bar = progressbar.NewOptions(p.Count,
			progressbar.OptionSetDescription("Tagging"),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionFullWidth(),
			progressbar.OptionClearOnFinish(),
		)
	}

	notify := func(rec harness.Record) {
		if rec.Succeeded() {
			out.Printf("Done tagging: %d", rec.Index)
		} else {
			out.Printf("Failed tagging: %d: %s: %v", rec.Index, rec.Stage(), errors.Unwrap(rec.Err))
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	r, err := newRunner(typ, p.Workers, []harness.Option{
		harness.WithLogger(logger),
		harness.WithClock(opts.clock()),
		harness.WithNotifier(notify),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize unit", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := ""
	if st != nil {
		runID = opts.runIDs().Generate()
		if err := st.BeginRun(ctx, store.Run{
			ID:        runID,
			Name:      p.Name,
			Unit:      typ.Name(),
			Count:     p.Count,
			Workers:   max(p.Workers, 1),
			StartedAt: opts.now(),
		}); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
	}

	records, runErr := r.Run(ctx, p.Count, p.Tokens)
	if bar != nil {
		_ = bar.Finish()
	}
	summary := harness.Summarize(records)

	if st != nil {
		// The run context may be cancelled; recording still has to happen.
		recCtx := context.WithoutCancel(ctx)
		if err := st.WriteRecords(recCtx, runID, records); err != nil {
			return WrapExitError(ExitCommandError, "failed to record invocations", err)
		}
		if err := st.FinishRun(recCtx, runID, summary, opts.now()); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
	}

	logRun(logger, typ.Name(), summary, runErr)

	var exitErr *ExitError
	switch {
	case runErr != nil:
		exitErr = WrapExitError(ExitFailure, "run interrupted", runErr)
	case summary.Total > 0 && !summary.AnySucceeded():
		exitErr = NewExitError(ExitFailure, "all invocations failed")
	}

	if out.JSON() {
		result := runResult{
			RunID:   runID,
			Name:    p.Name,
			Unit:    typ.Name(),
			Workers: max(p.Workers, 1),
			Summary: summary,
			Records: viewRecords(records),
		}
		if exitErr != nil {
			if err := out.Failure(result, exitErr); err != nil {
				return err
			}
			return reported(exitErr)
		}
		return out.Success(result)
	}

	out.Printf("Summary: %d succeeded, %d failed (%d total)", summary.Succeeded, summary.Failed, summary.Total)
	if runID != "" {
		out.Printf("Run: %s", runID)
	}
	if exitErr != nil {
		return exitErr
	}
	return nil
}

func logRun(logger *slog.Logger, unitName string, summary harness.Summary, runErr error) {
	if runErr != nil {
		logger.Warn("run interrupted", "unit", unitName, "completed", summary.Total, "error", runErr)
		return
	}
	logger.Debug("run finished",
		"unit", unitName,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)
}
