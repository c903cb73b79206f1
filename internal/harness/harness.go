package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/roach88/tagloop/internal/unit"
)

// Notifier receives every record right after its invocation completes.
// Used for progress reporting. It is never called concurrently.
type Notifier func(Record)

// settings are shared by Harness and Pool.
type settings struct {
	logger *slog.Logger
	clock  Clock
	notify Notifier
}

// Option configures a Harness or Pool.
type Option func(*settings)

// WithLogger sets the logger. Defaults to a logger that discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithClock sets the clock used for record seq values.
func WithClock(clock Clock) Option {
	return func(s *settings) {
		s.clock = clock
	}
}

// WithNotifier sets the progress notifier.
func WithNotifier(notify Notifier) Option {
	return func(s *settings) {
		s.notify = notify
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  NewSeqClock(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Harness owns one processing unit instance and drives it through invocations.
//
// NOT safe for concurrent use. See package documentation.
type Harness struct {
	settings
	typ     unit.Type
	unit    unit.Unit
	worker  int
	state   atomic.Int32
	running atomic.Bool
}

// Initialize constructs exactly one instance of typ.
//
// Returns *InitializationError if construction fails or panics.
func Initialize(typ unit.Type, opts ...Option) (*Harness, error) {
	return initialize(typ, -1, newSettings(opts))
}

func initialize(typ unit.Type, worker int, s settings) (*Harness, error) {
	if typ == nil {
		return nil, &InitializationError{Worker: worker, Err: errors.New("no unit type")}
	}

	start := time.Now()
	u, err := construct(typ)
	if err != nil {
		return nil, &InitializationError{Unit: typ.Name(), Worker: worker, Err: err}
	}

	h := &Harness{
		settings: s,
		typ:      typ,
		unit:     u,
		worker:   worker,
	}
	h.state.Store(int32(StateInitialized))

	h.logger.Info("unit initialized",
		"unit", typ.Name(),
		"worker", worker,
		"elapsed", time.Since(start),
	)
	return h, nil
}

func construct(typ unit.Type) (u unit.Unit, err error) {
	defer func() {
		if r := recover(); r != nil {
			u, err = nil, &PanicError{Value: r}
		}
	}()

	u, err = typ.New()
	if err == nil && u == nil {
		err = errors.New("constructor returned no instance")
	}
	return u, err
}

// Unit returns the unit type this harness drives.
func (h *Harness) Unit() unit.Type {
	return h.typ
}

// State returns the current lifecycle state.
func (h *Harness) State() State {
	return State(h.state.Load())
}

// Run performs count invocations against the harness's unit instance.
//
// Options are rebuilt for every invocation from tokens(i); the unit instance is
// reused. Invocation failures are recorded and never stop the loop. The
// returned records are in index order. A non-nil error means the run did not
// start (ErrHandleBusy, invalid arguments) or was cancelled; in the latter case
// the records completed before cancellation are returned too.
func (h *Harness) Run(ctx context.Context, count int, tokens TokensFactory) ([]Record, error) {
	if count < 0 {
		return nil, fmt.Errorf("invalid invocation count %d", count)
	}
	if tokens == nil {
		return nil, errors.New("no tokens factory")
	}
	if !h.acquire() {
		return nil, ErrHandleBusy
	}
	defer h.release()

	h.logger.Info("run started", "unit", h.typ.Name(), "count", count)

	records := make([]Record, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			h.logger.Warn("run cancelled", "completed", len(records), "count", count)
			return records, err
		}

		rec := h.invoke(ctx, i, tokens)
		records = append(records, rec)
		if h.notify != nil {
			h.notify(rec)
		}
	}

	summary := Summarize(records)
	h.logger.Info("run finished",
		"unit", h.typ.Name(),
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)
	return records, nil
}

func (h *Harness) acquire() bool {
	if !h.running.CompareAndSwap(false, true) {
		return false
	}
	h.state.Store(int32(StateRunning))
	return true
}

func (h *Harness) release() {
	h.state.Store(int32(StateIdle))
	h.running.Store(false)
}

// invoke runs one parse/apply/process cycle and never returns an error;
// failures end up in the record.
func (h *Harness) invoke(ctx context.Context, i int, tokens TokensFactory) Record {
	start := time.Now()
	rec := Record{Index: i, Seq: h.clock.Next()}

	var opts unit.Options
	stage, err := StageParse, guard(func() error {
		rec.Args = append([]string(nil), tokens(i)...)
		var err error
		opts, err = h.typ.ParseOptions(rec.Args)
		return err
	})
	if err == nil {
		stage, err = StageApply, guard(func() error {
			return h.unit.SetOptions(opts)
		})
	}
	if err == nil {
		stage, err = StageProcess, guard(func() error {
			return h.unit.Process(ctx)
		})
	}

	rec.Duration = time.Since(start)
	if err != nil {
		rec.Status = StatusFailed
		rec.Err = &InvocationError{Index: i, Stage: stage, Err: err}
		h.logger.Warn("invocation failed",
			"index", i,
			"worker", h.worker,
			"stage", stage,
			"error", err,
			"elapsed", rec.Duration,
		)
		return rec
	}

	rec.Status = StatusSucceeded
	h.logger.Debug("invocation succeeded",
		"index", i,
		"worker", h.worker,
		"seq", rec.Seq,
		"elapsed", rec.Duration,
	)
	return rec
}

// guard runs fn, converting a panic into a *PanicError.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn()
}
