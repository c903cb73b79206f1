package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/tagloop/internal/unit"
)

// StubType is an instrumented unit.Type for harness tests.
//
// It parses the standard tag option grammar, counts constructions, and records
// the option tokens of every Process call across all instances it created.
// Tests inject failures with NewErr and ProcessHook.
type StubType struct {
	// TypeName is returned by Name. Defaults to "stub".
	TypeName string

	// NewErr, when set, makes every construction fail.
	NewErr error

	// ProcessHook runs inside Process. call is the zero-based index of the
	// Process call across all instances. A non-nil return fails the call.
	ProcessHook func(call int, opts *unit.TagOptions) error

	mu            sync.Mutex
	constructions int
	processed     [][]string
}

// NewStubType creates a stub type named "stub".
func NewStubType() *StubType {
	return &StubType{TypeName: "stub"}
}

// Name implements unit.Type.
func (s *StubType) Name() string {
	if s.TypeName == "" {
		return "stub"
	}
	return s.TypeName
}

// New implements unit.Type. Every call counts as a construction, including
// failed ones.
func (s *StubType) New() (unit.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.constructions++
	if s.NewErr != nil {
		return nil, s.NewErr
	}
	return &StubUnit{typ: s, id: s.constructions}, nil
}

// ParseOptions implements unit.Type.
func (s *StubType) ParseOptions(tokens []string) (unit.Options, error) {
	opts, err := unit.ParseTagOptions(tokens)
	if err != nil {
		return nil, err
	}
	return opts, nil
}

// Constructions returns how many times New was called.
func (s *StubType) Constructions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.constructions
}

// Processed returns the option tokens of every Process call, in call order.
func (s *StubType) Processed() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.processed))
	copy(out, s.processed)
	return out
}

// StubUnit is an instance created by StubType.
type StubUnit struct {
	typ  *StubType
	id   int
	opts *unit.TagOptions
}

// ID returns the construction number of this instance (1-based).
func (u *StubUnit) ID() int {
	return u.id
}

// SetOptions implements unit.Unit.
func (u *StubUnit) SetOptions(opts unit.Options) error {
	tagOpts, ok := opts.(*unit.TagOptions)
	if !ok {
		return fmt.Errorf("stub: %w", unit.ErrForeignOptions)
	}
	u.opts = tagOpts
	return nil
}

// Process implements unit.Unit.
func (u *StubUnit) Process(ctx context.Context) error {
	if u.opts == nil {
		return fmt.Errorf("stub: process called before options were set")
	}

	u.typ.mu.Lock()
	call := len(u.typ.processed)
	u.typ.processed = append(u.typ.processed, u.opts.Args())
	hook := u.typ.ProcessHook
	u.typ.mu.Unlock()

	if hook != nil {
		return hook(call, u.opts)
	}
	return nil
}
