package unit

import "context"

// Options is a parsed, immutable configuration for a single invocation.
//
// Options values are opaque to the harness; only the Type that produced them
// knows their concrete shape. Args returns a copy of the tokens the options
// were parsed from, for recording and diagnostics.
type Options interface {
	Args() []string
}

// Unit is one constructed processing unit instance.
//
// Not safe for concurrent use. See package documentation.
type Unit interface {
	// SetOptions replaces the options used by the next Process call.
	// Returns an error if opts was not produced by this unit's Type.
	SetOptions(opts Options) error

	// Process performs the unit's work with the current options.
	// The context is passed through to any external work the unit starts;
	// the harness itself never interrupts a running Process.
	Process(ctx context.Context) error
}

// Type describes a resolvable processing unit implementation.
type Type interface {
	// Name returns the canonical registry name of the unit.
	Name() string

	// New constructs a unit instance. Construction may be expensive
	// (loading resources, resolving binaries) and is expected to happen
	// once per run, not once per invocation.
	New() (Unit, error)

	// ParseOptions turns option tokens into Options.
	// Returns *ParseError on malformed tokens.
	ParseOptions(tokens []string) (Options, error)
}
