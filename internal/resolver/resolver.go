// Package resolver maps symbolic unit identifiers to unit types.
//
// Units are registered at compile time with a Factory. The first Resolve of a
// unit runs its factory (the one-time loading work) and caches the resulting
// unit.Type; later resolutions return the cached type. One Resolver is meant to
// live for the whole process.
//
// Identifiers may be a registered name, an alias, or a path whose base name is
// a registered name or alias (for example "scripts/TagText.groovy").
package resolver

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/tagloop/internal/unit"
)

// Factory performs the one-time work needed to produce a unit type.
type Factory func() (unit.Type, error)

// Resolver is a registry of unit factories with a cache of resolved types.
//
// Thread-safety: all methods are safe for concurrent use. Factories run under
// the resolver's lock, so a factory never runs twice for the same unit.
type Resolver struct {
	mu        sync.Mutex
	factories map[string]Factory
	aliases   map[string]string
	cache     map[string]unit.Type
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for resolution events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates an empty resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		factories: make(map[string]Factory),
		aliases:   make(map[string]string),
		cache:     make(map[string]unit.Type),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a factory under name and any aliases.
// Returns an error if name or an alias is already taken.
func (r *Resolver) Register(name string, factory Factory, aliases ...string) error {
	if name == "" {
		return fmt.Errorf("register: empty unit name")
	}
	if factory == nil {
		return fmt.Errorf("register %q: nil factory", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken(name) {
		return fmt.Errorf("register %q: name already registered", name)
	}
	for _, alias := range aliases {
		if alias == name || r.taken(alias) {
			return fmt.Errorf("register %q: alias %q already registered", name, alias)
		}
	}

	r.factories[name] = factory
	for _, alias := range aliases {
		r.aliases[alias] = name
	}
	return nil
}

// MustRegister is like Register but panics on error.
// Intended for building the compile-time registry.
func (r *Resolver) MustRegister(name string, factory Factory, aliases ...string) {
	if err := r.Register(name, factory, aliases...); err != nil {
		panic(err)
	}
}

func (r *Resolver) taken(id string) bool {
	_, isName := r.factories[id]
	_, isAlias := r.aliases[id]
	return isName || isAlias
}

// Resolve returns the unit type registered under id.
//
// Returns *ResolutionError with ReasonNotFound if id is unknown, or with
// ReasonContract if the factory fails or returns an unusable type.
func (r *Resolver) Resolve(id string) (unit.Type, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.canonical(id)
	if !ok {
		return nil, &ResolutionError{ID: id, Reason: ReasonNotFound}
	}

	if typ, ok := r.cache[name]; ok {
		r.logger.Debug("unit resolved from cache", "id", id, "unit", name)
		return typ, nil
	}

	typ, err := r.factories[name]()
	if err != nil {
		return nil, &ResolutionError{ID: id, Reason: ReasonContract, Err: err}
	}
	if typ == nil {
		return nil, &ResolutionError{ID: id, Reason: ReasonContract, Err: fmt.Errorf("factory returned no unit type")}
	}
	if typ.Name() == "" {
		return nil, &ResolutionError{ID: id, Reason: ReasonContract, Err: fmt.Errorf("unit type has no name")}
	}

	r.cache[name] = typ
	r.logger.Info("unit loaded", "id", id, "unit", name)
	return typ, nil
}

// canonical maps id to a registered name. Must be called with r.mu held.
func (r *Resolver) canonical(id string) (string, bool) {
	id = strings.TrimSpace(id)
	candidates := []string{id}
	if base := filepath.Base(filepath.FromSlash(id)); base != id {
		candidates = append(candidates, base)
	}

	for _, c := range candidates {
		if _, ok := r.factories[c]; ok {
			return c, true
		}
		if name, ok := r.aliases[c]; ok {
			return name, true
		}
	}
	return "", false
}

// Names returns the registered unit names in sorted order.
func (r *Resolver) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Aliases returns the aliases registered for name in sorted order.
func (r *Resolver) Aliases(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var aliases []string
	for alias, target := range r.aliases {
		if target == name {
			aliases = append(aliases, alias)
		}
	}
	sort.Strings(aliases)
	return aliases
}
