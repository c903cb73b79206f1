package resolver

import (
	"github.com/roach88/tagloop/internal/unit"
	"github.com/roach88/tagloop/internal/unit/normalize"
	"github.com/roach88/tagloop/internal/unit/tagtext"
)

// NewDefault creates a resolver with the built-in units registered.
// tagCfg configures how the external tagger is launched.
func NewDefault(tagCfg tagtext.Config, opts ...Option) *Resolver {
	r := New(opts...)
	r.MustRegister(normalize.Name, func() (unit.Type, error) {
		return normalize.Type{}, nil
	})
	r.MustRegister(tagtext.Name, func() (unit.Type, error) {
		return tagtext.NewType(tagCfg), nil
	}, tagtext.Aliases...)
	return r
}
