// Package normalize provides the built-in "normalize" processing unit.
//
// The unit reads text, applies Unicode NFC normalization and line-ending
// normalization, and writes the result. It performs no linguistic analysis;
// tagging flags (-e, -x, -g, -t1) are accepted and ignored so that the same
// option tokens work against both this unit and the external tagger.
package normalize

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/tagloop/internal/unit"
)

// Name is the registry name of the unit.
const Name = "normalize"

// TaggedSuffix is appended to each input's base name in recursive mode.
const TaggedSuffix = ".tagged.txt"

// Type is the unit.Type for the normalize unit. The zero value is ready to use.
type Type struct{}

// Name implements unit.Type.
func (Type) Name() string { return Name }

// New implements unit.Type.
func (Type) New() (unit.Unit, error) {
	return &Normalizer{stdin: os.Stdin, stdout: os.Stdout}, nil
}

// ParseOptions implements unit.Type.
func (Type) ParseOptions(tokens []string) (unit.Options, error) {
	opts, err := unit.ParseTagOptions(tokens)
	if err != nil {
		return nil, err
	}
	return opts, nil
}

// Normalizer is a constructed normalize unit.
type Normalizer struct {
	opts   *unit.TagOptions
	stdin  io.Reader
	stdout io.Writer
}

// SetOptions implements unit.Unit.
func (n *Normalizer) SetOptions(opts unit.Options) error {
	tagOpts, ok := opts.(*unit.TagOptions)
	if !ok {
		return fmt.Errorf("normalize: %w (got %T)", unit.ErrForeignOptions, opts)
	}
	n.opts = tagOpts
	return nil
}

// Process implements unit.Unit.
func (n *Normalizer) Process(ctx context.Context) error {
	if n.opts == nil {
		return fmt.Errorf("normalize: process called before options were set")
	}
	if n.opts.Recursive != "" {
		return n.processDir(ctx, n.opts.Recursive)
	}
	return n.processFile(n.opts.Input, n.opts.Output)
}

func (n *Normalizer) processDir(ctx context.Context, dir string) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".txt" || strings.HasSuffix(path, TaggedSuffix) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("normalize: walk %s: %w", dir, err)
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		out := strings.TrimSuffix(path, ".txt") + TaggedSuffix
		if err := n.processFile(path, out); err != nil {
			return err
		}
	}
	return nil
}

func (n *Normalizer) processFile(in, out string) error {
	var data []byte
	var err error
	if in == "-" {
		data, err = io.ReadAll(n.stdin)
	} else {
		data, err = os.ReadFile(in)
	}
	if err != nil {
		return fmt.Errorf("normalize: read input: %w", err)
	}

	text := Normalize(string(data))

	if out == "-" {
		_, err = io.WriteString(n.stdout, text)
	} else {
		err = os.WriteFile(out, []byte(text), 0644)
	}
	if err != nil {
		return fmt.Errorf("normalize: write output: %w", err)
	}
	return nil
}

// Normalize converts s to NFC and rewrites CRLF and CR line endings to LF.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return norm.NFC.String(s)
}
