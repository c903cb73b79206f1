package unit

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// TagOptions is the parsed form of the tagger option grammar.
// Fields are read-only after ParseTagOptions returns.
type TagOptions struct {
	Input           string
	Output          string
	SemanticTags    bool
	XMLOutput       bool
	Disambiguate    bool
	SingleTokenOnly bool
	Quiet           bool
	Recursive       string

	args []string
}

// Args returns a copy of the tokens these options were parsed from.
func (o *TagOptions) Args() []string {
	return append([]string(nil), o.args...)
}

// ParseTagOptions parses tokens such as ["-i", "in.txt", "-o", "out.txt", "-e", "-x"].
//
// Either an input (-i) or a recursive directory (-r) is required. An output
// (-o) is required unless -r is given, in which case each file is written next
// to its input. Positional arguments are rejected.
func ParseTagOptions(tokens []string) (*TagOptions, error) {
	opts := &TagOptions{args: append([]string(nil), tokens...)}

	fs := pflag.NewFlagSet("tag", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false

	fs.StringVarP(&opts.Input, "input", "i", "", "input file")
	fs.StringVarP(&opts.Output, "output", "o", "", "output file")
	fs.BoolVarP(&opts.SemanticTags, "semanticTags", "e", false, "add semantic tags")
	fs.BoolVarP(&opts.XMLOutput, "xmlOutput", "x", false, "write XML output")
	fs.BoolVarP(&opts.Disambiguate, "disambiguate", "g", false, "disambiguate and keep first token only")
	fs.BoolVar(&opts.SingleTokenOnly, "singleTokenOnly", false, "one token per reading")
	fs.BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress diagnostics")
	fs.StringVarP(&opts.Recursive, "recursive", "r", "", "process every .txt file under a directory")

	if err := fs.Parse(expandLegacyFlags(tokens)); err != nil {
		return nil, &ParseError{Args: opts.Args(), Err: err}
	}
	if fs.NArg() > 0 {
		return nil, &ParseError{
			Args: opts.Args(),
			Err:  fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " ")),
		}
	}

	switch {
	case opts.Input == "" && opts.Recursive == "":
		return nil, &ParseError{Args: opts.Args(), Err: errors.New("one of -i or -r is required")}
	case opts.Input != "" && opts.Recursive != "":
		return nil, &ParseError{Args: opts.Args(), Err: errors.New("-i and -r are mutually exclusive")}
	case opts.Output == "" && opts.Recursive == "":
		return nil, &ParseError{Args: opts.Args(), Err: errors.New("-o is required with -i")}
	}

	return opts, nil
}

// valueFlags take the following token as their value.
var valueFlags = map[string]bool{
	"-i": true, "--input": true,
	"-o": true, "--output": true,
	"-r": true, "--recursive": true,
}

// expandLegacyFlags rewrites the two-letter "-t1" short flag, which pflag
// cannot express, to its long form. Flag values are left untouched.
func expandLegacyFlags(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if valueFlags[tok] && i+1 < len(tokens) {
			out = append(out, tok, tokens[i+1])
			i++
			continue
		}
		if tok == "-t1" {
			tok = "--singleTokenOnly"
		}
		out = append(out, tok)
	}
	return out
}
