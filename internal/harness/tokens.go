package harness

// TokensFactory returns the option tokens for invocation i.
// It is called once per invocation; the returned slice is copied.
type TokensFactory func(i int) []string

// DefaultFlags are the mode flags passed to the tagger when none are given:
// semantic tags and XML output.
var DefaultFlags = []string{"-e", "-x"}

// FixedTokens returns a factory that yields the same tokens for every index.
func FixedTokens(tokens ...string) TokensFactory {
	fixed := append([]string(nil), tokens...)
	return func(int) []string {
		return fixed
	}
}

// TagTokens returns a factory yielding ["-i", input, "-o", output, flags...]
// for every index.
func TagTokens(input, output string, flags ...string) TokensFactory {
	return FixedTokens(TagArgs(input, output, flags...)...)
}

// TagArgs builds the option tokens for one input/output pair.
func TagArgs(input, output string, flags ...string) []string {
	args := make([]string, 0, 4+len(flags))
	args = append(args, "-i", input, "-o", output)
	return append(args, flags...)
}

// SequenceTokens returns a factory that yields seq[i], and nil past the end.
func SequenceTokens(seq [][]string) TokensFactory {
	return func(i int) []string {
		if i < 0 || i >= len(seq) {
			return nil
		}
		return seq[i]
	}
}
