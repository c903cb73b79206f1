// Package unit defines the contract between the invocation harness and a
// processing unit.
//
// A processing unit is the external routine the harness drives in a loop: a
// tagger, a normalizer, or any adapter around an out-of-process tool. The
// harness knows units only through two interfaces:
//
//   - Type: the resolvable description of a unit. It constructs instances and
//     parses option tokens into Options. Parsing lives on the Type because it
//     does not depend on instance state.
//   - Unit: one constructed instance. Options are applied with SetOptions and
//     the work is triggered with Process.
//
// # Thread Safety
//
// A Unit is NOT safe for concurrent use. Callers that need parallelism must
// construct one Unit per goroutine (see harness.Pool). A Type must be safe for
// concurrent use since a resolver hands the same Type to every caller.
//
// # Tag Options
//
// TagOptions is the option grammar shared by the built-in units. It mirrors
// the command line of the external tagger:
//
//	-i, --input            input file ("-" for stdin where the unit allows it)
//	-o, --output           output file
//	-e, --semanticTags     add semantic tags
//	-x, --xmlOutput        write XML instead of plain text
//	-g, --disambiguate     disambiguate and keep the first token only
//	-t1, --singleTokenOnly one token per reading
//	-q, --quiet            suppress unit diagnostics
//	-r, --recursive        process every .txt file under a directory
package unit
