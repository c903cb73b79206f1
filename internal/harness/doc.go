// Package harness drives a processing unit through many invocations inside one
// process.
//
// The point of the harness is to pay unit construction once and reuse the
// instance: Initialize constructs exactly one unit.Unit, and every call to Run
// feeds it freshly parsed options for each invocation.
//
// # Invocation Loop
//
// For each index i in 0..count-1, Run:
//
//  1. asks the TokensFactory for the option tokens of invocation i
//  2. parses them with the unit type's ParseOptions (new Options every time)
//  3. applies them with SetOptions
//  4. calls Process and waits for it to return
//  5. appends a Record and notifies the Notifier
//
// # Fault Isolation
//
// A failure in any of parse, apply or process (including a panic inside the
// unit) is captured as an *InvocationError in that invocation's Record. The
// loop always continues with the next index. Only resolution and construction
// failures are fatal, and both happen before the first invocation.
//
// # Cancellation
//
// The context is checked between invocations only. A running Process is never
// interrupted by the harness; the context is handed to the unit, which may
// honor it on its own. When the context is cancelled Run returns the records
// collected so far together with ctx.Err().
//
// # Thread Safety
//
// A Harness owns a single unit instance and is NOT safe for concurrent use.
// A second Run while one is in progress fails with ErrHandleBusy. For parallel
// throughput use Pool, which gives every worker its own Harness.
//
// # Lifecycle
//
//	Initialize ──► Initialized ──Run──► Running ──► Idle ──Run──► Running ...
//
// There is no terminal state; a Harness is simply dropped when no longer needed.
package harness
