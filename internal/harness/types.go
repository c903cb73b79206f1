package harness

import "time"

// Status is the outcome of a single invocation.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Stage identifies the step of an invocation that failed.
type Stage string

const (
	// StageParse is option token parsing.
	StageParse Stage = "parse"
	// StageApply is applying options to the unit instance.
	StageApply Stage = "apply"
	// StageProcess is the unit's Process call.
	StageProcess Stage = "process"
)

// Record describes one completed invocation.
type Record struct {
	// Index is the zero-based invocation index within the run.
	Index int `json:"index"`

	// Args are the option tokens the invocation was built from.
	Args []string `json:"args"`

	// Status is StatusSucceeded or StatusFailed.
	Status Status `json:"status"`

	// Err is an *InvocationError when Status is StatusFailed, nil otherwise.
	Err error `json:"-"`

	// Seq is the logical clock value stamped when the invocation started.
	Seq int64 `json:"seq"`

	// Duration is the wall time from parse to process return.
	Duration time.Duration `json:"-"`
}

// Succeeded reports whether the invocation succeeded.
func (r Record) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// Stage returns the failing stage, or "" for a successful invocation.
func (r Record) Stage() Stage {
	if ie := asInvocationError(r.Err); ie != nil {
		return ie.Stage
	}
	return ""
}

// ErrorMessage returns the failure message, or "" for a successful invocation.
func (r Record) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Summary aggregates the records of a run.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Summarize counts succeeded and failed records.
func Summarize(records []Record) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		if r.Succeeded() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// AnySucceeded reports whether at least one invocation succeeded.
func (s Summary) AnySucceeded() bool {
	return s.Succeeded > 0
}

// State is the lifecycle state of a Harness.
type State int32

const (
	StateInitialized State = iota + 1
	StateRunning
	StateIdle
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateIdle:
		return "idle"
	default:
		return "unknown"
	}
}
