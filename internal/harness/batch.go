package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Batch is a list of tagging jobs run against one unit.
//
// Batch files are YAML:
//
//	name: nightly
//	unit: tagtext
//	workers: 2
//	jobs:
//	  - input: a.txt
//	    output: a.tagged.txt
//	    repeat: 4
//	    flags: ["-e", "-x"]
//	  - input: corpus
//	    recursive: true
//
// Relative paths resolve against the batch file's directory.
type Batch struct {
	// Name identifies the batch in logs and the run store.
	Name string `yaml:"name"`

	// Description is free text.
	Description string `yaml:"description,omitempty"`

	// Unit is the unit identifier passed to the resolver.
	Unit string `yaml:"unit"`

	// Workers is the pool size. Zero means one worker.
	Workers int `yaml:"workers,omitempty"`

	// Jobs are expanded, in order, into the invocation list.
	Jobs []Job `yaml:"jobs"`
}

// Job is one input/output pair, invoked Repeat times.
type Job struct {
	// Input is the file to tag, or the directory to walk when Recursive is set.
	Input string `yaml:"input"`

	// Output is the output file. Must be empty when Recursive is set.
	Output string `yaml:"output,omitempty"`

	// Recursive tags every .txt file under Input (-r).
	Recursive bool `yaml:"recursive,omitempty"`

	// Repeat is how many times the job is invoked. Zero means once.
	Repeat int `yaml:"repeat,omitempty"`

	// Flags are extra mode flags. Omitted means the caller's defaults; an
	// explicit empty list means no flags.
	Flags []string `yaml:"flags,omitempty"`
}

// Args returns the option tokens for one invocation of the job.
// defaults apply when the job sets no flags; nil defaults means DefaultFlags.
func (j Job) Args(defaults []string) []string {
	flags := j.Flags
	if flags == nil {
		flags = defaults
	}
	if flags == nil {
		flags = DefaultFlags
	}
	if j.Recursive {
		return append([]string{"-r", j.Input}, flags...)
	}
	return TagArgs(j.Input, j.Output, flags...)
}

// LoadBatch reads and validates a batch file.
// Unknown fields are rejected to catch typos.
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var batch Batch
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&batch); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i := range batch.Jobs {
		batch.Jobs[i].Input = resolvePath(base, batch.Jobs[i].Input)
		batch.Jobs[i].Output = resolvePath(base, batch.Jobs[i].Output)
	}

	if err := validateBatch(&batch); err != nil {
		return nil, fmt.Errorf("invalid batch: %w", err)
	}
	return &batch, nil
}

func resolvePath(base, p string) string {
	if p == "" || p == "-" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func validateBatch(b *Batch) error {
	if b.Name == "" {
		return fmt.Errorf("name is required")
	}
	if b.Unit == "" {
		return fmt.Errorf("unit is required")
	}
	if b.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	if len(b.Jobs) == 0 {
		return fmt.Errorf("jobs list is required and must be non-empty")
	}

	for i, job := range b.Jobs {
		if job.Input == "" {
			return fmt.Errorf("jobs[%d]: input is required", i)
		}
		if job.Recursive && job.Output != "" {
			return fmt.Errorf("jobs[%d]: output must be empty for recursive jobs", i)
		}
		if !job.Recursive && job.Output == "" {
			return fmt.Errorf("jobs[%d]: output is required", i)
		}
		if job.Repeat < 0 {
			return fmt.Errorf("jobs[%d]: repeat must be >= 0", i)
		}
	}
	return nil
}

// Invocations expands the jobs into one token list per invocation.
// defaultFlags is passed to Job.Args.
func (b *Batch) Invocations(defaultFlags []string) [][]string {
	var out [][]string
	for _, job := range b.Jobs {
		n := job.Repeat
		if n == 0 {
			n = 1
		}
		args := job.Args(defaultFlags)
		for k := 0; k < n; k++ {
			out = append(out, args)
		}
	}
	return out
}
