package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tagloop/internal/harness"
	"github.com/roach88/tagloop/internal/testutil"
	"github.com/roach88/tagloop/internal/unit"
)

var started = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func runRecords(t *testing.T) []harness.Record {
	t.Helper()
	stub := testutil.NewStubType()
	stub.ProcessHook = func(call int, _ *unit.TagOptions) error {
		if call == 1 {
			return errors.New("tagger crashed")
		}
		return nil
	}
	h, err := harness.Initialize(stub, harness.WithClock(testutil.NewDeterministicClock()))
	require.NoError(t, err)

	records, err := h.Run(context.Background(), 3, harness.TagTokens("in.txt", "out.txt", harness.DefaultFlags...))
	require.NoError(t, err)
	return records
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	runID := testutil.NewFixedRunIDGenerator("run-1").Generate()

	require.NoError(t, s.BeginRun(ctx, Run{ID: runID, Unit: "stub", Count: 3, Workers: 1, StartedAt: started}))

	run, err := s.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.False(t, run.Finished())
	assert.Equal(t, started, run.StartedAt)

	records := runRecords(t)
	require.NoError(t, s.WriteRecords(ctx, runID, records))
	require.NoError(t, s.FinishRun(ctx, runID, harness.Summarize(records), started.Add(2*time.Second)))

	run, err = s.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.True(t, run.Finished())
	assert.Equal(t, 2, run.Succeeded)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, started.Add(2*time.Second), run.FinishedAt)

	invocations, err := s.ReadInvocations(ctx, runID)
	require.NoError(t, err)
	require.Len(t, invocations, 3)

	assert.Equal(t, 0, invocations[0].Index)
	assert.Equal(t, int64(1), invocations[0].Seq)
	assert.Equal(t, []string{"-i", "in.txt", "-o", "out.txt", "-e", "-x"}, invocations[0].Args)
	assert.Equal(t, "succeeded", invocations[0].Status)
	assert.Empty(t, invocations[0].Error)

	assert.Equal(t, "failed", invocations[1].Status)
	assert.Equal(t, "process", invocations[1].Stage)
	assert.Equal(t, "invocation 1: process: tagger crashed", invocations[1].Error)
}

func TestWriteRecords_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.BeginRun(ctx, Run{ID: "r", Unit: "stub", Count: 1, Workers: 1, StartedAt: started}))

	rec := harness.Record{Index: 0, Seq: 1, Args: []string{"-i", "a"}, Status: harness.StatusSucceeded}
	require.NoError(t, s.WriteRecords(ctx, "r", []harness.Record{rec}))

	rec.Status = harness.StatusFailed
	require.NoError(t, s.WriteRecords(ctx, "r", []harness.Record{rec}))

	invocations, err := s.ReadInvocations(ctx, "r")
	require.NoError(t, err)
	require.Len(t, invocations, 1)
	assert.Equal(t, "succeeded", invocations[0].Status)
}

func TestWriteRecords_NilArgs(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.BeginRun(ctx, Run{ID: "r", Unit: "stub", StartedAt: started}))
	require.NoError(t, s.WriteRecords(ctx, "r", []harness.Record{{Status: harness.StatusFailed}}))

	invocations, err := s.ReadInvocations(ctx, "r")
	require.NoError(t, err)
	require.Len(t, invocations, 1)
	assert.Equal(t, []string{}, invocations[0].Args)
}

func TestWriteRecords_UnknownRun(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	err := s.WriteRecords(ctx, "missing", []harness.Record{{Status: harness.StatusSucceeded}})
	assert.Error(t, err)

	invocations, err := s.ReadInvocations(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, invocations, "a failed batch must roll back")
}

func TestBeginRun_Errors(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	assert.Error(t, s.BeginRun(ctx, Run{Unit: "stub", StartedAt: started}))

	require.NoError(t, s.BeginRun(ctx, Run{ID: "dup", Unit: "stub", StartedAt: started}))
	assert.Error(t, s.BeginRun(ctx, Run{ID: "dup", Unit: "stub", StartedAt: started}))
}

func TestFinishRun_NotFound(t *testing.T) {
	s := openMemory(t)
	err := s.FinishRun(context.Background(), "missing", harness.Summary{}, started)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestGetRun_NotFound(t *testing.T) {
	s := openMemory(t)
	_, err := s.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	for i, id := range []string{"b", "a", "c"} {
		require.NoError(t, s.BeginRun(ctx, Run{
			ID:        id,
			Unit:      "stub",
			StartedAt: started.Add(time.Duration(i) * time.Minute),
		}))
	}
	// Same start time as "c": tie broken by id
	require.NoError(t, s.BeginRun(ctx, Run{ID: "0", Unit: "stub", StartedAt: started.Add(2 * time.Minute)}))

	runs, err = s.ListRuns(ctx, 0)
	require.NoError(t, err)
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"0", "c", "a", "b"}, ids)

	runs, err = s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestTimestampsSortLexically(t *testing.T) {
	a := started.Add(100 * time.Millisecond).Format(timeLayout)
	b := started.Add(1 * time.Second).Format(timeLayout)
	assert.Less(t, a, b)
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
