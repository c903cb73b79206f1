package cli

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tagloop/internal/store"
	"github.com/roach88/tagloop/internal/testutil"
	"github.com/roach88/tagloop/internal/unit"
)

func recordedRun(t *testing.T) (dbPath string) {
	t.Helper()
	dbPath = filepath.Join(t.TempDir(), "runs.db")

	stub := testutil.NewStubType()
	stub.ProcessHook = func(call int, _ *unit.TagOptions) error {
		if call == 0 {
			return errors.New("cold start")
		}
		return nil
	}

	stdout, _, err := execute(t, stubOptions(stub),
		"run", "--unit", "stub", "--db", dbPath, "--name", "smoke", "in.txt", "out.txt")
	require.NoError(t, err)
	require.Contains(t, stdout, "Run: run-1")
	return dbPath
}

func TestRun_RecordsToDatabase(t *testing.T) {
	dbPath := recordedRun(t)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.GetRun(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "smoke", run.Name)
	assert.Equal(t, "stub", run.Unit)
	assert.Equal(t, 4, run.Count)
	assert.Equal(t, 1, run.Workers)
	assert.Equal(t, 3, run.Succeeded)
	assert.Equal(t, 1, run.Failed)
	assert.True(t, run.Finished())

	invocations, err := st.ReadInvocations(t.Context(), "run-1")
	require.NoError(t, err)
	require.Len(t, invocations, 4)
	assert.Equal(t, "failed", invocations[0].Status)
	assert.Equal(t, "invocation 0: process: cold start", invocations[0].Error)
}

func TestHistory_ListRuns(t *testing.T) {
	dbPath := recordedRun(t)

	stdout, _, err := execute(t, stubOptions(testutil.NewStubType()), "history", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "run-1")
	assert.Contains(t, stdout, "smoke")
	assert.Contains(t, stdout, "0s")
}

func TestHistory_ShowRun(t *testing.T) {
	dbPath := recordedRun(t)

	stdout, _, err := execute(t, stubOptions(testutil.NewStubType()), "history", "--db", dbPath, "--run", "run-1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Run run-1 (stub): 3 succeeded, 1 failed")
	assert.Contains(t, stdout, "cold start")
	assert.Contains(t, stdout, "in.txt")
}

func TestHistory_ShowRunJSON(t *testing.T) {
	dbPath := recordedRun(t)

	stdout, _, err := execute(t, stubOptions(testutil.NewStubType()),
		"--format", "json", "history", "--db", dbPath, "--run", "run-1")
	require.NoError(t, err)

	var resp struct {
		Data runDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "run-1", resp.Data.Run.ID)
	assert.Len(t, resp.Data.Invocations, 4)
}

func TestHistory_EmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	stdout, _, err := execute(t, stubOptions(testutil.NewStubType()), "history", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs recorded.")
}

func TestHistory_Errors(t *testing.T) {
	dbPath := recordedRun(t)

	_, _, err := execute(t, stubOptions(testutil.NewStubType()), "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no database")

	_, _, err = execute(t, stubOptions(testutil.NewStubType()), "history", "--db", dbPath, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}
