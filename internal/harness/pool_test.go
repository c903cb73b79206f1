package harness

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tagloop/internal/testutil"
	"github.com/roach88/tagloop/internal/unit"
)

func TestNewPool_OneConstructionPerWorker(t *testing.T) {
	stub := testutil.NewStubType()

	p, err := NewPool(stub, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Size())
	assert.Equal(t, 3, stub.Constructions())
}

func TestNewPool_ClampsWorkers(t *testing.T) {
	p, err := NewPool(testutil.NewStubType(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Size())
}

func TestNewPool_InitializationFailure(t *testing.T) {
	stub := testutil.NewStubType()
	stub.NewErr = errors.New("out of memory")

	p, err := NewPool(stub, 4)
	require.Error(t, err)
	assert.Nil(t, p)
	assert.True(t, IsInitializationError(err))
	assert.Contains(t, err.Error(), "worker 0")
	// Fails fast on the first worker
	assert.Equal(t, 1, stub.Constructions())
	assert.Empty(t, stub.Processed())
}

func TestPoolRun_RecordsInIndexOrder(t *testing.T) {
	stub := testutil.NewStubType()
	var mu sync.Mutex
	var notified []int

	p, err := NewPool(stub, 4, WithNotifier(func(rec Record) {
		mu.Lock()
		defer mu.Unlock()
		notified = append(notified, rec.Index)
	}))
	require.NoError(t, err)

	records, err := p.Run(context.Background(), 20, func(i int) []string {
		return TagArgs("in.txt", "out.txt")
	})
	require.NoError(t, err)

	require.Len(t, records, 20)
	for i, rec := range records {
		assert.Equal(t, i, rec.Index)
		assert.True(t, rec.Succeeded())
	}
	assert.Len(t, notified, 20)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19}, notified)

	// Construction happened once per worker, not per invocation
	assert.Equal(t, 4, stub.Constructions())
	assert.Len(t, stub.Processed(), 20)
}

func TestPoolRun_FailuresIsolated(t *testing.T) {
	stub := testutil.NewStubType()
	stub.ProcessHook = func(_ int, opts *unit.TagOptions) error {
		if opts.Input == "bad.txt" {
			return errors.New("cannot read")
		}
		return nil
	}

	p, err := NewPool(stub, 2)
	require.NoError(t, err)

	records, err := p.Run(context.Background(), 6, func(i int) []string {
		if i%3 == 0 {
			return TagArgs("bad.txt", "out.txt")
		}
		return TagArgs("good.txt", "out.txt")
	})
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 6, Succeeded: 4, Failed: 2}, Summarize(records))
	assert.False(t, records[0].Succeeded())
	assert.False(t, records[3].Succeeded())
}

func TestPoolRun_EachWorkerOwnsItsUnit(t *testing.T) {
	stub := testutil.NewStubType()
	var mu sync.Mutex
	active := map[*unit.TagOptions]bool{}
	stub.ProcessHook = func(_ int, opts *unit.TagOptions) error {
		mu.Lock()
		defer mu.Unlock()
		// Options are rebuilt per invocation, so a repeat means two workers
		// shared one instance's state
		assert.False(t, active[opts])
		active[opts] = true
		return nil
	}

	p, err := NewPool(stub, 3)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), 30, TagTokens("a", "b"))
	require.NoError(t, err)
	assert.Len(t, active, 30)
}

func TestPoolRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stub := testutil.NewStubType()
	stub.ProcessHook = func(call int, _ *unit.TagOptions) error {
		if call == 2 {
			cancel()
		}
		return nil
	}

	p, err := NewPool(stub, 1)
	require.NoError(t, err)

	records, err := p.Run(ctx, 100, TagTokens("a", "b"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, len(records), 100)
	assert.GreaterOrEqual(t, len(records), 3)
	for i, rec := range records {
		assert.Equal(t, i, rec.Index)
	}
}

func TestPoolRun_InvalidArguments(t *testing.T) {
	p, err := NewPool(testutil.NewStubType(), 2)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), -1, TagTokens("a", "b"))
	assert.Error(t, err)
	_, err = p.Run(context.Background(), 1, nil)
	assert.Error(t, err)
}
