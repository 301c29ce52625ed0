package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awmpietro/algotrace/internal/solver"
	"github.com/awmpietro/algotrace/internal/trace"
)

func openInMemory(t *testing.T) *Badger {
	t.Helper()
	b, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func knapsackTrace() *trace.Trace {
	return solver.KnapsackDP(solver.KnapsackInput{
		Capacity: 5,
		Items: []solver.Item{
			{ID: 1, Weight: 2, Value: 3},
			{ID: 2, Weight: 3, Value: 4},
		},
	})
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	b := openInMemory(t)
	ctx := context.Background()
	tr := knapsackTrace()

	rec, err := b.Save(ctx, Record{
		Algorithm: "knapsack",
		Variant:   "dp",
		Hash:      "abc",
		Input:     json.RawMessage(`{"capacity":5}`),
		Trace:     tr,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := b.Load(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "knapsack", got.Algorithm)
	assert.Equal(t, tr.ResultValue, got.Trace.ResultValue)
	assert.Len(t, got.Trace.Steps, len(tr.Steps))
	assert.JSONEq(t, `{"capacity":5}`, string(got.Input))

	wantHash, err := tr.Hash()
	require.NoError(t, err)
	gotHash, err := got.Trace.Hash()
	require.NoError(t, err)
	assert.Equal(t, wantHash, gotHash, "stored trace must decode to the same canonical trace")
}

func TestSave_RejectsMissingTrace(t *testing.T) {
	b := openInMemory(t)
	_, err := b.Save(context.Background(), Record{Algorithm: "lis"})
	require.Error(t, err)
}

func TestLoad_NotFound(t *testing.T) {
	b := openInMemory(t)
	_, err := b.Load(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	b := openInMemory(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	b.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	ctx := context.Background()
	var ids []string
	for _, alg := range []string{"knapsack", "lcs", "huffman"} {
		rec, err := b.Save(ctx, Record{Algorithm: alg, Variant: "dp", Trace: knapsackTrace()})
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	all, err := b.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)
	assert.Equal(t, 7, all[0].ResultValue)
	assert.Greater(t, all[0].StepCount, 0)

	two, err := b.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
	assert.Equal(t, "huffman", two[0].Algorithm)
}

func TestDelete(t *testing.T) {
	b := openInMemory(t)
	ctx := context.Background()

	rec, err := b.Save(ctx, Record{Algorithm: "knapsack", Trace: knapsackTrace()})
	require.NoError(t, err)

	require.NoError(t, b.Delete(ctx, rec.ID))
	_, err = b.Load(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := b.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, b.Delete(ctx, rec.ID), ErrNotFound)
}

func TestCanceledContext(t *testing.T) {
	b := openInMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Save(ctx, Record{Trace: knapsackTrace()})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = b.List(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPersistentReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := Open(Config{Path: dir, SyncWrites: true})
	require.NoError(t, err)
	rec, err := b.Save(ctx, Record{Algorithm: "knapsack", Trace: knapsackTrace()})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	b, err = Open(Config{Path: dir})
	require.NoError(t, err)
	defer b.Close()

	got, err := b.Load(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Trace.ResultValue)
}

func TestSave_RetentionSetsExpiry(t *testing.T) {
	b, err := Open(Config{InMemory: true, Retention: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	rec, err := b.Save(context.Background(), Record{Algorithm: "lcs", Variant: "dp", Trace: knapsackTrace()})
	require.NoError(t, err)

	err = b.db.View(func(txn *badger.Txn) error {
		for _, key := range []string{tracePrefix + rec.ID, summaryPrefix + rec.ID} {
			item, err := txn.Get([]byte(key))
			if err != nil {
				return err
			}
			expires := time.Unix(int64(item.ExpiresAt()), 0)
			assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute, key)
		}
		return nil
	})
	require.NoError(t, err)

	plain := openInMemory(t)
	rec, err = plain.Save(context.Background(), Record{Algorithm: "lcs", Variant: "dp", Trace: knapsackTrace()})
	require.NoError(t, err)
	err = plain.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tracePrefix + rec.ID))
		if err != nil {
			return err
		}
		assert.Zero(t, item.ExpiresAt())
		return nil
	})
	require.NoError(t, err)
}

func TestSave_MaxRecordsPrunesOldest(t *testing.T) {
	b, err := Open(Config{InMemory: true, MaxRecords: 10})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	ctx := context.Background()
	var ids []string
	for i := 0; i < 11; i++ {
		rec, err := b.Save(ctx, Record{Algorithm: "knapsack", Variant: "dp", Trace: knapsackTrace()})
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	all, err := b.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 9)
	assert.Equal(t, ids[10], all[0].ID)
	assert.Equal(t, ids[2], all[8].ID)

	_, err = b.Load(ctx, ids[0])
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, b.Delete(ctx, ids[10]))
	rec, err := b.Save(ctx, Record{Algorithm: "lcs", Variant: "dp", Trace: knapsackTrace()})
	require.NoError(t, err)
	all, err = b.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 9)
	assert.Equal(t, rec.ID, all[0].ID)
}
