package ingest

import (
	"context"
	"sync"
)

// fakeStore is an in-memory database.Store double. It records every
// statement so tests can assert on batching behavior, and can be primed
// with catalog id sets and injected failures.
type fakeStore struct {
	mu sync.Mutex

	// execBatches records one entry per ExecBatch call: the parameter rows.
	execBatches [][][]any
	// execCalls records one entry per Exec call: the arguments.
	execCalls [][]any

	// idSets maps a query string to the set IDSet should return.
	idSets map[string]map[int64]struct{}

	// insertedPerRow is the rows-affected reported per parameter row.
	// Defaults to 1 (every row inserted).
	insertedPerRow int64
	hasInserted    bool

	execBatchErr error
	execErr      error
	idSetErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{idSets: make(map[string]map[int64]struct{})}
}

func (f *fakeStore) setCatalog(departments, jobs []int64) {
	f.idSets[`SELECT id FROM app.departments`] = toSet(departments)
	f.idSets[`SELECT id FROM app.jobs`] = toSet(jobs)
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (f *fakeStore) Exec(ctx context.Context, stmt string, args ...any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.execErr != nil {
		return 0, f.execErr
	}
	f.execCalls = append(f.execCalls, args)
	return 1, nil
}

func (f *fakeStore) ExecBatch(ctx context.Context, stmt string, rows [][]any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.execBatchErr != nil {
		return 0, f.execBatchErr
	}
	f.execBatches = append(f.execBatches, rows)

	per := int64(1)
	if f.hasInserted {
		per = f.insertedPerRow
	}
	return per * int64(len(rows)), nil
}

func (f *fakeStore) IDSet(ctx context.Context, query string) (map[int64]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.idSetErr != nil {
		return nil, f.idSetErr
	}
	set, ok := f.idSets[query]
	if !ok {
		return map[int64]struct{}{}, nil
	}
	return set, nil
}

// totalBatchedRows sums the rows across all ExecBatch calls.
func (f *fakeStore) totalBatchedRows() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, batch := range f.execBatches {
		total += len(batch)
	}
	return total
}
