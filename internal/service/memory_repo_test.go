package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"utility-works/internal/model"
	"utility-works/internal/repository"
)

// memoryRepo is an in-memory Repository. WithTx works on a copy of the
// state and only publishes it when fn succeeds, so rollbacks are observable.
type memoryRepo struct {
	mu    sync.Mutex
	state memoryState

	failSaveAggregate error
}

type memoryState struct {
	entries     map[uint]model.WorkEntry
	aggregates  map[model.Category]map[uint]model.AnnualAggregate
	nextEntryID uint
	nextAggID   uint
}

type memoryTx struct {
	repo  *memoryRepo
	state *memoryState
}

var _ repository.Repository = (*memoryRepo)(nil)
var _ repository.TxRepository = (*memoryTx)(nil)

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{state: memoryState{
		entries: make(map[uint]model.WorkEntry),
		aggregates: map[model.Category]map[uint]model.AnnualAggregate{
			model.CategoryWater:    {},
			model.CategorySewerage: {},
		},
	}}
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		entries:     make(map[uint]model.WorkEntry, len(s.entries)),
		aggregates:  make(map[model.Category]map[uint]model.AnnualAggregate, len(s.aggregates)),
		nextEntryID: s.nextEntryID,
		nextAggID:   s.nextAggID,
	}
	for id, e := range s.entries {
		out.entries[id] = e
	}
	for c, rows := range s.aggregates {
		copied := make(map[uint]model.AnnualAggregate, len(rows))
		for id, row := range rows {
			copied[id] = row
		}
		out.aggregates[c] = copied
	}
	return out
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, repository.TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	working := r.state.clone()
	if err := fn(ctx, &memoryTx{repo: r, state: &working}); err != nil {
		return err
	}
	r.state = working
	return nil
}

func (r *memoryRepo) GetEntry(ctx context.Context, id uint) (model.WorkEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return getEntry(&r.state, id)
}

func (r *memoryRepo) ListEntries(ctx context.Context, filter repository.EntryFilter) ([]model.WorkEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []model.WorkEntry{}
	for _, e := range r.state.entries {
		if e.Year != filter.Year {
			continue
		}
		if filter.Month != 0 && e.Month != filter.Month {
			continue
		}
		if filter.Category != 0 && e.Category != filter.Category {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) ListAggregates(ctx context.Context, category model.Category, year int) ([]model.AnnualAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []model.AnnualAggregate{}
	for _, row := range r.state.aggregates[category] {
		if row.Year == year {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// removeAggregate deletes a row behind the service's back
func (r *memoryRepo) removeAggregate(bucket model.Bucket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, row := range r.state.aggregates[bucket.Category] {
		if row.WorkName == bucket.WorkName && row.Year == bucket.Year {
			delete(r.state.aggregates[bucket.Category], id)
		}
	}
}

func (r *memoryRepo) allAggregates() []model.AnnualAggregate {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AnnualAggregate
	for _, rows := range r.state.aggregates {
		for _, row := range rows {
			out = append(out, row)
		}
	}
	return out
}

func getEntry(state *memoryState, id uint) (model.WorkEntry, error) {
	e, ok := state.entries[id]
	if !ok {
		return model.WorkEntry{}, fmt.Errorf("entry %d: %w", id, repository.ErrEntryNotFound)
	}
	return e, nil
}

func (t *memoryTx) GetEntry(ctx context.Context, id uint) (model.WorkEntry, error) {
	return getEntry(t.state, id)
}

func (t *memoryTx) CreateEntry(ctx context.Context, entry *model.WorkEntry) error {
	t.state.nextEntryID++
	entry.ID = t.state.nextEntryID
	t.state.entries[entry.ID] = *entry
	return nil
}

func (t *memoryTx) SaveEntry(ctx context.Context, entry *model.WorkEntry) error {
	if _, ok := t.state.entries[entry.ID]; !ok {
		return repository.ErrEntryNotFound
	}
	t.state.entries[entry.ID] = *entry
	return nil
}

func (t *memoryTx) DeleteEntry(ctx context.Context, id uint) error {
	if _, ok := t.state.entries[id]; !ok {
		return repository.ErrEntryNotFound
	}
	delete(t.state.entries, id)
	return nil
}

func (t *memoryTx) FindAggregate(ctx context.Context, bucket model.Bucket) (*model.AnnualAggregate, error) {
	var found *model.AnnualAggregate
	for _, row := range t.state.aggregates[bucket.Category] {
		if row.WorkName != bucket.WorkName || row.Year != bucket.Year {
			continue
		}
		if found == nil || row.ID < found.ID {
			r := row
			found = &r
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%s: %w", bucket, repository.ErrAggregateNotFound)
	}
	found.Category = bucket.Category
	return found, nil
}

func (t *memoryTx) GetOrCreateAggregate(ctx context.Context, bucket model.Bucket) (*model.AnnualAggregate, error) {
	if agg, err := t.FindAggregate(ctx, bucket); err == nil {
		return agg, nil
	}
	t.state.nextAggID++
	agg := model.NewAnnualAggregate(bucket)
	agg.ID = t.state.nextAggID
	t.state.aggregates[bucket.Category][agg.ID] = *agg
	return agg, nil
}

func (t *memoryTx) SaveAggregate(ctx context.Context, agg *model.AnnualAggregate) error {
	if t.repo.failSaveAggregate != nil {
		return t.repo.failSaveAggregate
	}
	t.state.aggregates[agg.Category][agg.ID] = *agg
	return nil
}

func (t *memoryTx) DeleteAggregate(ctx context.Context, agg *model.AnnualAggregate) error {
	delete(t.state.aggregates[agg.Category], agg.ID)
	return nil
}
