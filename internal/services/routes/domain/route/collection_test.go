package route

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
)

func idsOf(routes []Route) []int64 {
	ids := make([]int64, 0, len(routes))
	for _, r := range routes {
		ids = append(ids, r.ID)
	}
	return ids
}

func assertSorted(t *testing.T, c *Collection) {
	t.Helper()
	snap := c.Snapshot()
	for i := 1; i < len(snap); i++ {
		if snap[i-1].Distance > snap[i].Distance {
			t.Fatalf("collection unsorted at %d: %v > %v", i, snap[i-1].Distance, snap[i].Distance)
		}
	}
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	c := NewCollection()
	if err := c.Load([]Route{{ID: 1, Distance: 5}, {ID: 2, Distance: 3}}); err != nil {
		t.Fatalf("load: %v", err)
	}
	c.Sort()
	if got := idsOf(c.Snapshot()); !slices.Equal(got, []int64{2, 1}) {
		t.Fatalf("after sort = %v, want [2 1]", got)
	}
	if _, err := c.InsertOrdered(ctx, Route{ID: 3, Distance: 4}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := idsOf(c.Snapshot()); !slices.Equal(got, []int64{2, 3, 1}) {
		t.Fatalf("after insert = %v, want [2 3 1]", got)
	}
	if _, err := c.RemoveByID(ctx, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := idsOf(c.Snapshot()); !slices.Equal(got, []int64{2, 3}) {
		t.Fatalf("after remove = %v, want [2 3]", got)
	}
	got := idsOf(slices.Collect(c.FilterByKey(4, LessOrEqual)))
	if !slices.Equal(got, []int64{2, 3}) {
		t.Fatalf("filter = %v, want [2 3]", got)
	}
}

func TestLoadRejectsStructuralViolations(t *testing.T) {
	tests := []struct {
		name    string
		records []Route
	}{
		{name: "duplicate id", records: []Route{{ID: 1, Distance: 2}, {ID: 1, Distance: 3}}},
		{name: "zero id", records: []Route{{ID: 0, Distance: 2}}},
		{name: "negative id", records: []Route{{ID: -4, Distance: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollection()
			if err := c.Load([]Route{{ID: 9, Distance: 9}}); err != nil {
				t.Fatalf("seed: %v", err)
			}
			err := c.Load(tt.records)
			if !errors.Is(err, apperrors.ErrInvalidState) {
				t.Fatalf("load error = %v, want INVALID_STATE", err)
			}
			if got := idsOf(c.Snapshot()); !slices.Equal(got, []int64{9}) {
				t.Fatalf("contents = %v, want [9]", got)
			}
		})
	}
}

func TestSortIsIdempotent(t *testing.T) {
	c := NewCollection()
	if err := c.Load([]Route{{ID: 1, Distance: 7}, {ID: 2, Distance: 2}, {ID: 3, Distance: 7}}); err != nil {
		t.Fatalf("load: %v", err)
	}
	c.Sort()
	first := c.Snapshot()
	c.Sort()
	if !slices.Equal(idsOf(first), idsOf(c.Snapshot())) {
		t.Fatalf("second sort changed order: %v vs %v", idsOf(first), idsOf(c.Snapshot()))
	}
}

func TestInsertAssignsIDAndCreationDate(t *testing.T) {
	now := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	c := NewCollection(WithClock(func() time.Time { return now }))
	if err := c.Load([]Route{{ID: 4, Distance: 2}, {ID: 11, Distance: 3}}); err != nil {
		t.Fatalf("load: %v", err)
	}
	got, err := c.InsertOrdered(context.Background(), Route{Name: "new", Distance: 9})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got.ID != 12 {
		t.Fatalf("id = %d, want 12", got.ID)
	}
	if !got.CreationDate.Equal(now) {
		t.Fatalf("creation date = %v, want %v", got.CreationDate, now)
	}
}

func TestInsertOverridesClientCreationDate(t *testing.T) {
	now := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	c := NewCollection(WithClock(func() time.Time { return now }))
	supplied := time.Date(1999, time.December, 31, 23, 0, 0, 0, time.UTC)
	got, err := c.InsertOrdered(context.Background(), Route{ID: 7, Distance: 1, CreationDate: supplied})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !got.CreationDate.Equal(now) {
		t.Fatalf("creation date = %v, want %v", got.CreationDate, now)
	}
	if stored := c.Snapshot()[0]; !stored.CreationDate.Equal(now) {
		t.Fatalf("stored creation date = %v, want %v", stored.CreationDate, now)
	}
}

func TestInsertRejectsExhaustedIDs(t *testing.T) {
	ctx := context.Background()
	var committed []Mutation
	c := NewCollection(WithCommit(func(_ context.Context, m Mutation) error {
		committed = append(committed, m)
		return nil
	}))
	if _, err := c.InsertOrdered(ctx, Route{ID: math.MaxInt64, Distance: 1}); err != nil {
		t.Fatalf("insert max id: %v", err)
	}

	_, err := c.InsertOrdered(ctx, Route{Distance: 2})
	if !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("insert error = %v, want INVALID_STATE", err)
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
	if len(committed) != 1 {
		t.Fatalf("commits = %d, want 1", len(committed))
	}

	// The surviving state must still load on restart.
	fresh := NewCollection()
	if err := fresh.Load(c.Snapshot()); err != nil {
		t.Fatalf("reload: %v", err)
	}
}

func TestInsertDuplicateIsConflictAndUnchanged(t *testing.T) {
	c := NewCollection()
	if err := c.Load([]Route{{ID: 1, Distance: 5}, {ID: 2, Distance: 3}}); err != nil {
		t.Fatalf("load: %v", err)
	}
	c.Sort()
	before := c.Snapshot()

	_, err := c.InsertOrdered(context.Background(), Route{ID: 2, Distance: 1.5})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("insert error = %v, want CONFLICT", err)
	}
	if !slices.Equal(before, c.Snapshot()) {
		t.Fatalf("collection changed: %v -> %v", before, c.Snapshot())
	}
}

func TestMissingIDIsNotFoundAndUnchanged(t *testing.T) {
	ctx := context.Background()
	c := NewCollection()
	if err := c.Load([]Route{{ID: 1, Distance: 5}}); err != nil {
		t.Fatalf("load: %v", err)
	}
	before := c.Snapshot()

	if _, err := c.RemoveByID(ctx, 42); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("remove error = %v, want NOT_FOUND", err)
	}
	if _, err := c.Replace(ctx, 42, Route{Name: "x", Distance: 3}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("replace error = %v, want NOT_FOUND", err)
	}
	if _, err := c.RemoveWhere(ctx, func(r Route) bool { return r.Distance > 100 }, 0); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("remove where error = %v, want NOT_FOUND", err)
	}
	if !slices.Equal(before, c.Snapshot()) {
		t.Fatalf("collection changed: %v -> %v", before, c.Snapshot())
	}
}

func TestRemoveHeadOnEmpty(t *testing.T) {
	c := NewCollection()
	if _, err := c.RemoveHead(context.Background()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("remove head error = %v, want NOT_FOUND", err)
	}
}

func TestReplaceKeepsIdentityAndReorders(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	c := NewCollection()
	if err := c.Load([]Route{
		{ID: 1, Distance: 2, CreationDate: created},
		{ID: 2, Distance: 5},
	}); err != nil {
		t.Fatalf("load: %v", err)
	}
	got, err := c.Replace(ctx, 1, Route{ID: 99, Name: "moved", Distance: 8})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got.ID != 1 || !got.CreationDate.Equal(created) {
		t.Fatalf("replaced = %+v, want id 1 and original creation date", got)
	}
	if ids := idsOf(c.Snapshot()); !slices.Equal(ids, []int64{2, 1}) {
		t.Fatalf("order = %v, want [2 1]", ids)
	}
}

func TestInsertIfMin(t *testing.T) {
	ctx := context.Background()
	c := NewCollection()
	if err := c.Load([]Route{{ID: 1, Distance: 5}}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok, err := c.InsertIfMin(ctx, Route{ID: 2, Distance: 6}); err != nil || ok {
		t.Fatalf("insert larger = (%v, %v), want (false, nil)", ok, err)
	}
	if _, ok, err := c.InsertIfMin(ctx, Route{ID: 3, Distance: 4}); err != nil || !ok {
		t.Fatalf("insert smaller = (%v, %v), want (true, nil)", ok, err)
	}
	if ids := idsOf(c.Snapshot()); !slices.Equal(ids, []int64{3, 1}) {
		t.Fatalf("order = %v, want [3 1]", ids)
	}
}

func TestRemoveWhereLimit(t *testing.T) {
	c := NewCollection()
	if err := c.Load([]Route{{ID: 1, Distance: 3}, {ID: 2, Distance: 3}, {ID: 3, Distance: 4}}); err != nil {
		t.Fatalf("load: %v", err)
	}
	c.Sort()
	removed, err := c.RemoveWhere(context.Background(), func(r Route) bool { return r.Distance == 3 }, 1)
	if err != nil {
		t.Fatalf("remove where: %v", err)
	}
	if ids := idsOf(removed); !slices.Equal(ids, []int64{1}) {
		t.Fatalf("removed = %v, want [1]", ids)
	}
	if ids := idsOf(c.Snapshot()); !slices.Equal(ids, []int64{2, 3}) {
		t.Fatalf("remaining = %v, want [2 3]", ids)
	}
}

func TestCommitFailureLeavesCollectionUnchanged(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	failing := true
	c := NewCollection(WithCommit(func(context.Context, Mutation) error {
		if failing {
			return boom
		}
		return nil
	}))
	if err := c.Load([]Route{{ID: 1, Distance: 5}}); err != nil {
		t.Fatalf("load: %v", err)
	}
	before := c.Snapshot()

	_, err := c.InsertOrdered(ctx, Route{ID: 2, Distance: 3})
	if !errors.Is(err, apperrors.ErrStorage) {
		t.Fatalf("insert error = %v, want STORAGE", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("insert error = %v, want wrapped cause", err)
	}
	if _, err := c.RemoveHead(ctx); !errors.Is(err, apperrors.ErrStorage) {
		t.Fatalf("remove head error = %v, want STORAGE", err)
	}
	if _, err := c.Clear(ctx); !errors.Is(err, apperrors.ErrStorage) {
		t.Fatalf("clear error = %v, want STORAGE", err)
	}
	if !slices.Equal(before, c.Snapshot()) {
		t.Fatalf("collection changed: %v -> %v", before, c.Snapshot())
	}
	// A failed insert must not reserve the id.
	failing = false
	if _, err := c.InsertOrdered(ctx, Route{ID: 2, Distance: 3}); err != nil {
		t.Fatalf("insert after recovery: %v", err)
	}
}

func TestFreezeRejectsMutations(t *testing.T) {
	ctx := context.Background()
	c := NewCollection()
	if err := c.Load([]Route{{ID: 1, Distance: 5}}); err != nil {
		t.Fatalf("load: %v", err)
	}
	c.Freeze()
	if !c.Frozen() {
		t.Fatal("expected frozen collection")
	}
	if _, err := c.InsertOrdered(ctx, Route{ID: 2, Distance: 3}); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("insert error = %v, want INVALID_STATE", err)
	}
	if _, err := c.RemoveByID(ctx, 1); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("remove error = %v, want INVALID_STATE", err)
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
}

func TestFilterSequenceIsRestartable(t *testing.T) {
	c := NewCollection()
	if err := c.Load([]Route{{ID: 1, Distance: 2}, {ID: 2, Distance: 6}, {ID: 3, Distance: 9}}); err != nil {
		t.Fatalf("load: %v", err)
	}
	c.Sort()
	seq := c.FilterByKey(5, Greater)
	first := idsOf(slices.Collect(seq))
	second := idsOf(slices.Collect(seq))
	if !slices.Equal(first, []int64{2, 3}) || !slices.Equal(first, second) {
		t.Fatalf("filter runs = %v, %v, want [2 3] twice", first, second)
	}

	// Stopping early must not disturb the collection.
	for r := range seq {
		if r.ID == 2 {
			break
		}
	}
	if c.Len() != 3 {
		t.Fatalf("len = %d, want 3", c.Len())
	}
}

func TestRandomMutationsKeepOrder(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(7, 11))
	c := NewCollection()
	var live []int64

	for step := 0; step < 500; step++ {
		switch op := rng.IntN(4); {
		case op == 0 || len(live) == 0:
			r, err := c.InsertOrdered(ctx, Route{Name: "r", Distance: 1 + rng.Float64()*50})
			if err != nil {
				t.Fatalf("step %d insert: %v", step, err)
			}
			live = append(live, r.ID)
		case op == 1:
			i := rng.IntN(len(live))
			if _, err := c.RemoveByID(ctx, live[i]); err != nil {
				t.Fatalf("step %d remove: %v", step, err)
			}
			live = slices.Delete(live, i, i+1)
		case op == 2:
			i := rng.IntN(len(live))
			if _, err := c.Replace(ctx, live[i], Route{Name: "r", Distance: 1 + rng.Float64()*50}); err != nil {
				t.Fatalf("step %d replace: %v", step, err)
			}
		default:
			head, err := c.RemoveHead(ctx)
			if err != nil {
				t.Fatalf("step %d remove head: %v", step, err)
			}
			live = slices.DeleteFunc(live, func(id int64) bool { return id == head.ID })
		}
		assertSorted(t, c)
		if c.Len() != len(live) {
			t.Fatalf("step %d len = %d, want %d", step, c.Len(), len(live))
		}
	}
}

func TestConcurrentMutationsAreSerializable(t *testing.T) {
	ctx := context.Background()
	var (
		logMu sync.Mutex
		log   []Mutation
	)
	c := NewCollection(WithCommit(func(_ context.Context, m Mutation) error {
		logMu.Lock()
		log = append(log, m)
		logMu.Unlock()
		return nil
	}))

	const perSource = 200
	var wg sync.WaitGroup
	for source := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			base := int64(source*perSource + 1)
			for i := range int64(perSource) {
				id := base + i
				if _, err := c.InsertOrdered(ctx, Route{ID: id, Distance: float64(1 + (id*37)%97)}); err != nil {
					t.Errorf("insert %d: %v", id, err)
					return
				}
				if i%3 == 0 {
					if _, err := c.RemoveByID(ctx, id); err != nil {
						t.Errorf("remove %d: %v", id, err)
						return
					}
				}
				assertSortedConcurrent(t, c)
			}
		}()
	}
	wg.Wait()

	// Replaying the committed order sequentially must rebuild the same state.
	replay := NewCollection()
	for _, m := range log {
		switch m.Kind {
		case MutationInsert:
			if _, err := replay.InsertOrdered(ctx, m.Route); err != nil {
				t.Fatalf("replay insert: %v", err)
			}
		case MutationDelete:
			for _, id := range m.IDs {
				if _, err := replay.RemoveByID(ctx, id); err != nil {
					t.Fatalf("replay delete: %v", err)
				}
			}
		}
	}
	if !slices.Equal(idsOf(replay.Snapshot()), idsOf(c.Snapshot())) {
		t.Fatal("concurrent result differs from sequential replay of the commit order")
	}
	assertSorted(t, c)
}

func assertSortedConcurrent(t *testing.T, c *Collection) {
	t.Helper()
	snap := c.Snapshot()
	for i := 1; i < len(snap); i++ {
		if Compare(snap[i-1], snap[i]) > 0 {
			t.Errorf("observed unsorted snapshot at %d", i)
			return
		}
	}
}
