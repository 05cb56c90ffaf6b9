package route

import (
	"context"
	"iter"
	"math"
	"slices"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
)

// CollectionType is reported by Info.
const CollectionType = "sorted route list"

// CommitFunc durably records a mutation. It runs while the collection lock is
// held and before the mutation becomes visible.
type CommitFunc func(ctx context.Context, m Mutation) error

// Option configures a Collection.
type Option func(*Collection)

// WithCommit installs the function every mutation is committed through.
func WithCommit(fn CommitFunc) Option {
	return func(c *Collection) {
		c.commit = fn
	}
}

// WithClock overrides the clock used for stamping creation dates.
func WithClock(now func() time.Time) Option {
	return func(c *Collection) {
		if now != nil {
			c.now = now
		}
	}
}

// Info summarizes the collection for the info command.
type Info struct {
	Type          string
	InitializedAt time.Time
	Size          int
}

// Collection is the shared ordered route container. The zero value is not
// usable; call NewCollection.
type Collection struct {
	mu            sync.Mutex
	routes        []Route
	ids           map[int64]struct{}
	maxID         int64
	frozen        bool
	initializedAt time.Time
	commit        CommitFunc
	now           func() time.Time
}

// NewCollection creates an empty collection.
func NewCollection(opts ...Option) *Collection {
	c := &Collection{
		ids: make(map[int64]struct{}),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.initializedAt = c.now().UTC()
	return c
}

// Load replaces the contents with records. Records must carry positive,
// unique ids. Load does not commit: the records are assumed to come from the
// store.
func (c *Collection) Load(records []Route) error {
	ids := make(map[int64]struct{}, len(records))
	var maxID int64
	for _, r := range records {
		if r.ID <= 0 {
			return apperrors.WithMetadata(apperrors.CodeInvalidState, "route id must be positive", map[string]string{
				"id": formatID(r.ID),
			})
		}
		if _, ok := ids[r.ID]; ok {
			return apperrors.WithMetadata(apperrors.CodeInvalidState, "duplicate route id", map[string]string{
				"id": formatID(r.ID),
			})
		}
		ids[r.ID] = struct{}{}
		maxID = max(maxID, r.ID)
	}
	next := slices.Clone(records)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return errFrozen()
	}
	c.routes = next
	c.ids = ids
	c.maxID = maxID
	c.initializedAt = c.now().UTC()
	return nil
}

// Sort re-establishes the ordering. It is idempotent.
func (c *Collection) Sort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slices.IsSortedFunc(c.routes, Compare) {
		return
	}
	next := slices.Clone(c.routes)
	slices.SortFunc(next, Compare)
	c.routes = next
}

// InsertOrdered adds r at its sorted position. A zero id is replaced by the
// next free id. The creation date is always set to the current time.
func (c *Collection) InsertOrdered(ctx context.Context, r Route) (Route, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insertLocked(ctx, r)
}

// InsertIfMin adds r only when it would become the new head. The returned
// bool reports whether r was inserted.
func (c *Collection) InsertIfMin(ctx context.Context, r Route) (Route, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.routes) > 0 && r.Distance >= c.routes[0].Distance {
		return Route{}, false, nil
	}
	stored, err := c.insertLocked(ctx, r)
	if err != nil {
		return Route{}, false, err
	}
	return stored, true, nil
}

func (c *Collection) insertLocked(ctx context.Context, r Route) (Route, error) {
	if c.frozen {
		return Route{}, errFrozen()
	}
	if r.ID < 0 {
		return Route{}, apperrors.New(apperrors.CodeArgument, "route id must not be negative")
	}
	if r.ID == 0 {
		if c.maxID == math.MaxInt64 {
			return Route{}, apperrors.New(apperrors.CodeInvalidState, "route ids are exhausted")
		}
		r.ID = c.maxID + 1
	}
	if _, ok := c.ids[r.ID]; ok {
		return Route{}, apperrors.WithMetadata(apperrors.CodeConflict, "route id already exists", map[string]string{
			"id": formatID(r.ID),
		})
	}
	r.CreationDate = c.now().UTC()
	if err := c.commitLocked(ctx, Mutation{Kind: MutationInsert, Route: r}); err != nil {
		return Route{}, err
	}

	pos, _ := slices.BinarySearchFunc(c.routes, r, Compare)
	next := make([]Route, 0, len(c.routes)+1)
	next = append(next, c.routes[:pos]...)
	next = append(next, r)
	next = append(next, c.routes[pos:]...)
	c.routes = next
	c.ids[r.ID] = struct{}{}
	c.maxID = max(c.maxID, r.ID)
	return r, nil
}

// RemoveByID removes the route with id.
func (c *Collection) RemoveByID(ctx context.Context, id int64) (Route, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return Route{}, errFrozen()
	}
	idx := c.indexLocked(id)
	if idx < 0 {
		return Route{}, notFound(id)
	}
	removed := c.routes[idx]
	if err := c.removeLocked(ctx, []int{idx}); err != nil {
		return Route{}, err
	}
	return removed, nil
}

// RemoveHead removes the route with the smallest distance.
func (c *Collection) RemoveHead(ctx context.Context) (Route, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return Route{}, errFrozen()
	}
	if len(c.routes) == 0 {
		return Route{}, apperrors.New(apperrors.CodeNotFound, "collection is empty")
	}
	removed := c.routes[0]
	if err := c.removeLocked(ctx, []int{0}); err != nil {
		return Route{}, err
	}
	return removed, nil
}

// RemoveWhere removes routes matching pred in collection order. A positive
// limit caps the number of removals.
func (c *Collection) RemoveWhere(ctx context.Context, pred func(Route) bool, limit int) ([]Route, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return nil, errFrozen()
	}
	var idxs []int
	for i, r := range c.routes {
		if limit > 0 && len(idxs) == limit {
			break
		}
		if pred(r) {
			idxs = append(idxs, i)
		}
	}
	if len(idxs) == 0 {
		return nil, apperrors.New(apperrors.CodeNotFound, "no route matches")
	}
	removed := make([]Route, 0, len(idxs))
	for _, i := range idxs {
		removed = append(removed, c.routes[i])
	}
	if err := c.removeLocked(ctx, idxs); err != nil {
		return nil, err
	}
	return removed, nil
}

// Clear removes every route and returns how many were removed.
func (c *Collection) Clear(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return 0, errFrozen()
	}
	n := len(c.routes)
	if err := c.commitLocked(ctx, Mutation{Kind: MutationClear}); err != nil {
		return 0, err
	}
	c.routes = nil
	c.ids = make(map[int64]struct{})
	return n, nil
}

// Replace swaps the route with id for next. The id and creation date of the
// stored route are kept.
func (c *Collection) Replace(ctx context.Context, id int64, next Route) (Route, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return Route{}, errFrozen()
	}
	idx := c.indexLocked(id)
	if idx < 0 {
		return Route{}, notFound(id)
	}
	next.ID = id
	next.CreationDate = c.routes[idx].CreationDate
	if err := c.commitLocked(ctx, Mutation{Kind: MutationReplace, Route: next}); err != nil {
		return Route{}, err
	}

	rest := slices.Delete(slices.Clone(c.routes), idx, idx+1)
	pos, _ := slices.BinarySearchFunc(rest, next, Compare)
	c.routes = slices.Insert(rest, pos, next)
	return next, nil
}

// FilterByKey yields routes whose distance passes cmp against threshold.
// Each range over the sequence reads the collection afresh.
func (c *Collection) FilterByKey(threshold float64, cmp Comparator) iter.Seq[Route] {
	return c.Filter(func(r Route) bool {
		return cmp(r.Distance, threshold)
	})
}

// Filter yields routes matching pred in collection order.
func (c *Collection) Filter(pred func(Route) bool) iter.Seq[Route] {
	return func(yield func(Route) bool) {
		for _, r := range c.view() {
			if pred(r) && !yield(r) {
				return
			}
		}
	}
}

// All yields every route in order.
func (c *Collection) All() iter.Seq[Route] {
	return slices.Values(c.view())
}

// Snapshot returns a copy of the current contents.
func (c *Collection) Snapshot() []Route {
	return slices.Clone(c.view())
}

// Len returns the number of routes.
func (c *Collection) Len() int {
	return len(c.view())
}

// Info describes the collection.
func (c *Collection) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Info{
		Type:          CollectionType,
		InitializedAt: c.initializedAt,
		Size:          len(c.routes),
	}
}

// Freeze rejects every later mutation with an INVALID_STATE error. It waits
// for the mutation in progress, if any, to finish.
func (c *Collection) Freeze() {
	c.mu.Lock()
	c.frozen = true
	c.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (c *Collection) Frozen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frozen
}

// view returns the current backing slice. Mutations never write to a
// published slice, so callers may read it without the lock.
func (c *Collection) view() []Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.routes
}

func (c *Collection) indexLocked(id int64) int {
	if _, ok := c.ids[id]; !ok {
		return -1
	}
	return slices.IndexFunc(c.routes, func(r Route) bool { return r.ID == id })
}

// removeLocked commits and applies the removal of the given ascending indexes.
func (c *Collection) removeLocked(ctx context.Context, idxs []int) error {
	ids := make([]int64, 0, len(idxs))
	drop := make(map[int]struct{}, len(idxs))
	for _, i := range idxs {
		ids = append(ids, c.routes[i].ID)
		drop[i] = struct{}{}
	}
	if err := c.commitLocked(ctx, Mutation{Kind: MutationDelete, IDs: ids}); err != nil {
		return err
	}
	next := make([]Route, 0, len(c.routes)-len(idxs))
	for i, r := range c.routes {
		if _, ok := drop[i]; !ok {
			next = append(next, r)
		}
	}
	c.routes = next
	for _, id := range ids {
		delete(c.ids, id)
	}
	return nil
}

func (c *Collection) commitLocked(ctx context.Context, m Mutation) error {
	if c.commit == nil {
		return nil
	}
	if err := c.commit(ctx, m); err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeUnknown {
			return apperrors.Wrap(apperrors.CodeStorage, "persist "+string(m.Kind), err)
		}
		return err
	}
	return nil
}

func errFrozen() error {
	return apperrors.New(apperrors.CodeInvalidState, "collection is shutting down")
}

func notFound(id int64) error {
	return apperrors.WithMetadata(apperrors.CodeNotFound, "route not found", map[string]string{
		"id": formatID(id),
	})
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
