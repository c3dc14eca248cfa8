package grid

import (
	"context"
	"fmt"
	"sync"
)

// Logger is the subset of core.Logger a grid writes to.
// expected args fmt: error
type Logger interface {
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{}) {}

type options struct {
	loader   Loader
	mode     Mode
	modeSet  bool
	limit    int
	sort     SortSpec
	sortSet  bool
	rows     []Row
	rng      Range
	log      Logger
	sortOpts []SortOption
}

type Option func(*options)

// WithLoader sets the row source. Grids with a loader default to ServerPaged.
func WithLoader(loader Loader) Option {
	return func(o *options) { o.loader = loader }
}

func WithMode(mode Mode) Option {
	return func(o *options) {
		o.mode = mode
		o.modeSet = true
	}
}

// WithPageSize sets the number of rows per page. Defaults to DefaultPageSize.
func WithPageSize(limit int) Option {
	return func(o *options) { o.limit = limit }
}

// WithSort sets the initial sort. Defaults to the first sortable column, ascending.
func WithSort(columnID string, dir Direction) Option {
	return func(o *options) {
		o.sort = SortSpec{ColumnID: columnID, Direction: dir}
		o.sortSet = true
	}
}

// WithRows sets the initial rows of a ClientSort grid.
func WithRows(rows []Row) Option {
	return func(o *options) { o.rows = rows }
}

func WithRange(r Range) Option {
	return func(o *options) { o.rng = r }
}

func WithLogger(log Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func WithSortOptions(opts ...SortOption) Option {
	return func(o *options) { o.sortOpts = append(o.sortOpts, opts...) }
}

// Snapshot is a copy of a grid's state, safe to read from any goroutine.
type Snapshot struct {
	Rows      []Row
	Sort      SortSpec
	Range     Range
	Mode      Mode
	Offset    int
	Loading   bool
	Exhausted bool
	Destroyed bool
	Err       error
}

// Grid is a sortable, optionally paginated table bound to a Mount.
//
// All state changes and every Mount call happen on one loop goroutine. The exported
// methods only post work to it and return immediately; they are safe for concurrent use
// and become no-ops after Destroy.
type Grid struct {
	schema *Schema
	mount  Mount
	log    Logger
	state  *State
	hub    *hub

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	queue   []func()
	signal  chan struct{}
	stopped bool

	snapMu sync.RWMutex
	snap   Snapshot

	lastErr     error // loop only
	startOnce   sync.Once
	destroyOnce sync.Once
}

// New builds a grid over schema and starts its loop. Call Start to draw it and issue the
// first load.
func New(schema *Schema, mount Mount, opts ...Option) (*Grid, error) {
	if schema == nil {
		return nil, ErrNoSchema
	}
	o := options{log: nopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.modeSet {
		o.mode = ClientSort
		if o.loader != nil {
			o.mode = ServerPaged
		}
	}
	if !o.sortSet {
		if col, ok := schema.FirstSortable(); ok {
			o.sort = SortSpec{ColumnID: col.ID, Direction: Ascending}
		}
	}
	if mount == nil {
		mount = nopMount{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	state, err := NewState(StateConfig{
		Schema:      schema,
		Loader:      o.loader,
		Mode:        o.mode,
		Limit:       o.limit,
		Rows:        o.rows,
		Sort:        o.sort,
		Range:       o.rng,
		SortOptions: o.sortOpts,
		Context:     ctx,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	g := &Grid{
		schema: schema,
		mount:  mount,
		log:    o.log,
		state:  state,
		hub:    newHub(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		signal: make(chan struct{}, 1),
	}
	g.publishSnapshot()
	go g.loop()
	return g, nil
}

// Start renders the header and body and issues the initial load. Only the first call has
// an effect.
func (g *Grid) Start() {
	g.startOnce.Do(func() {
		g.post(func() {
			load := g.state.Reload()
			g.mount.RenderHeader(g.schema, g.state.Sort())
			g.mount.RenderBody(g.schema, BodyUpdate{Rows: g.state.Rows(), Replace: true})
			g.run(load)
			g.renderStatus()
			g.publishSnapshot()
		})
	})
}

// OnHeaderActivate sorts by columnID. Activating the sorted column flips the direction,
// any other sortable column sorts ascending. Unsortable columns are ignored.
func (g *Grid) OnHeaderActivate(columnID string) {
	g.post(func() {
		if !g.schema.IsSortable(columnID) {
			return
		}
		dir := Ascending
		if cur := g.state.Sort(); cur.ColumnID == columnID {
			dir = cur.Direction.Toggle()
		}
		load := g.state.RequestSort(columnID, dir)
		g.lastErr = nil

		spec := g.state.Sort()
		g.mount.RenderHeader(g.schema, spec)
		g.mount.RenderBody(g.schema, BodyUpdate{Rows: g.state.Rows(), Replace: true})
		g.hub.publish(Event{Kind: SortChanged, Sort: spec})
		if load == nil {
			g.hub.publish(Event{Kind: RowsUpdated, Sort: spec, Rows: g.state.Rows()})
		}
		g.run(load)
		g.renderStatus()
		g.publishSnapshot()
	})
}

// OnScrollNearBottom requests the next page of a ServerPaged grid. Calls while a page is
// loading, or once the source is exhausted, are ignored.
func (g *Grid) OnScrollNearBottom() {
	g.post(func() {
		load := g.state.RequestNextPage()
		if load == nil {
			return
		}
		g.lastErr = nil
		g.run(load)
		g.renderStatus()
		g.publishSnapshot()
	})
}

// Update sets the date range filter and reloads from the first page.
func (g *Grid) Update(r Range) {
	g.post(func() {
		load := g.state.SetRange(r)
		if load == nil {
			return
		}
		g.lastErr = nil
		if g.state.Mode() == ServerPaged {
			g.mount.RenderBody(g.schema, BodyUpdate{Replace: true})
		}
		g.run(load)
		g.renderStatus()
		g.publishSnapshot()
	})
}

// Retry repeats the load that last failed. It does nothing unless the grid shows an error.
func (g *Grid) Retry() {
	g.post(func() {
		if g.lastErr == nil {
			return
		}
		var load *Load
		if g.state.Mode() == ClientSort {
			load = g.state.Reload()
		} else {
			load = g.state.RequestNextPage()
		}
		if load == nil {
			return
		}
		g.lastErr = nil
		g.run(load)
		g.renderStatus()
		g.publishSnapshot()
	})
}

// Subscribe registers fn for the grid's events. fn runs on the loop goroutine.
func (g *Grid) Subscribe(fn func(Event)) *Subscription {
	return g.hub.add(fn)
}

func (g *Grid) Snapshot() Snapshot {
	g.snapMu.RLock()
	defer g.snapMu.RUnlock()
	return g.snap
}

func (g *Grid) Schema() *Schema { return g.schema }

// Done is closed once the loop has stopped after Destroy.
func (g *Grid) Done() <-chan struct{} { return g.done }

// Destroy cancels any in-flight load, drops every subscription and stops the loop. It may be
// called from any goroutine, subscribers included, and more than once.
func (g *Grid) Destroy() {
	g.destroyOnce.Do(func() {
		g.mu.Lock()
		g.stopped = true
		g.queue = nil
		g.mu.Unlock()

		g.cancel()
		g.hub.close()
	})
}

func (g *Grid) post(task func()) bool {
	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return false
	}
	g.queue = append(g.queue, task)
	g.mu.Unlock()

	select {
	case g.signal <- struct{}{}:
	default:
	}
	return true
}

func (g *Grid) loop() {
	defer close(g.done)
	defer func() {
		g.state.Destroy()
		g.publishSnapshot()
	}()

	for {
		select {
		case <-g.ctx.Done():
			return
		case <-g.signal:
		}

		for {
			g.mu.Lock()
			if len(g.queue) == 0 {
				g.mu.Unlock()
				break
			}
			task := g.queue[0]
			g.queue = g.queue[1:]
			g.mu.Unlock()

			if g.ctx.Err() != nil {
				return
			}
			task()
		}
	}
}

func (g *Grid) run(load *Load) {
	if load == nil {
		return
	}
	g.log.Debug(fmt.Sprintf("loading %s offset=%d limit=%d", load.Request.Sort, load.Request.Offset, load.Request.Limit))
	go func() {
		rows, err := load.Run()
		g.post(func() { g.complete(load, rows, err) })
	}()
}

func (g *Grid) complete(load *Load, rows []Row, err error) {
	change, err := g.state.Apply(load, rows, err)
	switch {
	case IsAborted(err):
		g.log.Debug(err.Error())
		if !g.state.Loading() {
			g.renderStatus()
			g.publishSnapshot()
		}
		return
	case err != nil:
		g.log.Warn(fmt.Sprintf("load failed: %v", err), err)
		g.lastErr = err
		g.renderStatus()
		g.hub.publish(Event{Kind: LoadFailed, Sort: g.state.Sort(), Err: err})
		g.publishSnapshot()
		return
	}

	switch change.Kind {
	case RowsReplaced:
		g.mount.RenderBody(g.schema, BodyUpdate{Rows: change.Rows, Replace: true})
		g.hub.publish(Event{Kind: RowsUpdated, Sort: g.state.Sort(), Rows: g.state.Rows()})
	case RowsAppended:
		g.mount.RenderBody(g.schema, BodyUpdate{Rows: change.Rows})
		g.hub.publish(Event{Kind: RowsUpdated, Sort: g.state.Sort(), Rows: g.state.Rows(), Appended: change.Rows})
	}
	g.renderStatus()
	g.publishSnapshot()
}

func (g *Grid) renderStatus() {
	s := g.state
	status := Status{Kind: StatusIdle, Exhausted: s.Exhausted(), Total: s.Len(), Err: g.lastErr}
	switch {
	case s.Loading():
		status.Kind = StatusLoading
	case g.lastErr != nil:
		status.Kind = StatusError
	case s.Len() == 0 && (s.Exhausted() || !s.HasLoader()):
		status.Kind = StatusEmpty
	}
	g.mount.RenderStatus(status)
}

func (g *Grid) publishSnapshot() {
	s := g.state
	snap := Snapshot{
		Rows:      s.Rows(),
		Sort:      s.Sort(),
		Range:     s.Range(),
		Mode:      s.Mode(),
		Offset:    s.Offset(),
		Loading:   s.Loading(),
		Exhausted: s.Exhausted(),
		Destroyed: s.Destroyed(),
		Err:       g.lastErr,
	}
	g.snapMu.Lock()
	g.snap = snap
	g.snapMu.Unlock()
}
