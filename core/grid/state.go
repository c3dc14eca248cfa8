package grid

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// DefaultPageSize is the number of rows requested per page.
const DefaultPageSize = 30

// Mode is fixed for the lifetime of a State.
type Mode int

const (
	// ClientSort grids hold their whole dataset and sort in memory.
	ClientSort Mode = iota
	// ServerPaged grids fetch rows page by page, sorted by the row source.
	ServerPaged
)

func (m Mode) String() string {
	switch m {
	case ClientSort:
		return "client-sort"
	case ServerPaged:
		return "server-paged"
	default:
		return fmt.Sprintf("unknown(%d)", m)
	}
}

// Load is one accepted page request. Run it off the owner's execution context and hand
// its outcome back to State.Apply.
type Load struct {
	Request PageRequest

	token   *Token
	loader  Loader
	replace bool
}

// Run fetches the page. It does not touch the State.
func (l *Load) Run() ([]Row, error) {
	if l.token.Cancelled() {
		return nil, errors.Wrap(ErrAborted, "load cancelled before start")
	}
	return l.loader.Load(l.token.Context(), l.Request)
}

// Cancelled reports whether the load was superseded or cancelled.
func (l *Load) Cancelled() bool { return l.token.Cancelled() }

// Replaces reports whether the load replaces the row set (true) or appends a page (false).
func (l *Load) Replaces() bool { return l.replace }

type ChangeKind int

const (
	NoChange ChangeKind = iota
	RowsReplaced
	RowsAppended
)

// Change describes what Apply did to the row set. Rows holds the full row set on
// RowsReplaced and only the appended page on RowsAppended.
type Change struct {
	Kind ChangeKind
	Rows []Row
}

type StateConfig struct {
	Schema      *Schema
	Loader      Loader
	Mode        Mode
	Limit       int
	Rows        []Row
	Sort        SortSpec
	Range       Range
	SortOptions []SortOption

	// Context is the parent of every load token. Cancelling it cancels any in-flight load.
	Context context.Context
}

// State is the mutable core of a grid. It is owned by a single execution context and is not
// safe for concurrent use; I/O happens outside of it through the Loads it issues.
type State struct {
	schema   *Schema
	loader   Loader
	mode     Mode
	limit    int
	sortOpts []SortOption
	parent   context.Context

	rows      []Row
	sort      SortSpec
	rng       Range
	offset    int
	loading   bool
	exhausted bool
	inflight  *Token
	destroyed bool
}

func NewState(cfg StateConfig) (*State, error) {
	if cfg.Schema == nil {
		return nil, ErrNoSchema
	}
	if cfg.Mode == ServerPaged && cfg.Loader == nil {
		return nil, ErrNoLoader
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}

	s := &State{
		schema:   cfg.Schema,
		loader:   cfg.Loader,
		mode:     cfg.Mode,
		limit:    limit,
		sortOpts: cfg.SortOptions,
		parent:   parent,
		rows:     append([]Row(nil), cfg.Rows...),
		rng:      cfg.Range,
	}
	if cfg.Schema.IsSortable(cfg.Sort.ColumnID) {
		s.sort = SortSpec{ColumnID: cfg.Sort.ColumnID, Direction: cfg.Sort.Direction.normalize()}
		if s.mode == ClientSort {
			s.rows = Sort(s.rows, s.sort.ColumnID, s.sort.Direction, s.schema, s.sortOpts...)
		}
	}
	return s, nil
}

func (s *State) Rows() []Row { return s.rows }
func (s *State) Len() int { return len(s.rows) }
func (s *State) Sort() SortSpec { return s.sort }
func (s *State) Range() Range { return s.rng }
func (s *State) Mode() Mode { return s.mode }
func (s *State) Limit() int { return s.limit }
func (s *State) Offset() int { return s.offset }
func (s *State) Loading() bool { return s.loading }
func (s *State) Exhausted() bool { return s.exhausted }
func (s *State) InFlight() bool { return s.inflight != nil && !s.inflight.Cancelled() }
func (s *State) Destroyed() bool { return s.destroyed }
func (s *State) Schema() *Schema { return s.schema }
func (s *State) HasLoader() bool { return s.loader != nil }

// RequestSort changes the sort. Unknown or unsortable columns are ignored.
// ClientSort states reorder in memory and return nil; ServerPaged states drop their rows,
// cancel any in-flight load and return the Load of the first page for the new sort.
func (s *State) RequestSort(columnID string, dir Direction) *Load {
	if s.destroyed || !s.schema.IsSortable(columnID) {
		return nil
	}
	s.sort = SortSpec{ColumnID: columnID, Direction: dir.normalize()}
	if s.mode == ClientSort {
		s.rows = Sort(s.rows, s.sort.ColumnID, s.sort.Direction, s.schema, s.sortOpts...)
		return nil
	}
	return s.restart()
}

// RequestNextPage returns the Load of the next page, or nil when the state is ClientSort,
// already loading, or exhausted. Repeated calls while a page is loading are no-ops.
func (s *State) RequestNextPage() *Load {
	if s.destroyed || s.mode == ClientSort || s.loading || s.exhausted {
		return nil
	}
	return s.issue(s.offset, s.limit, false)
}

// Reload re-issues the first page for the current sort and range.
// ClientSort states with a loader fetch their whole dataset; without one it is a no-op.
func (s *State) Reload() *Load {
	if s.destroyed {
		return nil
	}
	if s.mode == ClientSort {
		if s.loader == nil {
			return nil
		}
		s.cancelInflight()
		return s.issue(0, 0, true)
	}
	return s.restart()
}

// SetRange changes the date range filter and reloads.
func (s *State) SetRange(r Range) *Load {
	if s.destroyed {
		return nil
	}
	s.rng = r
	return s.Reload()
}

// Apply hands the outcome of load back to the state.
//
// Results of superseded or cancelled loads are discarded and ErrAborted is returned,
// leaving the state exactly as the superseding request set it. Load failures reset the
// loading flag and are returned as is; rows are left untouched.
func (s *State) Apply(load *Load, rows []Row, err error) (Change, error) {
	if load == nil {
		return Change{}, nil
	}
	if s.destroyed || load.token != s.inflight || load.token.Cancelled() {
		return Change{}, errors.Wrap(ErrAborted, "applying superseded load")
	}
	s.inflight = nil
	load.token.Cancel() // release the context
	s.loading = false

	if err != nil {
		return Change{}, err
	}

	if load.replace {
		next := append([]Row(nil), rows...)
		if s.mode == ClientSort {
			next = Sort(next, s.sort.ColumnID, s.sort.Direction, s.schema, s.sortOpts...)
			s.exhausted = true
		} else {
			s.offset = len(next)
			s.exhausted = len(next) < load.Request.Limit
		}
		s.rows = next
		return Change{Kind: RowsReplaced, Rows: s.rows}, nil
	}

	// build a new slice so row sets handed out earlier never change under their readers
	next := make([]Row, 0, len(s.rows)+len(rows))
	next = append(next, s.rows...)
	next = append(next, rows...)
	s.rows = next
	s.offset += len(rows)
	s.exhausted = len(rows) < load.Request.Limit
	return Change{Kind: RowsAppended, Rows: s.rows[len(s.rows)-len(rows):]}, nil
}

// Destroy cancels any in-flight load. Every later request is a no-op.
func (s *State) Destroy() {
	s.cancelInflight()
	s.loading = false
	s.destroyed = true
}

func (s *State) restart() *Load {
	s.cancelInflight()
	s.rows = nil
	s.offset = 0
	s.exhausted = false
	return s.issue(0, s.limit, true)
}

func (s *State) issue(offset, limit int, replace bool) *Load {
	s.cancelInflight()
	tok := NewToken(s.parent)
	s.inflight = tok
	s.loading = true
	return &Load{
		Request: PageRequest{
			Sort:   s.sort,
			Offset: offset,
			Limit:  limit,
			Range:  s.rng,
		},
		token:   tok,
		loader:  s.loader,
		replace: replace,
	}
}

func (s *State) cancelInflight() {
	if s.inflight != nil {
		s.inflight.Cancel()
		s.inflight = nil
	}
	s.loading = false
}
