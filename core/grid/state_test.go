package grid

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedSource serves rows sorted by the requested column, like the row source API does.
type pagedSource struct {
	mu    sync.Mutex
	rows  []Row
	calls []PageRequest
	err   error
}

func newPagedSource(n int) *pagedSource {
	src := &pagedSource{}
	for i := 0; i < n; i++ {
		src.rows = append(src.rows, Row{"id": i + 1, "name": string(rune('a' + i)), "price": n - i})
	}
	return src
}

func (p *pagedSource) Load(_ context.Context, req PageRequest) ([]Row, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, req)
	if p.err != nil {
		return nil, p.err
	}
	sorted := Sort(p.rows, req.Sort.ColumnID, req.Sort.Direction, fruitSchema)
	lo := req.Offset
	if lo > len(sorted) {
		lo = len(sorted)
	}
	hi := len(sorted)
	if req.Limit > 0 && lo+req.Limit < hi {
		hi = lo + req.Limit
	}
	return sorted[lo:hi], nil
}

func (p *pagedSource) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func finish(t *testing.T, s *State, load *Load) Change {
	t.Helper()
	require.NotNil(t, load)
	rows, err := load.Run()
	change, err := s.Apply(load, rows, err)
	require.NoError(t, err)
	return change
}

func newServerState(t *testing.T, src Loader, limit int, rows ...Row) *State {
	t.Helper()
	s, err := NewState(StateConfig{
		Schema: fruitSchema,
		Loader: src,
		Mode:   ServerPaged,
		Limit:  limit,
		Rows:   rows,
		Sort:   SortSpec{ColumnID: "name", Direction: Ascending},
	})
	require.NoError(t, err)
	return s
}

func TestNewState(t *testing.T) {
	tests := []struct {
		name    string
		cfg     StateConfig
		wantErr error
	}{
		{name: "no schema", cfg: StateConfig{}, wantErr: ErrNoSchema},
		{name: "server paged without loader", cfg: StateConfig{Schema: fruitSchema, Mode: ServerPaged}, wantErr: ErrNoLoader},
		{name: "client sort without loader", cfg: StateConfig{Schema: fruitSchema}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewState(tc.cfg)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultPageSize, s.Limit())
			assert.False(t, s.Loading())
			assert.False(t, s.Sort().IsSorted())
		})
	}

	t.Run("unsortable initial sort", func(t *testing.T) {
		s, err := NewState(StateConfig{Schema: fruitSchema, Sort: SortSpec{ColumnID: "image"}})
		require.NoError(t, err)
		assert.False(t, s.Sort().IsSorted())
	})

	t.Run("client sort applies the initial sort", func(t *testing.T) {
		rows := []Row{{"name": "Banana", "price": 3}, {"name": "Apple", "price": 5}}
		s, err := NewState(StateConfig{
			Schema: fruitSchema,
			Rows:   rows,
			Sort:   SortSpec{ColumnID: "name", Direction: Ascending},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Apple", "Banana"}, names(s.Rows()))
		assert.Equal(t, []string{"Banana", "Apple"}, names(rows))
	})
}

func TestState_Pagination(t *testing.T) {
	src := newPagedSource(7)
	initial := Row{"id": 0, "name": "seed"}
	s := newServerState(t, src, 2, initial)

	sum := 0
	for i := 0; i < 3; i++ {
		change := finish(t, s, s.RequestNextPage())
		assert.Equal(t, RowsAppended, change.Kind)
		sum += len(change.Rows)

		assert.Equal(t, sum, s.Offset())
		assert.Equal(t, sum+1, s.Len())
		assert.False(t, s.Loading())
	}
	assert.Equal(t, 6, sum)
	assert.Equal(t, initial, s.Rows()[0])

	for i, req := range src.calls {
		assert.Equal(t, i*2, req.Offset)
		assert.Equal(t, 2, req.Limit)
		assert.Equal(t, SortSpec{ColumnID: "name", Direction: Ascending}, req.Sort)
	}
}

func TestState_LimitTwo(t *testing.T) {
	s := newServerState(t, newPagedSource(3), 2)

	change := finish(t, s, s.RequestNextPage())
	assert.Len(t, change.Rows, 2)
	assert.False(t, s.Exhausted())
	assert.Equal(t, 2, s.Offset())

	change = finish(t, s, s.RequestNextPage())
	assert.Len(t, change.Rows, 1)
	assert.True(t, s.Exhausted())
	assert.Equal(t, 3, s.Offset())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"a", "b", "c"}, names(s.Rows()))
}

func TestState_Exhausted(t *testing.T) {
	src := newPagedSource(1)
	s := newServerState(t, src, 2)

	finish(t, s, s.RequestNextPage())
	require.True(t, s.Exhausted())
	rows, offset, calls := s.Rows(), s.Offset(), src.callCount()

	for i := 0; i < 3; i++ {
		assert.Nil(t, s.RequestNextPage())
	}
	assert.Equal(t, calls, src.callCount())
	assert.Equal(t, rows, s.Rows())
	assert.Equal(t, offset, s.Offset())

	// a new sort starts over
	load := s.RequestSort("price", Descending)
	require.NotNil(t, load)
	assert.False(t, s.Exhausted())
	assert.Equal(t, 0, s.Offset())
	assert.Zero(t, s.Len())
	assert.True(t, s.Loading())
	assert.Equal(t, 0, load.Request.Offset)
	assert.True(t, load.Replaces())

	change := finish(t, s, load)
	assert.Equal(t, RowsReplaced, change.Kind)
	assert.True(t, s.Exhausted())
}

func TestState_NoOverlappingPages(t *testing.T) {
	s := newServerState(t, newPagedSource(5), 2)

	first := s.RequestNextPage()
	require.NotNil(t, first)
	assert.Nil(t, s.RequestNextPage())
	assert.True(t, s.Loading())

	finish(t, s, first)
	assert.NotNil(t, s.RequestNextPage())
}

func TestState_Supersession(t *testing.T) {
	tests := []struct {
		name string
		errA error
	}{
		{name: "superseded success"},
		{name: "superseded failure", errA: &NetworkError{URL: "http://x", Status: 500}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := newPagedSource(4)
			s := newServerState(t, src, 10)

			loadA := s.RequestSort("name", Descending)
			loadB := s.RequestSort("price", Ascending)
			require.NotNil(t, loadA)
			require.NotNil(t, loadB)
			assert.True(t, loadA.Cancelled())
			assert.False(t, loadB.Cancelled())
			assert.True(t, s.InFlight())

			// A resolves first, while B is still pending
			rowsA, _ := src.Load(context.Background(), loadA.Request)
			_, err := s.Apply(loadA, rowsA, tc.errA)
			assert.ErrorIs(t, err, ErrAborted)
			assert.Zero(t, s.Len())
			assert.True(t, s.Loading())

			finish(t, s, loadB)
			want := []string{"d", "c", "b", "a"}
			assert.Equal(t, want, names(s.Rows()))

			// and A once more, after B
			_, err = s.Apply(loadA, rowsA, tc.errA)
			assert.ErrorIs(t, err, ErrAborted)
			assert.Equal(t, want, names(s.Rows()))
			assert.Equal(t, SortSpec{ColumnID: "price", Direction: Ascending}, s.Sort())
			assert.False(t, s.Loading())
			assert.False(t, s.InFlight())
		})
	}

	t.Run("run after cancel", func(t *testing.T) {
		src := newPagedSource(2)
		s := newServerState(t, src, 10)
		loadA := s.RequestNextPage()
		s.RequestSort("price", Ascending)

		_, err := loadA.Run()
		assert.ErrorIs(t, err, ErrAborted)
		assert.Zero(t, src.callCount())
	})
}

func TestState_LoadFailure(t *testing.T) {
	src := newPagedSource(5)
	s := newServerState(t, src, 2)
	finish(t, s, s.RequestNextPage())
	before := s.Rows()

	src.err = &DecodeError{URL: "http://x"}
	load := s.RequestNextPage()
	rows, err := load.Run()
	_, err = s.Apply(load, rows, err)
	assert.True(t, IsDecode(err))
	assert.False(t, s.Loading())
	assert.Equal(t, before, s.Rows())
	assert.Equal(t, 2, s.Offset())

	// next trigger retries the same page
	src.err = nil
	retry := s.RequestNextPage()
	require.NotNil(t, retry)
	assert.Equal(t, 2, retry.Request.Offset)
	finish(t, s, retry)
	assert.Equal(t, 4, s.Len())
}

func TestState_ClientSort(t *testing.T) {
	rows := []Row{{"name": "Banana", "price": 3}, {"name": "Apple", "price": 5}, {"name": "cherry", "price": 1}}
	s, err := NewState(StateConfig{Schema: fruitSchema, Rows: rows})
	require.NoError(t, err)

	assert.Nil(t, s.RequestSort("price", Ascending))
	assert.Equal(t, []string{"cherry", "Banana", "Apple"}, names(s.Rows()))
	assert.False(t, s.Loading())

	assert.Nil(t, s.RequestSort("name", Descending))
	assert.Equal(t, []string{"cherry", "Banana", "Apple"}, names(s.Rows()))
	assert.Equal(t, Descending, s.Sort().Direction)

	// unsortable columns change nothing
	assert.Nil(t, s.RequestSort("image", Ascending))
	assert.Nil(t, s.RequestSort("missing", Ascending))
	assert.Equal(t, SortSpec{ColumnID: "name", Direction: Descending}, s.Sort())

	assert.Nil(t, s.RequestNextPage())
	assert.Nil(t, s.Reload())
}

func TestState_ClientSortWithLoader(t *testing.T) {
	src := newPagedSource(4)
	s, err := NewState(StateConfig{
		Schema: fruitSchema,
		Loader: src,
		Mode:   ClientSort,
		Sort:   SortSpec{ColumnID: "price", Direction: Ascending},
	})
	require.NoError(t, err)

	load := s.Reload()
	require.NotNil(t, load)
	assert.Zero(t, load.Request.Limit)

	change := finish(t, s, load)
	assert.Equal(t, RowsReplaced, change.Kind)
	assert.True(t, s.Exhausted())
	assert.Equal(t, []string{"d", "c", "b", "a"}, names(s.Rows()))

	assert.Nil(t, s.RequestSort("name", Ascending))
	assert.Equal(t, []string{"a", "b", "c", "d"}, names(s.Rows()))
	assert.Equal(t, 1, src.callCount())
}

func TestState_SetRange(t *testing.T) {
	src := newPagedSource(5)
	s := newServerState(t, src, 2)
	finish(t, s, s.RequestNextPage())

	r := Range{From: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)}
	load := s.SetRange(r)
	require.NotNil(t, load)
	assert.Equal(t, r, s.Range())
	assert.Equal(t, r, load.Request.Range)
	assert.Equal(t, 0, load.Request.Offset)
	assert.Zero(t, s.Len())

	finish(t, s, load)
	next := s.RequestNextPage()
	require.NotNil(t, next)
	assert.Equal(t, r, next.Request.Range)
	assert.Equal(t, 2, next.Request.Offset)
}

func TestState_Destroy(t *testing.T) {
	s := newServerState(t, newPagedSource(3), 2)
	load := s.RequestNextPage()

	s.Destroy()
	assert.True(t, s.Destroyed())
	assert.True(t, load.Cancelled())
	assert.False(t, s.Loading())

	_, err := s.Apply(load, []Row{{"name": "x"}}, nil)
	assert.ErrorIs(t, err, ErrAborted)
	assert.Zero(t, s.Len())

	assert.Nil(t, s.RequestNextPage())
	assert.Nil(t, s.RequestSort("price", Ascending))
	assert.Nil(t, s.SetRange(Range{}))
	assert.Nil(t, s.Reload())
}

func TestState_ParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, err := NewState(StateConfig{Schema: fruitSchema, Loader: newPagedSource(1), Mode: ServerPaged, Context: ctx})
	require.NoError(t, err)

	load := s.RequestNextPage()
	cancel()
	assert.True(t, load.Cancelled())

	_, err = s.Apply(load, nil, nil)
	assert.True(t, IsAborted(err))
}

func TestToken(t *testing.T) {
	var nilTok *Token
	assert.True(t, nilTok.Cancelled())
	assert.NotPanics(t, nilTok.Cancel)

	tok := NewToken(nil)
	assert.False(t, tok.Cancelled())
	tok.Cancel()
	tok.Cancel()
	assert.True(t, tok.Cancelled())
	assert.Error(t, tok.Context().Err())
}
