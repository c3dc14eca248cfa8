package grid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPLoader(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{url: "http://localhost:8000/api/rest/products"},
		{url: "https://example.com/api"},
		{url: "/api/rest/products", wantErr: true},
		{url: "://bad", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			_, err := NewHTTPLoader(tc.url)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHTTPLoader_URL(t *testing.T) {
	l, err := NewHTTPLoader("http://localhost/api/rest/products?lang=ru", WithQueryParam("embed", "subcategory.category"))
	require.NoError(t, err)

	from := time.Date(2021, 3, 1, 12, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	to := time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		req  PageRequest
		want url.Values
	}{
		{
			name: "sorted page",
			req:  PageRequest{Sort: SortSpec{ColumnID: "price", Direction: Descending}, Offset: 30, Limit: 30},
			want: url.Values{
				"lang": {"ru"}, "embed": {"subcategory.category"},
				"sort": {"price"}, "order": {"desc"}, "offset": {"30"}, "limit": {"30"},
			},
		},
		{
			name: "unsorted, everything",
			req:  PageRequest{},
			want: url.Values{"lang": {"ru"}, "embed": {"subcategory.category"}, "offset": {"0"}, "limit": {"1000"}},
		},
		{
			name: "range",
			req:  PageRequest{Sort: SortSpec{ColumnID: "title", Direction: Ascending}, Limit: 10, Range: Range{From: from, To: to}},
			want: url.Values{
				"lang": {"ru"}, "embed": {"subcategory.category"},
				"sort": {"title"}, "order": {"asc"}, "offset": {"0"}, "limit": {"10"},
				"from": {"2021-03-01T09:00:00Z"}, "to": {"2021-04-01T00:00:00Z"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u, err := url.Parse(l.URL(tc.req))
			require.NoError(t, err)
			assert.Equal(t, "/api/rest/products", u.Path)
			assert.Equal(t, tc.want, u.Query())
		})
	}
}

func TestHTTPLoader_MaxLimit(t *testing.T) {
	l, err := NewHTTPLoader("http://localhost/rows", WithMaxLimit(250))
	require.NoError(t, err)

	u, err := url.Parse(l.URL(PageRequest{}))
	require.NoError(t, err)
	assert.Equal(t, "250", u.Query().Get("limit"))

	u, err = url.Parse(l.URL(PageRequest{Limit: 30}))
	require.NoError(t, err)
	assert.Equal(t, "30", u.Query().Get("limit"))
}

func TestHTTPLoader_Load(t *testing.T) {
	var (
		mu       sync.Mutex
		gotQuery url.Values
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotQuery = r.URL.Query()
		mu.Unlock()
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode([]map[string]interface{}{
				{"id": "p1", "title": "Apple", "price": 5},
				{"id": "p2", "title": "Banana", "price": 3},
			})
		case "/empty":
			_, _ = w.Write([]byte("[]"))
		case "/object":
			_, _ = w.Write([]byte(`{"error": "nope"}`))
		case "/garbage":
			_, _ = w.Write([]byte("<html>"))
		case "/null":
			_, _ = w.Write([]byte("null"))
		case "/null-row":
			_, _ = w.Write([]byte(`[{"id": "p1"}, null]`))
		case "/trailing":
			_, _ = w.Write([]byte(`[{"id": "p1"}] trailing`))
		case "/two-arrays":
			_, _ = w.Write([]byte(`[{"id": "p1"}][]`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	load := func(path string) ([]Row, error) {
		l, err := NewHTTPLoader(srv.URL+path, WithHTTPClient(srv.Client()))
		require.NoError(t, err)
		return l.Load(context.Background(), PageRequest{Sort: SortSpec{ColumnID: "price", Direction: Ascending}, Offset: 2, Limit: 2})
	}

	t.Run("rows", func(t *testing.T) {
		rows, err := load("/ok")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Apple", rows[0]["title"])
		assert.Equal(t, json.Number("5"), rows[0]["price"])
		mu.Lock()
		assert.Equal(t, "2", gotQuery.Get("offset"))
		assert.Equal(t, "price", gotQuery.Get("sort"))
		mu.Unlock()

		// numbers decoded as json.Number still sort numerically
		sorted := Sort(rows, "price", Ascending, MustSchema(Column{ID: "price", Sortable: true, SortType: SortNumber}))
		assert.Equal(t, "Banana", sorted[0]["title"])
	})

	t.Run("empty page", func(t *testing.T) {
		rows, err := load("/empty")
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("bad status", func(t *testing.T) {
		_, err := load("/fail")
		require.Error(t, err)
		assert.True(t, IsNetwork(err))
		var netErr *NetworkError
		require.ErrorAs(t, err, &netErr)
		assert.Equal(t, http.StatusInternalServerError, netErr.Status)
	})

	for _, path := range []string{"/object", "/garbage", "/null", "/null-row", "/trailing", "/two-arrays"} {
		t.Run("decode "+path, func(t *testing.T) {
			_, err := load(path)
			assert.True(t, IsDecode(err))
			assert.False(t, IsNetwork(err))
		})
	}

	t.Run("transport failure", func(t *testing.T) {
		l, err := NewHTTPLoader("http://127.0.0.1:1/nothing")
		require.NoError(t, err)
		_, err = l.Load(context.Background(), PageRequest{Limit: 1})
		assert.True(t, IsNetwork(err))
		assert.False(t, IsAborted(err))
	})
}

func TestHTTPLoader_Cancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()
	defer close(release)

	l, err := NewHTTPLoader(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	tok := NewToken(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := l.Load(tok.Context(), PageRequest{Limit: 30})
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	tok.Cancel()

	select {
	case err := <-errc:
		assert.True(t, IsAborted(err), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("load did not return after cancel")
	}
}
