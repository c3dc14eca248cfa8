package grid

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Range is the optional date range filter sent with every page request.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }

// PageRequest asks the row source for Limit rows starting at Offset. Limit 0 asks for every row.
type PageRequest struct {
	Sort   SortSpec
	Offset int
	Limit  int
	Range  Range
}

// Loader fetches one page of rows.
// A page shorter than the requested limit means the row source has no more rows.
// Implementations must honor ctx cancellation and return an error wrapping ErrAborted when it happens.
type Loader interface {
	Load(ctx context.Context, req PageRequest) ([]Row, error)
}

// LoaderFunc adapts a plain func to the Loader interface.
type LoaderFunc func(ctx context.Context, req PageRequest) ([]Row, error)

func (f LoaderFunc) Load(ctx context.Context, req PageRequest) ([]Row, error) {
	return f(ctx, req)
}

// Query parameter names understood by the row source.
const (
	ParamSort   = "sort"
	ParamOrder  = "order"
	ParamOffset = "offset"
	ParamLimit  = "limit"
	ParamFrom   = "from"
	ParamTo     = "to"
)

// DefaultMaxLimit is the limit HTTPLoader sends for requests asking for every row.
const DefaultMaxLimit = 1000

// HTTPLoader loads pages from an endpoint returning a JSON array of objects.
type HTTPLoader struct {
	baseURL  *url.URL
	client   *http.Client
	params   url.Values
	maxLimit int
}

type HTTPOption func(*HTTPLoader)

func WithHTTPClient(client *http.Client) HTTPOption {
	return func(l *HTTPLoader) {
		if client != nil {
			l.client = client
		}
	}
}

// WithMaxLimit sets the largest page the row source serves. Requests with limit 0 ask for that many rows.
func WithMaxLimit(limit int) HTTPOption {
	return func(l *HTTPLoader) {
		if limit > 0 {
			l.maxLimit = limit
		}
	}
}

// WithQueryParam adds a fixed query parameter to every request (e.g. embed=subcategory.category).
func WithQueryParam(key, value string) HTTPOption {
	return func(l *HTTPLoader) {
		l.params.Add(key, value)
	}
}

func NewHTTPLoader(rawURL string, opts ...HTTPOption) (*HTTPLoader, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing row source url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("row source url %q must be absolute", rawURL)
	}
	l := &HTTPLoader{
		baseURL:  u,
		client:   http.DefaultClient,
		params:   make(url.Values),
		maxLimit: DefaultMaxLimit,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// URL returns the request url for req.
func (l *HTTPLoader) URL(req PageRequest) string {
	q := l.baseURL.Query()
	for key, vals := range l.params {
		for _, val := range vals {
			q.Add(key, val)
		}
	}
	if req.Sort.IsSorted() {
		q.Set(ParamSort, req.Sort.ColumnID)
		q.Set(ParamOrder, req.Sort.Direction.String())
	}
	limit := req.Limit
	if limit <= 0 {
		limit = l.maxLimit
	}
	q.Set(ParamOffset, strconv.Itoa(req.Offset))
	q.Set(ParamLimit, strconv.Itoa(limit))
	if !req.Range.From.IsZero() {
		q.Set(ParamFrom, req.Range.From.UTC().Format(time.RFC3339))
	}
	if !req.Range.To.IsZero() {
		q.Set(ParamTo, req.Range.To.UTC().Format(time.RFC3339))
	}

	u := *l.baseURL
	u.RawQuery = q.Encode()
	return u.String()
}

func (l *HTTPLoader) Load(ctx context.Context, req PageRequest) ([]Row, error) {
	reqURL := l.URL(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &NetworkError{URL: reqURL, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrapf(ErrAborted, "loading %s", reqURL)
		}
		return nil, &NetworkError{URL: reqURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &NetworkError{URL: reqURL, Status: resp.StatusCode}
	}

	rows, err := decodeRows(resp.Body)
	if ctx.Err() != nil {
		return nil, errors.Wrapf(ErrAborted, "loading %s", reqURL)
	}
	if err != nil {
		return nil, &DecodeError{URL: reqURL, Err: err}
	}
	return rows, nil
}

// decodeRows reads exactly one JSON array of objects from r.
func decodeRows(r io.Reader) ([]Row, error) {
	var rows []Row
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}
	if rows == nil {
		return nil, errors.New("expected an array, got null")
	}
	for i, row := range rows {
		if row == nil {
			return nil, errors.Errorf("row %d is null", i)
		}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after the array")
	}
	return rows, nil
}
