package product

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/datagrid/core/grid"
)

var nowFunc = time.Now // mockable

// loaderSource names the service in the errors of its grid loader.
const loaderSource = "products"

type (
	Repository interface {
		// QueryProducts applies the filter's date range, then its ordering, then its offset and limit.
		// Products with equal sort keys are ordered by id.
		QueryProducts(ctx context.Context, filter QueryFilter) ([]Product, error)
		CreateProducts(ctx context.Context, products ...Product) error
		CountProducts(ctx context.Context) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ApplyDefaults fills in the limit and ordering of filter.
// Bestsellers sort by sales, best first, unless a sort column is given, which then sorts ascending.
func ApplyDefaults(filter QueryFilter, bestsellers bool) QueryFilter {
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	if bestsellers && filter.Sort == "" {
		filter.Sort = "sales"
		if filter.Order == "" {
			filter.Order = OrderDesc
		}
	}
	if filter.Order == "" {
		filter.Order = OrderAsc
	}
	return filter
}

// Query returns one page of products, unsorted unless filter says otherwise.
func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Product, error) {
	products, err := svc.repo.QueryProducts(ctx, ApplyDefaults(filter, false))
	if err != nil {
		return nil, errors.Wrap(err, "querying products")
	}
	return products, nil
}

// Bestsellers is like Query but sorts by sales, best first, by default.
func (svc *Service) Bestsellers(ctx context.Context, filter QueryFilter) ([]Product, error) {
	products, err := svc.repo.QueryProducts(ctx, ApplyDefaults(filter, true))
	if err != nil {
		return nil, errors.Wrap(err, "querying bestsellers")
	}
	return products, nil
}

// Create stores products, assigning ids and creation dates where missing.
func (svc *Service) Create(ctx context.Context, products ...Product) ([]Product, error) {
	now := nowFunc().UTC()
	created := make([]Product, len(products))
	for i, p := range products {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.CreatedAt = p.CreatedAt.UTC()
		created[i] = p
	}
	if err := svc.repo.CreateProducts(ctx, created...); err != nil {
		return nil, errors.Wrap(err, "creating products")
	}
	return created, nil
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	n, err := svc.repo.CountProducts(ctx)
	return n, errors.Wrap(err, "counting products")
}

// Loader returns a grid.Loader reading straight from the service, for grids running next to
// the data. With bestsellers set, unsorted requests come back best selling first.
func (svc *Service) Loader(bestsellers bool) grid.Loader {
	return grid.LoaderFunc(func(ctx context.Context, req grid.PageRequest) ([]grid.Row, error) {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(grid.ErrAborted, err.Error())
		}
		query := svc.Query
		if bestsellers {
			query = svc.Bestsellers
		}
		products, err := query(ctx, FilterFromRequest(req))
		if ctx.Err() != nil {
			return nil, errors.Wrap(grid.ErrAborted, "loading products")
		}
		if err != nil {
			return nil, &grid.NetworkError{URL: loaderSource, Err: err}
		}
		return Rows(products), nil
	})
}
