package inmemdb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/datagrid/core/grid"
	"github.com/trezcool/datagrid/core/product"
)

var ErrDuplicateID = errors.New("product id already exists")

type productRepository struct {
	db *productTable
}

func NewProductRepository(db *DB) product.Repository {
	return &productRepository{db: db.product}
}

// query returns the products in range, ordered by id.
func (repo *productRepository) query(filter product.QueryFilter) []product.Product {
	products := make([]product.Product, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		if filter.InRange(p.CreatedAt) {
			products = append(products, *p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products
}

func (repo *productRepository) QueryProducts(ctx context.Context, filter product.QueryFilter) ([]product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "querying products")
	}

	repo.db.RLock()
	products := repo.query(filter)
	repo.db.RUnlock()

	// grid.Sort is stable, so rows with equal keys stay ordered by id
	if spec := filter.SortSpec(); spec.IsSorted() {
		byID := make(map[string]product.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}
		rows := grid.Sort(product.Rows(products), spec.ColumnID, spec.Direction, product.Schema())
		for i, row := range rows {
			products[i] = byID[row["id"].(string)]
		}
	}

	if filter.Offset >= len(products) {
		return []product.Product{}, nil
	}
	products = products[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(products) {
		products = products[:filter.Limit]
	}
	return products, nil
}

func (repo *productRepository) CreateProducts(ctx context.Context, products ...product.Product) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "creating products")
	}

	repo.db.Lock()
	defer repo.db.Unlock()

	for _, p := range products {
		if _, ok := repo.db.table[p.ID]; ok {
			return errors.Wrapf(ErrDuplicateID, "%q", p.ID)
		}
	}
	for _, p := range products {
		p := p
		repo.db.table[p.ID] = &p
	}
	return nil
}

func (repo *productRepository) CountProducts(context.Context) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.table), nil
}
