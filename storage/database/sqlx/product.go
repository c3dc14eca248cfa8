package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/datagrid/core/product"
)

const productColumns = "id, title, images, quantity, price, discount, status, sales, subcategory_id, created_at"

// sortColumns maps sortable product columns onto table columns.
var sortColumns = map[string]string{
	"title":    "title",
	"quantity": "quantity",
	"price":    "price",
	"sales":    "sales",
	"status":   "status",
}

var ErrUnknownSortColumn = errors.New("unknown sort column")

type productRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sql.DB) product.Repository {
	return &productRepository{db: sqlx.NewDb(db, "postgres")}
}

// buildQuery returns the SELECT for filter with `?` bind vars.
func buildQuery(filter product.QueryFilter) (string, []interface{}, error) {
	var (
		sb    strings.Builder
		where []string
		args  []interface{}
	)
	sb.WriteString("SELECT " + productColumns + " FROM product")

	if !filter.From.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, filter.To)
	}
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	orderBy := "id ASC"
	if ord, ok := filter.Ordering(); ok {
		col, ok := sortColumns[ord.Field]
		if !ok {
			return "", nil, errors.Wrapf(ErrUnknownSortColumn, "%q", ord.Field)
		}
		ord.Field = col
		orderBy = ord.String() + ", " + orderBy
	}
	sb.WriteString(" ORDER BY " + orderBy)

	if filter.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		sb.WriteString(" OFFSET ?")
		args = append(args, filter.Offset)
	}
	return sb.String(), args, nil
}

func (repo *productRepository) QueryProducts(ctx context.Context, filter product.QueryFilter) ([]product.Product, error) {
	q, args, err := buildQuery(filter)
	if err != nil {
		return nil, errors.Wrap(err, "building products query")
	}

	products := []product.Product{}
	if err = repo.db.SelectContext(ctx, &products, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting products")
	}
	for i := range products {
		products[i].CreatedAt = products[i].CreatedAt.UTC()
	}
	return products, nil
}

const insertProduct = "INSERT INTO product (" + productColumns + ") VALUES " +
	"(:id, :title, :images, :quantity, :price, :discount, :status, :sales, :subcategory_id, :created_at)"

func (repo *productRepository) CreateProducts(ctx context.Context, products ...product.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range products {
		if _, err = tx.NamedExecContext(ctx, insertProduct, p); err != nil {
			return errors.Wrapf(err, "inserting product %q", p.ID)
		}
	}
	return errors.Wrap(tx.Commit(), "committing products")
}

func (repo *productRepository) CountProducts(ctx context.Context) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM product")
	return n, errors.Wrap(err, "counting products")
}

