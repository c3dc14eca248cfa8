package sqlxrepos

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/datagrid/core/product"
)

func TestBuildQuery(t *testing.T) {
	from := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	sel := "SELECT " + productColumns + " FROM product"

	tests := []struct {
		name     string
		filter   product.QueryFilter
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:    "everything",
			filter:  product.QueryFilter{},
			wantSQL: sel + " ORDER BY id ASC",
		},
		{
			name:     "page",
			filter:   product.QueryFilter{Sort: "sales", Order: product.OrderDesc, Offset: 30, Limit: 30},
			wantSQL:  sel + " ORDER BY sales DESC, id ASC LIMIT $1 OFFSET $2",
			wantArgs: []interface{}{30, 30},
		},
		{
			name:     "range",
			filter:   product.QueryFilter{Sort: "title", Order: product.OrderAsc, Limit: 10, From: from, To: to},
			wantSQL:  sel + " WHERE created_at >= $1 AND created_at <= $2 ORDER BY title ASC, id ASC LIMIT $3",
			wantArgs: []interface{}{from, to, 10},
		},
		{
			name:     "open range",
			filter:   product.QueryFilter{To: to},
			wantSQL:  sel + " WHERE created_at <= $1 ORDER BY id ASC",
			wantArgs: []interface{}{to},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, args, err := buildQuery(tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.wantSQL, sqlx.Rebind(sqlx.DOLLAR, q))
			assert.Equal(t, tc.wantArgs, args)
		})
	}
}

func TestBuildQuery_UnknownColumn(t *testing.T) {
	_, _, err := buildQuery(product.QueryFilter{Sort: "images; DROP TABLE product"})
	assert.True(t, errors.Is(err, ErrUnknownSortColumn))
}
