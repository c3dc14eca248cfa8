package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/datagrid/core"
	"github.com/trezcool/datagrid/core/product"
)

var orderingParam = "ordering"

// bindOrdering reads the `ordering` shorthand ("sales" or "-sales") into filter
// when neither sort nor order were given. Only the first field is used.
func bindOrdering(ctx echo.Context, filter *product.QueryFilter) {
	if filter.Sort != "" || filter.Order != "" {
		return
	}
	val := core.CleanString(ctx.QueryParam(orderingParam))
	if val == "" {
		return
	}

	field := core.CleanString(strings.SplitN(val, ",", 2)[0])
	ord := core.DBOrdering{Field: strings.TrimPrefix(field, "-"), Ascending: !strings.HasPrefix(field, "-")}
	filter.Sort = ord.Field
	filter.Order = product.OrderAsc
	if !ord.Ascending {
		filter.Order = product.OrderDesc
	}
}

func bindFilter(ctx echo.Context, filter *product.QueryFilter) error {
	if err := ctx.Bind(filter); err != nil {
		return err
	}
	bindOrdering(ctx, filter)
	return nil
}
