package echoapi

import (
	"bytes"
	"context"
	"html/template"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/datagrid/core"
	"github.com/trezcool/datagrid/core/grid"
	"github.com/trezcool/datagrid/core/product"
)

type (
	queryFunc func(ctx context.Context, filter product.QueryFilter) ([]product.Product, error)

	productsHandler struct {
		svc      *product.Service
		validate *validator.Validate
		conf     *core.Config
	}
)

func registerProductsAPI(api *echo.Group, app *echo.Echo, deps *Deps) {
	h := productsHandler{svc: deps.ProductSvc, validate: deps.Validate, conf: deps.Conf}

	api.GET("/rest/products", h.list(h.svc.Query))
	api.GET("/rest/products/count", h.count)
	api.GET("/dashboard/bestsellers", h.list(h.svc.Bestsellers))

	app.GET("/products", h.page(false))
	app.GET("/bestsellers", h.page(true))
}

func (h productsHandler) filter(ctx echo.Context) (product.QueryFilter, error) {
	var filter product.QueryFilter
	if err := bindFilter(ctx, &filter); err != nil {
		return filter, err
	}
	if err := filter.Validate(h.validate); err != nil {
		return filter, err
	}
	return filter, nil
}

// list serves one page of products as a JSON array, the format grid.HTTPLoader reads.
func (h productsHandler) list(query queryFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		filter, err := h.filter(ctx)
		if err != nil {
			return err
		}

		products, err := query(ctx.Request().Context(), filter)
		if err != nil {
			return errors.Wrap(err, "querying products")
		}
		if products == nil {
			products = []product.Product{}
		}
		return ctx.JSON(http.StatusOK, products)
	}
}

func (h productsHandler) count(ctx echo.Context) error {
	n, err := h.svc.Count(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": n})
}

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
{{.Table}}
</body>
</html>
`))

// page renders one page of products as a static sortable table.
func (h productsHandler) page(bestsellers bool) echo.HandlerFunc {
	query := h.svc.Query
	if bestsellers {
		query = h.svc.Bestsellers
	}
	return func(ctx echo.Context) error {
		filter, err := h.filter(ctx)
		if err != nil {
			return err
		}
		filter = product.ApplyDefaults(filter, bestsellers)

		products, err := query(ctx.Request().Context(), filter)
		if err != nil {
			return errors.Wrap(err, "querying products")
		}

		rows := product.Rows(products)
		status := grid.Status{Kind: grid.StatusIdle, Total: len(rows), Exhausted: len(rows) < filter.Limit}
		if len(rows) == 0 {
			status.Kind = grid.StatusEmpty
		}
		mount := grid.NewHTMLMount(
			grid.WithRowLink(h.conf.Grid.RowLinkPrefix),
			grid.WithCellHTML("images", imageCell),
		)
		schema := product.Schema()
		mount.RenderHeader(schema, filter.SortSpec())
		mount.RenderBody(schema, grid.BodyUpdate{Rows: rows, Replace: true})
		mount.RenderStatus(status)
		return ctx.HTMLBlob(http.StatusOK, h.render(mount))
	}
}

func (h productsHandler) render(mount *grid.HTMLMount) []byte {
	var buf bytes.Buffer
	_ = pageTmpl.Execute(&buf, struct {
		Title string
		Table template.HTML
	}{Title: h.conf.AppName, Table: mount.HTML()})
	return buf.Bytes()
}

func imageCell(value interface{}) template.HTML {
	col, _ := product.Schema().Column("images")
	url := col.Render(value)
	if url == "" {
		return `<div class="sortable-table__cell"></div>`
	}
	return template.HTML(`<div class="sortable-table__cell"><img class="sortable-table-image" alt="Image" src="` +
		template.HTMLEscapeString(url) + `"></div>`)
}
