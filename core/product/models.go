package product

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/datagrid/core"
	"github.com/trezcool/datagrid/core/grid"
)

const (
	DefaultLimit = 30
	MaxLimit     = 1000

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

type Status int

const (
	StatusInactive Status = iota
	StatusActive
)

func (s Status) String() string {
	if s == StatusActive {
		return "Active"
	}
	return "Inactive"
}

type Image struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Images is stored as a JSON document.
type Images []Image

func (imgs Images) Value() (driver.Value, error) {
	if imgs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(imgs)
}

func (imgs *Images) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*imgs = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("scanning images: unsupported type %T", src)
	}
	return errors.Wrap(json.Unmarshal(data, imgs), "scanning images")
}

type Product struct {
	ID            string    `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Images        Images    `json:"images" db:"images"`
	Quantity      int       `json:"quantity" db:"quantity"`
	Price         float64   `json:"price" db:"price"`
	Discount      float64   `json:"discount" db:"discount"`
	Status        Status    `json:"status" db:"status"`
	Sales         int       `json:"sales" db:"sales"`
	SubcategoryID string    `json:"subcategory" db:"subcategory_id"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"` // UTC
}

// Row returns the grid row of p, keyed like its JSON representation.
func (p Product) Row() grid.Row {
	return grid.Row{
		"id":          p.ID,
		"title":       p.Title,
		"images":      []Image(p.Images),
		"quantity":    p.Quantity,
		"price":       p.Price,
		"discount":    p.Discount,
		"status":      int(p.Status),
		"sales":       p.Sales,
		"subcategory": p.SubcategoryID,
		"createdAt":   p.CreatedAt,
	}
}

func Rows(products []Product) []grid.Row {
	rows := make([]grid.Row, len(products))
	for i, p := range products {
		rows[i] = p.Row()
	}
	return rows
}

var schema = grid.MustSchema(
	grid.Column{ID: "images", Title: "Image", Template: formatImages},
	grid.Column{ID: "title", Title: "Name", Sortable: true, SortType: grid.SortString},
	grid.Column{ID: "quantity", Title: "Quantity", Sortable: true, SortType: grid.SortNumber},
	grid.Column{ID: "price", Title: "Price", Sortable: true, SortType: grid.SortNumber, Template: formatPrice},
	grid.Column{ID: "sales", Title: "Sales", Sortable: true, SortType: grid.SortNumber},
	grid.Column{ID: "status", Title: "Status", Sortable: true, SortType: grid.SortNumber, Template: formatStatus},
)

// Schema returns the column schema of the products and bestsellers grids.
func Schema() *grid.Schema { return schema }

func formatPrice(v interface{}) string {
	if f, ok := grid.Number(v); ok {
		return "$" + strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

func formatStatus(v interface{}) string {
	if f, ok := grid.Number(v); ok && f > 0 {
		return StatusActive.String()
	}
	return StatusInactive.String()
}

// formatImages renders the url of the first image. Rows decoded from JSON hold []interface{}.
func formatImages(v interface{}) string {
	switch imgs := v.(type) {
	case []Image:
		if len(imgs) > 0 {
			return imgs[0].URL
		}
	case []interface{}:
		if len(imgs) > 0 {
			if m, ok := imgs[0].(map[string]interface{}); ok {
				return fmt.Sprint(m["url"])
			}
		}
	}
	return ""
}

// QueryFilter is bound from the query string of the products endpoints.
type QueryFilter struct {
	Sort   string    `query:"sort" validate:"omitempty,sortcolumn"`
	Order  string    `query:"order" validate:"omitempty,sortorder"`
	Offset int       `query:"offset" validate:"min=0"`
	Limit  int       `query:"limit" validate:"omitempty,min=1,max=1000"`
	From   time.Time `query:"from"`
	To     time.Time `query:"to" validate:"omitempty,gtefield=From"`
}

func (qf *QueryFilter) Clean() {
	qf.Sort = core.CleanString(qf.Sort)
	qf.Order = core.CleanString(qf.Order, true /* lower */)
	if !qf.From.IsZero() {
		qf.From = qf.From.UTC()
	}
	if !qf.To.IsZero() {
		qf.To = qf.To.UTC()
	}
}

func (qf *QueryFilter) Validate(validate *validator.Validate) error {
	qf.Clean()
	return validate.Struct(qf)
}

// Ordering returns the ordering of the filter. Ok is false when no sort column is set.
func (qf QueryFilter) Ordering() (ord core.DBOrdering, ok bool) {
	if qf.Sort == "" {
		return core.DBOrdering{}, false
	}
	return core.DBOrdering{Field: qf.Sort, Ascending: qf.Order != OrderDesc}, true
}

func (qf QueryFilter) SortSpec() grid.SortSpec {
	if qf.Sort == "" {
		return grid.SortSpec{}
	}
	dir := grid.Ascending
	if qf.Order == OrderDesc {
		dir = grid.Descending
	}
	return grid.SortSpec{ColumnID: qf.Sort, Direction: dir}
}

// InRange reports whether t falls within [From, To]. Zero bounds are open.
func (qf QueryFilter) InRange(t time.Time) bool {
	if !qf.From.IsZero() && t.Before(qf.From) {
		return false
	}
	if !qf.To.IsZero() && t.After(qf.To) {
		return false
	}
	return true
}

// FilterFromRequest maps a grid page request onto a QueryFilter. A zero limit asks for MaxLimit rows.
func FilterFromRequest(req grid.PageRequest) QueryFilter {
	qf := QueryFilter{
		Offset: req.Offset,
		Limit:  req.Limit,
		From:   req.Range.From,
		To:     req.Range.To,
	}
	if qf.Limit <= 0 || qf.Limit > MaxLimit {
		qf.Limit = MaxLimit
	}
	if req.Sort.IsSorted() {
		qf.Sort = req.Sort.ColumnID
		qf.Order = req.Sort.Direction.String()
	}
	qf.Clean()
	return qf
}
