package grid

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"
	"sync"
)

const (
	DefaultIDColumn  = "id"
	DefaultEmptyText = "No products satisfies your filter criteria"
)

var htmlTemplates = template.Must(template.New("grid").Parse(`
{{- define "header" -}}
{{range .}}<div class="sortable-table__cell" data-id="{{.ID}}" data-sortable="{{.Sortable}}" data-order="{{.Order}}">
<span>{{.Title}}</span>
<span data-element="arrow" class="sortable-table__sort-arrow"><span class="sort-arrow"></span></span>
</div>
{{end}}
{{- end -}}

{{- define "rows" -}}
{{range .}}{{if .Href}}<a href="{{.Href}}" class="sortable-table__row">{{else}}<div class="sortable-table__row">{{end}}
{{- range .Cells}}{{.}}{{end -}}
{{if .Href}}</a>{{else}}</div>{{end}}
{{end}}
{{- end -}}

{{- define "table" -}}
<div class="{{.Class}}">
<div data-element="header" class="sortable-table__header sortable-table__row">
{{.Header}}</div>
<div data-element="loading" class="loading-line sortable-table__loading-line"></div>
<div data-element="body" class="sortable-table__body">
{{.Body}}</div>
<div data-element="emptyPlaceholder" class="sortable-table__empty-placeholder">
<p>{{.EmptyText}}</p>
<button type="button" class="button-primary-outline">Reset all filters</button>
</div>
{{- if .Err}}
<div data-element="error" class="sortable-table__error">
<p>{{.Err}}</p>
<button type="button" data-element="retry" class="button-primary-outline">Retry</button>
</div>
{{- end}}
</div>
{{- end -}}
`))

type headerCell struct {
	ID       string
	Title    string
	Sortable bool
	Order    string
}

type bodyRow struct {
	Href  string
	Cells []template.HTML
}

// CellFunc renders one body cell as trusted markup.
type CellFunc func(value interface{}) template.HTML

// HTMLMount renders a grid as the sortable-table markup. It is safe to read from any
// goroutine while the grid renders into it.
type HTMLMount struct {
	idColumn  string
	rowLink   string
	emptyText string
	cells     map[string]CellFunc

	mu     sync.RWMutex
	header template.HTML
	body   bytes.Buffer
	status Status
}

type HTMLOption func(*HTMLMount)

// WithRowLink makes every row a link to <prefix>/<id>.
func WithRowLink(prefix string) HTMLOption {
	return func(m *HTMLMount) { m.rowLink = strings.TrimRight(prefix, "/") }
}

func WithIDColumn(columnID string) HTMLOption {
	return func(m *HTMLMount) { m.idColumn = columnID }
}

func WithEmptyText(text string) HTMLOption {
	return func(m *HTMLMount) { m.emptyText = text }
}

// WithCellHTML overrides the markup of one column's cells. The markup is not escaped.
func WithCellHTML(columnID string, fn CellFunc) HTMLOption {
	return func(m *HTMLMount) { m.cells[columnID] = fn }
}

func NewHTMLMount(opts ...HTMLOption) *HTMLMount {
	m := &HTMLMount{
		idColumn:  DefaultIDColumn,
		emptyText: DefaultEmptyText,
		cells:     make(map[string]CellFunc),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *HTMLMount) RenderHeader(schema *Schema, sort SortSpec) {
	cols := schema.Columns()
	cells := make([]headerCell, 0, len(cols))
	for _, col := range cols {
		cell := headerCell{ID: col.ID, Title: col.Title, Sortable: col.Sortable}
		if sort.ColumnID == col.ID {
			cell.Order = sort.Direction.String()
		}
		cells = append(cells, cell)
	}

	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, "header", cells); err != nil {
		panic(err)
	}

	m.mu.Lock()
	m.header = template.HTML(buf.String())
	m.mu.Unlock()
}

func (m *HTMLMount) RenderBody(schema *Schema, update BodyUpdate) {
	cols := schema.Columns()
	rows := make([]bodyRow, 0, len(update.Rows))
	for _, row := range update.Rows {
		r := bodyRow{Cells: make([]template.HTML, 0, len(cols))}
		if id := stringOf(row[m.idColumn]); id != "" && m.rowLink != "" {
			r.Href = m.rowLink + "/" + url.PathEscape(id)
		}
		for _, col := range cols {
			r.Cells = append(r.Cells, m.cell(col, row[col.ID]))
		}
		rows = append(rows, r)
	}

	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, "rows", rows); err != nil {
		panic(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if update.Replace {
		m.body.Reset()
	}
	m.body.Write(buf.Bytes())
}

func (m *HTMLMount) RenderStatus(status Status) {
	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *HTMLMount) Header() template.HTML {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.header
}

func (m *HTMLMount) Body() template.HTML {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return template.HTML(m.body.String())
}

func (m *HTMLMount) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// HTML renders the whole table element.
func (m *HTMLMount) HTML() template.HTML {
	m.mu.RLock()
	class := "sortable-table"
	switch m.status.Kind {
	case StatusLoading:
		class += " sortable-table_loading"
	case StatusEmpty:
		class += " sortable-table_empty"
	}
	data := struct {
		Class     string
		Header    template.HTML
		Body      template.HTML
		EmptyText string
		Err       string
	}{
		Class:     class,
		Header:    m.header,
		Body:      template.HTML(m.body.String()),
		EmptyText: m.emptyText,
	}
	if m.status.Kind == StatusError && m.status.Err != nil {
		data.Err = m.status.Err.Error()
	}
	m.mu.RUnlock()

	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, "table", data); err != nil {
		panic(err)
	}
	return template.HTML(buf.String())
}

func (m *HTMLMount) cell(col Column, value interface{}) template.HTML {
	if fn, ok := m.cells[col.ID]; ok {
		return fn(value)
	}
	return template.HTML(`<div class="sortable-table__cell">` + template.HTMLEscapeString(col.Render(value)) + `</div>`)
}
