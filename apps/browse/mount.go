package main

import (
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/trezcool/datagrid/core/grid"
)

const (
	minColWidth = 6
	maxColWidth = 30
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	statusStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// tuiMount keeps what the grid rendered last and pokes redraw after every change.
type tuiMount struct {
	mu     sync.Mutex
	schema *grid.Schema
	sort   grid.SortSpec
	rows   []grid.Row
	status grid.Status
	redraw chan struct{}
}

var _ grid.Mount = (*tuiMount)(nil)

func newTUIMount() *tuiMount {
	return &tuiMount{redraw: make(chan struct{}, 1)}
}

func (m *tuiMount) RenderHeader(schema *grid.Schema, sort grid.SortSpec) {
	m.mu.Lock()
	m.schema = schema
	m.sort = sort
	m.mu.Unlock()
	m.notify()
}

func (m *tuiMount) RenderBody(schema *grid.Schema, update grid.BodyUpdate) {
	m.mu.Lock()
	m.schema = schema
	if update.Replace {
		m.rows = append([]grid.Row(nil), update.Rows...)
	} else {
		m.rows = append(m.rows, update.Rows...)
	}
	m.mu.Unlock()
	m.notify()
}

func (m *tuiMount) RenderStatus(status grid.Status) {
	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
	m.notify()
}

func (m *tuiMount) notify() {
	select {
	case m.redraw <- struct{}{}:
	default:
	}
}

// frame is a consistent copy of the mount's content.
type frame struct {
	schema *grid.Schema
	sort   grid.SortSpec
	rows   []grid.Row
	status grid.Status
}

func (m *tuiMount) frame() frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return frame{schema: m.schema, sort: m.sort, rows: m.rows, status: m.status}
}

// table lays out a frame as text. Styles are skipped when plain is set.
type table struct {
	frame
	widths []int
	plain  bool
}

func newTable(f frame, plain bool) table {
	t := table{frame: f, plain: plain}
	if f.schema == nil {
		return t
	}
	cols := f.schema.Columns()
	t.widths = make([]int, len(cols))
	for i, col := range cols {
		w := utf8.RuneCountInString(col.Title) + 2 // arrow
		for _, row := range f.rows {
			if n := utf8.RuneCountInString(col.Render(row[col.ID])); n > w {
				w = n
			}
		}
		if w < minColWidth {
			w = minColWidth
		}
		if w > maxColWidth {
			w = maxColWidth
		}
		t.widths[i] = w
	}
	return t
}

func (t table) style(s lipgloss.Style, text string) string {
	if t.plain {
		return text
	}
	return s.Render(text)
}

// header renders the header line. selected is the index of the focused header cell or -1.
func (t table) header(selected int) string {
	if t.schema == nil {
		return ""
	}
	cells := make([]string, 0, t.schema.Len())
	for i, col := range t.schema.Columns() {
		title := col.Title
		if col.ID == t.sort.ColumnID {
			if t.sort.Direction == grid.Descending {
				title += " ↓"
			} else {
				title += " ↑"
			}
		}
		style := headerStyle
		if i == selected {
			style = selectedStyle
		}
		cells = append(cells, t.style(style, pad(title, t.widths[i])))
	}
	return strings.Join(cells, " ")
}

func (t table) row(i int, cursor bool) string {
	if t.schema == nil {
		return ""
	}
	row := t.rows[i]
	cells := make([]string, 0, t.schema.Len())
	for j, col := range t.schema.Columns() {
		cells = append(cells, pad(col.Render(row[col.ID]), t.widths[j]))
	}
	line := strings.Join(cells, " ")
	if cursor {
		return t.style(cursorStyle, line)
	}
	return line
}

func (t table) statusLine() string {
	st := t.status
	switch st.Kind {
	case grid.StatusLoading:
		return t.style(statusStyle, "loading...")
	case grid.StatusEmpty:
		return t.style(statusStyle, "no products satisfy your filter criteria")
	case grid.StatusError:
		msg := "load failed"
		if st.Err != nil {
			msg += ": " + st.Err.Error()
		}
		return t.style(errorStyle, msg+" (r to retry)")
	default:
		line := strconv.Itoa(st.Total) + " rows"
		if !st.Exhausted {
			line += ", more below"
		}
		return t.style(statusStyle, line)
	}
}

// pad cuts s to w runes and pads it with spaces to w.
func pad(s string, w int) string {
	n := utf8.RuneCountInString(s)
	if n > w {
		r := []rune(s)
		return string(r[:w-1]) + "…"
	}
	return s + strings.Repeat(" ", w-n)
}
