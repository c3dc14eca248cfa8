package main

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/trezcool/datagrid/core/grid"
)

// chrome is the number of lines around the rows: header, status and help.
const chrome = 3

const helpText = "j/k move  ←/→ column  enter sort  r retry  q quit"

type redrawMsg struct{}

type model struct {
	grid      *grid.Grid
	mount     *tuiMount
	threshold int

	cursor   int // row
	column   int // header cell
	offset   int // first visible row
	height   int
	quitting bool
}

func newModel(g *grid.Grid, mount *tuiMount, threshold int) model {
	if threshold < 1 {
		threshold = 1
	}
	return model{grid: g, mount: mount, threshold: threshold, height: 24}
}

func (m model) waitForRedraw() tea.Cmd {
	return func() tea.Msg {
		<-m.mount.redraw
		return redrawMsg{}
	}
}

func (m model) Init() tea.Cmd {
	m.grid.Start()
	return m.waitForRedraw()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case redrawMsg:
		m.clamp()
		m.loadMore()
		return m, m.waitForRedraw()
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.clamp()
		return m, nil
	case tea.KeyMsg:
		return m.onKey(msg)
	}
	return m, nil
}

func (m model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols := m.grid.Schema().Len()
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		m.grid.Destroy()
		return m, tea.Quit
	case "down", "j":
		m.cursor++
	case "up", "k":
		m.cursor--
	case "pgdown", " ":
		m.cursor += m.visible()
	case "pgup":
		m.cursor -= m.visible()
	case "right", "l":
		if m.column < cols-1 {
			m.column++
		}
	case "left", "h":
		if m.column > 0 {
			m.column--
		}
	case "enter", "s":
		if col, ok := m.columnAt(m.column); ok {
			m.grid.OnHeaderActivate(col.ID)
			m.cursor, m.offset = 0, 0
		}
		return m, nil
	case "r":
		m.grid.Retry()
		return m, nil
	default:
		return m, nil
	}
	m.clamp()
	m.loadMore()
	return m, nil
}

// loadMore asks for the next page once the cursor nears the last row, or when the rows
// do not fill the screen. Failed loads wait for an explicit retry.
func (m model) loadMore() {
	f := m.mount.frame()
	n := len(f.rows)
	if n == 0 || f.status.Kind == grid.StatusError {
		return
	}
	if m.cursor >= n-m.threshold || n <= m.offset+m.visible() {
		m.grid.OnScrollNearBottom()
	}
}

func (m model) columnAt(i int) (grid.Column, bool) {
	cols := m.grid.Schema().Columns()
	if i < 0 || i >= len(cols) {
		return grid.Column{}, false
	}
	return cols[i], true
}

func (m model) visible() int {
	if v := m.height - chrome; v > 1 {
		return v
	}
	return 1
}

// clamp keeps the cursor on a row and the row on screen.
func (m *model) clamp() {
	n := len(m.mount.frame().rows)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if v := m.visible(); m.cursor >= m.offset+v {
		m.offset = m.cursor - v + 1
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	t := newTable(m.mount.frame(), false)

	var sb strings.Builder
	sb.WriteString(t.header(m.column) + "\n")
	end := m.offset + m.visible()
	if end > len(t.rows) {
		end = len(t.rows)
	}
	for i := m.offset; i < end; i++ {
		sb.WriteString(t.row(i, i == m.cursor) + "\n")
	}
	sb.WriteString(t.statusLine() + "\n")
	sb.WriteString(t.style(statusStyle, helpText))
	return sb.String()
}
