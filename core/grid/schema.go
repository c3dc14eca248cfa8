package grid

import (
	"fmt"

	"github.com/pkg/errors"
)

// SortType tells the SortEngine how to compare a column's values.
type SortType int

const (
	// SortNone marks a column whose values are never compared.
	SortNone SortType = iota
	// SortNumber compares values numerically.
	SortNumber
	// SortString compares values with locale-aware collation.
	SortString
)

func (st SortType) String() string {
	switch st {
	case SortNone:
		return "none"
	case SortNumber:
		return "number"
	case SortString:
		return "string"
	default:
		return fmt.Sprintf("unknown(%d)", st)
	}
}

// Row maps column ids to cell values. Rows handed to or returned by the grid must be treated as read-only.
type Row map[string]interface{}

// Column describes one displayable column.
type Column struct {
	ID       string
	Title    string
	Sortable bool
	SortType SortType

	// Template renders a cell value as text. Defaults to fmt.Sprint (nil renders as "").
	Template func(value interface{}) string
}

// Render renders value through the column's Template.
func (c Column) Render(value interface{}) string {
	if c.Template != nil {
		return c.Template(value)
	}
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

// Schema is an immutable, ordered set of columns with unique ids.
type Schema struct {
	columns []Column
	index   map[string]int
}

func NewSchema(columns ...Column) (*Schema, error) {
	s := &Schema{
		columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if col.ID == "" {
			return nil, errors.Wrapf(ErrEmptyColumnID, "column %d", i)
		}
		if _, ok := s.index[col.ID]; ok {
			return nil, errors.Wrapf(ErrDuplicateColumn, "column %q", col.ID)
		}
		s.index[col.ID] = i
		s.columns[i] = col
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. Meant for package level schemas.
func MustSchema(columns ...Column) *Schema {
	s, err := NewSchema(columns...)
	if err != nil {
		panic(err)
	}
	return s
}

// Columns returns a copy of the columns in display order.
func (s *Schema) Columns() []Column {
	cols := make([]Column, len(s.columns))
	copy(cols, s.columns)
	return cols
}

func (s *Schema) Len() int { return len(s.columns) }

func (s *Schema) Column(id string) (Column, bool) {
	if i, ok := s.index[id]; ok {
		return s.columns[i], true
	}
	return Column{}, false
}

// IsSortable reports whether id names a sortable column of the schema.
func (s *Schema) IsSortable(id string) bool {
	col, ok := s.Column(id)
	return ok && col.Sortable
}

// FirstSortable returns the first sortable column in display order.
func (s *Schema) FirstSortable() (Column, bool) {
	for _, col := range s.columns {
		if col.Sortable {
			return col, true
		}
	}
	return Column{}, false
}
