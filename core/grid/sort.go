package grid

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Direction is the sign applied to comparator results.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// String returns the query string form of d: "asc" or "desc".
func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

func (d Direction) normalize() Direction {
	if d == Descending {
		return Descending
	}
	return Ascending
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return Ascending, nil
	case "desc":
		return Descending, nil
	default:
		return Ascending, errors.Wrapf(ErrInvalidDirection, "%q", s)
	}
}

// SortSpec is the (column, direction) pair governing row order. An empty ColumnID means unsorted.
type SortSpec struct {
	ColumnID  string
	Direction Direction
}

func (s SortSpec) IsSorted() bool { return s.ColumnID != "" }

func (s SortSpec) String() string {
	if !s.IsSorted() {
		return "unsorted"
	}
	return s.ColumnID + " " + s.Direction.String()
}

// DefaultLocales is the bilingual collation table used for string columns.
var DefaultLocales = []language.Tag{language.Russian, language.English}

type sortOptions struct {
	locales []language.Tag
}

type SortOption func(*sortOptions)

// WithLocales sets the collation locales, in preference order.
func WithLocales(tags ...language.Tag) SortOption {
	return func(o *sortOptions) {
		if len(tags) > 0 {
			o.locales = tags
		}
	}
}

// ParseLocales parses BCP 47 tags such as "ru" or "en-US", skipping invalid ones.
func ParseLocales(names ...string) []language.Tag {
	tags := make([]language.Tag, 0, len(names))
	for _, name := range names {
		if tag, err := language.Parse(name); err == nil {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Sort returns rows ordered by columnID in direction dir.
//
// Rows are returned unchanged (the same slice) when the column is unknown or has SortNone.
// Otherwise a new slice is returned; the input is left untouched.
// The sort is stable: rows comparing equal keep their input order.
func Sort(rows []Row, columnID string, dir Direction, schema *Schema, opts ...SortOption) []Row {
	if schema == nil {
		return rows
	}
	col, ok := schema.Column(columnID)
	if !ok || col.SortType == SortNone {
		return rows
	}

	o := sortOptions{locales: DefaultLocales}
	for _, opt := range opts {
		opt(&o)
	}

	var cmp func(a, b interface{}) int
	switch col.SortType {
	case SortNumber:
		cmp = compareNumbers
	case SortString:
		cmp = newStringComparator(o.locales)
	default:
		return rows
	}

	sign := int(dir.normalize())
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sign*cmp(sorted[i][columnID], sorted[j][columnID]) < 0
	})
	return sorted
}

// Number converts a cell value to a float64 if it holds a number.
func Number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n)
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f)
	default:
		return 0, false
	}
}

// compareNumbers orders non-numeric values before every number.
func compareNumbers(a, b interface{}) int {
	x, xok := Number(a)
	y, yok := Number(b)
	switch {
	case !xok && !yok:
		return 0
	case !xok:
		return -1
	case !yok:
		return 1
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// newStringComparator compares case-insensitively with the first supported locale,
// breaking ties by putting uppercase letters first.
// The returned func is not safe for concurrent use.
func newStringComparator(locales []language.Tag) func(a, b interface{}) int {
	matcher := language.NewMatcher(collate.Supported())
	tag, _, _ := matcher.Match(locales...)
	coll := collate.New(tag, collate.IgnoreCase)

	return func(a, b interface{}) int {
		x, y := stringOf(a), stringOf(b)
		if c := coll.CompareString(x, y); c != 0 {
			return c
		}
		return compareCase(x, y)
	}
}

func stringOf(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// compareCase returns -1 when the first letter differing in case is uppercase in a, 1 when it is in b.
func compareCase(a, b string) int {
	for a != "" && b != "" {
		ra, na := utf8.DecodeRuneInString(a)
		rb, nb := utf8.DecodeRuneInString(b)
		ua, ub := unicode.IsUpper(ra), unicode.IsUpper(rb)
		if ua && !ub {
			return -1
		}
		if ub && !ua {
			return 1
		}
		a, b = a[na:], b[nb:]
	}
	return 0
}
