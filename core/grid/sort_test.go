package grid

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

var fruitSchema = MustSchema(
	Column{ID: "name", Title: "Name", Sortable: true, SortType: SortString},
	Column{ID: "price", Title: "Price", Sortable: true, SortType: SortNumber},
	Column{ID: "image", Title: "Image"},
	Column{ID: "tag", Title: "Tag", Sortable: true},
)

func names(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = stringOf(r["name"])
	}
	return out
}

func TestSort_Prices(t *testing.T) {
	rows := []Row{{"name": "Banana", "price": 3}, {"name": "Apple", "price": 5}}

	tests := []struct {
		name string
		dir  Direction
		want []string
	}{
		{name: "ascending", dir: Ascending, want: []string{"Banana", "Apple"}},
		{name: "descending", dir: Descending, want: []string{"Apple", "Banana"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Sort(rows, "price", tc.dir, fruitSchema)
			assert.Equal(t, tc.want, names(got))
			assert.Equal(t, []string{"Banana", "Apple"}, names(rows), "input must not be reordered")
		})
	}
}

func TestSort_Reverse(t *testing.T) {
	rows := []Row{
		{"name": "d", "price": 4.5},
		{"name": "a", "price": -1},
		{"name": "c", "price": json.Number("12")},
		{"name": "b", "price": "3"},
		{"name": "e", "price": uint8(7)},
	}

	for _, col := range []string{"name", "price"} {
		t.Run(col, func(t *testing.T) {
			asc := Sort(rows, col, Ascending, fruitSchema)
			desc := Sort(asc, col, Descending, fruitSchema)
			require.Len(t, desc, len(asc))
			for i := range asc {
				assert.Equal(t, asc[i], desc[len(desc)-1-i])
			}
		})
	}

	assert.Equal(t, []string{"a", "b", "d", "e", "c"}, names(Sort(rows, "price", Ascending, fruitSchema)))
}

func TestSort_Unsortable(t *testing.T) {
	rows := []Row{{"name": "b", "image": "2"}, {"name": "a", "image": "1"}}

	tests := []struct {
		name   string
		column string
		schema *Schema
	}{
		{name: "sort type none", column: "image", schema: fruitSchema},
		{name: "sortable without type", column: "tag", schema: fruitSchema},
		{name: "unknown column", column: "nope", schema: fruitSchema},
		{name: "nil schema", column: "name", schema: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Sort(rows, tc.column, Ascending, tc.schema)
			require.Len(t, got, len(rows))
			assert.Same(t, &rows[0], &got[0], "expected the very same slice")
			assert.Equal(t, []string{"b", "a"}, names(got))
		})
	}
}

func TestSort_Stable(t *testing.T) {
	rows := []Row{
		{"name": "x", "price": 1},
		{"name": "y", "price": 0},
		{"name": "z", "price": 1},
		{"name": "w", "price": 0},
	}
	assert.Equal(t, []string{"y", "w", "x", "z"}, names(Sort(rows, "price", Ascending, fruitSchema)))
	assert.Equal(t, []string{"x", "z", "y", "w"}, names(Sort(rows, "price", Descending, fruitSchema)))
}

func TestSort_NonNumeric(t *testing.T) {
	rows := []Row{
		{"name": "two", "price": 2},
		{"name": "missing"},
		{"name": "word", "price": "cheap"},
		{"name": "one", "price": 1},
	}
	assert.Equal(t, []string{"missing", "word", "one", "two"}, names(Sort(rows, "price", Ascending, fruitSchema)))
	assert.Equal(t, []string{"two", "one", "missing", "word"}, names(Sort(rows, "price", Descending, fruitSchema)))
}

func TestSort_Collation(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		dir   Direction
		opts  []SortOption
		want  []string
	}{
		{
			name:  "case insensitive, uppercase first",
			input: []string{"banana", "apple", "Cherry", "Apple"},
			dir:   Ascending,
			want:  []string{"Apple", "apple", "banana", "Cherry"},
		},
		{
			name:  "descending reverses the tie-break too",
			input: []string{"banana", "apple", "Cherry", "Apple"},
			dir:   Descending,
			want:  []string{"Cherry", "banana", "apple", "Apple"},
		},
		{
			name:  "cyrillic",
			input: []string{"Яблоко", "арбуз", "Банан"},
			dir:   Ascending,
			want:  []string{"арбуз", "Банан", "Яблоко"},
		},
		{
			name:  "english locale",
			input: []string{"b", "B", "a"},
			dir:   Ascending,
			opts:  []SortOption{WithLocales(language.English)},
			want:  []string{"a", "B", "b"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rows := make([]Row, len(tc.input))
			for i, s := range tc.input {
				rows[i] = Row{"name": s}
			}
			assert.Equal(t, tc.want, names(Sort(rows, "name", tc.dir, fruitSchema, tc.opts...)))
		})
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		want   float64
		wantOK bool
	}{
		{name: "int", value: 3, want: 3, wantOK: true},
		{name: "int64", value: int64(-2), want: -2, wantOK: true},
		{name: "float32", value: float32(1.5), want: 1.5, wantOK: true},
		{name: "json number", value: json.Number("4.25"), want: 4.25, wantOK: true},
		{name: "numeric string", value: " 10 ", want: 10, wantOK: true},
		{name: "word", value: "ten"},
		{name: "nil", value: nil},
		{name: "bool", value: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Number(tc.value)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr error
	}{
		{in: "asc", want: Ascending},
		{in: "DESC", want: Descending},
		{in: " desc ", want: Descending},
		{in: "up", want: Ascending, wantErr: ErrInvalidDirection},
		{in: "", want: Ascending, wantErr: ErrInvalidDirection},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDirection(tc.in)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, got.Toggle().Toggle())
		})
	}

	assert.Equal(t, "asc", Ascending.String())
	assert.Equal(t, "desc", Descending.String())
	assert.Equal(t, "price desc", SortSpec{ColumnID: "price", Direction: Descending}.String())
	assert.Equal(t, "unsorted", SortSpec{}.String())
}

func TestParseLocales(t *testing.T) {
	tags := func(in []language.Tag) []string {
		out := make([]string, len(in))
		for i, tag := range in {
			out[i] = tag.String()
		}
		return out
	}
	assert.Equal(t, []string{"ru", "en"}, tags(ParseLocales("ru", "en")))
	assert.Equal(t, []string{"en-US"}, tags(ParseLocales("!!", "en-US")))
	assert.Empty(t, ParseLocales())
}
