package services

import (
	"slices"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// Binding is a layout resolved against one concrete header: for each
// canonical field, the header columns it is read from in preference order.
type Binding struct {
	Layout *domain.Layout
	Header []string

	fields  map[domain.Field][]int
	owner   []domain.Field
	ignored []string
}

// Bind resolves layout against header. A column is claimed by at most one
// field; fields are bound in domain.Fields order.
func Bind(layout *domain.Layout, header []string) *Binding {
	folded := foldHeader(header, layout.Fuzzy)
	b := &Binding{
		Layout: layout,
		Header: header,
		fields: make(map[domain.Field][]int),
		owner:  make([]domain.Field, len(header)),
	}

	for _, field := range domain.Fields() {
		var cols []int
		for _, name := range layout.Columns[field] {
			want := foldColumn(name)
			if layout.Fuzzy {
				want = fuzzyColumn(name)
			}
			for i, col := range folded {
				if col == want && b.owner[i] == "" && !slices.Contains(cols, i) {
					cols = append(cols, i)
				}
			}
		}
		if len(cols) == 0 {
			if pos, ok := layout.Positional[field]; ok && pos >= 0 && pos < len(header) && b.owner[pos] == "" {
				cols = []int{pos}
			}
		}
		for _, i := range cols {
			b.owner[i] = field
		}
		if len(cols) > 0 {
			b.fields[field] = cols
		}
	}

	for i, name := range header {
		if b.owner[i] == "" && !isBlank(name) {
			b.ignored = append(b.ignored, name)
		}
	}
	return b
}

// Bound reports whether any column feeds field.
func (b *Binding) Bound(field domain.Field) bool {
	return len(b.fields[field]) > 0
}

// Ignored returns header columns no field was bound to.
func (b *Binding) Ignored() []string {
	return b.ignored
}

// Lookup returns the first non-blank cell bound to field and its column
// index, or ("", -1) when every bound cell is blank.
func (b *Binding) Lookup(row domain.RawRow, field domain.Field) (string, int) {
	for _, i := range b.fields[field] {
		if v := row.Cell(i); !isBlank(v) {
			return v, i
		}
	}
	return "", -1
}

// FieldOf returns the field that claimed column i, or "".
func (b *Binding) FieldOf(i int) domain.Field {
	if i < 0 || i >= len(b.owner) {
		return ""
	}
	return b.owner[i]
}

// Column returns the header name of column i.
func (b *Binding) Column(i int) string {
	if i < 0 || i >= len(b.Header) {
		return ""
	}
	return b.Header[i]
}
