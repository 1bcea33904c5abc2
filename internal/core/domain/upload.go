package domain

// RawUpload is one decoded tabular file, before normalisation.
// It is ephemeral and discarded once its rows have been normalised.
type RawUpload struct {
	// Name is the file name as uploaded. It is used in reports and to
	// infer the account when rows do not carry one.
	Name string

	// AccountID overrides account inference when set.
	AccountID string

	// Header is the column-name row.
	Header []string

	// HeaderLine is the 1-based line the header was found on.
	HeaderLine int

	// Rows holds the data rows in file order.
	Rows []RawRow

	// Encoding is the text encoding the bytes were decoded with.
	Encoding string
}

// RawRow is one data row and the line it was read from.
type RawRow struct {
	Line  int
	Cells []string
}

// Cell returns the value at column i, or "" when the row is short.
func (r RawRow) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}

// Samples returns the cells of up to n leading rows.
func (u *RawUpload) Samples(n int) [][]string {
	if n > len(u.Rows) {
		n = len(u.Rows)
	}
	out := make([][]string, 0, n)
	for _, row := range u.Rows[:n] {
		out = append(out, row.Cells)
	}
	return out
}
