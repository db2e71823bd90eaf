package sourceapi

import (
	"fmt"
	"popstudy/pkg/genomics"
)

// Table is a backend answer: rows labelled with canonical columns. Notices
// carry non-fatal warnings that accompany data (for example rows removed by a
// privacy filter).
type Table struct {
	Columns []genomics.Vocabulary
	Rows    [][]any
	Notices []string
}

// Empty reports whether the table holds no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Index returns the position of col, or -1.
func (t Table) Index(col genomics.Vocabulary) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Column returns every value of col.
func (t Table) Column(col genomics.Vocabulary) ([]any, error) {
	idx := t.Index(col)
	if idx < 0 {
		return nil, fmt.Errorf("sourceapi: column %s not in table", col)
	}
	out := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Distinct counts the distinct non-nil values of col.
func (t Table) Distinct(col genomics.Vocabulary) (int, error) {
	vals, err := t.Column(col)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		seen[fmt.Sprint(v)] = struct{}{}
	}
	return len(seen), nil
}
