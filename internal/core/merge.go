package core

import (
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
	"slices"
)

// native returns the attributes of want the source supplies itself, in order.
func native(caps sourceapi.Capabilities, want []genomics.Vocabulary) []genomics.Vocabulary {
	var out []genomics.Vocabulary
	for _, a := range want {
		if _, ok := caps.Attributes[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// reconcile projects t onto cols. Columns the table lacks are filled with the
// unknown sentinel, so every row ends up with exactly len(cols) cells.
func reconcile(t sourceapi.Table, cols []genomics.Vocabulary) [][]any {
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = t.Index(c)
	}
	rows := make([][]any, 0, len(t.Rows))
	for _, src := range t.Rows {
		row := make([]any, len(cols))
		for i, j := range idx {
			if j < 0 || j >= len(src) {
				row[i] = genomics.UnknownValue
				continue
			}
			row[i] = normalize(src[j])
		}
		rows = append(rows, row)
	}
	return rows
}

// union reconciles every table onto cols and removes duplicate rows, keeping
// the first occurrence.
func union(tables []sourceapi.Table, cols []genomics.Vocabulary) [][]any {
	seen := make(map[string]struct{})
	var out [][]any
	for _, t := range tables {
		for _, row := range reconcile(t, cols) {
			k := rowKey(row)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, row)
		}
	}
	return out
}

// aggregate computes one output cell from the rows of a group.
type aggregate func(rows [][]any) (any, error)

// cube groups rows by every subset of the group columns, grand total
// included. Rolled-up columns are nil in the output and a NULL group value is
// reported as unknown. Each output row holds the group columns followed by one
// cell per aggregate, and rows are sorted by the group columns with rolled-up
// values last.
func cube(rows [][]any, group []int, aggs ...aggregate) ([][]any, error) {
	type bucket struct {
		key  []any
		rows [][]any
	}
	buckets := make(map[string]*bucket)
	var order []string
	subsets := 1 << len(group)
	for _, row := range rows {
		for mask := 0; mask < subsets; mask++ {
			key := make([]any, len(group))
			for i, col := range group {
				if mask&(1<<i) == 0 {
					continue
				}
				key[i] = row[col]
				if key[i] == nil {
					key[i] = genomics.UnknownValue
				}
			}
			k := rowKey(append([]any{mask}, key...))
			b, ok := buckets[k]
			if !ok {
				b = &bucket{key: key}
				buckets[k] = b
				order = append(order, k)
			}
			b.rows = append(b.rows, row)
		}
	}
	out := make([][]any, 0, len(order))
	for _, k := range order {
		b := buckets[k]
		row := slices.Clone(b.key)
		for _, agg := range aggs {
			v, err := agg(b.rows)
			if err != nil {
				return nil, err
			}
			row = append(row, v)
		}
		out = append(out, row)
	}
	by := make([]int, len(group))
	for i := range by {
		by[i] = i
	}
	sortRows(out, by...)
	return out, nil
}

// countDistinct counts distinct values of column col.
func countDistinct(col int) aggregate {
	return func(rows [][]any) (any, error) {
		seen := make(map[string]struct{}, len(rows))
		for _, r := range rows {
			seen[rowKey(r[col:col+1])] = struct{}{}
		}
		return int64(len(seen)), nil
	}
}

// dropSmallGroups removes rows whose population column is below min and
// reports how many were removed.
func dropSmallGroups(rows [][]any, col, min int) ([][]any, int) {
	if min <= 0 {
		return rows, 0
	}
	kept := rows[:0:0]
	for _, r := range rows {
		if n, ok := toInt(r[col]); ok && n < int64(min) {
			continue
		}
		kept = append(kept, r)
	}
	return kept, len(rows) - len(kept)
}
