package core

import (
	"fmt"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
	"sort"
	"strconv"
)

// Result is a merged coordinator answer.
type Result struct {
	Columns     []genomics.Vocabulary `json:"columns"`
	Rows        [][]any               `json:"rows"`
	Notices     []string              `json:"notice,omitempty"`
	DownloadURL string                `json:"download_url,omitempty"`
}

// Index returns the position of col, or -1.
func (r Result) Index(col genomics.Vocabulary) int {
	return sourceapi.Table{Columns: r.Columns}.Index(col)
}

// normalize maps driver-specific scalar types onto int64, float64 and string
// so rows from different backends compare equal.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int8:
		return int64(x)
	case uint:
		return int64(x)
	case uint32:
		return int64(x)
	case uint16:
		return int64(x)
	case uint8:
		return int64(x)
	case float32:
		return float64(x)
	case []byte:
		return string(x)
	}
	return v
}

func toInt(v any) (int64, bool) {
	switch x := normalize(v).(type) {
	case int64:
		return x, true
	case float64:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch x := normalize(v).(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

func toChrom(v any) (int, bool) {
	if s, ok := normalize(v).(string); ok {
		n, err := genomics.ParseChromosome(s)
		return n, err == nil
	}
	n, ok := toInt(v)
	return int(n), ok && n >= 1 && n <= genomics.ChromY
}

func rowKey(row []any) string {
	b := make([]byte, 0, 16*len(row))
	for _, v := range row {
		b = fmt.Appendf(b, "%T=%v\x1f", v, v)
	}
	return string(b)
}

// compareValues orders nil last, numbers numerically and everything else by
// its string form.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	if fa, ok := a.(float64); ok {
		if fb, ok := toFloat(b); ok {
			return cmpFloat(fa, fb)
		}
	}
	if ia, ok := a.(int64); ok {
		if fb, ok := toFloat(b); ok {
			return cmpFloat(float64(ia), fb)
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// sortRows orders rows by the given column positions.
func sortRows(rows [][]any, by ...int) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, idx := range by {
			if c := compareValues(rows[i][idx], rows[j][idx]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}
