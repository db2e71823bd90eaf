package main

import (
	"encoding/json"
	"fmt"
	"popstudy/internal/core"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
)

const nullValue = "-"

// render writes res as JSON or as a table followed by its notices.
func (a *app) render(res core.Result) error {
	if a.asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	t := table.NewWriter()
	t.SetOutputMirror(a.stdout)
	// Column labels are canonical names; keep them as written.
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c.String()
	}
	t.AppendHeader(header)
	for _, row := range res.Rows {
		out := make(table.Row, len(row))
		for i, v := range row {
			if v == nil {
				out[i] = nullValue
				continue
			}
			if f, ok := v.(float64); ok {
				out[i] = fmt.Sprintf("%.6g", f)
				continue
			}
			out[i] = v
		}
		t.AppendRow(out)
	}
	t.Render()
	if res.DownloadURL != "" {
		fmt.Fprintf(a.stdout, "\nDownload: %s\n", res.DownloadURL)
	}
	for _, n := range res.Notices {
		fmt.Fprintf(a.stderr, "Notice: %s\n", n)
	}
	return nil
}
