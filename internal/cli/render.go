package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/syssam/actian/internal/config"
)

// renderTable writes rows under header as a light box table.
func renderTable(w io.Writer, title string, header table.Row, rows []table.Row) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintf(w, "%s: (none)\n", title)
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.Render()
}

// renderData writes v in a structured format.
func renderData(w io.Writer, format string, v any) error {
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
