package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sells-group/lead-finder/internal/model"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// render writes v as indented JSON, or the table built by tbl when the
// table format is selected.
func render(w io.Writer, v any, tbl func() *table.Table) error {
	if outputFormat == "table" && tbl != nil {
		_, err := fmt.Fprintln(w, tbl().String())
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func leadTable(leads []model.Lead) *table.Table {
	t := newTable("ID", "EMAIL", "NAME", "TITLE", "COMPANY", "SOURCE", "CONF")
	for _, l := range leads {
		t.Row(shortID(l.ID), l.Email, l.Name, l.Title, l.Company, string(l.Source), strconv.Itoa(l.ConfidenceScore))
	}
	return t
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
