// Package report writes the inventory table in human and machine readable forms.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/denysvitali/aperture-graph/internal/models"
)

// Format selects the output encoding
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatCSV   Format = "csv"
)

// Formats lists every supported format
var Formats = []Format{FormatTable, FormatJSON, FormatYAML, FormatCSV}

var columns = []string{"directory", "filename", "f_number", "file_size"}

// Document is the machine readable report
type Document struct {
	Summary models.InventorySummary `json:"summary" yaml:"summary"`
	Records []models.ImageRecord    `json:"records" yaml:"records"`
}

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of table, json, yaml, csv)", s)
}

// Write encodes the report in the given format
func Write(w io.Writer, format Format, doc Document) error {
	switch format {
	case FormatTable:
		return writeTable(w, doc)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		return writeCSV(w, doc.Records)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// FormatFNumber renders an optional f-number; absent values are empty.
func FormatFNumber(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func row(r models.ImageRecord) []string {
	return []string{r.Directory, r.Filename, FormatFNumber(r.FNumber), strconv.FormatInt(r.FileSize, 10)}
}

func writeCSV(w io.Writer, records []models.ImageRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func writeTable(w io.Writer, doc Document) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(columns...).
		StyleFunc(func(r, _ int) lipgloss.Style {
			if r == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range doc.Records {
		t.Row(row(r)...)
	}

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}

	s := doc.Summary
	for _, g := range s.Groups {
		if _, err := fmt.Fprintf(w, "%s: %d files, %d without f-number, %d bytes\n",
			g.Directory, g.Files, g.Missing(), g.TotalSize); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "total: %d files, %d bytes (%.2f%% of used disk space)\n",
		s.Files, s.TotalSize, s.DatasetPct)
	return err
}
