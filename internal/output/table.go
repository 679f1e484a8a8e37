package output

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TableStyle defines the style for table output.
type TableStyle struct {
	// Border is the border style.
	Border lipgloss.Border

	// BorderColor is the color for borders.
	BorderColor lipgloss.Color

	// HeaderStyle is the style for header cells.
	HeaderStyle lipgloss.Style

	// CellStyle is the style for regular cells.
	CellStyle lipgloss.Style
}

// DefaultTableStyle returns the default table style.
func DefaultTableStyle() TableStyle {
	return TableStyle{
		Border:      lipgloss.NormalBorder(),
		BorderColor: ColorDimGray,
		HeaderStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		CellStyle:   lipgloss.NewStyle(),
	}
}

// Table represents a styled table.
type Table struct {
	headers []string
	rows    [][]string
	style   TableStyle
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		style:   DefaultTableStyle(),
	}
}

// Row adds a row to the table.
func (t *Table) Row(cells ...string) *Table {
	t.rows = append(t.rows, cells)
	return t
}

// SetStyle sets the table style.
func (t *Table) SetStyle(style TableStyle) *Table {
	t.style = style
	return t
}

// String renders the table as a string.
func (t *Table) String() string {
	tbl := table.New().
		Border(t.style.Border).
		BorderStyle(lipgloss.NewStyle().Foreground(t.style.BorderColor)).
		Headers(t.headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return t.style.HeaderStyle
			}
			return t.style.CellStyle
		})

	for _, row := range t.rows {
		tbl.Row(row...)
	}

	return tbl.String()
}

// ComponentRow is one promoted component in a listing.
type ComponentRow struct {
	Name string
	Kind string
	Key  string
}

// RenderComponentTable renders promoted components.
func RenderComponentTable(rows []ComponentRow) string {
	t := NewTable("NAME", "KIND", "PACKAGE")
	for _, r := range rows {
		t.Row(r.Name, r.Kind, r.Key)
	}
	return t.String()
}

// EntryRow is one active loader entry in a listing.
type EntryRow struct {
	Key     string
	Version string
	Source  string
	Units   int
}

// RenderEntryTable renders the active loader entries.
func RenderEntryTable(rows []EntryRow) string {
	t := NewTable("KEY", "VERSION", "UNITS", "SOURCE")
	for _, r := range rows {
		t.Row(r.Key, r.Version, strconv.Itoa(r.Units), r.Source)
	}
	return t.String()
}
