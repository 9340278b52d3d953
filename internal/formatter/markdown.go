// Package formatter renders run results as markdown reports, HTML reports and
// interactive graph pages, and keeps markdown tables aligned.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"newsgraph/pkg/metadata"
)

// alignment of a table column, taken from the separator row.
type alignment int

const (
	alignNone alignment = iota
	alignLeft
	alignCenter
	alignRight
)

// minColumnWidth keeps separators at least "---".
const minColumnWidth = 3

// FormatMarkdown aligns every table in content and re-signs it.
// An existing metadata block keeps its version, run id and validation flag.
func FormatMarkdown(content string) (string, error) {
	meta, clean := metadata.Extract(content)

	return metadata.Sign(AlignTables(clean), meta), nil
}

// AlignTables pads the cells of every markdown table so columns line up by display width.
func AlignTables(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))

	var table []string

	flush := func() {
		if len(table) > 0 {
			out = append(out, alignTable(table)...)
			table = nil
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
			table = append(table, trimmed)

			continue
		}

		flush()

		out = append(out, line)
	}

	flush()

	return strings.Join(out, "\n")
}

// EscapeCell makes s safe to place inside a table cell.
func EscapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")

	return strings.ReplaceAll(s, "|", `\|`)
}

func alignTable(rows []string) []string {
	// A header needs its separator to be a table.
	if len(rows) < 2 {
		return rows
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = SplitRow(row)
	}

	aligns, ok := parseSeparator(cells[1])
	if !ok {
		return rows
	}

	colCount := 0
	for _, row := range cells {
		colCount = max(colCount, len(row))
	}

	widths := make([]int, colCount)
	for i := range widths {
		widths[i] = minColumnWidth
	}

	for r, row := range cells {
		if r == 1 {
			continue
		}

		for c, cell := range row {
			widths[c] = max(widths[c], runewidth.StringWidth(cell))
		}
	}

	out := make([]string, 0, len(cells))

	for r, row := range cells {
		var sb strings.Builder

		sb.WriteString("|")

		for c := range colCount {
			align := alignNone
			if c < len(aligns) {
				align = aligns[c]
			}

			sb.WriteString(" ")

			if r == 1 {
				sb.WriteString(separatorCell(align, widths[c]))
			} else {
				cell := ""
				if c < len(row) {
					cell = row[c]
				}

				sb.WriteString(padCell(cell, align, widths[c]))
			}

			sb.WriteString(" |")
		}

		out = append(out, sb.String())
	}

	return out
}

// SplitRow splits a "| a | b |" row into trimmed cells. Escaped pipes stay inside their cell.
func SplitRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")

	if strings.HasSuffix(row, "|") && !strings.HasSuffix(row, `\|`) {
		row = row[:len(row)-1]
	}

	var (
		cells []string
		cur   strings.Builder
	)

	for i := 0; i < len(row); i++ {
		switch {
		case row[i] == '\\' && i+1 < len(row) && row[i+1] == '|':
			cur.WriteString(`\|`)
			i++
		case row[i] == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(row[i])
		}
	}

	return append(cells, strings.TrimSpace(cur.String()))
}

// IsSeparatorRow reports whether row is a table header separator such as "| --- | ---: |".
func IsSeparatorRow(row string) bool {
	_, ok := parseSeparator(SplitRow(row))

	return ok
}

func parseSeparator(cells []string) ([]alignment, bool) {
	aligns := make([]alignment, len(cells))

	for i, cell := range cells {
		cell = strings.ReplaceAll(cell, " ", "")

		left := strings.HasPrefix(cell, ":")
		right := strings.HasSuffix(cell, ":")
		dashes := strings.Trim(cell, ":")

		if dashes == "" || strings.Trim(dashes, "-") != "" {
			return nil, false
		}

		switch {
		case left && right:
			aligns[i] = alignCenter
		case right:
			aligns[i] = alignRight
		case left:
			aligns[i] = alignLeft
		}
	}

	return aligns, true
}

func separatorCell(align alignment, width int) string {
	switch align {
	case alignLeft:
		return ":" + strings.Repeat("-", width-1)
	case alignRight:
		return strings.Repeat("-", width-1) + ":"
	case alignCenter:
		return ":" + strings.Repeat("-", width-2) + ":"
	default:
		return strings.Repeat("-", width)
	}
}

func padCell(cell string, align alignment, width int) string {
	padding := max(width-runewidth.StringWidth(cell), 0)

	switch align {
	case alignRight:
		return strings.Repeat(" ", padding) + cell
	case alignCenter:
		left := padding / 2

		return strings.Repeat(" ", left) + cell + strings.Repeat(" ", padding-left)
	default:
		return cell + strings.Repeat(" ", padding)
	}
}
