package formatter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/penwyp/go-state-sight/internal/core/model"
)

// DefaultWidth is the table width used when the output is not a terminal.
const DefaultWidth = 120

const (
	minColumnWidth = 8
	ellipsis       = "…"
)

// TableFormatter renders change records as a box-drawn table whose cells are
// padded by display width, so wide runes stay aligned.
type TableFormatter struct {
	headers  []string
	maxWidth int
}

// NewTableFormatter returns a formatter limited to maxWidth columns. A
// non-positive width selects DefaultWidth.
func NewTableFormatter(maxWidth int) *TableFormatter {
	if maxWidth <= 0 {
		maxWidth = DefaultWidth
	}
	return &TableFormatter{
		headers:  []string{"Timestamp", "Attribute", "Previous", "Current"},
		maxWidth: maxWidth,
	}
}

// TerminalWidth returns the width of w when it is a terminal, DefaultWidth
// otherwise.
func TerminalWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return DefaultWidth
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width < 40 {
		return DefaultWidth
	}
	return width
}

// Format writes records to w.
func (f *TableFormatter) Format(w io.Writer, records []model.ChangeRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, tableRow(r))
	}
	widths := f.calculateColumnWidths(rows)

	var b strings.Builder
	f.writeBorder(&b, widths, "top")
	f.writeRow(&b, f.headers, widths)
	f.writeBorder(&b, widths, "middle")
	for _, row := range rows {
		f.writeRow(&b, row, widths)
	}
	f.writeBorder(&b, widths, "bottom")

	_, err := io.WriteString(w, b.String())
	return err
}

func tableRow(r model.ChangeRecord) []string {
	if r.IsInitial() {
		return []string{r.Timestamp, "", "", model.InitialStateMarker}
	}
	return []string{r.Timestamp, r.ChangedAttribute, cellText(r.Change.Previous), cellText(r.Change.Current)}
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	}
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// calculateColumnWidths sizes every column to its widest cell, then shrinks
// the widest non-timestamp column until the table fits maxWidth.
func (f *TableFormatter) calculateColumnWidths(rows [][]string) []int {
	widths := make([]int, len(f.headers))
	for i, h := range f.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	// Each column adds a separator and two spaces of padding.
	overhead := 1 + 3*len(widths)
	for total(widths)+overhead > f.maxWidth {
		widest := 1
		for i := 2; i < len(widths); i++ {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minColumnWidth {
			break
		}
		widths[widest]--
	}
	return widths
}

func total(widths []int) int {
	sum := 0
	for _, w := range widths {
		sum += w
	}
	return sum
}

func (f *TableFormatter) writeBorder(b *strings.Builder, widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	default:
		left, middle, right = "└", "┴", "┘"
	}

	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	b.WriteByte('\n')
}

func (f *TableFormatter) writeRow(b *strings.Builder, values []string, widths []int) {
	b.WriteString("│")
	for i, value := range values {
		value = strings.ReplaceAll(value, "\n", " ")
		if runewidth.StringWidth(value) > widths[i] {
			value = runewidth.Truncate(value, widths[i], ellipsis)
		}
		b.WriteString(" ")
		b.WriteString(runewidth.FillRight(value, widths[i]))
		b.WriteString(" │")
	}
	b.WriteByte('\n')
}
