package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/CTAG07/charkov/pkg/markov"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)

// writeTable writes an aligned table. The header is styled only when styled
// is set.
func writeTable(w io.Writer, headers []string, rows [][]string, rightAlignCols map[int]bool, styled bool) error {
	lines := formatTable(headers, rows, rightAlignCols)
	for i, line := range lines {
		if i == 0 && len(headers) > 0 && styled {
			line = headerStyle.Render(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		if rightAlignCols[i] {
			b.WriteString(runewidth.FillLeft(cell, widths[i]))
		} else if i < len(widths)-1 {
			b.WriteString(runewidth.FillRight(cell, widths[i]))
		} else {
			b.WriteString(cell)
		}
	}
	return b.String()
}

// tableRows flattens a trained table into one row per (window, char) pair.
// The window is only printed on the first row of its group.
func tableRows(table *markov.Table) [][]string {
	var rows [][]string
	for _, window := range table.Windows() {
		entries, _ := table.Entries(window)
		for i, cd := range entries {
			label := ""
			if i == 0 {
				label = strconv.Quote(window)
			}
			rows = append(rows, []string{
				label,
				strconv.QuoteRune(cd.Char),
				strconv.Itoa(cd.Count),
				strconv.FormatFloat(cd.P, 'f', 4, 64),
				strconv.FormatFloat(cd.CP, 'f', 4, 64),
			})
		}
	}
	return rows
}

func statsRows(stats markov.ModelStats) [][]string {
	return [][]string{
		{"order", strconv.Itoa(stats.Order)},
		{"windows", strconv.Itoa(stats.Windows)},
		{"transitions", strconv.Itoa(stats.Transitions)},
		{"observations", strconv.Itoa(stats.Observations)},
		{"alphabet", strconv.Itoa(stats.Alphabet)},
	}
}

func historyRows(runs []Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		id := run.ID
		if len(id) > 8 {
			id = id[:8]
		}
		rows = append(rows, []string{
			id,
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(run.Order),
			run.Mode,
			strconv.Itoa(run.TargetLength),
			strconv.Itoa(run.OutputLength),
			run.StopReason,
			run.Duration.String(),
			run.CorpusPath,
		})
	}
	return rows
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
