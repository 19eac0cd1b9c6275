// Package report renders patch results for the terminal.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"jsxpatch/internal/config"
	"jsxpatch/internal/patcher"
)

var header = []string{"Recipe", "Target", "Matches", "Status"}

// Table renders results as an aligned pipe table.
func Table(results []*patcher.FileResult) string {
	rows := [][]string{header}

	for _, r := range results {
		rows = append(rows, []string{r.Recipe, r.Path, strconv.Itoa(r.Matches), r.Status()})
	}

	return strings.Join(renderRows(rows), "\n")
}

// Recipes renders the configured recipes.
func Recipes(recipes []config.RecipeConfig) string {
	rows := [][]string{{"Name", "Target", "Mode", "On no match", "Enabled"}}

	for _, r := range recipes {
		rows = append(rows, []string{r.Name, r.Target, r.Mode, r.OnNoMatch, strconv.FormatBool(r.IsEnabled())})
	}

	return strings.Join(renderRows(rows), "\n")
}

// Summary returns a one-line count of outcomes.
func Summary(results []*patcher.FileResult) string {
	counts := make(map[string]int)
	for _, r := range results {
		counts[r.Status()]++
	}

	return fmt.Sprintf("Patched: %d  Would patch: %d  No match: %d  Skipped: %d",
		counts[patcher.StatusPatched],
		counts[patcher.StatusWouldPatch],
		counts[patcher.StatusNoMatch],
		counts[patcher.StatusSkipped],
	)
}

// renderRows pads every cell to its column's display width. The first row
// is the header and is followed by a dash separator.
func renderRows(table [][]string) []string {
	if len(table) == 0 {
		return nil
	}

	colCount := 0
	for _, row := range table {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	colWidths := make([]int, colCount)

	for _, row := range table {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	// A separator needs at least "---".
	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	result := make([]string, 0, len(table)+1)

	for i, row := range table {
		result = append(result, renderRow(row, colWidths))

		if i == 0 {
			sep := make([]string, colCount)
			for j := range sep {
				sep[j] = strings.Repeat("-", colWidths[j])
			}

			result = append(result, renderRow(sep, colWidths))
		}
	}

	return result
}

func renderRow(row []string, colWidths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, width := range colWidths {
		content := ""
		if j < len(row) {
			content = row[j]
		}

		sb.WriteString(" ")
		sb.WriteString(content)

		if padding := width - runewidth.StringWidth(content); padding > 0 {
			sb.WriteString(strings.Repeat(" ", padding))
		}

		sb.WriteString(" |")
	}

	return sb.String()
}
