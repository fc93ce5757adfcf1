package biometry

import (
	"regexp"
	"strings"

	"github.com/YoussefMamlouk/ophta-flow/internal/report"
)

// Row scan bound below the header; instrument tables never carry
// measurements further down than this.
const maxMeasurementRows = 20

var (
	axisDegreeRe = regexp.MustCompile(`@\s*(\d+)\s*°`)
	axisBareRe   = regexp.MustCompile(`@\s*(\d+)`)
)

// extractFromTable walks the rows below the resolved header and feeds both
// eye accumulators. Three pattern families run per cell; each writes with
// set-if-absent semantics so an earlier inline match is never overridden by
// a later positional one.
func extractFromTable(table report.Table, assign columnAssignment, od, os *accumulator) {
	if assign.headerRow == unresolved {
		extractWithoutHeader(table, od, os)
		return
	}

	limit := assign.headerRow + maxMeasurementRows
	if limit > len(table.Rows) {
		limit = len(table.Rows)
	}

	for rowIdx := assign.headerRow + 1; rowIdx < limit; rowIdx++ {
		row := table.Rows[rowIdx]
		if len(row) == 0 {
			continue
		}

		extractInline(row, assign, od, os)
		extractMultiline(row, od, os)
		extractByColumn(row, od, os)
	}
}

// target picks the accumulator a cell feeds: an exact column match against
// the resolved assignment wins, otherwise the column half decides.
func target(colIdx int, assign columnAssignment, od, os *accumulator) *accumulator {
	switch {
	case assign.odCol != unresolved && colIdx == assign.odCol:
		return od
	case assign.osCol != unresolved && colIdx == assign.osCol:
		return os
	case colIdx < osFallbackColumn:
		return od
	default:
		return os
	}
}

// extractInline handles "AL: 24,18 mm" shaped cells.
func extractInline(row []string, assign columnAssignment, od, os *accumulator) {
	for colIdx, cell := range row {
		if cell == "" {
			continue
		}
		cellUpper := strings.ToUpper(cell)
		for _, m := range measurementTable {
			if !strings.Contains(cellUpper, m.Label+":") {
				continue
			}
			if val := extractValue(cell, m.Label); val != "" {
				target(colIdx, assign, od, os).setIfAbsent(m.Field, val)
			}
		}
	}
}

// extractMultiline handles cells where the label sits on the first line and
// the value on the next ("AL\n24,18mm\n...").
func extractMultiline(row []string, od, os *accumulator) {
	for colIdx, cell := range row {
		if !strings.Contains(cell, "\n") {
			continue
		}

		var lines []string
		for _, line := range strings.Split(cell, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
		if len(lines) < 2 {
			continue
		}

		firstLine := strings.ToUpper(lines[0])
		for _, m := range measurementTable {
			if !strings.Contains(firstLine, m.Label) {
				continue
			}
			val := extractValue(lines[1], m.Label)
			if val == "" {
				val = extractValue(cell, m.Label)
			}
			if val == "" {
				continue
			}
			if colIdx < osFallbackColumn {
				od.setIfAbsent(m.Field, val)
			} else {
				os.setIfAbsent(m.Field, val)
			}
		}
	}
}

// extractByColumn sweeps every cell by its column half, catching label
// mentions the stricter patterns missed, and picks up the implant axis next
// to the K1 reading.
func extractByColumn(row []string, od, os *accumulator) {
	for colIdx, cell := range row {
		if cell == "" {
			continue
		}
		acc := od
		if colIdx >= osFallbackColumn {
			acc = os
		}

		cellUpper := strings.ToUpper(cell)
		for _, m := range measurementTable {
			if !strings.Contains(cellUpper, m.Label) || acc.has(m.Field) {
				continue
			}
			if val := extractValue(cell, m.Label); val != "" {
				acc.setIfAbsent(m.Field, val)
			}
		}

		// The "@ 105°" axis marker rides along with the K1 reading.
		if strings.Contains(cellUpper, "K1") && !acc.has(FieldAxis) {
			if axis := extractAxis(cell, row, colIdx); axis != "" {
				acc.setIfAbsent(FieldAxis, axis)
			}
		}
	}
}

// extractAxis looks for "@" followed by a number and an optional degree
// mark, first in the cell itself, then in the neighbouring cell.
func extractAxis(cellText string, row []string, colIdx int) string {
	nextCell := ""
	if colIdx+1 < len(row) {
		nextCell = row[colIdx+1]
	}

	for _, re := range []*regexp.Regexp{axisDegreeRe, axisBareRe} {
		if m := re.FindStringSubmatch(cellText); m != nil {
			return m[1]
		}
		if nextCell != "" {
			if m := re.FindStringSubmatch(nextCell); m != nil {
				return m[1]
			}
		}
	}
	return ""
}

// extractWithoutHeader is the weakest branch: no header row was detected, so
// any row mentioning an eye side is scanned positionally, attributing the
// left half of the row to OD and the right half to OS.
func extractWithoutHeader(table report.Table, od, os *accumulator) {
	for rowIdx, row := range table.Rows {
		if len(row) == 0 {
			continue
		}
		rowText := strings.ToUpper(strings.Join(row, " "))
		hasOD := strings.Contains(rowText, EyeOD)
		hasOS := strings.Contains(rowText, EyeOS)
		if !hasOD && !hasOS {
			continue
		}

		for colIdx, cell := range row {
			cellUpper := strings.ToUpper(cell)
			for _, m := range measurementTable {
				if !strings.Contains(cellUpper, m.Label) {
					continue
				}
				val := valueNearCell(table, rowIdx, colIdx)
				if val == "" {
					continue
				}
				if hasOD && colIdx < len(row)/2 {
					od.setIfAbsent(m.Field, val)
				} else if hasOS && colIdx >= len(row)/2 {
					os.setIfAbsent(m.Field, val)
				}
			}
		}
	}
}

// valueNearCell tries the cell itself, the cell to its right, then the cell
// below for a clean numeric value.
func valueNearCell(table report.Table, rowIdx, colIdx int) string {
	row := table.Rows[rowIdx]

	if colIdx < len(row) {
		if val := cleanNumber(row[colIdx]); val != "" {
			return val
		}
	}
	if colIdx+1 < len(row) {
		if val := cleanNumber(row[colIdx+1]); val != "" {
			return val
		}
	}
	if rowIdx+1 < len(table.Rows) {
		below := table.Rows[rowIdx+1]
		if colIdx < len(below) {
			if val := cleanNumber(below[colIdx]); val != "" {
				return val
			}
		}
	}
	return ""
}
