package biometry

import (
	"regexp"
	"strings"

	"github.com/YoussefMamlouk/ophta-flow/internal/report"
)

// unresolved marks a header row or column index the resolver could not pin
// down.
const unresolved = -1

// Positional fallback pivot: on the observed layout family the right-eye
// block starts at column 0 and the left-eye block at column 4. This is a
// layout-specific guess kept for compatibility; see DESIGN.md.
const osFallbackColumn = 4

var alInlineRe = regexp.MustCompile(`AL:\s*([\d,\.]+)`)

// columnAssignment is the per-table mapping from eye side to column,
// discovered once and reused for every row of that table.
type columnAssignment struct {
	headerRow int
	odCol     int
	osCol     int
}

// resolveLayout locates the header row carrying the eye-side markers and
// decides which column belongs to which eye. It works through a cascade of
// increasingly weak heuristics and never fails: when the layout gives no
// usable signal the fixed positional fallback is taken.
func resolveLayout(table report.Table) columnAssignment {
	assign := columnAssignment{headerRow: unresolved, odCol: unresolved, osCol: unresolved}

	for rowIdx, row := range table.Rows {
		if len(row) == 0 {
			continue
		}

		rowText := strings.ToUpper(strings.Join(row, " "))
		if !strings.Contains(rowText, EyeOD) && !strings.Contains(rowText, EyeOS) {
			continue
		}
		assign.headerRow = rowIdx

		// Distinctly labeled columns, first match only per side.
		for colIdx, cell := range row {
			if cell == "" {
				continue
			}
			cellText := strings.ToUpper(cell)
			hasOD := strings.Contains(cellText, EyeOD)
			hasOS := strings.Contains(cellText, EyeOS)
			switch {
			case hasOD && !hasOS && assign.odCol == unresolved:
				assign.odCol = colIdx
			case hasOS && !hasOD && assign.osCol == unresolved:
				assign.osCol = colIdx
			case hasOD && hasOS && assign.odCol == unresolved && assign.osCol == unresolved:
				// Combined header cell ("OD / OS"); both sides collide on the
				// same column until the data rows disambiguate them.
				assign.odCol = colIdx
				assign.osCol = colIdx
			}
		}

		// A combined header cell leaves both sides on the same column; look
		// at the data rows below for the real value columns.
		if assign.odCol != unresolved && assign.odCol == assign.osCol {
			disambiguateFromData(table, rowIdx, &assign)
		}

		if assign.odCol != unresolved && assign.odCol == assign.osCol {
			applyPositionalFallback(table, &assign)
		}

		break
	}

	if assign.headerRow != unresolved {
		if assign.odCol == unresolved {
			assign.odCol = 0
		}
		if assign.osCol == unresolved {
			assign.osCol = findOSColumn(table, assign.headerRow)
		}
	}

	return assign
}

// disambiguateFromData searches up to 10 rows below the header for value
// carrying columns: an "AL:" labeled cell or a multi-line cell naming AL or
// CCT. Columns in the left half of the row are taken as OD, the right half
// as OS.
func disambiguateFromData(table report.Table, headerRow int, assign *columnAssignment) {
	limit := headerRow + 10
	if limit > len(table.Rows) {
		limit = len(table.Rows)
	}

	for rowIdx := headerRow + 1; rowIdx < limit; rowIdx++ {
		row := table.Rows[rowIdx]
		if len(row) < 2 {
			continue
		}

		for colIdx, cell := range row {
			cellUpper := strings.ToUpper(cell)
			if !strings.Contains(cellUpper, "AL:") {
				continue
			}
			if m := alInlineRe.FindStringSubmatch(cellUpper); m != nil && isNumeric(m[1]) {
				if colIdx < len(row)/2 {
					if assign.odCol == unresolved || colIdx < assign.odCol {
						assign.odCol = colIdx
					}
				} else if assign.osCol == unresolved || colIdx > assign.odCol {
					assign.osCol = colIdx
				}
			}
		}

		for colIdx, cell := range row {
			if !strings.Contains(cell, "\n") {
				continue
			}
			cellUpper := strings.ToUpper(cell)
			if !strings.Contains(cellUpper, "AL") && !strings.Contains(cellUpper, "CCT") {
				continue
			}
			if colIdx < len(row)/2 {
				if assign.odCol == unresolved || colIdx < assign.odCol {
					assign.odCol = colIdx
				}
			} else if assign.osCol == unresolved || colIdx > assign.odCol {
				assign.osCol = colIdx
			}
		}

		if assign.odCol != unresolved && assign.osCol != unresolved && assign.odCol != assign.osCol {
			return
		}
	}
}

// applyPositionalFallback assigns the fixed-offset guess when nothing else
// separated the two sides.
func applyPositionalFallback(table report.Table, assign *columnAssignment) {
	maxCols := 0
	for _, row := range table.Rows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}

	assign.odCol = 0
	if maxCols >= osFallbackColumn {
		assign.osCol = osFallbackColumn
	} else if maxCols > 1 {
		assign.osCol = maxCols - 1
	} else {
		assign.osCol = 1
	}
}

// findOSColumn confirms the default OS column by probing the first data rows
// for an "AL:" value at the pivot position.
func findOSColumn(table report.Table, headerRow int) int {
	limit := headerRow + 6
	if limit > len(table.Rows) {
		limit = len(table.Rows)
	}
	for rowIdx := headerRow + 1; rowIdx < limit; rowIdx++ {
		row := table.Rows[rowIdx]
		if len(row) > osFallbackColumn &&
			strings.Contains(strings.ToUpper(row[osFallbackColumn]), "AL:") {
			return osFallbackColumn
		}
	}
	return osFallbackColumn
}
