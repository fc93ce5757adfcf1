package xlsx

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/YoussefMamlouk/ophta-flow/internal/biometry"
)

const (
	// Headers normally live in row 2 (row 1 is a title band); row 1 is the
	// fallback for flat workbooks.
	primaryHeaderRow = 2

	// Scan bound when hunting for header cells.
	maxHeaderColumns = 100
)

// createColumns is the column set written when no existing workbook is
// provided. The tracking sheet carries two planning columns the extraction
// engine never fills.
var createColumns = []string{
	biometry.FieldPatientID,
	biometry.FieldAge,
	biometry.FieldEye,
	biometry.FieldAL,
	biometry.FieldPachy,
	biometry.FieldACD,
	biometry.FieldLT,
	"PUISSANCE IOL",
	"TORIQUE PROG EDOF",
	biometry.FieldK1,
	biometry.FieldK2,
	biometry.FieldWTW,
	biometry.FieldAxis,
}

// numericFields are coerced to float/int (comma as decimal separator)
// before being written, so spreadsheet formulas can consume them.
var numericFields = map[string]bool{
	biometry.FieldAL:    true,
	biometry.FieldACD:   true,
	biometry.FieldLT:    true,
	biometry.FieldPachy: true,
	biometry.FieldWTW:   true,
	biometry.FieldK1:    true,
	biometry.FieldK2:    true,
	biometry.FieldAge:   true,
	"PUISSANCE IOL":     true,
	"TORIQUE PROG EDOF": true,
}

var nonDigitRe = regexp.MustCompile(`\D`)

// Merger appends measurement records to a tracking workbook without
// disturbing formulas, formatting, or rows outside the written columns.
type Merger struct {
	sheetName string
}

// NewMerger creates a merger targeting the given worksheet name.
func NewMerger(sheetName string) *Merger {
	return &Merger{sheetName: sheetName}
}

// Merge loads the workbook at existingPath, appends rows after the last
// populated data row, and saves the result to outputPath. When existingPath
// is empty a fresh workbook is created instead.
func (m *Merger) Merge(existingPath string, rows []biometry.Record, outputPath string) error {
	if existingPath == "" {
		return m.Create(rows, outputPath)
	}

	f, err := excelize.OpenFile(existingPath)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if err := m.ensureSheet(f); err != nil {
		return err
	}

	headerRow, columns, err := m.locateHeaders(f)
	if err != nil {
		return err
	}

	sheetRows, err := f.GetRows(m.sheetName)
	if err != nil {
		return fmt.Errorf("failed to read sheet rows: %w", err)
	}

	lastDataRow := m.findLastDataRow(sheetRows, headerRow, columns)
	firstFreeRow := m.findFirstFreeRow(sheetRows, headerRow, lastDataRow, columns)

	accepted := m.dedupe(sheetRows, headerRow, columns, rows)

	// Formatting template: most recent data row, else the header row.
	templateRow := headerRow
	if lastDataRow > headerRow {
		templateRow = lastDataRow
	}

	maxStyleCol := maxColumnIndex(columns)
	currentRow := firstFreeRow
	for _, record := range accepted {
		if err := m.copyRowFormatting(f, templateRow, currentRow, maxStyleCol); err != nil {
			return err
		}
		if err := m.writeRecord(f, columns, currentRow, record); err != nil {
			return err
		}
		currentRow++
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Create builds a new workbook with the canonical column layout: an empty
// title row, headers in row 2, data from row 3.
func (m *Merger) Create(rows []biometry.Record, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", m.sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for colIdx, name := range createColumns {
		cell, err := excelize.CoordinatesToCellName(colIdx+1, primaryHeaderRow)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(m.sheetName, cell, name); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for rowIdx, record := range rows {
		for colIdx, name := range createColumns {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, primaryHeaderRow+1+rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(m.sheetName, cell, coerceValue(name, record[name])); err != nil {
				return fmt.Errorf("failed to write value: %w", err)
			}
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// ensureSheet creates the target worksheet if the workbook lacks it.
func (m *Merger) ensureSheet(f *excelize.File) error {
	index, err := f.GetSheetIndex(m.sheetName)
	if err != nil {
		return fmt.Errorf("failed to look up sheet: %w", err)
	}
	if index == -1 {
		if _, err := f.NewSheet(m.sheetName); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
	}
	return nil
}

// locateHeaders builds the field-name to column-number (1-based) mapping
// from row 2, falling back to row 1.
func (m *Merger) locateHeaders(f *excelize.File) (int, map[string]int, error) {
	for _, headerRow := range []int{primaryHeaderRow, 1} {
		columns := make(map[string]int)
		for col := 1; col <= maxHeaderColumns; col++ {
			cell, err := excelize.CoordinatesToCellName(col, headerRow)
			if err != nil {
				return 0, nil, err
			}
			value, err := f.GetCellValue(m.sheetName, cell)
			if err != nil {
				return 0, nil, fmt.Errorf("failed to read header cell: %w", err)
			}
			if header := strings.TrimSpace(value); header != "" {
				if _, ok := columns[header]; !ok {
					columns[header] = col
				}
			}
		}
		if len(columns) > 0 {
			return headerRow, columns, nil
		}
	}
	return primaryHeaderRow, map[string]int{}, nil
}

// findLastDataRow returns the last row carrying any value in a mapped
// column, or headerRow when no data rows exist.
func (m *Merger) findLastDataRow(sheetRows [][]string, headerRow int, columns map[string]int) int {
	last := headerRow
	for rowIdx := headerRow + 1; rowIdx <= len(sheetRows); rowIdx++ {
		row := sheetRows[rowIdx-1]
		for _, col := range columns {
			if col <= len(row) && strings.TrimSpace(row[col-1]) != "" {
				last = rowIdx
				break
			}
		}
	}
	return last
}

// findFirstFreeRow returns the first structurally empty data row: the first
// row where both the patient identifier and eye side cells are empty.
func (m *Merger) findFirstFreeRow(sheetRows [][]string, headerRow, lastDataRow int, columns map[string]int) int {
	idCol, idOK := columns[biometry.FieldPatientID]
	eyeCol, eyeOK := columns[biometry.FieldEye]
	if idOK && eyeOK {
		for rowIdx := headerRow + 1; rowIdx <= len(sheetRows); rowIdx++ {
			row := sheetRows[rowIdx-1]
			if cellAt(row, idCol) == "" && cellAt(row, eyeCol) == "" {
				return rowIdx
			}
		}
	}
	if lastDataRow > headerRow {
		return lastDataRow + 1
	}
	return headerRow + 1
}

// dedupe drops records whose (patient id, eye side) pair already exists in
// the sheet or earlier in the same batch. Records lacking either key are
// dropped as well.
func (m *Merger) dedupe(sheetRows [][]string, headerRow int, columns map[string]int, rows []biometry.Record) []biometry.Record {
	seen := make(map[string]bool)

	idCol, idOK := columns[biometry.FieldPatientID]
	eyeCol, eyeOK := columns[biometry.FieldEye]
	if idOK && eyeOK {
		for rowIdx := headerRow + 1; rowIdx <= len(sheetRows); rowIdx++ {
			row := sheetRows[rowIdx-1]
			id := cellAt(row, idCol)
			eye := cellAt(row, eyeCol)
			if id != "" && eye != "" {
				seen[id+"\x00"+eye] = true
			}
		}
	}

	var accepted []biometry.Record
	for _, record := range rows {
		id := strings.TrimSpace(record[biometry.FieldPatientID])
		eye := strings.TrimSpace(record[biometry.FieldEye])
		key := id + "\x00" + eye
		if id == "" || eye == "" || seen[key] {
			continue
		}
		seen[key] = true
		accepted = append(accepted, record)
	}
	return accepted
}

// copyRowFormatting clones cell styles and the row height from the template
// row into the target row, before any values are written.
func (m *Merger) copyRowFormatting(f *excelize.File, templateRow, targetRow, maxCol int) error {
	if height, err := f.GetRowHeight(m.sheetName, templateRow); err == nil && height > 0 {
		_ = f.SetRowHeight(m.sheetName, targetRow, height)
	}

	for col := 1; col <= maxCol; col++ {
		srcCell, err := excelize.CoordinatesToCellName(col, templateRow)
		if err != nil {
			return err
		}
		dstCell, err := excelize.CoordinatesToCellName(col, targetRow)
		if err != nil {
			return err
		}
		styleID, err := f.GetCellStyle(m.sheetName, srcCell)
		if err != nil {
			continue
		}
		_ = f.SetCellStyle(m.sheetName, dstCell, dstCell, styleID)
	}
	return nil
}

// writeRecord writes one record into its mapped columns only, leaving every
// other cell (and its formulas) untouched.
func (m *Merger) writeRecord(f *excelize.File, columns map[string]int, row int, record biometry.Record) error {
	for field, value := range record {
		col, ok := columns[field]
		if !ok {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(m.sheetName, cell, coerceValue(field, value)); err != nil {
			return fmt.Errorf("failed to write %s: %w", field, err)
		}
	}
	return nil
}

// coerceValue converts a string field value to the type the sheet expects:
// identifiers and the implant axis become integers when they carry digits,
// measurement fields become numbers, anything else stays a string.
func coerceValue(field, value string) interface{} {
	if value == "" {
		return value
	}

	switch {
	case field == biometry.FieldPatientID || field == biometry.FieldAxis:
		digits := nonDigitRe.ReplaceAllString(value, "")
		if digits == "" {
			return strings.TrimSpace(value)
		}
		if n, err := strconv.Atoi(digits); err == nil {
			return n
		}
		return digits
	case numericFields[field]:
		num := strings.TrimSpace(strings.ReplaceAll(value, ",", "."))
		if strings.Contains(num, ".") {
			if v, err := strconv.ParseFloat(num, 64); err == nil {
				return v
			}
		} else if v, err := strconv.Atoi(num); err == nil {
			return v
		}
		return value
	default:
		return value
	}
}

func cellAt(row []string, col int) string {
	if col <= len(row) {
		return strings.TrimSpace(row[col-1])
	}
	return ""
}

func maxColumnIndex(columns map[string]int) int {
	max := 0
	for _, col := range columns {
		if col > max {
			max = col
		}
	}
	if max < maxHeaderColumns {
		max = maxHeaderColumns
	}
	return max
}
