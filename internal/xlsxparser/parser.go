// =============================================================================
// Ledger Import - XLSX Workbook Parser
// =============================================================================
//
// This module reads the input workbook: the header row, which is used to build
// the ColumnIndexMap, and every data row as a RawRow of typed cells.
//
// CELL TYPING:
//   The transformer needs to know what a cell really holds, not only how it is
//   displayed. Each cell is classified as:
//
//   | Workbook cell                                | Cell kind |
//   |----------------------------------------------|-----------|
//   | no value                                     | empty     |
//   | shared/inline string, formula string, error  | text      |
//   | number with a general or numeric format      | number    |
//   | number with a date/time number format        | date      |
//   | ISO 8601 date cell (t="d")                   | date      |
//   | boolean                                      | bool      |
//
//   Numbers keep their raw literal so that amounts never pass through float64
//   formatting.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ledger-import/internal/types"
)

// =============================================================================
// SHEET STRUCTURE
// =============================================================================

// Sheet is the parsed content of the input sheet.
type Sheet struct {
	// SourceFile is the path of the workbook.
	SourceFile string

	// SheetName is the sheet that was read.
	SheetName string

	// Header is the first row, kept verbatim so output workbooks can repeat it.
	Header types.RawRow

	// Rows are the data rows in file order. Each row is padded to the header
	// width.
	Rows []types.RawRow
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the first sheet of the workbook at path.
func Parse(path string) (*Sheet, error) {
	return ParseSheet(path, "")
}

// ParseSheet reads the named sheet of the workbook at path. An empty sheet
// name selects the first sheet.
func ParseSheet(path, sheetName string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	} else if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return nil, fmt.Errorf("workbook has no sheet %q", sheetName)
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheetName)
	}

	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook properties: %w", err)
	}

	reader := &cellReader{
		file:       f,
		sheet:      sheetName,
		date1904:   props.Date1904 != nil && *props.Date1904,
		dateStyles: make(map[int]bool),
	}

	header, err := reader.readRow(rows[0], 0, len(rows[0]))
	if err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	sheet := &Sheet{
		SourceFile: path,
		SheetName:  sheetName,
		Header:     header,
		Rows:       make([]types.RawRow, 0, len(rows)-1),
	}

	width := len(header)
	for i := 1; i < len(rows); i++ {
		row, err := reader.readRow(rows[i], i, width)
		if err != nil {
			return nil, fmt.Errorf("error reading row %d: %w", i+1, err)
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet, nil
}

// BuildColumnIndex maps logical fields to header positions. mapping is
// header text -> logical field name; header text must match exactly.
// Headers not in the mapping are ignored, and fields whose header is missing
// are simply absent from the result.
func BuildColumnIndex(header types.RawRow, mapping map[string]string) types.ColumnIndexMap {
	columns := make(types.ColumnIndexMap)
	for i, cell := range header {
		if field, ok := mapping[cell.String()]; ok {
			columns[field] = i
		}
	}
	return columns
}

// =============================================================================
// CELL READING
// =============================================================================

type cellReader struct {
	file  *excelize.File
	sheet string

	// date1904 selects the workbook's 1904 date system for serial dates.
	date1904 bool

	// dateStyles caches whether a style id carries a date number format.
	dateStyles map[int]bool
}

// readRow converts the raw values of one row. rowIndex is 0-based.
func (r *cellReader) readRow(values []string, rowIndex, width int) (types.RawRow, error) {
	if len(values) > width {
		width = len(values)
	}
	row := make(types.RawRow, width)
	for col, raw := range values {
		if raw == "" {
			continue
		}
		axis, err := excelize.CoordinatesToCellName(col+1, rowIndex+1)
		if err != nil {
			return nil, err
		}
		cell, err := r.readCell(axis, raw)
		if err != nil {
			return nil, fmt.Errorf("cell %s: %w", axis, err)
		}
		row[col] = cell
	}
	return row, nil
}

func (r *cellReader) readCell(axis, raw string) (types.Cell, error) {
	cellType, err := r.file.GetCellType(r.sheet, axis)
	if err != nil {
		return types.Cell{}, err
	}

	switch cellType {
	case excelize.CellTypeBool:
		return types.Bool(raw == "1" || strings.EqualFold(raw, "true")), nil

	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return types.Date(t), nil
		}
		if t, err := time.Parse(types.EntryDateLayout, raw); err == nil {
			return types.Date(t), nil
		}
		return types.Text(raw), nil

	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return types.Text(raw), nil
		}
		isDate, err := r.hasDateFormat(axis)
		if err != nil {
			return types.Cell{}, err
		}
		if isDate {
			serial, _ := strconv.ParseFloat(raw, 64)
			t, err := excelize.ExcelDateToTime(serial, r.date1904)
			if err != nil {
				return types.Cell{}, err
			}
			return types.Date(t), nil
		}
		return types.Number(raw), nil

	default:
		return types.Text(raw), nil
	}
}

func (r *cellReader) hasDateFormat(axis string) (bool, error) {
	styleID, err := r.file.GetCellStyle(r.sheet, axis)
	if err != nil {
		return false, err
	}
	if isDate, ok := r.dateStyles[styleID]; ok {
		return isDate, nil
	}

	style, err := r.file.GetStyle(styleID)
	if err != nil {
		return false, err
	}
	isDate := IsDateNumFmt(style.NumFmt)
	if style.CustomNumFmt != nil {
		isDate = IsDateFormatCode(*style.CustomNumFmt)
	}
	r.dateStyles[styleID] = isDate
	return isDate, nil
}

// =============================================================================
// NUMBER FORMAT HELPERS
// =============================================================================

// IsDateNumFmt reports whether a built-in number format id is a date or time
// format (ECMA-376 18.8.30 plus the common locale-specific ids).
func IsDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

var (
	quotedLiteral = regexp.MustCompile(`"[^"]*"`)
	bracketed     = regexp.MustCompile(`\[[^\]]*\]`)
	escapedChar   = regexp.MustCompile(`\\.`)
	dateToken     = regexp.MustCompile(`[yYdDhHsS]|(^|[^A-Za-z])[mM]{1,5}([^A-Za-z]|$)`)
)

// IsDateFormatCode reports whether a custom number format code formats dates
// or times.
func IsDateFormatCode(code string) bool {
	if code == "" || strings.EqualFold(code, "general") {
		return false
	}
	// Only the positive section matters.
	if i := strings.Index(code, ";"); i >= 0 {
		code = code[:i]
	}
	code = quotedLiteral.ReplaceAllString(code, "")
	code = bracketed.ReplaceAllString(code, "")
	code = escapedChar.ReplaceAllString(code, "")
	return dateToken.MatchString(code)
}
