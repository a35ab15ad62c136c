// =============================================================================
// Ledger Import - XLSX Writer Module
// =============================================================================
//
// This module writes a bucket of original rows (successful or failed) back to
// a new workbook so an operator can review, fix and re-import them.
//
// OUTPUT STRUCTURE:
//   Row 1   : the original header row, unchanged
//   Row 2.. : the original rows of the bucket, in input order, unchanged
//
//   Cells are written with their original kind: dates stay dates, numbers
//   stay numbers, so a fixed failed file can be fed straight back into the
//   importer.
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ledger-import/internal/types"
)

// SheetName is the name of the single sheet in every output workbook.
const SheetName = "Sheet1"

// Writer writes one output workbook.
type Writer interface {
	Write(path string, header types.RawRow, rows []types.RawRow) error
}

// WorkbookWriter writes .xlsx files with excelize.
type WorkbookWriter struct{}

// New returns a WorkbookWriter.
func New() *WorkbookWriter {
	return &WorkbookWriter{}
}

// Write creates the workbook at path. An existing file is overwritten.
func (w *WorkbookWriter) Write(path string, header types.RawRow, rows []types.RawRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeRow(f, 1, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		if err := writeRow(f, i+2, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// writeRow writes one row starting at column A. rowNumber is 1-based.
func writeRow(f *excelize.File, rowNumber int, row types.RawRow) error {
	if len(row) == 0 {
		return nil
	}
	axis, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(row))
	for i, cell := range row {
		values[i] = cellValue(cell)
	}
	return f.SetSheetRow(SheetName, axis, &values)
}

// cellValue converts a cell back into the Go value excelize stores with the
// matching cell type.
func cellValue(cell types.Cell) interface{} {
	switch cell.Kind {
	case types.CellEmpty:
		return nil
	case types.CellDate:
		return cell.Time
	case types.CellBool:
		return cell.Bool
	case types.CellNumber:
		if v, err := strconv.ParseFloat(cell.Value, 64); err == nil {
			return v
		}
		return cell.Value
	default:
		return cell.Value
	}
}
