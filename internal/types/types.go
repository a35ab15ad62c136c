// =============================================================================
// Ledger Import - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - xlsxparser / xlsxwriter (reading and writing rows)
//   - converter (transforming and reconciling rows)
//   - ledger (submitting entries)
//
// =============================================================================

package types

import (
	"strings"
	"time"
)

// =============================================================================
// LOGICAL FIELDS
// =============================================================================

// Logical field names. Header cells are mapped onto these via the
// configured column mapping.
const (
	FieldCategory        = "category"
	FieldAmount          = "amount"
	FieldDate            = "date"
	FieldDescription     = "description"
	FieldRecipientSender = "recipient_sender"
	FieldIsIncome        = "is_income"
	FieldNoInvoice       = "no_invoice"
)

// LogicalFields lists every field the transformer reads, in extraction order.
var LogicalFields = []string{
	FieldCategory,
	FieldAmount,
	FieldDate,
	FieldDescription,
	FieldRecipientSender,
	FieldIsIncome,
	FieldNoInvoice,
}

// IsLogicalField reports whether name is one of LogicalFields.
func IsLogicalField(name string) bool {
	for _, f := range LogicalFields {
		if f == name {
			return true
		}
	}
	return false
}

// PaymentMethodBankTransfer is the only payment method the importer submits.
const PaymentMethodBankTransfer = "bank_transfer"

// EntryDateLayout is the date-time format sent to the ledger (seconds precision).
const EntryDateLayout = "2006-01-02T15:04:05"

// =============================================================================
// CELL AND ROW TYPES
// =============================================================================

// CellKind identifies what a spreadsheet cell holds.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellDate
	CellBool
)

// String returns the kind name used in diagnostics.
func (k CellKind) String() string {
	switch k {
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	case CellDate:
		return "date"
	case CellBool:
		return "bool"
	default:
		return "empty"
	}
}

// Cell is a single value read from the source sheet.
type Cell struct {
	// Kind is the detected cell type.
	Kind CellKind

	// Value is the raw cell text. For numbers this is the unformatted
	// decimal literal as stored in the workbook, so amounts can be parsed
	// without going through float64.
	Value string

	// Time is set for CellDate.
	Time time.Time

	// Bool is set for CellBool.
	Bool bool
}

// Text builds a text cell. An empty string yields an empty cell.
func Text(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Value: s}
}

// Number builds a number cell from its decimal literal.
func Number(literal string) Cell {
	return Cell{Kind: CellNumber, Value: literal}
}

// Date builds a date cell.
func Date(t time.Time) Cell {
	return Cell{Kind: CellDate, Time: t, Value: t.Format(EntryDateLayout)}
}

// Bool builds a boolean cell.
func Bool(b bool) Cell {
	v := "FALSE"
	if b {
		v = "TRUE"
	}
	return Cell{Kind: CellBool, Bool: b, Value: v}
}

// IsEmpty reports whether the cell carries no value.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// String returns the cell's textual form.
func (c Cell) String() string {
	switch c.Kind {
	case CellEmpty:
		return ""
	case CellDate:
		return c.Time.Format(EntryDateLayout)
	default:
		return c.Value
	}
}

// RawRow is one data row as read from the source sheet. It is never modified
// after reading; output workbooks are written from the same values.
type RawRow []Cell

// IsBlank reports whether every cell in the row is empty.
func (r RawRow) IsBlank() bool {
	for _, c := range r {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// String renders the row for diagnostics.
func (r RawRow) String() string {
	parts := make([]string, len(r))
	for i, c := range r {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " | ") + "]"
}

// ColumnIndexMap maps a logical field name to a column index in RawRow.
// Fields absent from the header are absent from the map.
type ColumnIndexMap map[string]int

// =============================================================================
// LEDGER TYPES
// =============================================================================

// CategoryTable maps a category display name (case-sensitive) to the
// ledger's category id.
type CategoryTable map[string]int64

// NormalizedEntry is the submission-ready form of a row.
type NormalizedEntry struct {
	CategoryID      int64  `json:"category_id"`
	Amount          int64  `json:"amount"`
	IsIncome        bool   `json:"is_income"`
	RecipientSender string `json:"recipient_sender"`
	PaymentMethod   string `json:"payment_method"`
	Description     string `json:"description"`
	NoInvoice       bool   `json:"no_invoice"`
	Date            string `json:"date"`
}
