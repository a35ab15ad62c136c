// =============================================================================
// Ledger Import - Row Transformer
// =============================================================================
//
// This module turns one raw spreadsheet row into a ledger entry, or rejects
// it with a typed reason.
//
// TRANSFORMATION STEPS (in order, first rejection wins except step 7):
//   1. Blank row            -> BlankRow (silent)
//   2. Extract the fields   -> FieldMissing
//   3. Parse the date       -> DateParseError
//   4. Parse the amount     -> AmountParseError
//   5. Parse the flags      (never fails)
//   6. Resolve the category -> CategoryNotFound (warning)
//   7. Required fields      -> RequiredFieldMissing (all missing fields at once)
//   8. Build the entry
//
// AMOUNTS:
//   The sign of the amount column is dropped. Whether an entry is income or
//   expense is carried only by is_income.
//
// =============================================================================

package converter

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/ledger-import/internal/types"
	"github.com/ginjaninja78/ledger-import/internal/validation"
)

// =============================================================================
// REJECTIONS
// =============================================================================

// RejectionKind is the closed set of reasons a row can be rejected for.
type RejectionKind int

const (
	BlankRow RejectionKind = iota + 1
	FieldMissing
	DateParseError
	AmountParseError
	CategoryNotFound
	RequiredFieldMissing
)

func (k RejectionKind) String() string {
	switch k {
	case BlankRow:
		return "BlankRow"
	case FieldMissing:
		return "FieldMissing"
	case DateParseError:
		return "DateParseError"
	case AmountParseError:
		return "AmountParseError"
	case CategoryNotFound:
		return "CategoryNotFound"
	case RequiredFieldMissing:
		return "RequiredFieldMissing"
	default:
		return fmt.Sprintf("RejectionKind(%d)", int(k))
	}
}

// Rejection explains why a row could not be transformed.
type Rejection struct {
	Kind RejectionKind

	// Field names the offending field for FieldMissing, DateParseError and
	// AmountParseError.
	Field string

	// Value is the offending cell text, or the category name for
	// CategoryNotFound.
	Value string

	// Fields lists every missing field for RequiredFieldMissing.
	Fields []string
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	switch r.Kind {
	case BlankRow:
		return "blank row"
	case FieldMissing:
		return fmt.Sprintf("column for %q is missing", r.Field)
	case DateParseError:
		return fmt.Sprintf("%s %q is not a date", r.Field, r.Value)
	case AmountParseError:
		return fmt.Sprintf("%s %q is not a number", r.Field, r.Value)
	case CategoryNotFound:
		return fmt.Sprintf("Category %q not found", r.Value)
	case RequiredFieldMissing:
		return "Missing required fields: " + strings.Join(r.Fields, ", ")
	default:
		return r.Kind.String()
	}
}

// =============================================================================
// PURE TRANSFORMATION
// =============================================================================

// affirmativeTokens are the values accepted as boolean true, compared
// case-insensitively.
var affirmativeTokens = []string{"ja", "yes", "true"}

// ParseAffirmative reports whether text is one of ja, yes or true, ignoring
// case. Everything else, the empty string included, is false.
func ParseAffirmative(text string) bool {
	for _, token := range affirmativeTokens {
		if strings.EqualFold(text, token) {
			return true
		}
	}
	return false
}

// TransformRow converts a row without emitting diagnostics. Exactly one of
// the results is non-nil.
func TransformRow(row types.RawRow, categories types.CategoryTable, columns types.ColumnIndexMap) (*types.NormalizedEntry, *Rejection) {
	// STEP 1: structural blank
	if row.IsBlank() {
		return nil, &Rejection{Kind: BlankRow}
	}

	// STEP 2: extract
	cells := make(map[string]types.Cell, len(types.LogicalFields))
	for _, field := range types.LogicalFields {
		idx, ok := columns[field]
		if !ok || idx < 0 || idx >= len(row) {
			return nil, &Rejection{Kind: FieldMissing, Field: field}
		}
		cells[field] = row[idx]
	}

	// STEP 3: date
	dateCell := cells[types.FieldDate]
	if dateCell.Kind != types.CellDate {
		return nil, &Rejection{Kind: DateParseError, Field: types.FieldDate, Value: dateCell.String()}
	}
	date := dateCell.Time.Format(types.EntryDateLayout)

	// STEP 4: amount
	amount, ok := parseMinorUnits(cells[types.FieldAmount])
	if !ok {
		return nil, &Rejection{Kind: AmountParseError, Field: types.FieldAmount, Value: cells[types.FieldAmount].String()}
	}

	// STEP 5: flags
	isIncome := parseFlag(cells[types.FieldIsIncome])
	noInvoice := parseFlag(cells[types.FieldNoInvoice])

	// STEP 6: category
	categoryName := cells[types.FieldCategory].String()
	categoryID, ok := categories[categoryName]
	if !ok {
		return nil, &Rejection{Kind: CategoryNotFound, Value: categoryName}
	}

	// STEP 7 + 8
	entry := &types.NormalizedEntry{
		CategoryID:      categoryID,
		Amount:          amount,
		IsIncome:        isIncome,
		RecipientSender: cells[types.FieldRecipientSender].String(),
		PaymentMethod:   types.PaymentMethodBankTransfer,
		Description:     cells[types.FieldDescription].String(),
		NoInvoice:       noInvoice,
		Date:            date,
	}
	if missing := validation.MissingFields(entry); len(missing) > 0 {
		return nil, &Rejection{Kind: RequiredFieldMissing, Fields: missing}
	}

	return entry, nil
}

// parseMinorUnits converts an amount cell to minor currency units: the
// absolute value times 100, with any fraction of a minor unit truncated.
// Number cells and text cells holding a decimal literal are accepted. Amounts
// that do not fit in an int64 are rejected.
func parseMinorUnits(cell types.Cell) (int64, bool) {
	if cell.Kind != types.CellNumber && cell.Kind != types.CellText {
		return 0, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(cell.Value))
	if err != nil {
		return 0, false
	}
	minor := d.Abs().Shift(2).Truncate(0)
	if minor.GreaterThan(maxMinorUnits) {
		return 0, false
	}
	return minor.IntPart(), true
}

// maxMinorUnits is the largest amount an entry can carry.
var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

func parseFlag(cell types.Cell) bool {
	if cell.Kind == types.CellBool {
		return cell.Bool
	}
	return ParseAffirmative(cell.String())
}

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer wraps TransformRow and reports rejections through the logger.
type Transformer struct {
	logger zerolog.Logger
}

// NewTransformer creates a Transformer that logs to logger.
func NewTransformer(logger zerolog.Logger) *Transformer {
	return &Transformer{logger: logger}
}

// Transform converts a row and emits the diagnostic for a rejection:
// a warning for CategoryNotFound, nothing for BlankRow, an error otherwise.
func (t *Transformer) Transform(row types.RawRow, categories types.CategoryTable, columns types.ColumnIndexMap) (*types.NormalizedEntry, *Rejection) {
	entry, rejection := TransformRow(row, categories, columns)
	if rejection == nil {
		return entry, nil
	}

	switch rejection.Kind {
	case BlankRow:
		// Trailing empty sheet rows are common; stay quiet.
	case CategoryNotFound:
		t.logger.Warn().
			Str("category", rejection.Value).
			Stringer("row", row).
			Msg(rejection.Error())
	default:
		event := t.logger.Error().
			Str("reason", rejection.Kind.String()).
			Stringer("row", row)
		if len(rejection.Fields) > 0 {
			event = event.Strs("missing_fields", rejection.Fields)
		}
		event.Msgf("Error transforming data for row: %s", rejection.Error())
	}

	return nil, rejection
}
