package converter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/ledger-import/internal/logging"
	"github.com/ginjaninja78/ledger-import/internal/types"
)

// Column layout used by the tests: one column per logical field, in
// LogicalFields order.
func testColumns() types.ColumnIndexMap {
	columns := make(types.ColumnIndexMap, len(types.LogicalFields))
	for i, f := range types.LogicalFields {
		columns[f] = i
	}
	return columns
}

func testCategories() types.CategoryTable {
	return types.CategoryTable{"Office": 5, "Travel": 7}
}

var bookingDay = time.Date(2024, 10, 29, 0, 0, 0, 0, time.UTC)

// row builds a row in testColumns order.
func row(category string, amount types.Cell, date types.Cell, description, recipient string, isIncome, noInvoice types.Cell) types.RawRow {
	return types.RawRow{
		types.Text(category),
		amount,
		date,
		types.Text(description),
		types.Text(recipient),
		isIncome,
		noInvoice,
	}
}

func validRow() types.RawRow {
	return row("Office", types.Number("-12.5"), types.Date(bookingDay), "Printer paper", "Paper Shop", types.Text("nein"), types.Text("ja"))
}

// logLines decodes the JSON lines written by a test logger.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		lines = append(lines, m)
	}
	return lines
}

func levels(lines []map[string]any) []string {
	var out []string
	for _, l := range lines {
		out = append(out, l["level"].(string))
	}
	return out
}

// =============================================================================
// TransformRow
// =============================================================================

func TestTransformRowValid(t *testing.T) {
	entry, rejection := TransformRow(validRow(), testCategories(), testColumns())
	require.Nil(t, rejection)
	require.NotNil(t, entry)

	assert.Equal(t, types.NormalizedEntry{
		CategoryID:      5,
		Amount:          1250,
		IsIncome:        false,
		RecipientSender: "Paper Shop",
		PaymentMethod:   "bank_transfer",
		Description:     "Printer paper",
		NoInvoice:       true,
		Date:            "2024-10-29T00:00:00",
	}, *entry)
}

func TestTransformRowAmounts(t *testing.T) {
	tests := []struct {
		name   string
		cell   types.Cell
		expect int64
	}{
		{"positive number", types.Number("12.5"), 1250},
		{"negative number loses sign", types.Number("-99.99"), 9999},
		{"integer", types.Number("3"), 300},
		{"sub-cent truncated", types.Number("1.239"), 123},
		{"float artefact", types.Number("0.29"), 29},
		{"numeric text", types.Text(" 4.20 "), 420},
		{"int64 max", types.Number("92233720368547758.07"), 9223372036854775807},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRow()
			r[testColumns()[types.FieldAmount]] = tt.cell
			entry, rejection := TransformRow(r, testCategories(), testColumns())
			require.Nil(t, rejection)
			assert.Equal(t, tt.expect, entry.Amount)
		})
	}
}

func TestTransformRowAffirmativeFlags(t *testing.T) {
	for _, token := range []string{"ja", "JA", "Yes", "true", "TRUE"} {
		r := validRow()
		r[testColumns()[types.FieldIsIncome]] = types.Text(token)
		entry, rejection := TransformRow(r, testCategories(), testColumns())
		require.Nil(t, rejection, token)
		assert.True(t, entry.IsIncome, token)
	}
	for _, cell := range []types.Cell{types.Text("nein"), types.Text("no"), types.Text("1"), {}} {
		r := validRow()
		r[testColumns()[types.FieldIsIncome]] = cell
		entry, rejection := TransformRow(r, testCategories(), testColumns())
		require.Nil(t, rejection)
		assert.False(t, entry.IsIncome, cell.String())
	}

	r := validRow()
	r[testColumns()[types.FieldNoInvoice]] = types.Bool(false)
	r[testColumns()[types.FieldIsIncome]] = types.Bool(true)
	entry, rejection := TransformRow(r, testCategories(), testColumns())
	require.Nil(t, rejection)
	assert.True(t, entry.IsIncome)
	assert.False(t, entry.NoInvoice)
}

func TestParseAffirmative(t *testing.T) {
	assert.True(t, ParseAffirmative("jA"))
	assert.True(t, ParseAffirmative("yEs"))
	assert.False(t, ParseAffirmative(""))
	assert.False(t, ParseAffirmative(" ja"))
	assert.False(t, ParseAffirmative("y"))
}

func TestTransformRowRejections(t *testing.T) {
	columns := testColumns()

	tests := []struct {
		name   string
		mutate func(r types.RawRow) (types.RawRow, types.ColumnIndexMap)
		kind   RejectionKind
		check  func(t *testing.T, rej *Rejection)
	}{
		{
			name: "blank row",
			mutate: func(r types.RawRow) (types.RawRow, types.ColumnIndexMap) {
				return make(types.RawRow, len(r)), columns
			},
			kind: BlankRow,
		},
		{
			name: "column not mapped",
			mutate: func(r types.RawRow) (types.RawRow, types.ColumnIndexMap) {
				c := testColumns()
				delete(c, types.FieldDescription)
				return r, c
			},
			kind: FieldMissing,
			check: func(t *testing.T, rej *Rejection) {
				assert.Equal(t, types.FieldDescription, rej.Field)
			},
		},
		{
			name: "row shorter than mapping",
			mutate: func(r types.RawRow) (types.RawRow, types.ColumnIndexMap) {
				return r[:3], columns
			},
			kind: FieldMissing,
		},
		{
			name: "date as text",
			mutate: func(r types.RawRow) (types.RawRow, types.ColumnIndexMap) {
				r[columns[types.FieldDate]] = types.Text("29.10.2024")
				return r, columns
			},
			kind: DateParseError,
			check: func(t *testing.T, rej *Rejection) {
				assert.Equal(t, "29.10.2024", rej.Value)
			},
		},
		{
			name: "empty date",
			mutate: func(r types.RawRow) (types.RawRow, types.ColumnIndexMap) {
				r[columns[types.FieldDate]] = types.Cell{}
				return r, columns
			},
			kind: DateParseError,
		},
		{
			name: "amount not numeric",
			mutate: func(r types.RawRow) (types.RawRow, types.ColumnIndexMap) {
				r[columns[types.FieldAmount]] = types.Text("twelve")
				return r, columns
			},
			kind: AmountParseError,
		},
		{
			name: "empty amount",
			mutate: func(r types.RawRow) (types.RawRow, types.ColumnIndexMap) {
				r[columns[types.FieldAmount]] = types.Cell{}
				return r, columns
			},
			kind: AmountParseError,
		},
		{
			name: "amount beyond int64",
			mutate: func(r types.RawRow) (types.RawRow, types.ColumnIndexMap) {
				r[columns[types.FieldAmount]] = types.Number("1e20")
				return r, columns
			},
			kind: AmountParseError,
			check: func(t *testing.T, rej *Rejection) {
				assert.Equal(t, "1e20", rej.Value)
			},
		},
		{
			name: "amount one past int64 max",
			mutate: func(r types.RawRow) (types.RawRow, types.ColumnIndexMap) {
				r[columns[types.FieldAmount]] = types.Number("92233720368547758.08")
				return r, columns
			},
			kind: AmountParseError,
		},
		{
			name: "large negative amount",
			mutate: func(r types.RawRow) (types.RawRow, types.ColumnIndexMap) {
				r[columns[types.FieldAmount]] = types.Number("-1e17")
				return r, columns
			},
			kind: AmountParseError,
		},
		{
			name: "unknown category",
			mutate: func(r types.RawRow) (types.RawRow, types.ColumnIndexMap) {
				r[columns[types.FieldCategory]] = types.Text("office")
				return r, columns
			},
			kind: CategoryNotFound,
			check: func(t *testing.T, rej *Rejection) {
				assert.Equal(t, `Category "office" not found`, rej.Error())
			},
		},
		{
			name: "date checked before amount",
			mutate: func(r types.RawRow) (types.RawRow, types.ColumnIndexMap) {
				r[columns[types.FieldDate]] = types.Text("x")
				r[columns[types.FieldAmount]] = types.Text("y")
				return r, columns
			},
			kind: DateParseError,
		},
		{
			name: "missing fields aggregated",
			mutate: func(r types.RawRow) (types.RawRow, types.ColumnIndexMap) {
				r[columns[types.FieldDescription]] = types.Cell{}
				r[columns[types.FieldRecipientSender]] = types.Cell{}
				r[columns[types.FieldAmount]] = types.Number("0")
				return r, columns
			},
			kind: RequiredFieldMissing,
			check: func(t *testing.T, rej *Rejection) {
				assert.Equal(t, []string{"description", "recipient_sender", "amount"}, rej.Fields)
				assert.Equal(t, "Missing required fields: description, recipient_sender, amount", rej.Error())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, c := tt.mutate(validRow())
			entry, rejection := TransformRow(r, testCategories(), c)
			assert.Nil(t, entry)
			require.NotNil(t, rejection)
			assert.Equal(t, tt.kind, rejection.Kind)
			if tt.check != nil {
				tt.check(t, rejection)
			}
		})
	}
}

// =============================================================================
// Transformer diagnostics
// =============================================================================

func TestTransformerDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	transformer := NewTransformer(logging.NewWithWriter(&buf))

	// Blank rows are silent.
	_, rejection := transformer.Transform(make(types.RawRow, 7), testCategories(), testColumns())
	require.NotNil(t, rejection)
	assert.Empty(t, buf.String())

	// Category misses are warnings.
	r := validRow()
	r[0] = types.Text("Unknown")
	_, rejection = transformer.Transform(r, testCategories(), testColumns())
	require.NotNil(t, rejection)

	// Everything else is an error.
	r = validRow()
	r[testColumns()[types.FieldAmount]] = types.Text("n/a")
	_, rejection = transformer.Transform(r, testCategories(), testColumns())
	require.NotNil(t, rejection)

	// Accepted rows log nothing here.
	_, rejection = transformer.Transform(validRow(), testCategories(), testColumns())
	require.Nil(t, rejection)

	lines := logLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"warn", "error"}, levels(lines))
	assert.Equal(t, `Category "Unknown" not found`, lines[0]["message"])
	assert.Equal(t, "Unknown", lines[0]["category"])
	assert.Equal(t, "AmountParseError", lines[1]["reason"])
	assert.Contains(t, lines[1]["message"], "Error transforming data for row")
}

func TestTransformerMissingFieldsDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	transformer := NewTransformer(logging.NewWithWriter(&buf))

	r := validRow()
	r[testColumns()[types.FieldDescription]] = types.Cell{}
	_, rejection := transformer.Transform(r, testCategories(), testColumns())
	require.NotNil(t, rejection)

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "error", lines[0]["level"])
	assert.Equal(t, []any{"description"}, lines[0]["missing_fields"])
}
