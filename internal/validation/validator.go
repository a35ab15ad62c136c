// =============================================================================
// Ledger Import - Validation Engine
// =============================================================================
//
// This module checks a transformed entry before it is submitted. Checks are
// aggregated, not first-failure: every violated rule is reported so an
// operator can fix a failed row in one pass.
//
// RULES:
//   | Field            | Rule                      |
//   |------------------|---------------------------|
//   | date             | non-empty                 |
//   | description      | non-empty                 |
//   | recipient_sender | non-empty                 |
//   | amount           | non-zero (minor units)    |
//
//   The order of this table is the order in which missing fields are reported.
//
// =============================================================================

package validation

import (
	"github.com/ginjaninja78/ledger-import/internal/types"
)

// =============================================================================
// REQUIRED FIELD RULES
// =============================================================================

// Rule is one required-field check.
type Rule struct {
	// Field is the logical field name reported when the check fails.
	Field string

	// Present reports whether the entry satisfies the rule.
	Present func(entry *types.NormalizedEntry) bool
}

// RequiredRules are the checks applied by MissingFields, in report order.
var RequiredRules = []Rule{
	{Field: types.FieldDate, Present: func(e *types.NormalizedEntry) bool { return e.Date != "" }},
	{Field: types.FieldDescription, Present: func(e *types.NormalizedEntry) bool { return e.Description != "" }},
	{Field: types.FieldRecipientSender, Present: func(e *types.NormalizedEntry) bool { return e.RecipientSender != "" }},
	{Field: types.FieldAmount, Present: func(e *types.NormalizedEntry) bool { return e.Amount != 0 }},
}

// MissingFields returns the name of every required field the entry lacks,
// in RequiredRules order. A nil result means the entry is complete.
func MissingFields(entry *types.NormalizedEntry) []string {
	var missing []string
	for _, rule := range RequiredRules {
		if !rule.Present(entry) {
			missing = append(missing, rule.Field)
		}
	}
	return missing
}
