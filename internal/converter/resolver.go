package converter

import (
	"context"
	"fmt"

	"github.com/ginjaninja78/ledger-import/internal/ledger"
	"github.com/ginjaninja78/ledger-import/internal/types"
)

// LedgerAPI is the part of the ledger client the pipeline depends on.
// *ledger.Client satisfies it.
type LedgerAPI interface {
	Login(ctx context.Context, creds ledger.Credentials) (ledger.Session, error)
	ListCategories(ctx context.Context, session ledger.Session) ([]ledger.Category, error)
	SubmitEntry(ctx context.Context, session ledger.Session, entry types.NormalizedEntry) (*ledger.SubmittedEntry, error)
}

// LoadCategories logs in and takes the one category snapshot used for the
// whole run. Errors are *ledger.AuthenticationError or *ledger.TransportError
// and abort the run.
func LoadCategories(ctx context.Context, api LedgerAPI, creds ledger.Credentials) (types.CategoryTable, ledger.Session, error) {
	session, err := api.Login(ctx, creds)
	if err != nil {
		return nil, ledger.Session{}, fmt.Errorf("failed to log in: %w", err)
	}

	categories, err := api.ListCategories(ctx, session)
	if err != nil {
		return nil, ledger.Session{}, fmt.Errorf("failed to load categories: %w", err)
	}

	return BuildCategoryTable(categories), session, nil
}

// BuildCategoryTable indexes categories by display name. When two categories
// share a name the later one wins.
func BuildCategoryTable(categories []ledger.Category) types.CategoryTable {
	table := make(types.CategoryTable, len(categories))
	for _, c := range categories {
		table[c.Name] = c.ID
	}
	return table
}
