// Package ledgerstub is an in-memory stand-in for the ledger service. It
// implements the login, category listing and entry creation endpoints with
// the same validation rules and response shapes as the real service, so the
// importer can be exercised locally and in tests.
//
// Nothing is persisted. Restarting the stub drops every entry and token.
package ledgerstub

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Payment methods accepted by the ledger.
var paymentMethods = map[string]bool{
	"cash":          true,
	"bank_transfer": true,
	"not_payed":     true,
}

// Category is one ledger category.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Entry is a stored ledger entry.
type Entry struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"user_id"`
	CategoryID      int64     `json:"category_id"`
	Amount          int64     `json:"amount"`
	IsIncome        bool      `json:"is_income"`
	RecipientSender string    `json:"recipient_sender"`
	PaymentMethod   string    `json:"payment_method"`
	Description     string    `json:"description"`
	NoInvoice       bool      `json:"no_invoice"`
	Date            string    `json:"date"`
	CreatedAt       time.Time `json:"created_at"`
}

// entryRequest mirrors the create payload. Pointers distinguish "missing"
// from zero values for the required booleans.
type entryRequest struct {
	CategoryID      *int64       `json:"category_id"`
	Amount          *json.Number `json:"amount"`
	IsIncome        *bool        `json:"is_income"`
	RecipientSender *string      `json:"recipient_sender"`
	PaymentMethod   *string      `json:"payment_method"`
	Description     *string      `json:"description"`
	NoInvoice       *bool        `json:"no_invoice"`
	Date            *string      `json:"date"`
}

// Server holds the stub's state.
type Server struct {
	mu         sync.Mutex
	users      map[string]string // username -> password
	tokens     map[string]string // token -> username
	categories map[int64]Category
	entries    []Entry
	nextID     int64
}

// NewServer creates a stub with the given users (username -> password) and
// categories.
func NewServer(users map[string]string, categories []Category) *Server {
	s := &Server{
		users:      make(map[string]string, len(users)),
		tokens:     make(map[string]string),
		categories: make(map[int64]Category, len(categories)),
		nextID:     1,
	}
	for u, p := range users {
		s.users[u] = p
	}
	for _, c := range categories {
		s.categories[c.ID] = c
	}
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Get("/categories", s.handleListCategories)
			r.Get("/entries", s.handleListEntries)
			r.Post("/entries", s.handleCreateEntry)
		})
	})

	return r
}

// Entries returns a copy of the stored entries.
func (s *Server) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": map[string][]string{"body": {"invalid JSON"}}})
		return
	}

	errs := map[string][]string{}
	if req.Username == "" {
		errs["username"] = []string{"The username field is required."}
	} else if len(req.Username) > 255 {
		errs["username"] = []string{"The username may not be greater than 255 characters."}
	}
	if req.Password == "" {
		errs["password"] = []string{"The password field is required."}
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}

	s.mu.Lock()
	password, ok := s.users[req.Username]
	if !ok || password != req.Password {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}
	token := uuid.NewString()
	s.tokens[token] = req.Username
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Entries())
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": map[string][]string{"body": {"invalid JSON"}}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	errs := s.validateEntry(req)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}

	var amount int64
	if req.Amount != nil {
		amount, _ = req.Amount.Int64()
	}

	entry := Entry{
		ID:              s.nextID,
		UserID:          userFromContext(r),
		CategoryID:      *req.CategoryID,
		Amount:          amount,
		IsIncome:        *req.IsIncome,
		RecipientSender: *req.RecipientSender,
		PaymentMethod:   *req.PaymentMethod,
		Description:     *req.Description,
		NoInvoice:       *req.NoInvoice,
		Date:            *req.Date,
		CreatedAt:       time.Now().UTC(),
	}
	s.nextID++
	s.entries = append(s.entries, entry)

	writeJSON(w, http.StatusCreated, entry)
}

// validateEntry applies the ledger's create rules. Callers hold s.mu.
func (s *Server) validateEntry(req entryRequest) map[string][]string {
	errs := map[string][]string{}
	required := func(field string) {
		errs[field] = append(errs[field], "The "+strings.ReplaceAll(field, "_", " ")+" field is required.")
	}

	if req.CategoryID == nil {
		required("category_id")
	} else if _, ok := s.categories[*req.CategoryID]; !ok {
		errs["category_id"] = []string{"The selected category id is invalid."}
	}
	if req.Amount != nil {
		if _, err := req.Amount.Float64(); err != nil {
			errs["amount"] = []string{"The amount must be a number."}
		} else if _, err := req.Amount.Int64(); err != nil {
			errs["amount"] = []string{"The amount must be an integer number of cents."}
		}
	}
	if req.IsIncome == nil {
		required("is_income")
	}
	if req.RecipientSender == nil || *req.RecipientSender == "" {
		required("recipient_sender")
	} else if len(*req.RecipientSender) > 255 {
		errs["recipient_sender"] = []string{"The recipient sender may not be greater than 255 characters."}
	}
	if req.PaymentMethod == nil || *req.PaymentMethod == "" {
		required("payment_method")
	} else if !paymentMethods[*req.PaymentMethod] {
		errs["payment_method"] = []string{"The selected payment method is invalid."}
	}
	if req.Description == nil || *req.Description == "" {
		required("description")
	}
	if req.NoInvoice == nil {
		required("no_invoice")
	}
	if req.Date == nil || *req.Date == "" {
		required("date")
	} else if !isDate(*req.Date) {
		errs["date"] = []string{"The date is not a valid date."}
	}

	return errs
}

// =============================================================================
// MIDDLEWARE AND HELPERS
// =============================================================================

type ctxKey struct{}

func contextWithUser(r *http.Request, user string) context.Context {
	return context.WithValue(r.Context(), ctxKey{}, user)
}

func userFromContext(r *http.Request) string {
	user, _ := r.Context().Value(ctxKey{}).(string)
	return user
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}

		s.mu.Lock()
		user, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}

		next.ServeHTTP(w, r.WithContext(contextWithUser(r, user)))
	})
}

var dateLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func isDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
