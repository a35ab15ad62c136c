// =============================================================================
// Ledger Import - Stub Ledger Command
// =============================================================================
//
// This file defines the 'stub-ledger' command. It serves an in-memory
// ledger API (login, categories, entries) for trying out an import without
// a real ledger.
//
// COMMAND USAGE:
//   ledger-import stub-ledger --addr :8097 --user test=test --category Office=1
//
// Entries live in memory and are lost when the command stops.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ledger-import/internal/ledgerstub"
	"github.com/ginjaninja78/ledger-import/internal/logging"
)

var (
	stubAddr       string
	stubUsers      []string
	stubCategories []string
)

var stubLedgerCmd = &cobra.Command{
	Use:   "stub-ledger",
	Short: "Serve an in-memory ledger API for local test runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := parseStubUsers(stubUsers)
		if err != nil {
			return err
		}
		categories, err := parseStubCategories(stubCategories)
		if err != nil {
			return err
		}

		logger, closer, err := logging.New(logging.Options{Console: cmd.OutOrStdout(), Verbose: verbose})
		if err != nil {
			return err
		}
		defer closer.Close()

		stub := ledgerstub.NewServer(users, categories)
		server := &http.Server{
			Addr:         stubAddr,
			Handler:      requestLogger(logger)(stub.Router()),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info().
				Str("addr", stubAddr).
				Int("users", len(users)).
				Int("categories", len(categories)).
				Msg("Stub ledger listening")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
			close(errCh)
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("stub ledger failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info().Int("entries", len(stub.Entries())).Msg("Shutting down stub ledger")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down stub ledger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stubLedgerCmd)

	stubLedgerCmd.Flags().StringVar(&stubAddr, "addr", ":8097", "Listen address")
	stubLedgerCmd.Flags().StringArrayVar(&stubUsers, "user", []string{"test=test"}, "Account as name=password (repeatable)")
	stubLedgerCmd.Flags().StringArrayVar(&stubCategories, "category", nil, "Category as name=id (repeatable)")
}

// parseStubUsers parses name=password pairs.
func parseStubUsers(values []string) (map[string]string, error) {
	users := make(map[string]string, len(values))
	for _, v := range values {
		name, password, ok := strings.Cut(v, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --user %q: expected name=password", v)
		}
		users[name] = password
	}
	return users, nil
}

// parseStubCategories parses name=id pairs. The id is split off at the last
// '=' so names may contain one.
func parseStubCategories(values []string) ([]ledgerstub.Category, error) {
	categories := make([]ledgerstub.Category, 0, len(values))
	for _, v := range values {
		i := strings.LastIndex(v, "=")
		if i <= 0 {
			return nil, fmt.Errorf("invalid --category %q: expected name=id", v)
		}
		id, err := strconv.ParseInt(v[i+1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --category %q: %w", v, err)
		}
		categories = append(categories, ledgerstub.Category{ID: id, Name: v[:i]})
	}
	return categories, nil
}

// requestLogger logs one debug line per request.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Msg("Request")
		})
	}
}
