package cmd

import (
	"bytes"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/ledger-import/internal/ledgerstub"
	"github.com/ginjaninja78/ledger-import/internal/types"
	"github.com/ginjaninja78/ledger-import/internal/xlsxwriter"
)

// executeCommand runs the root command with args and returns its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dryRun, inputFile, verbose = false, "", false

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// writeFixture writes a bank export with the default German headers and a
// config file pointing at endpoint. It returns the config path and the
// output directory.
func writeFixture(t *testing.T, endpoint string) (string, string) {
	t.Helper()
	t.Setenv("LEDGER_ENDPOINT", "")
	t.Setenv("LEDGER_USERNAME", "")
	t.Setenv("LEDGER_PASSWORD", "")
	dir := t.TempDir()

	header := types.RawRow{
		types.Text("Buchungstag"), types.Text("Verwendungszweck"), types.Text("Beguenstigter/Zahlungspflichtiger"),
		types.Text("Betrag"), types.Text("category"), types.Text("is_income"), types.Text("no_invoice"),
	}
	day := time.Date(2024, 10, 29, 0, 0, 0, 0, time.UTC)
	rows := []types.RawRow{
		{types.Date(day), types.Text("Printer paper"), types.Text("Paper Shop"), types.Number("-12.5"), types.Text("Office"), types.Text("nein"), types.Text("ja")},
		{types.Date(day), types.Text("Train"), types.Text("Rail"), types.Number("-40"), types.Text("Travel"), types.Text("nein"), types.Text("nein")},
	}
	input := filepath.Join(dir, "umsatz.xlsx")
	require.NoError(t, xlsxwriter.New().Write(input, header, rows))

	outDir := filepath.Join(dir, "out")
	cfg := fmt.Sprintf(`ledger:
  endpoint: %s
  username: test
  password: test
  timeout_seconds: 5
input_file: %s
output_dir: %s
log_file: %s
`, endpoint, input, outDir, filepath.Join(dir, "app.log"))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))
	return cfgPath, outDir
}

func TestImportCommand(t *testing.T) {
	stub := ledgerstub.NewServer(map[string]string{"test": "test"}, []ledgerstub.Category{{ID: 1, Name: "Office"}})
	srv := httptest.NewServer(stub.Router())
	defer srv.Close()

	cfgPath, outDir := writeFixture(t, srv.URL)
	out, err := executeCommand(t, "import", "--config", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Total rows:        2")
	assert.Contains(t, out, "Successful:        1")
	assert.Len(t, stub.Entries(), 1)

	files, err := filepath.Glob(filepath.Join(outDir, "*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestImportCommandDryRun(t *testing.T) {
	stub := ledgerstub.NewServer(map[string]string{"test": "test"}, []ledgerstub.Category{{ID: 1, Name: "Office"}})
	srv := httptest.NewServer(stub.Router())
	defer srv.Close()

	cfgPath, outDir := writeFixture(t, srv.URL)
	out, err := executeCommand(t, "import", "--config", cfgPath, "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "dry run")
	assert.Empty(t, stub.Entries())
	_, err = os.Stat(outDir)
	assert.True(t, os.IsNotExist(err))
}

func TestImportCommandAbortsOnBadCredentials(t *testing.T) {
	stub := ledgerstub.NewServer(map[string]string{"test": "other"}, nil)
	srv := httptest.NewServer(stub.Router())
	defer srv.Close()

	cfgPath, outDir := writeFixture(t, srv.URL)
	_, err := executeCommand(t, "import", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import aborted")

	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestValidateCommand(t *testing.T) {
	cfgPath, _ := writeFixture(t, "http://127.0.0.1:1")
	out, err := executeCommand(t, "validate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Data rows: 2")
	assert.Contains(t, out, "Configuration OK")
}

func TestParseStubFlags(t *testing.T) {
	users, err := parseStubUsers([]string{"test=test", "alice=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"test": "test", "alice": "a=b"}, users)

	_, err = parseStubUsers([]string{"nopassword"})
	assert.Error(t, err)

	categories, err := parseStubCategories([]string{"Office=1", "A=B=2"})
	require.NoError(t, err)
	assert.Equal(t, []ledgerstub.Category{{ID: 1, Name: "Office"}, {ID: 2, Name: "A=B"}}, categories)

	_, err = parseStubCategories([]string{"Office=x"})
	assert.Error(t, err)
	_, err = parseStubCategories([]string{"=3"})
	assert.Error(t, err)
}
