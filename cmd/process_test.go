package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sales-analytics/internal/pipeline"
)

func writeSales(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, "sales.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestProcessCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeSales(t, dir,
		"T001|2024-12-01|P101|Laptop|2|45,000|C001|North",
		"T002|2024-12-02|P102|Mouse|5|500|C002|South",
		"X003|2024-12-02|P103|Keyboard|1|1500|C003|East",
	)
	report := filepath.Join(dir, "out", "report.txt")

	out, err := execute(t, "process",
		"--config", filepath.Join(dir, "missing.yaml"),
		"--input", input,
		"--report", report,
		"--enriched", "",
		"--no-enrich",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "SALES ANALYTICS SYSTEM")
	assert.Contains(t, out, "[1/10] Reading sales data...")
	assert.Contains(t, out, "✓ Valid: 2 | Invalid: 1")
	assert.Contains(t, out, "[9/10] Generating report...")
	assert.Contains(t, out, "Success! System finished execution.")
	assert.FileExists(t, report)
}

func TestProcessCommandNoValidTransactions(t *testing.T) {
	dir := t.TempDir()
	input := writeSales(t, dir, "X001|2024-12-01|P101|Laptop|2|45000|C001|North")
	report := filepath.Join(dir, "out", "report.txt")

	out, err := execute(t, "process",
		"--config", filepath.Join(dir, "missing.yaml"),
		"--input", input,
		"--report", report,
		"--no-enrich",
	)

	require.ErrorIs(t, err, pipeline.ErrNoValidTransactions)
	assert.Contains(t, out, "No valid transactions found after filtering. Exiting.")
	assert.NoFileExists(t, report)
}

func TestProcessCommandRejectsBadAmounts(t *testing.T) {
	dir := t.TempDir()
	input := writeSales(t, dir, "T001|2024-12-01|P101|Laptop|2|45000|C001|North")

	_, err := execute(t, "process",
		"--config", filepath.Join(dir, "missing.yaml"),
		"--input", input,
		"--report", filepath.Join(dir, "report.txt"),
		"--min-amount", "500",
		"--max-amount", "100",
		"--no-enrich",
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not exceed")
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeSales(t, dir,
		"T001|2024-12-01|P101|Laptop|2|45000|C001|North",
		"T002|2024-12-02|P102|Mouse|0|500|C002|South",
		"short|line",
	)

	out, err := execute(t, "validate",
		"--config", filepath.Join(dir, "missing.yaml"),
		"--input", input,
		"--errors",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "Configuration OK")
	assert.Contains(t, out, "Malformed (skipped): 1\n")
	assert.Contains(t, out, "Invalid:             1\n")
	assert.Contains(t, out, "Valid:               1\n")
	assert.Contains(t, out, "quantity_positive_integer")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestValidateCommandRuleOrder(t *testing.T) {
	dir := t.TempDir()
	input := writeSales(t, dir,
		"T001|2024-12-01|P101|Laptop|2|45000|C001|North",
		"X002|2024-12-02|P102|Mouse|0|500||South",
	)

	out, err := execute(t, "validate",
		"--config", filepath.Join(dir, "missing.yaml"),
		"--input", input,
		"--errors=false",
	)
	require.NoError(t, err)

	idRule := strings.Index(out, "  transaction_id_prefix ")
	fieldsRule := strings.Index(out, "  customer_and_region_required ")
	qtyRule := strings.Index(out, "  quantity_positive_integer ")
	require.NotEqual(t, -1, idRule)
	require.NotEqual(t, -1, fieldsRule)
	require.NotEqual(t, -1, qtyRule)
	assert.Less(t, idRule, fieldsRule)
	assert.Less(t, fieldsRule, qtyRule)
	assert.NotContains(t, out, "unit_price_positive_number")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "Sales Analytics\nVersion:    "+Version)
}
