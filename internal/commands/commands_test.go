package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colinbendell/bank-statement-processor/internal/config"
)

const extractedCard = "Transaction Date,Posting Date,Description,Amount\n" +
	"2024-03-14,2024-03-15,STARBUCKS #1234,-4.75\n" +
	"2024-03-01,2024-03-02,PAYMENT - THANK YOU,500.00\n"

const training = "Date,Description,Amount,Category\n" +
	"2023-11-02,STARBUCKS #998,-4.75,Expenses / Meals\n"

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestConvertExtractedCSV(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "visa.extracted.csv"), extractedCard)
	cats := filepath.Join(t.TempDir(), "categories.csv")
	write(t, cats, training)

	out, err := run(t, "convert", dir, "-C", cats, "--artifacts")
	require.NoError(t, err)
	assert.Contains(t, out, "OK: "+filepath.Join(dir, "visa.csv"))

	got, err := os.ReadFile(filepath.Join(dir, "visa.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Date,File,Description,Amount,Category\n"+
		"2024-03-14,visa,STARBUCKS #1234,-4.75,Expenses / Meals\n"+
		"2024-03-01,visa,PAYMENT - THANK YOU,500.00,\n", string(got))

	assert.FileExists(t, filepath.Join(dir, "visa.processed.csv"))
	assert.FileExists(t, filepath.Join(dir, "visa.categorized.csv"))

	out, err = run(t, "convert", dir, "-C", cats)
	require.NoError(t, err)
	assert.Contains(t, out, "SKIPPED: "+filepath.Join(dir, "visa.csv"))
}

func TestConvertToStdout(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.extracted.csv")
	b := filepath.Join(dir, "b.csv")
	write(t, a, extractedCard)
	write(t, b, "Date,File,Description,Amount\n2024-04-01,bank.pdf,RENT,-1000.00\n")

	out, err := run(t, "convert", a, b, "-o", "-", "--source", "mixed")
	require.NoError(t, err)
	assert.Equal(t, "Date,File,Description,Amount\n"+
		"2024-03-14,mixed,STARBUCKS #1234,-4.75\n"+
		"2024-03-01,mixed,PAYMENT - THANK YOU,500.00\n"+
		"2024-04-01,bank.pdf,RENT,-1000.00\n", out)
}

func TestConvertDryRun(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "visa.extracted.csv"), extractedCard)

	out, err := run(t, "convert", filepath.Join(dir, "visa.extracted.csv"), "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "DRY RUN")
	assert.NoFileExists(t, filepath.Join(dir, "visa.csv"))
}

func TestConvertReportsFailuresAndContinues(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "bad.extracted.csv"), "Transaction Date,Posting Date,Description,Amount\nsomeday,,X,1.00\n")
	write(t, filepath.Join(dir, "good.extracted.csv"), extractedCard)

	out, err := run(t, "convert", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 statements failed")
	assert.Contains(t, out, "FAILED: "+filepath.Join(dir, "bad.extracted.csv"))
	assert.FileExists(t, filepath.Join(dir, "good.csv"))
}

func TestConvertRejectsUnknownKind(t *testing.T) {
	_, err := run(t, "convert", t.TempDir(), "--kind", "loan")
	assert.ErrorContains(t, err, "unknown --kind")
}

func TestCollectInputs(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.pdf"), "")
	write(t, filepath.Join(dir, "a.extracted.csv"), "")
	write(t, filepath.Join(dir, "nested", "b.pdf"), "")
	write(t, filepath.Join(dir, "notes.txt"), "")

	got, err := collectInputs([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.extracted.csv"),
		filepath.Join(dir, "nested", "b.pdf"),
	}, got)

	_, err = collectInputs([]string{filepath.Join(dir, "missing.pdf")})
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("x", "a.csv"), outputPath(filepath.Join("x", "a.pdf")))
	assert.Equal(t, "a.csv", outputPath("a.extracted.csv"))
	assert.Equal(t, "n.csv", outputPath("n.csv"))
}

func TestAccountsWithoutPDFs(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "accounts", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No PDF files found in "+dir)
}

func TestInitWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bsp.yaml")
	runWith := func(args ...string) (string, error) {
		cmd := NewRootCommand("test")
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(append(args, "--config", path, "--log-level", "error"))
		err := cmd.Execute()
		return out.String(), err
	}

	out, err := runWith("init", "-C", "history.csv")
	require.NoError(t, err)
	assert.Equal(t, "OK: "+path+"\n", out)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "history.csv", cfg.Categories)
	assert.Equal(t, 90.0, cfg.FuzzyThreshold)
	assert.Equal(t, "error", cfg.Logging.Level)

	_, err = runWith("init")
	assert.ErrorContains(t, err, "already exists")

	_, err = runWith("init", "-y")
	require.NoError(t, err)
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "history.csv", cfg.Categories)
}

func TestVersion(t *testing.T) {
	cmd := NewRootCommand("1.2.3")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "bsp 1.2.3\n", out.String())
}
