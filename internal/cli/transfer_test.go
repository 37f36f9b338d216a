package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_ToFile(t *testing.T) {
	dir := walletEnv(t)
	db := dbPath(dir, "wallet.db")
	seedWallet(t, db, 3)
	out := filepath.Join(dir, "backup.csv")

	res := runCLI(t, db, "", "export", "-o", out)
	require.Equal(t, ExitSuccess, res.Code, res.Stderr)
	assert.Contains(t, res.Stdout, "✓ Exported 3 card(s), 2 group(s) as csv")
	assert.Contains(t, res.Stdout, "Output: "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "2\n"), "sectioned layout marker first")
	assert.Contains(t, string(data), "cardId,groupName")
}

func TestExport_FormatFromExtension(t *testing.T) {
	dir := walletEnv(t)
	db := dbPath(dir, "wallet.db")
	seedWallet(t, db, 1)

	tests := []struct {
		file   string
		prefix string
	}{
		{"backup.json", "{"},
		{"backup.yaml", "version: 2"},
		{"backup.csv", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			out := filepath.Join(dir, tt.file)
			res := runCLI(t, db, "", "export", "-o", out)
			require.Equal(t, ExitSuccess, res.Code, res.Stderr)

			data, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(data), tt.prefix), "got %q", data)
		})
	}
}

func TestExport_ToStdout(t *testing.T) {
	dir := walletEnv(t)
	db := dbPath(dir, "wallet.db")
	seedWallet(t, db, 2)

	res := runCLI(t, db, "", "-v", "export", "-t", "json")
	require.Equal(t, ExitSuccess, res.Code, res.Stderr)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Stdout), &doc), "stdout carries only the export")
	assert.EqualValues(t, 2, doc["version"])
	assert.Len(t, doc["cards"], 2)
	assert.Contains(t, res.Stderr, "Exported 2 card(s), 2 group(s) as json")
}

func TestExport_UnknownType(t *testing.T) {
	dir := walletEnv(t)
	out := filepath.Join(dir, "backup.xml")

	res := runCLI(t, dbPath(dir, "wallet.db"), "", "export", "-t", "xml", "-o", out)
	assert.Equal(t, ExitCommandError, res.Code)
	assert.Contains(t, res.Stderr, "Error [E001]")
	assert.Contains(t, res.Stderr, `"xml"`)

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "no output file for a rejected format")
}

func TestImport_RoundTrip(t *testing.T) {
	for _, ext := range []string{"csv", "json", "yaml"} {
		t.Run(ext, func(t *testing.T) {
			dir := walletEnv(t)
			src := dbPath(dir, "src.db")
			dst := dbPath(dir, "dst.db")
			seedWallet(t, src, 4)
			file := filepath.Join(dir, "backup."+ext)

			res := runCLI(t, src, "", "export", "-o", file)
			require.Equal(t, ExitSuccess, res.Code, res.Stderr)

			res = runCLI(t, dst, "", "import", file)
			require.Equal(t, ExitSuccess, res.Code, res.Stderr)
			assert.Contains(t, res.Stdout, "✓ Imported 4 card(s), 2 group(s) as "+ext)
			assert.Contains(t, res.Stdout, "Inserted: 4")
			assert.Contains(t, res.Stdout, "Groups created: 2")

			assert.Equal(t, snapshotOf(t, src), snapshotOf(t, dst))
		})
	}
}

func TestImport_Stdin(t *testing.T) {
	dir := walletEnv(t)
	src := dbPath(dir, "src.db")
	dst := dbPath(dir, "dst.db")
	seedWallet(t, src, 2)

	exported := runCLI(t, src, "", "export", "-t", "yaml")
	require.Equal(t, ExitSuccess, exported.Code, exported.Stderr)

	res := runCLI(t, dst, exported.Stdout, "--format", "json", "import", "-t", "yaml", "-")
	require.Equal(t, ExitSuccess, res.Code, res.Stderr)

	var resp struct {
		Status string         `json:"status"`
		Data   transferResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "yaml", resp.Data.Format)
	assert.Equal(t, 2, resp.Data.Inserted)
	assert.Equal(t, 3, resp.Data.Memberships)

	assert.Equal(t, snapshotOf(t, src), snapshotOf(t, dst))
}

func TestImport_UpdatesExistingCards(t *testing.T) {
	dir := walletEnv(t)
	db := dbPath(dir, "wallet.db")
	seedWallet(t, db, 3)
	file := filepath.Join(dir, "backup.csv")

	require.Equal(t, ExitSuccess, runCLI(t, db, "", "export", "-o", file).Code)
	res := runCLI(t, db, "", "import", file)
	require.Equal(t, ExitSuccess, res.Code, res.Stderr)
	assert.Contains(t, res.Stdout, "Inserted: 0")
	assert.Contains(t, res.Stdout, "Updated: 3")
	assert.Contains(t, res.Stdout, "Groups created: 0")
}

func TestImport_CorruptFileLeavesWalletUnchanged(t *testing.T) {
	dir := walletEnv(t)
	db := dbPath(dir, "wallet.db")
	seedWallet(t, db, 2)
	before := snapshotOf(t, db)

	file := filepath.Join(dir, "broken.csv")
	content := "2\n\nname\nfresh\n\nid,store,cardId\n9,Shop,1\nabc,Other,2\n\ncardId,groupName\n9,fresh\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	res := runCLI(t, db, "", "import", file)
	assert.Equal(t, ExitFailure, res.Code)
	assert.Contains(t, res.Stderr, "Error [E003]")
	assert.Contains(t, res.Stderr, "import failed")

	assert.Equal(t, before, snapshotOf(t, db))
}

func TestImport_MissingFile(t *testing.T) {
	dir := walletEnv(t)

	res := runCLI(t, dbPath(dir, "wallet.db"), "", "import", filepath.Join(dir, "nope.csv"))
	assert.Equal(t, ExitCommandError, res.Code)
	assert.Contains(t, res.Stderr, "failed to open input file")
}

func TestImport_JSONErrorEnvelope(t *testing.T) {
	dir := walletEnv(t)

	res := runCLI(t, dbPath(dir, "wallet.db"), "not a document", "--format", "json", "import", "-t", "json", "-")
	assert.Equal(t, ExitFailure, res.Code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(res.Stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E002", resp.Error.Code)
	require.NotNil(t, resp.Error.Details)
	assert.Equal(t, "parse", resp.Error.Details.Kind)
}

func TestExport_MetricsFile(t *testing.T) {
	dir := walletEnv(t)
	db := dbPath(dir, "wallet.db")
	seedWallet(t, db, 1)
	metrics := filepath.Join(dir, "wallet.prom")

	res := runCLI(t, db, "", "--metrics-file", metrics, "export", "-o", filepath.Join(dir, "backup.csv"))
	require.Equal(t, ExitSuccess, res.Code, res.Stderr)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `wallet_jobs_tasks_total{kind="export",outcome="success"} 1`)
	assert.Contains(t, string(data), `wallet_jobs_task_duration_seconds_count{kind="export"} 1`)
}
