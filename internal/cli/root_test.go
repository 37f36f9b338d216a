package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "wallet", cmd.Use)
	assert.Contains(t, cmd.Long, "CSV, JSON or YAML")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"export"}, {"import"}, {"formats"},
		{"card", "add"}, {"card", "list"}, {"card", "show"}, {"card", "delete"}, {"card", "groups"},
		{"group", "add"}, {"group", "list"}, {"group", "delete"},
	}

	for _, path := range commands {
		t.Run(filepath.Join(path...), func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("db"))
}

func TestTransferCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	exportCmd, _, err := cmd.Find([]string{"export"})
	require.NoError(t, err)
	typeFlag := exportCmd.Flags().Lookup("type")
	require.NotNil(t, typeFlag)
	assert.Equal(t, "t", typeFlag.Shorthand)
	outputFlag := exportCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	importCmd, _, err := cmd.Find([]string{"import"})
	require.NoError(t, err)
	assert.NotNil(t, importCmd.Flags().Lookup("type"))
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "formats"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{"backup.csv", "csv", true},
		{"BACKUP.JSON", "json", true},
		{"wallet.yml", "yaml", true},
		{"wallet.yaml", "yaml", true},
		{"wallet.txt", "", false},
		{"-", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := formatFromPath(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestFormatsCommand(t *testing.T) {
	dir := walletEnv(t)
	db := dbPath(dir, "wallet.db")

	res := runCLI(t, db, "", "formats")
	require.Equal(t, ExitSuccess, res.Code, res.Stderr)
	assert.Equal(t, "csv (canonical)\njson\nyaml\n", res.Stdout)

	res = runCLI(t, db, "", "--format", "json", "formats")
	require.Equal(t, ExitSuccess, res.Code, res.Stderr)
	assert.JSONEq(t, `{"status":"ok","data":["csv","json","yaml"]}`, res.Stdout)
}

func TestConfigFileSetsDefaults(t *testing.T) {
	dir := walletEnv(t)
	db := dbPath(dir, "from-config.db")
	cfgPath := filepath.Join(dir, "wallet.toml")
	content := "[database]\npath = \"" + filepath.ToSlash(db) + "\"\n\n[transfer]\nformat = \"yaml\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	// No --db: the config file supplies the database path.
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), []string{"--config", cfgPath, "export"}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, ExitSuccess, code, stderr.String())
	res := cliResult{Stdout: stdout.String()}

	assert.Contains(t, res.Stdout, "version: 2")
	_, err := os.Stat(db)
	assert.NoError(t, err, "database opened at the configured path")
}

func TestBadConfigIsCommandError(t *testing.T) {
	dir := walletEnv(t)
	cfgPath := filepath.Join(dir, "wallet.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[logging]\nlevel = \"loud\"\n"), 0o644))

	res := runCLI(t, dbPath(dir, "wallet.db"), "", "--config", cfgPath, "card", "list")
	assert.Equal(t, ExitCommandError, res.Code)
	assert.Contains(t, res.Stderr, "failed to load configuration")
}
