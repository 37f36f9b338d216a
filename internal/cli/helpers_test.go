package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/wallet/internal/store"
	"github.com/roach88/wallet/internal/testutil"
)

// walletEnv isolates the environment a CLI invocation sees: a fresh working
// directory (no .env) and no WALLET_* variables.
func walletEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{
		"WALLET_CONFIG", "WALLET_DB", "WALLET_LOG_LEVEL",
		"WALLET_LOG_FORMAT", "WALLET_FORMAT", "WALLET_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
	return dir
}

type cliResult struct {
	Stdout string
	Stderr string
	Code   int
}

// runCLI executes the wallet CLI against db.
func runCLI(t *testing.T, db, stdin string, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	argv := append([]string{"--db", db}, args...)
	code := Execute(context.Background(), argv, strings.NewReader(stdin), &stdout, &stderr)
	return cliResult{Stdout: stdout.String(), Stderr: stderr.String(), Code: code}
}

// seedWallet fills a database with n cards and two groups. Card i belongs to
// the first group, and even cards also to the second.
func seedWallet(t *testing.T, path string, n int) {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ids := testutil.SeedCards(t, st, n)
	groups := testutil.SeedGroups(t, st, 2)
	for i, id := range ids {
		names := []string{groups[0]}
		if (i+1)%2 == 0 {
			names = append(names, groups[1])
		}
		require.NoError(t, st.SetCardGroups(context.Background(), id, names))
	}
}

func snapshotOf(t *testing.T, path string) testutil.Snapshot {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()
	return testutil.TakeSnapshot(t, st)
}

func dbPath(dir, name string) string {
	return filepath.Join(dir, name)
}
