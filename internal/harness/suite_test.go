package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: %s
description: "minimal"
flow:
  - export: {format: csv}
assertions:
  - type: card_count
`

func writeSuiteFile(t *testing.T, dir, file, name string) {
	t.Helper()
	content := []byte(fmt.Sprintf(minimalScenario, name))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), content, 0o644))
}

func TestLoadSuite_SortedByFile(t *testing.T) {
	dir := t.TempDir()
	writeSuiteFile(t, dir, "b.yaml", "second")
	writeSuiteFile(t, dir, "a.yaml", "first")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	scenarios, err := LoadSuite(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "first", scenarios[0].Name)
	assert.Equal(t, "second", scenarios[1].Name)
}

func TestLoadSuite_DuplicateName(t *testing.T) {
	dir := t.TempDir()
	writeSuiteFile(t, dir, "a.yaml", "same")
	writeSuiteFile(t, dir, "b.yaml", "same")

	_, err := LoadSuite(dir)
	var dup *DuplicateScenarioError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "same", dup.Name)
	assert.Equal(t, filepath.Join(dir, "a.yaml"), dup.First)
}

func TestLoadSuite_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: x\n"), 0o644))

	_, err := LoadSuite(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}
