package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
	"github.com/kasuganosora/gridsource/pkg/resource/excel"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "gridsource.yaml")
	content := `
log:
  level: error
datasets:
  - name: cars
    fixture: cars
  - name: friends
    fixture: friends
    source:
      type: sqlite
      database: ` + filepath.Join(dir, "friends.db") + `
      writable: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return dir, path
}

func TestSeedAndExport(t *testing.T) {
	dir, cfgPath := writeTestConfig(t)
	db := filepath.Join(dir, "friends.db")

	out, err := runCmd(t, "seed", "--config", cfgPath, "--database", db, "--rows", "25", "--seed", "7")
	require.NoError(t, err, out)
	assert.Contains(t, out, "inserted 25 friends into friends (sqlite), 25 rows total")

	out, err = runCmd(t, "seed", "--config", cfgPath, "--dataset", "friends", "--rows", "5", "--seed", "7")
	require.NoError(t, err, out)
	assert.Contains(t, out, "30 rows total")

	xlsx := filepath.Join(dir, "friends.xlsx")
	out, err = runCmd(t, "export", "friends", xlsx, "--config", cfgPath,
		"--sort", `[{"colId": "id", "sort": "desc"}]`, "--limit", "10", "--sheet", "Friends")
	require.NoError(t, err, out)
	assert.Contains(t, out, "wrote 10 of 30 matching rows")

	headers, rows, sheet, err := excel.ReadWorkbook(xlsx, "")
	require.NoError(t, err)
	assert.Equal(t, "Friends", sheet)
	assert.Equal(t, []string{"id", "name", "age", "years_known", "owes_me", "has_a_dog", "spouse_is_annoying", "met"}, headers)
	require.Len(t, rows, 10)
	assert.Equal(t, int64(30), rows[0]["id"])
	assert.Equal(t, int64(21), rows[9]["id"])
}

func TestExport_Filter(t *testing.T) {
	dir, cfgPath := writeTestConfig(t)
	xlsx := filepath.Join(dir, "cars.xlsx")

	out, err := runCmd(t, "export", "cars", xlsx, "--config", cfgPath,
		"--filter", `{"make": {"filterType": "text", "type": "equals", "filter": "ford"}}`)
	require.NoError(t, err, out)
	assert.Contains(t, out, "wrote 1 of 1 matching rows")

	_, rows, _, err := excel.ReadWorkbook(xlsx, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mondeo", rows[0]["model"])
	assert.Equal(t, int64(32000), rows[0]["price"])
}

func TestExport_Errors(t *testing.T) {
	dir, cfgPath := writeTestConfig(t)
	xlsx := filepath.Join(dir, "out.xlsx")

	_, err := runCmd(t, "export", "boats", xlsx, "--config", cfgPath)
	var notFound *domain.ErrDatasetNotFound
	assert.True(t, errors.As(err, &notFound))

	_, err = runCmd(t, "export", "cars", xlsx, "--config", cfgPath, "--filter", `{"make":`)
	assert.ErrorContains(t, err, "invalid --filter")

	_, err = runCmd(t, "export", "cars", "--config", cfgPath)
	assert.Error(t, err, "missing file argument")
}

func TestSeed_InvalidOptions(t *testing.T) {
	_, cfgPath := writeTestConfig(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unsupported type", []string{"--type", "badger", "--database", "x"}},
		{"missing database", []string{"--type", "sqlite"}},
		{"zero rows", []string{"--database", "x", "--rows", "0"}},
		{"unknown dataset", []string{"--dataset", "boats"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"seed", "--config", cfgPath}, tt.args...)
			_, err := runCmd(t, args...)
			assert.Error(t, err)
		})
	}
}

func TestDatasetSpec(t *testing.T) {
	_, cfgPath := writeTestConfig(t)
	opts := &globalOptions{configPath: cfgPath, logLevel: "debug"}
	cfg, err := opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)

	spec := datasetSpec(cfg.Datasets[1])
	assert.Equal(t, "friends", spec.Name)
	assert.Equal(t, domain.DataSourceTypeSQLite, spec.Source.Type)
	assert.True(t, spec.Source.Writable)
}
