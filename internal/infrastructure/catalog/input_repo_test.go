package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mss-report-engine/pkg/errors"
)

func writeInputDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.json"), []byte(`{
  "inputs": [
    {"input_id": "acme_2026_07", "file": "acme_2026_07.json", "description": "七月快照"},
    {"input_id": "broken", "file": "broken.json"}
  ]
}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme_2026_07.json"), []byte(`{
  "tenant": {"id": "acme", "name": "Acme"},
  "alerts": {"total": 1284}
}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{invalid`), 0o644))
	return dir
}

func TestInputRepoList(t *testing.T) {
	repo := NewInputRepo(writeInputDir(t))

	entries, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "acme_2026_07", entries[0].InputID)
	assert.Equal(t, "七月快照", entries[0].Description)
}

func TestInputRepoLoad(t *testing.T) {
	repo := NewInputRepo(writeInputDir(t))

	input, err := repo.Load(context.Background(), "acme_2026_07")
	require.NoError(t, err)
	assert.Equal(t, "Acme", input.GetMap("tenant")["name"])
	assert.Equal(t, float64(1284), input.GetMap("alerts")["total"])
}

func TestInputRepoLoadNotFound(t *testing.T) {
	repo := NewInputRepo(writeInputDir(t))

	_, err := repo.Load(context.Background(), "no_such_input")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInputNotFound, errors.AsAppError(err).Code)
}

func TestInputRepoLoadParseFailure(t *testing.T) {
	repo := NewInputRepo(writeInputDir(t))

	_, err := repo.Load(context.Background(), "broken")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidParam, errors.AsAppError(err).Code)
}
