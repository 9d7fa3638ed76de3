package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", DemoUser: "demo"})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "demo", cfg.SeedUser)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.EqualError(t, err, "invalid backend type: sheets")

	_, err = FromAppConfig(&config.Config{DataBackend: "sqlite"})
	assert.Error(t, err)
}

func TestOpen_MemorySeedsCategories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte("Rent\n# comment\nGym\n"), 0o644))

	res, err := Open(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir, SeedUser: "demo"}, nil)
	require.NoError(t, err)
	defer res.Cleanup()

	cats, err := res.Store.ListCategories(context.Background(), "demo")
	require.NoError(t, err)
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"Rent", "Gym"}, names)
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "spendwise.db")

	res, err := Open(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	_, err = os.Stat(path)
	assert.NoError(t, err)
	cats, err := res.Store.ListCategories(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, cats)
}
