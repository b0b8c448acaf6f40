package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingMigrationNamesSortedAndFiltered(t *testing.T) {
	files := fstest.MapFS{
		"m/0002_more.sql": {Data: []byte("SELECT 1;")},
		"m/0001_init.sql": {Data: []byte("SELECT 1;")},
		"m/README.md":     {Data: []byte("notes")},
		"m/0003_next.sql": {Data: []byte("SELECT 1;")},
	}

	names, err := pendingMigrationNames(files, "m", map[string]bool{"0002_more.sql": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0003_next.sql"}, names)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	names, err := pendingMigrationNames(migrationFiles, "migrations", nil)
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "0001_init.sql", names[0])
}
