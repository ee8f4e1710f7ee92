package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, name string, profile DatabaseProfile) *DB {
	t.Helper()
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "nested", name+".db"),
		Profile: profile,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrate_Journal(t *testing.T) {
	db := newTestDB(t, "journal", ProfileJournal)

	require.NoError(t, db.Migrate())
	// Applying twice is harmless
	require.NoError(t, db.Migrate())

	for _, table := range []string{"runs", "signals", "orders", "notices"} {
		var name string
		err := db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db := newTestDB(t, "scratch", ProfileStandard)
	assert.NoError(t, db.Migrate())
}

func TestWithTransaction(t *testing.T) {
	db := newTestDB(t, "scratch", ProfileStandard)
	_, err := db.Conn().Exec("CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)")
	require.NoError(t, err)

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO kv VALUES ('a', '1')")
		return err
	})
	require.NoError(t, err)

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO kv VALUES ('b', '2')"); err != nil {
			return err
		}
		return errors.New("abort")
	})
	assert.Error(t, err)

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		panic("boom")
	})
	assert.ErrorContains(t, err, "panic in transaction")

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM kv").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestHealthAndStats(t *testing.T) {
	db := newTestDB(t, "journal", ProfileJournal)
	require.NoError(t, db.Migrate())

	assert.NoError(t, db.HealthCheck(context.Background()))

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Positive(t, stats.PageSize)
	assert.Positive(t, stats.PageCount)
}
