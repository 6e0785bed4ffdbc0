package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	db, err := Open(context.Background(), Options{SQLitePath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestOpen_NothingConfigured(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	assert.Error(t, err)
}
