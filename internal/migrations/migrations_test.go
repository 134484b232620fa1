package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_ContainsInitMigration(t *testing.T) {
	raw, err := fs.ReadFile(FS, "00001_init.sql")
	require.NoError(t, err)

	sql := string(raw)
	assert.True(t, strings.HasPrefix(sql, "-- +goose Up"))
	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS accounts")
	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS cards")
	assert.Contains(t, sql, "likes                TEXT[] NOT NULL DEFAULT '{}'")
	assert.Contains(t, sql, "-- +goose Down")
}
