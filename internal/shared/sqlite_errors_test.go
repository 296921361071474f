package shared

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestIsSQLiteConflictErrorByMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"busy", errors.New("sqlite: step: SQLITE_BUSY"), true},
		{"locked", fmt.Errorf("set session: %w", errors.New("database is locked (5)")), true},
		{"other", errors.New("no such table: sessions"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsSQLiteConflictError(tc.err))
		})
	}
}

func TestIsSQLiteConflictErrorByCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock.db")

	holder, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	defer holder.Close()
	holder.SetMaxOpenConns(1)
	_, err = holder.Exec("CREATE TABLE t (x INTEGER)")
	require.NoError(t, err)

	tx, err := holder.Begin()
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()
	_, err = tx.Exec("INSERT INTO t VALUES (1)")
	require.NoError(t, err)

	other, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(0)")
	require.NoError(t, err)
	defer other.Close()

	_, err = other.Exec("INSERT INTO t VALUES (2)")
	require.Error(t, err)
	assert.True(t, IsSQLiteConflictError(fmt.Errorf("write: %w", err)))

	_, err = other.Exec("SELECT * FROM missing")
	require.Error(t, err)
	assert.False(t, IsSQLiteConflictError(err))
}
