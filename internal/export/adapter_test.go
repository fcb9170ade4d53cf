package export

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownTargetError_Error(t *testing.T) {
	err := &UnknownTargetError{
		Type:      "fake_db",
		Available: []string{"duckdb", "postgres"},
	}

	msg := err.Error()
	assert.Contains(t, msg, "fake_db", "error should name the unknown type")
	assert.Contains(t, msg, "nmrtab.yaml", "error should point at the config")
}

func TestRegister(t *testing.T) {
	Register("test_target_internal", func(_ *slog.Logger) Adapter { return nil })

	assert.True(t, IsRegistered("test_target_internal"))

	factory, ok := Get("test_target_internal")
	assert.True(t, ok)
	assert.NotNil(t, factory)
}

func TestNewAdapter_EmptyType(t *testing.T) {
	_, err := NewAdapter(Config{}, nil)
	require.Error(t, err)
	assert.Equal(t, "adapter type not specified", err.Error())
}

func TestNewAdapter_Unknown(t *testing.T) {
	_, err := NewAdapter(Config{Type: "no_such_target"}, nil)
	require.Error(t, err)

	var unknown *UnknownTargetError
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, unknown.Available, "duckdb")
	assert.Contains(t, unknown.Available, "postgres")
}

func TestListTargets(t *testing.T) {
	targets := ListTargets()
	assert.Contains(t, targets, "duckdb")
	assert.Contains(t, targets, "postgres")
}

func TestBaseSQLClose(t *testing.T) {
	t.Run("nil DB", func(t *testing.T) {
		base := &baseSQL{}
		assert.NoError(t, base.Close())
	})

	t.Run("open DB", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		mock.ExpectClose()

		base := &baseSQL{DB: db}
		assert.NoError(t, base.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBaseSQLExec(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		sql       string
		errMsg    string
	}{
		{
			name:   "exec without connection",
			sql:    "SELECT 1",
			errMsg: "database connection not established",
		},
		{
			name:    "exec success",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE data").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			sql: "CREATE TABLE data (sample_key TEXT)",
		},
		{
			name:    "exec with error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INVALID SQL").WillReturnError(errors.New("syntax error"))
			},
			sql:    "INVALID SQL",
			errMsg: "failed to execute SQL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &baseSQL{}
			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()
				tt.setupMock(mock)
				base.DB = db
			}

			err := base.Exec(context.Background(), tt.sql)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBaseSQLQuery(t *testing.T) {
	t.Run("query without connection", func(t *testing.T) {
		base := &baseSQL{}
		_, err := base.Query(context.Background(), "SELECT 1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database connection not established")
	})

	t.Run("query success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery("SELECT sample_key FROM metadata").
			WillReturnRows(sqlmock.NewRows([]string{"sample_key"}).AddRow("s1_aaaa"))

		base := &baseSQL{DB: db}
		rows, err := base.Query(context.Background(), "SELECT sample_key FROM metadata")
		require.NoError(t, err)
		defer func() { _ = rows.Close() }()

		require.True(t, rows.Next())
		var key string
		require.NoError(t, rows.Scan(&key))
		assert.Equal(t, "s1_aaaa", key)
		assert.NoError(t, rows.Err())
	})
}
