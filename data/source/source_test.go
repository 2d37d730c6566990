package source

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/ncobase/taskrunner/data"
	"github.com/ncobase/taskrunner/data/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func seed(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT, name TEXT)`,
		`INSERT INTO users (id, email, name) VALUES (1, 'a@example.com', 'Ann'), (2, 'b@example.com', 'Bob')`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, total REAL)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

func TestSQLSourceDiscoversTables(t *testing.T) {
	s := NewSQLSource(seed(t), data.DialectSQLite, nil)
	tables, err := s.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)
}

func TestSQLSourceAllowList(t *testing.T) {
	s := NewSQLSource(seed(t), data.DialectSQLite, []string{"users"})
	tables, err := s.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, tables)

	_, err = s.FindMany(context.Background(), "orders")
	assert.True(t, errors.Is(err, ErrUnknownTable))
}

func TestSQLSourceFindMany(t *testing.T) {
	s := NewSQLSource(seed(t), data.DialectSQLite, nil)
	rows, err := s.FindMany(context.Background(), "users")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a@example.com", rows[0]["email"])
	assert.EqualValues(t, 1, rows[0]["id"])

	rows, err = s.FindMany(context.Background(), "orders")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLSourceRejectsInjection(t *testing.T) {
	s := NewSQLSource(seed(t), data.DialectSQLite, nil)
	_, err := s.FindMany(context.Background(), "users; DROP TABLE users")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestStaticSource(t *testing.T) {
	s := NewStaticSource(map[string][]Row{
		"b": {{"x": 1}},
		"a": nil,
	})
	tables, err := s.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tables)

	rows, err := s.FindMany(context.Background(), "b")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = s.FindMany(context.Background(), "c")
	assert.ErrorIs(t, err, ErrUnknownTable)

	boom := errors.New("boom")
	s.Err, s.ErrTable = boom, "b"
	_, err = s.FindMany(context.Background(), "b")
	assert.ErrorIs(t, err, boom)
	_, err = s.FindMany(context.Background(), "a")
	assert.NoError(t, err)
}

func TestNewSelectsSource(t *testing.T) {
	s, err := New(&config.Config{Source: "static"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &StaticSource{}, s)

	_, err = New(&config.Config{Source: "sql"}, nil)
	assert.Error(t, err)

	_, err = New(&config.Config{Source: "oracle"}, nil)
	assert.Error(t, err)
}
