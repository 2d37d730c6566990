package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/ncobase/taskrunner/data"
	"github.com/ncobase/taskrunner/ecode"
	"github.com/ncobase/taskrunner/task"
)

// tableName accepts the characters DynamoDB allows in table names.
var tableName = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,255}$`)

// SQLStore keeps each queue in its own table.
type SQLStore struct {
	db      *sql.DB
	dialect data.Dialect
	migrate bool
	ensured sync.Map
}

// NewSQLStore wraps db. With migrate set, queue tables are created on first use.
func NewSQLStore(db *sql.DB, dialect data.Dialect, migrate bool) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, migrate: migrate}
}

// Migrate creates the queue tables when missing.
func (s *SQLStore) Migrate(ctx context.Context, tables ...string) error {
	for _, t := range tables {
		ident, err := s.quote(t)
		if err != nil {
			return err
		}
		q := `CREATE TABLE IF NOT EXISTS ` + ident + ` (
	id VARCHAR(191) NOT NULL PRIMARY KEY,
	task_type VARCHAR(64) NOT NULL,
	task_data TEXT NOT NULL,
	status VARCHAR(16) NOT NULL,
	task_result TEXT NULL,
	created_at VARCHAR(64) NOT NULL
)`
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate %s: %w", t, err)
		}
		s.ensured.Store(t, struct{}{})
	}
	return nil
}

// Get loads one record.
func (s *SQLStore) Get(ctx context.Context, table, id string) (*task.Record, error) {
	ident, err := s.prepare(ctx, table)
	if err != nil {
		return nil, err
	}
	q := `SELECT id, task_type, task_data, status, task_result, created_at FROM ` + ident + ` WHERE id = ` + s.bind(1)

	var (
		rec      task.Record
		taskData string
		result   sql.NullString
	)
	err = s.db.QueryRowContext(ctx, q, id).Scan(&rec.ID, &rec.TaskType, &taskData, &rec.Status, &result, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(table, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", table, id, err)
	}
	rec.TaskData = []byte(taskData)
	if result.Valid && result.String != "" {
		rec.TaskResult = []byte(result.String)
	}
	return &rec, nil
}

// Put inserts a new record.
func (s *SQLStore) Put(ctx context.Context, table string, record *task.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("put %s: %s", table, ecode.FieldIsRequired("record id"))
	}
	ident, err := s.prepare(ctx, table)
	if err != nil {
		return err
	}
	q := `INSERT INTO ` + ident + ` (id, task_type, task_data, status, task_result, created_at) VALUES (` +
		s.bind(1) + `, ` + s.bind(2) + `, ` + s.bind(3) + `, ` + s.bind(4) + `, ` + s.bind(5) + `, ` + s.bind(6) + `)`

	var result any
	if len(record.TaskResult) > 0 {
		result = string(record.TaskResult)
	}
	_, err = s.db.ExecContext(ctx, q, record.ID, string(record.TaskType), string(record.TaskData), string(record.Status), result, record.CreatedAt)
	if err != nil {
		// Unique violations differ per driver, so probe for the row instead.
		if _, getErr := s.Get(ctx, table, record.ID); getErr == nil {
			return fmt.Errorf("%w: %s/%s", ErrAlreadyExists, table, record.ID)
		}
		return fmt.Errorf("put %s/%s: %w", table, record.ID, err)
	}
	return nil
}

// UpdateStatus applies update when the stored status equals expect.
func (s *SQLStore) UpdateStatus(ctx context.Context, table, id string, expect task.Status, update task.StatusUpdate) error {
	ident, err := s.prepare(ctx, table)
	if err != nil {
		return err
	}

	var (
		q    string
		args []any
	)
	if update.TaskResult != nil {
		q = `UPDATE ` + ident + ` SET status = ` + s.bind(1) + `, task_result = ` + s.bind(2) +
			` WHERE id = ` + s.bind(3) + ` AND status = ` + s.bind(4)
		args = []any{string(update.Status), string(update.TaskResult), id, string(expect)}
	} else {
		q = `UPDATE ` + ident + ` SET status = ` + s.bind(1) + ` WHERE id = ` + s.bind(2) + ` AND status = ` + s.bind(3)
		args = []any{string(update.Status), id, string(expect)}
	}

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", table, id, err)
	}
	if n > 0 {
		return nil
	}

	current, err := s.Get(ctx, table, id)
	if err != nil {
		return err
	}
	return conflict(table, id, expect, current.Status)
}

func (s *SQLStore) prepare(ctx context.Context, table string) (string, error) {
	ident, err := s.quote(table)
	if err != nil {
		return "", err
	}
	if s.migrate {
		if _, ok := s.ensured.Load(table); !ok {
			if err := s.Migrate(ctx, table); err != nil {
				return "", err
			}
		}
	}
	return ident, nil
}

func (s *SQLStore) quote(table string) (string, error) {
	if !tableName.MatchString(table) {
		return "", fmt.Errorf("invalid queue table name %q", table)
	}
	if s.dialect == data.DialectMySQL {
		return "`" + table + "`", nil
	}
	return `"` + strings.ReplaceAll(table, `"`, "") + `"`, nil
}

func (s *SQLStore) bind(n int) string {
	if s.dialect == data.DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}
