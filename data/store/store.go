// Package store persists task records per queue table.
//
// Every implementation applies UpdateStatus only when the stored status equals
// the expected one, and reports ErrStatusConflict otherwise.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ncobase/taskrunner/data/config"
	"github.com/ncobase/taskrunner/data/connection"
	"github.com/ncobase/taskrunner/ecode"
	"github.com/ncobase/taskrunner/task"
)

var (
	// ErrNotFound is returned when no record exists for the id.
	ErrNotFound = errors.New(ecode.NotExist("task record"))
	// ErrStatusConflict is returned when the stored status differs from the expected one.
	ErrStatusConflict = task.ErrStatusConflict
	// ErrAlreadyExists is returned by Put when the id is already taken.
	ErrAlreadyExists = errors.New("task record already exists")
)

// Store reads and writes task records.
type Store interface {
	task.StatusWriter
	Get(ctx context.Context, table, id string) (*task.Record, error)
	Put(ctx context.Context, table string, record *task.Record) error
}

// New returns the store selected by conf.Store over the opened connections.
func New(conf *config.Config, conns *connection.Connections) (Store, error) {
	switch conf.Store {
	case "", "memory":
		return NewMemoryStore(), nil
	case "dynamodb":
		if conns == nil || conns.DDB == nil {
			return nil, errors.New("dynamodb store selected but no client is connected")
		}
		return NewDynamoStore(conns.DDB), nil
	case "sql":
		if conns == nil || conns.DB == nil {
			return nil, errors.New("sql store selected but no database is connected")
		}
		migrate := conf.Database != nil && conf.Database.Migrate
		return NewSQLStore(conns.DB, conns.Dialect, migrate), nil
	case "redis":
		if conns == nil || conns.RC == nil {
			return nil, errors.New("redis store selected but no client is connected")
		}
		prefix := ""
		if conf.Redis != nil {
			prefix = conf.Redis.KeyPrefix
		}
		return NewRedisStore(conns.RC, prefix), nil
	default:
		return nil, fmt.Errorf("%s %q", ecode.Unsupported("task store"), conf.Store)
	}
}

func conflict(table, id string, expect, got task.Status) error {
	return &task.ConflictError{Table: table, ID: id, Expected: expect, Found: got}
}

func notFound(table, id string) error {
	return fmt.Errorf("%w: %s/%s", ErrNotFound, table, id)
}
