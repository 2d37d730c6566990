// Package sqlite registers a cgo-free SQLite driver (modernc.org/sqlite) with data.
//
//	import _ "github.com/ncobase/taskrunner/data/sqlite"
//
// Use MaxOpenConn 1 for file databases written by several goroutines.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/ncobase/taskrunner/data"
	"github.com/ncobase/taskrunner/data/config"

	_ "modernc.org/sqlite" // SQLite driver
)

type driver struct{}

func (d *driver) Name() string { return "sqlite" }

func (d *driver) Dialect() data.Dialect { return data.DialectSQLite }

func (d *driver) Connect(ctx context.Context, cfg *config.DBNode) (*sql.DB, error) {
	return data.OpenPool(ctx, "sqlite", cfg)
}

func init() {
	data.RegisterDatabaseDriver(&driver{})
}
