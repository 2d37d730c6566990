// Package mysql registers the MySQL driver with data.
//
//	import _ "github.com/ncobase/taskrunner/data/mysql"
//
// The DSN should set parseTime=true so DATETIME columns scan into time.Time.
package mysql

import (
	"context"
	"database/sql"

	"github.com/ncobase/taskrunner/data"
	"github.com/ncobase/taskrunner/data/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

type driver struct{}

func (d *driver) Name() string { return "mysql" }

func (d *driver) Dialect() data.Dialect { return data.DialectMySQL }

func (d *driver) Connect(ctx context.Context, cfg *config.DBNode) (*sql.DB, error) {
	return data.OpenPool(ctx, "mysql", cfg)
}

func init() {
	data.RegisterDatabaseDriver(&driver{})
}
