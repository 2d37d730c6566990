// Package source reads the tables or collections exported by the export tasks.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/ncobase/taskrunner/data/config"
	"github.com/ncobase/taskrunner/data/connection"
	"github.com/ncobase/taskrunner/ecode"
)

// ErrUnknownTable is returned by FindMany for a table the source does not expose.
var ErrUnknownTable = errors.New("unknown table")

// Row is one record keyed by column name.
type Row = map[string]any

// Source enumerates tables and reads every row of one.
type Source interface {
	// Tables returns the exportable tables in a stable order.
	Tables(ctx context.Context) ([]string, error)
	// FindMany returns all rows of table.
	FindMany(ctx context.Context, table string) ([]Row, error)
}

// New returns the source selected by conf.Source.
func New(conf *config.Config, conns *connection.Connections) (Source, error) {
	switch conf.Source {
	case "sql":
		if conns == nil || conns.DB == nil {
			return nil, errors.New("sql source selected but no database is connected")
		}
		var tables []string
		if conf.Database != nil {
			tables = conf.Database.Tables
		}
		return NewSQLSource(conns.DB, conns.Dialect, tables), nil
	case "mongodb":
		if conns == nil || conns.MG == nil || conf.MongoDB == nil {
			return nil, errors.New("mongodb source selected but no client is connected")
		}
		return NewMongoSource(conns.MG.Database(conf.MongoDB.Database), conf.MongoDB.Collections), nil
	case "static", "":
		return NewStaticSource(nil), nil
	default:
		return nil, fmt.Errorf("%s %q", ecode.Unsupported("data source"), conf.Source)
	}
}

func contains(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}
