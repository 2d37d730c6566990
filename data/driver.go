package data

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/ncobase/taskrunner/data/config"
)

// DatabaseDriver defines the interface for relational database drivers.
// Following the design pattern of database/sql, drivers register themselves
// in init() functions and are looked up at runtime based on configuration.
type DatabaseDriver interface {
	// Name returns the driver identifier (e.g., "postgres", "mysql", "sqlite")
	Name() string

	// Dialect returns the placeholder/catalog dialect understood by the SQL store and source.
	Dialect() Dialect

	// Connect opens and pings a connection pool for the node.
	Connect(ctx context.Context, cfg *config.DBNode) (*sql.DB, error)
}

// Dialect describes the SQL flavour of a driver.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

var (
	databaseDrivers   = make(map[string]DatabaseDriver)
	databaseDriversMu sync.RWMutex
)

// RegisterDatabaseDriver makes a database driver available by the provided name.
// It panics if called twice with the same name or if driver is nil.
//
// Driver packages call it from init:
//
//	func init() {
//		data.RegisterDatabaseDriver(&driver{})
//	}
func RegisterDatabaseDriver(driver DatabaseDriver) {
	databaseDriversMu.Lock()
	defer databaseDriversMu.Unlock()

	if driver == nil {
		panic("data: RegisterDatabaseDriver driver is nil")
	}

	name := driver.Name()
	if name == "" {
		panic("data: RegisterDatabaseDriver driver name is empty")
	}

	if _, exists := databaseDrivers[name]; exists {
		panic(fmt.Sprintf("data: RegisterDatabaseDriver called twice for driver %s", name))
	}

	databaseDrivers[name] = driver
}

// GetDatabaseDriver retrieves a registered database driver by name.
func GetDatabaseDriver(name string) (DatabaseDriver, error) {
	databaseDriversMu.RLock()
	defer databaseDriversMu.RUnlock()

	driver, ok := databaseDrivers[name]
	if !ok {
		return nil, fmt.Errorf(
			"data: database driver %q not registered, import github.com/ncobase/taskrunner/data/%s (available: %v)",
			name, name, listDatabaseDriversLocked(),
		)
	}
	return driver, nil
}

// ListDatabaseDrivers returns the names of all registered database drivers.
func ListDatabaseDrivers() []string {
	databaseDriversMu.RLock()
	defer databaseDriversMu.RUnlock()
	return listDatabaseDriversLocked()
}

func listDatabaseDriversLocked() []string {
	names := make([]string, 0, len(databaseDrivers))
	for name := range databaseDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open connects to the node through its registered driver.
func Open(ctx context.Context, node *config.DBNode) (*sql.DB, Dialect, error) {
	if node == nil || node.Driver == "" {
		return nil, "", fmt.Errorf("data: database driver is not configured")
	}
	driver, err := GetDatabaseDriver(node.Driver)
	if err != nil {
		return nil, "", err
	}
	db, err := driver.Connect(ctx, node)
	if err != nil {
		return nil, "", err
	}
	return db, driver.Dialect(), nil
}

// OpenPool opens a database/sql pool, applies the node's pool settings and pings it.
func OpenPool(ctx context.Context, sqlDriver string, node *config.DBNode) (*sql.DB, error) {
	if node.Source == "" {
		return nil, fmt.Errorf("%s: connection source is empty", node.Driver)
	}

	db, err := sql.Open(sqlDriver, node.Source)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open connection: %w", node.Driver, err)
	}

	if node.MaxIdleConn > 0 {
		db.SetMaxIdleConns(node.MaxIdleConn)
	}
	if node.MaxOpenConn > 0 {
		db.SetMaxOpenConns(node.MaxOpenConn)
	}
	if node.ConnMaxLifeTime > 0 {
		db.SetConnMaxLifetime(node.ConnMaxLifeTime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", node.Driver, err)
	}
	return db, nil
}
