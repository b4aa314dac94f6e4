// Package sqlite opens song library databases on whichever SQLite driver the binary was
// built with: modernc.org/sqlite by default, or mattn/go-sqlite3 under the cgo_sqlite tag.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Memory is the data source name of a private in-memory database.
const Memory = ":memory:"

// Options are the connection pragmas applied by Open.
type Options struct {
	// BusyTimeout is how long a statement waits on another writer's lock. Zero fails at once.
	BusyTimeout time.Duration
	ForeignKeys bool
	// WAL switches file databases to write-ahead logging. Ignored for Memory.
	WAL bool
}

func (o Options) pragmas(path string) []string {
	p := []string{fmt.Sprintf("PRAGMA busy_timeout = %d", o.BusyTimeout.Milliseconds())}
	if o.ForeignKeys {
		p = append(p, "PRAGMA foreign_keys = ON")
	}
	if o.WAL && path != Memory {
		p = append(p, "PRAGMA journal_mode = WAL")
	}
	return p
}

// Open returns a single-connection handle to the database at path with opts applied.
// One connection keeps an in-memory database alive and serializes writers.
func Open(ctx context.Context, path string, opts Options) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driverType, err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range opts.pragmas(path) {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	return db, nil
}

// IsBusy reports whether err is SQLITE_BUSY or SQLITE_LOCKED from the compiled-in driver,
// meaning the statement may succeed once the other writer finishes.
func IsBusy(err error) bool {
	return err != nil && isBusy(err)
}

// DriverType is "purego" for modernc.org/sqlite and "cgo" for mattn/go-sqlite3.
func DriverType() string {
	return driverType
}

// Info describes the driver compiled into the binary.
type Info struct {
	Name    string `json:"driver_name"`
	Type    string `json:"driver_type"`
	Package string `json:"package"`
}

func Driver() Info {
	return Info{Name: driverName, Type: driverType, Package: driverPackage}
}
