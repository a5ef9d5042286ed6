package store

import (
	"fmt"
	"os"
)

// Driver identifies a record-store backend.
type Driver string

const (
	// DriverFS is the canonical filesystem driver.
	DriverFS Driver = "fs"
	// DriverMemory is the in-memory test driver.
	DriverMemory Driver = "memory"
	// DriverSQLite is the snapshotting SQLite driver.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres is the snapshotting Postgres driver.
	DriverPostgres Driver = "postgres"
)

// Open selects a RecordStore implementation using environment variables.
// Defaults to the filesystem driver when unset.
//
//	MEDFLOW_STORAGE_DRIVER: fs|memory|sqlite|postgres (default fs)
//	MEDFLOW_DATA_DIR: data directory when driver=fs (default ./patient_data)
//	MEDFLOW_SQLITE_PATH: path to sqlite file (default medflow.db)
//	MEDFLOW_POSTGRES_DSN: postgres DSN when driver=postgres
func Open(opts ...Option) (RecordStore, error) {
	driver := os.Getenv("MEDFLOW_STORAGE_DRIVER")
	if driver == "" {
		driver = string(DriverFS)
	}
	switch Driver(driver) {
	case DriverFS:
		return NewFSStore(os.Getenv("MEDFLOW_DATA_DIR"), opts...)
	case DriverMemory:
		return NewMemoryStore(opts...), nil
	case DriverSQLite:
		return NewSQLiteStore(os.Getenv("MEDFLOW_SQLITE_PATH"), opts...)
	case DriverPostgres:
		return NewPostgresStore(os.Getenv("MEDFLOW_POSTGRES_DSN"), opts...)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
