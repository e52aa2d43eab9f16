package core

import (
	"fmt"
	"os"

	"github.com/biosustain/consortia-synthetic-anaerobe/internal/infra/persistence/memory"
	"github.com/biosustain/consortia-synthetic-anaerobe/internal/infra/persistence/postgres"
	"github.com/biosustain/consortia-synthetic-anaerobe/internal/infra/persistence/sqlite"
	"github.com/biosustain/consortia-synthetic-anaerobe/pkg/metabolic"
)

// StorageDriver identifies a concrete archive implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersistentStore selects an archive backend using environment
// variables. Defaults to sqlite when unset.
//
//	FLUXCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	FLUXCORE_SQLITE_PATH: path to sqlite file (default ./fluxcore.db)
//	FLUXCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore() (metabolic.Store, error) {
	driver := os.Getenv("FLUXCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return sqlite.NewStore(os.Getenv("FLUXCORE_SQLITE_PATH"))
	case StoragePostgres:
		return postgres.NewStore(os.Getenv("FLUXCORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
