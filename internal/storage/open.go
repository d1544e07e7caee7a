package storage

import (
	"fmt"
	"time"
)

const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
	DriverNull   = "null"
)

// Open returns the store for driver at path. An empty driver means bolt,
// and the ":memory:" path always yields a MemoryStore unless the driver
// is sqlite.
func Open(driver, path string, timeout time.Duration) (Store, error) {
	switch driver {
	case "", DriverBolt:
		if path == ":memory:" {
			return NewMemoryStore(), nil
		}
		return NewBoltStore(path, timeout)
	case DriverSQLite:
		return NewSQLiteStore(path)
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverNull:
		return NullStore{}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}
