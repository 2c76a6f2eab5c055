// Package storage defines the Storage interface, the contract that any
// database backend must satisfy to work with this application.
//
// Handlers (HTTP layer) should not know or care which database they are
// talking to. Two backends implement the contract: sqlite (an embedded
// file, the default) and mongodb (a MongoDB document store). New picks one
// from the configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/aanand-mishra/student-registry/internal/config"
	"github.com/aanand-mishra/student-registry/internal/search"
	"github.com/aanand-mishra/student-registry/internal/storage/mongodb"
	"github.com/aanand-mishra/student-registry/internal/storage/sqlite"
	"github.com/aanand-mishra/student-registry/internal/types"
)

// Storage is the database contract.
type Storage interface {
	// CreateStudent persists a validated record, assigning its id and
	// timestamps, and returns the generated id. Exactly one write.
	CreateStudent(ctx context.Context, student types.Student) (string, error)

	// SearchStudents returns the records matching any condition of q
	// (all records for an empty query), most recently created first.
	SearchStudents(ctx context.Context, q search.Query) ([]types.Student, error)

	// EnsureIndexes creates the indexes declared in types.StudentIndexes.
	// Safe to run repeatedly.
	EnsureIndexes(ctx context.Context) error

	// Close releases the underlying connections.
	Close(ctx context.Context) error
}

// New opens the backend selected by cfg.Storage.Driver.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	// Each branch checks err itself so a failed open returns a nil
	// interface rather than one wrapping a nil pointer.
	switch cfg.Storage.Driver {
	case config.DriverSQLite, "":
		s, err := sqlite.New(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMongo:
		m, err := mongodb.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("storage.New: unknown driver %q", cfg.Storage.Driver)
	}
}
