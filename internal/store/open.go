package store

import (
	"context"
	"fmt"

	"github.com/biferdou/grallix/internal/model"
)

// Open returns the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg model.DatabaseConfig) (Store, error) {
	switch cfg.Backend {
	case model.BackendFile, "":
		return NewFileStore(cfg.Path)
	case model.BackendSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case model.BackendMongo:
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case model.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Backend)
	}
}
