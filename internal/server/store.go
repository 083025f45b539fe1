package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/repository"
	"github.com/noah-isme/student-portal-api/pkg/config"
	"github.com/noah-isme/student-portal-api/pkg/database"
)

var (
	openPostgres = database.NewPostgres
	migrate      = database.Migrate
)

// OpenStore returns the account store selected by cfg.StoreDriver and a
// function that releases it. The PostgreSQL schema is migrated to the latest
// version before the store is handed out.
func OpenStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (AccountStore, func(), error) {
	if logr == nil {
		logr = zap.NewNop()
	}
	if cfg.StoreDriver == config.StoreDriverMemory {
		logr.Warn("using in-memory account store; data is lost on restart")
		return repository.NewMemoryAccountRepository(), func() {}, nil
	}

	db, err := openPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrate(ctx, db.DB, database.MigrateUp); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}
	return repository.NewAccountRepository(db), func() { _ = db.Close() }, nil
}
