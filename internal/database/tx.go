package database

import (
	"context"
	"fmt"

	"storytelling-server/internal/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// WithTx runs fn in a transaction, rolling back on error or panic.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(context.Background())
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}
	return nil
}

// NewRepositories binds every content and session repository to db.
func NewRepositories(db interfaces.DBTX, logger *zap.Logger) interfaces.Repositories {
	return interfaces.Repositories{
		Stories:      NewPgStoryRepository(db, logger),
		Chapters:     NewPgChapterRepository(db, logger),
		Choices:      NewPgChoiceRepository(db, logger),
		Sessions:     NewPgSessionRepository(db, logger),
		ChoiceEvents: NewPgChoiceEventRepository(db, logger),
	}
}

var _ interfaces.TxManager = (*pgTxManager)(nil)

type pgTxManager struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewTxManager returns a TxManager that hands fn repositories bound to one pgx.Tx.
func NewTxManager(pool *pgxpool.Pool, logger *zap.Logger) interfaces.TxManager {
	return &pgTxManager{pool: pool, logger: logger}
}

func (m *pgTxManager) WithinTx(ctx context.Context, fn func(repos interfaces.Repositories) error) error {
	return WithTx(ctx, m.pool, func(tx pgx.Tx) error {
		return fn(NewRepositories(tx, m.logger))
	})
}
