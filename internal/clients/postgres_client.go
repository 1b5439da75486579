package clients

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	postgresInstance Postgres
	postgresErr      error
	postgresOnce     sync.Once
)

type Postgres struct {
	DB *pgxpool.Pool
}

// GetPostgresClient connects the shared pool on first use. Later calls return
// the same pool (or the same connection error) regardless of dsn.
func GetPostgresClient(ctx context.Context, dsn string) (Postgres, error) {
	postgresOnce.Do(func() {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			postgresErr = fmt.Errorf("[PostgresClient] failed to create pool: %w", err)
			return
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			postgresErr = fmt.Errorf("[PostgresClient] failed to ping PostgreSQL: %w", err)
			return
		}

		postgresInstance = Postgres{DB: pool}
		slog.Info("[PostgresClient] Connected to PostgreSQL")
	})

	return postgresInstance, postgresErr
}

func (p Postgres) Close() {
	if p.DB != nil {
		p.DB.Close()
	}
}
