package docstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/parisxmas/formcraft/internal/db"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverOxiDB    = "oxidb"
)

type Options struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
	OxiDBHost   string
	OxiDBPort   int
	PoolSize    int
}

// Open connects the backend named by opts.Driver.
func Open(ctx context.Context, opts Options, log *zap.Logger) (Store, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		return OpenSQLite(ctx, opts.SQLitePath)
	case DriverPostgres:
		return OpenPostgres(ctx, opts.PostgresDSN)
	case DriverOxiDB:
		pool, err := db.NewPool(opts.OxiDBHost, opts.OxiDBPort, opts.PoolSize, log)
		if err != nil {
			return nil, err
		}
		return NewOxiStore(pool), nil
	}
	return nil, fmt.Errorf("docstore: unknown driver %q", opts.Driver)
}
