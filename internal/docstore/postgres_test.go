package docstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// Runs against a disposable database named by FORMCRAFT_TEST_POSTGRES_DSN.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("FORMCRAFT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FORMCRAFT_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.pool.Exec(ctx, `DELETE FROM documents`)
	require.NoError(t, err)

	runStoreSuite(t, s)
}
