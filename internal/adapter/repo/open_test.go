package repo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"socialgood/internal/infra"
)

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	file, err := Open(ctx, &infra.Config{RecordStore: infra.StoreFile, DataPath: filepath.Join(dir, "d.json")}, nil)
	require.NoError(t, err)
	defer file.Close()
	require.IsType(t, &DonationFileStore{}, file.Store)
	require.Nil(t, file.Pool)

	lite, err := Open(ctx, &infra.Config{RecordStore: infra.StoreSQLite, SQLitePath: filepath.Join(dir, "d.db")}, nil)
	require.NoError(t, err)
	defer lite.Close()
	require.IsType(t, &DonationSQLiteStore{}, lite.Store)

	_, err = Open(ctx, &infra.Config{RecordStore: "mongo"}, nil)
	require.Error(t, err)
}
