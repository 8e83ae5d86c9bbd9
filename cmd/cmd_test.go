package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kairos/store"
)

func run(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestMaintenanceCommands(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "kairos.db")
	t.Setenv("KAIROS_DATABASE_DRIVER", "sqlite3")
	t.Setenv("KAIROS_DATABASE_DSN", dsn)
	t.Setenv("KAIROS_LOG_LEVEL", "error")

	require.NoError(t, run("migrate"))
	require.NoError(t, run("catalog", "import"))
	require.NoError(t, run("user", "create", "--username", "admin", "--password", "secret1"))

	err := run("user", "create", "--username", "admin", "--password", "secret1")
	assert.True(t, errors.Is(err, store.ErrDuplicate), "got %v", err)

	err = run("user", "create", "--username", "bob", "--password", "123")
	assert.True(t, errors.Is(err, store.ErrValidation), "got %v", err)

	err = run("catalog", "import", "--file", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	st, err := store.Open("sqlite3", dsn, store.Options{})
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()

	ps, err := st.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, ps, 15)

	ws, err := st.ListWeighables(ctx)
	require.NoError(t, err)
	assert.Len(t, ws, 5)

	u, err := st.UserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", u.PasswordHash)
}

func TestServeRequiresSecret(t *testing.T) {
	t.Setenv("KAIROS_DATABASE_DRIVER", "sqlite3")
	t.Setenv("KAIROS_DATABASE_DSN", "file:"+filepath.Join(t.TempDir(), "kairos.db"))
	t.Setenv("KAIROS_AUTH_SECRET", "")

	err := run("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth secret is required")
}
