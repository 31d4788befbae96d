package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalp9197/luxe-ecommerce-site/database"
	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/repository"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedTwiceThenPromote(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	out, err := run(t, "--db", dbPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")

	out, err = run(t, "--db", dbPath, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "created 2 users, 4 categories, 5 products, 2 reviews")

	out, err = run(t, "--db", dbPath, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "created 0 users, 0 categories, 0 products, 0 reviews")

	out, err = run(t, "--db", dbPath, "create-admin", "JOHN@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "john@example.com")

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	john, err := repository.NewSQLiteUserRepo(db.Conn).GetByEmail(context.Background(), "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, john.Role)
}

func TestCreateAdminNeedsPasswordForNewAccount(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	_, err := run(t, "--db", dbPath, "create-admin", "new@example.com")
	assert.Error(t, err)

	out, err := run(t, "--db", dbPath, "create-admin", "new@example.com", "--password", "longenough")
	require.NoError(t, err)
	assert.Contains(t, out, "is now ADMIN")
}

func TestSeedDryRunDoesNotOpenDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing", "cli.db")

	out, err := run(t, "--db", dbPath, "seed", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "would seed 2 users")
	assert.NoFileExists(t, dbPath)
}
