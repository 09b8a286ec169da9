package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell/config"
)

func memoryEnvironment(t *testing.T, overrides map[string]string) {
	t.Helper()

	env := map[string]string{
		config.KeyStorageEngine: config.EngineMemory,
		config.KeyBcryptCost:    "4",
		config.KeyLogLevel:      "error",
		config.KeyHTTPAddr:      "127.0.0.1:0",
		config.KeyJWTSecret:     "",
		config.KeyOTelEndpoint:  "",
	}

	for key, value := range overrides {
		env[key] = value
	}

	for key, value := range env {
		t.Setenv(config.EnvPrefix+key, value)
	}
}

func execute(ctx context.Context, stdin string, args ...string) (string, error) {
	root := newRootCommand()

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)

	return stdout.String(), err
}

func Test_RootCommand_RegistersAllSubcommands(t *testing.T) {
	// arrange
	root := newRootCommand()

	// act
	names := make([]string, 0)
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}

	// assert
	for _, expected := range []string{"serve", "migrate", "seed", "sweep-overdue", "audit", "create-admin"} {
		assert.Contains(t, names, expected)
	}
}

func Test_Migrate_MemoryEngine_NeedsNoMigration(t *testing.T) {
	// arrange
	memoryEnvironment(t, nil)

	// act
	out, err := execute(t.Context(), "", "migrate")

	// assert
	require.NoError(t, err)
	assert.Equal(t, "the memory engine needs no migration\n", out)
}

func Test_Boot_RejectsInvalidConfig(t *testing.T) {
	// arrange
	memoryEnvironment(t, map[string]string{config.KeyStorageEngine: "oracle"})

	// act
	_, err := execute(t.Context(), "", "audit")

	// assert
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func Test_Boot_ReadsEnvFile(t *testing.T) {
	// arrange
	memoryEnvironment(t, nil)
	require.NoError(t, os.Unsetenv(config.EnvPrefix+config.KeyStorageEngine))

	envFile := filepath.Join(t.TempDir(), "libraryd.env")
	require.NoError(t, os.WriteFile(envFile, []byte(config.EnvPrefix+config.KeyStorageEngine+"=memory\n"), 0o600))

	// act
	out, err := execute(t.Context(), "", "migrate", "--env-file", envFile)

	// assert
	require.NoError(t, err)
	assert.Contains(t, out, "memory engine")
}

func Test_Seed_InsertsSampleCatalog(t *testing.T) {
	// arrange
	memoryEnvironment(t, nil)

	// act
	out, err := execute(t.Context(), "", "seed")

	// assert
	require.NoError(t, err)
	assert.Equal(t, "inserted 12 books, skipped 0\n", out)
}

func Test_SweepOverdue_EmptyLedger(t *testing.T) {
	// arrange
	memoryEnvironment(t, nil)

	// act
	out, err := execute(t.Context(), "", "sweep-overdue")

	// assert
	require.NoError(t, err)
	assert.Equal(t, "0 borrowings marked overdue\n", out)
}

func Test_Audit_ConsistentLedger_PrintsReport(t *testing.T) {
	// arrange
	memoryEnvironment(t, nil)

	// act
	out, err := execute(t.Context(), "", "audit")

	// assert
	require.NoError(t, err)
	compact := strings.Join(strings.Fields(out), "")
	assert.Contains(t, compact, `"consistent":true`)
	assert.Contains(t, compact, `"count":0`)
}

func Test_CreateAdmin_WithPasswordFromStdin(t *testing.T) {
	// arrange
	memoryEnvironment(t, nil)

	// act
	out, err := execute(t.Context(), "correct horse\n",
		"create-admin", "--name", "Ada Admin", "--email", "Ada@Example.com", "--password-stdin")

	// assert
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "created admin ada@example.com ("))
}

func Test_CreateAdmin_RejectsEmptyPassword(t *testing.T) {
	// arrange
	memoryEnvironment(t, nil)

	// act
	_, err := execute(t.Context(), "\n",
		"create-admin", "--name", "Ada Admin", "--email", "ada@example.com", "--password-stdin")

	// assert
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func Test_CreateAdmin_RequiresNameAndEmail(t *testing.T) {
	// arrange
	memoryEnvironment(t, nil)

	// act
	_, err := execute(t.Context(), "", "create-admin", "--password-stdin")

	// assert
	assert.ErrorContains(t, err, "required flag")
}

func Test_Serve_StopsWhenContextIsCanceled(t *testing.T) {
	// arrange
	memoryEnvironment(t, nil)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)

	// act
	go func() {
		_, err := execute(ctx, "", "serve")
		done <- err
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	// assert
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
}
