package storage

import (
	"path/filepath"
	"testing"

	"coin-control/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func newTestStore(t *testing.T) *CredentialStore {
	t.Helper()

	store := NewCredentialStore(filepath.Join(t.TempDir(), "credentials.db"), logger.NewLogger("ERROR", "test"))
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { store.Close() })
	return store
}

// -----------------------------------------------------------------------------

func TestCredentialStoreEmptyReadsBlank(t *testing.T) {
	store := newTestStore(t)

	token, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, "", token)
}

// -----------------------------------------------------------------------------

func TestCredentialStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Write("tok1"))

	token, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, "tok1", token)

	// A later write replaces, never appends
	require.NoError(t, store.Write("tok2"))
	token, err = store.Read()
	require.NoError(t, err)
	assert.Equal(t, "tok2", token)
}

// -----------------------------------------------------------------------------

func TestCredentialStoreClear(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Write("tok1"))
	require.NoError(t, store.Clear())

	token, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, "", token)

	// Clearing an already empty store is fine
	require.NoError(t, store.Clear())
}
