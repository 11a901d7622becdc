package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *ReceiptStore {
	t.Helper()
	store, err := NewReceiptStore(filepath.Join(t.TempDir(), "receipts"), zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestReceiptStore_SaveKeepsExtensionAndContent(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Save("Lunch Receipt.PDF", strings.NewReader("pdf bytes"))
	require.NoError(t, err)
	assert.Equal(t, ".pdf", filepath.Ext(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(content))
}

func TestReceiptStore_SaveNeverCollides(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Save("receipt.png", strings.NewReader("a"))
	require.NoError(t, err)
	second, err := store.Save("receipt.png", strings.NewReader("b"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestReceiptStore_Remove(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Save("receipt.jpg", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, store.Remove(path))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestReceiptStore_RemoveRejectsOutsidePath(t *testing.T) {
	store := newTestStore(t)

	err := store.Remove("/etc/passwd")
	assert.Error(t, err)
}
