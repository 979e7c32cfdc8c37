package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/filmclub/internal/attr"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustPut writes one unconditional item.
func mustPut(t *testing.T, s *Store, pk, sk string, item attr.Item) {
	t.Helper()
	err := s.TransactWrite(context.Background(), []TransactItem{
		Put(Key{PK: pk, SK: sk}, item),
	})
	require.NoError(t, err)
}

// mustGet reads an item that must exist.
func mustGet(t *testing.T, s *Store, pk, sk string) attr.Item {
	t.Helper()
	item, ok, err := s.GetItem(context.Background(), Key{PK: pk, SK: sk})
	require.NoError(t, err)
	require.True(t, ok, "item %s/%s not found", pk, sk)
	return item
}

// sks returns the SK of every item, in order.
func sks(items []attr.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = string(it[AttrSK].(attr.String))
	}
	return out
}
