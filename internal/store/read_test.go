package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/filmclub/internal/attr"
)

func seedPartition(t *testing.T, s *Store) {
	t.Helper()
	for _, sk := range []string{
		"USER#b",
		"USER#a",
		"FILM#NOMINATED#f2",
		"FILM#NOMINATED#f1",
		"FILM#WATCHED#2024-01-02T00:00:00.000000Z#w2",
		"FILM#WATCHED#2024-01-01T00:00:00.000000Z#w1",
		"FILM#WATCHED#2024-01-03T00:00:00.000000Z#w3",
	} {
		mustPut(t, s, "guild-1", sk, attr.Item{"Name": attr.String(sk)})
	}
	mustPut(t, s, "guild-2", "USER#z", attr.Item{})
}

func TestGetItem(t *testing.T) {
	s := createTestStore(t)
	mustPut(t, s, "g", "USER#abc", attr.Item{
		"VoteID":    attr.Null{},
		"CastVotes": attr.Int(3),
	})

	item := mustGet(t, s, "g", "USER#abc")
	assert.Equal(t, attr.String("g"), item[AttrPK])
	assert.Equal(t, attr.String("USER#abc"), item[AttrSK])
	assert.Equal(t, attr.Null{}, item["VoteID"])
	assert.Equal(t, attr.Int(3), item["CastVotes"])
}

func TestGetItem_Missing(t *testing.T) {
	s := createTestStore(t)

	item, ok, err := s.GetItem(context.Background(), Key{PK: "g", SK: "USER#nobody"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, item)
}

func TestGetItem_RequiresKey(t *testing.T) {
	s := createTestStore(t)

	_, _, err := s.GetItem(context.Background(), Key{PK: "g"})
	assert.Error(t, err)
}

func TestQuery_PrefixAndOrder(t *testing.T) {
	s := createTestStore(t)
	seedPartition(t, s)
	ctx := context.Background()

	page, err := s.Query(ctx, Query{PK: "guild-1", Prefix: "USER#"})
	require.NoError(t, err)
	assert.Equal(t, []string{"USER#a", "USER#b"}, sks(page.Items))
	assert.Empty(t, page.LastKey)

	page, err = s.Query(ctx, Query{PK: "guild-1", Prefix: "FILM#NOMINATED#"})
	require.NoError(t, err)
	assert.Equal(t, []string{"FILM#NOMINATED#f1", "FILM#NOMINATED#f2"}, sks(page.Items))

	page, err = s.Query(ctx, Query{PK: "guild-1", Prefix: "FILM#"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
}

func TestQuery_PartitionIsolation(t *testing.T) {
	s := createTestStore(t)
	seedPartition(t, s)

	page, err := s.Query(context.Background(), Query{PK: "guild-2", Prefix: "USER#"})
	require.NoError(t, err)
	assert.Equal(t, []string{"USER#z"}, sks(page.Items))

	page, err = s.Query(context.Background(), Query{PK: "guild-3", Prefix: "USER#"})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestQuery_ReverseLimitOne(t *testing.T) {
	s := createTestStore(t)
	seedPartition(t, s)

	page, err := s.Query(context.Background(), Query{
		PK:      "guild-1",
		Prefix:  "FILM#WATCHED#",
		Reverse: true,
		Limit:   1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"FILM#WATCHED#2024-01-03T00:00:00.000000Z#w3"}, sks(page.Items))
	assert.Equal(t, "FILM#WATCHED#2024-01-03T00:00:00.000000Z#w3", page.LastKey)
}

func TestQuery_Pagination(t *testing.T) {
	s := createTestStore(t)
	seedPartition(t, s)
	ctx := context.Background()

	q := Query{PK: "guild-1", Prefix: "FILM#WATCHED#", Limit: 2}
	first, err := s.Query(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"FILM#WATCHED#2024-01-01T00:00:00.000000Z#w1",
		"FILM#WATCHED#2024-01-02T00:00:00.000000Z#w2",
	}, sks(first.Items))
	require.Equal(t, "FILM#WATCHED#2024-01-02T00:00:00.000000Z#w2", first.LastKey)

	q.StartKey = first.LastKey
	second, err := s.Query(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"FILM#WATCHED#2024-01-03T00:00:00.000000Z#w3"}, sks(second.Items))
	assert.Empty(t, second.LastKey, "no cursor once exhausted")
}

func TestQuery_ExactPageHasNoCursor(t *testing.T) {
	s := createTestStore(t)
	seedPartition(t, s)

	page, err := s.Query(context.Background(), Query{PK: "guild-1", Prefix: "USER#", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Empty(t, page.LastKey)
}

func TestQuery_InvalidStartKey(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Query(context.Background(), Query{
		PK:       "guild-1",
		Prefix:   "FILM#WATCHED#",
		StartKey: "USER#abc",
	})
	assert.ErrorIs(t, err, ErrInvalidStartKey)
}

func TestQueryAll_FollowsCursor(t *testing.T) {
	s := createTestStore(t)
	seedPartition(t, s)

	items, err := s.QueryAll(context.Background(), Query{PK: "guild-1", Prefix: "FILM#", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"FILM#NOMINATED#f1",
		"FILM#NOMINATED#f2",
		"FILM#WATCHED#2024-01-01T00:00:00.000000Z#w1",
		"FILM#WATCHED#2024-01-02T00:00:00.000000Z#w2",
		"FILM#WATCHED#2024-01-03T00:00:00.000000Z#w3",
	}, sks(items))
}

func TestPrefixEnd(t *testing.T) {
	end, ok := prefixEnd("USER#")
	require.True(t, ok)
	assert.Equal(t, "USER$", end)

	end, ok = prefixEnd("a\xff")
	require.True(t, ok)
	assert.Equal(t, "b", end)

	_, ok = prefixEnd("\xff\xff")
	assert.False(t, ok)
}
