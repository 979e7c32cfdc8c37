package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/filmclub/internal/attr"
)

func TestTransactWrite_PutIgnoresKeyAttributes(t *testing.T) {
	s := createTestStore(t)
	mustPut(t, s, "g", "USER#abc", attr.Item{
		AttrPK: attr.String("other"),
		AttrSK: attr.String("USER#other"),
		"X":    attr.Bool(true),
	})

	item := mustGet(t, s, "g", "USER#abc")
	assert.Equal(t, attr.String("USER#abc"), item[AttrSK])
	assert.Equal(t, attr.Bool(true), item["X"])
}

func TestTransactWrite_ConditionFailureWritesNothing(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustPut(t, s, "g", "USER#abc", attr.Item{"VoteID": attr.Null{}})

	err := s.TransactWrite(ctx, []TransactItem{
		Update(Key{PK: "g", SK: "FILM#NOMINATED#f1"}, Add("CastVotes", 1)),
		Put(Key{PK: "g", SK: "USER#abc"}, attr.Item{"VoteID": attr.String("f1")}).
			If(NotExists()),
	})
	require.Error(t, err)
	require.True(t, IsTransactionCanceled(err))

	tce, ok := AsTransactionCanceled(err)
	require.True(t, ok)
	assert.Equal(t, []CancellationReason{ReasonNone, ReasonConditionalCheckFailed}, tce.Reasons)
	assert.Equal(t, []int{1}, tce.Failed())
	assert.True(t, tce.FailedAt(1))
	assert.False(t, tce.FailedAt(0))
	assert.False(t, tce.FailedAt(5))

	_, exists, err := s.GetItem(ctx, Key{PK: "g", SK: "FILM#NOMINATED#f1"})
	require.NoError(t, err)
	assert.False(t, exists, "first item must not be written")
	assert.Equal(t, attr.Null{}, mustGet(t, s, "g", "USER#abc")["VoteID"])
}

func TestTransactWrite_Conditions(t *testing.T) {
	s := createTestStore(t)
	mustPut(t, s, "g", "USER#abc", attr.Item{
		"NominatedFilmID": attr.String("f1"),
		"VoteID":          attr.Null{},
	})

	key := Key{PK: "g", SK: "USER#abc"}
	missing := Key{PK: "g", SK: "USER#nobody"}

	tests := []struct {
		name string
		key  Key
		cond Condition
		ok   bool
	}{
		{"not exists on missing", missing, NotExists(), true},
		{"not exists on present", key, NotExists(), false},
		{"exists on present", key, Exists(), true},
		{"exists on missing", missing, Exists(), false},
		{"equals match", key, Equals("NominatedFilmID", attr.String("f1")), true},
		{"equals mismatch", key, Equals("NominatedFilmID", attr.String("f2")), false},
		{"equals explicit null", key, Equals("VoteID", attr.Null{}), true},
		{"equals null matches absent attribute", key, Equals("AttendanceVoteID", attr.Null{}), true},
		{"equals on missing item", missing, Equals("VoteID", attr.Null{}), false},
		{"or upsert guard on missing", missing, Or(NotExists(), Equals("NominatedFilmID", attr.Null{})), true},
		{"or upsert guard on nominated", key, Or(NotExists(), Equals("NominatedFilmID", attr.Null{})), false},
		{"and", key, And(Exists(), Equals("VoteID", attr.Null{})), true},
		{"and short", key, And(Exists(), Equals("VoteID", attr.String("x"))), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A passing condition on a missing key upserts it, so each case
			// gets its own missing key.
			target := tt.key
			if target == missing {
				target.SK += "/" + tt.name
			}
			err := s.TransactWrite(context.Background(), []TransactItem{
				Update(Key{PK: "g", SK: "PROBE#" + tt.name}, Set("Seen", attr.Bool(true))),
				Update(target, Set("Touched", attr.Bool(true))).If(tt.cond),
			})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, IsTransactionCanceled(err), "got %v", err)
			}
		})
	}
}

func TestTransactWrite_UpdateActions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	key := Key{PK: "g", SK: "FILM#WATCHED#x#f1"}

	require.NoError(t, s.TransactWrite(ctx, []TransactItem{
		Update(key,
			Set("FilmName", attr.String("Film")),
			Add("AttendanceVotes", 2),
			AddToSet("UsersAttended", "b"),
		),
	}))
	require.NoError(t, s.TransactWrite(ctx, []TransactItem{
		Update(key,
			Add("AttendanceVotes", -1),
			AddToSet("UsersAttended", "a", "b"),
		).If(Exists()),
	}))

	item := mustGet(t, s, "g", key.SK)
	assert.Equal(t, attr.String("Film"), item["FilmName"])
	assert.Equal(t, attr.Int(1), item["AttendanceVotes"])
	assert.Equal(t, attr.StringSet{"a", "b"}, item["UsersAttended"])
}

func TestTransactWrite_AddToSetOnNull(t *testing.T) {
	s := createTestStore(t)
	mustPut(t, s, "g", "F", attr.Item{"UsersAttended": attr.Null{}})

	require.NoError(t, s.TransactWrite(context.Background(), []TransactItem{
		Update(Key{PK: "g", SK: "F"}, AddToSet("UsersAttended", "a")),
	}))
	assert.Equal(t, attr.StringSet{"a"}, mustGet(t, s, "g", "F")["UsersAttended"])
}

func TestTransactWrite_TypeMismatchIsFault(t *testing.T) {
	s := createTestStore(t)
	mustPut(t, s, "g", "F", attr.Item{"CastVotes": attr.String("three")})

	err := s.TransactWrite(context.Background(), []TransactItem{
		Update(Key{PK: "g", SK: "F"}, Add("CastVotes", 1)),
	})
	require.Error(t, err)
	assert.False(t, IsTransactionCanceled(err))
	assert.Equal(t, attr.String("three"), mustGet(t, s, "g", "F")["CastVotes"])
}

func TestTransactWrite_DeleteAndReinsert(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustPut(t, s, "g", "FILM#NOMINATED#f1", attr.Item{"FilmName": attr.String("Film")})

	move := []TransactItem{
		Delete(Key{PK: "g", SK: "FILM#NOMINATED#f1"}).If(Exists()),
		Put(Key{PK: "g", SK: "FILM#WATCHED#t#f1"}, attr.Item{"FilmName": attr.String("Film")}),
	}
	require.NoError(t, s.TransactWrite(ctx, move))

	_, exists, err := s.GetItem(ctx, Key{PK: "g", SK: "FILM#NOMINATED#f1"})
	require.NoError(t, err)
	assert.False(t, exists)
	mustGet(t, s, "g", "FILM#WATCHED#t#f1")

	// Second invocation loses the existence guard.
	err = s.TransactWrite(ctx, move)
	assert.True(t, IsTransactionCanceled(err))
}

func TestTransactWrite_Rejections(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.TransactWrite(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptyTransaction)

	key := Key{PK: "g", SK: "USER#abc"}
	err = s.TransactWrite(ctx, []TransactItem{
		Update(key, Add("N", 1)),
		Update(key, Add("N", 1)),
	})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	err = s.TransactWrite(ctx, []TransactItem{Put(Key{PK: "g"}, attr.Item{})})
	assert.Error(t, err)

	err = s.TransactWrite(ctx, []TransactItem{
		Update(key, Set("S", attr.StringSet{})),
	})
	assert.ErrorIs(t, err, attr.ErrEmptySet)
}

func TestTransactWrite_ConcurrentCompareAndSwap(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	key := Key{PK: "g", SK: "COUNTER"}
	mustPut(t, s, "g", "COUNTER", attr.Item{"N": attr.Int(0)})

	// Each worker reads N and writes N+1 guarded on the value it read.
	// Exactly one worker can win for every value of N.
	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item, _, err := s.GetItem(ctx, key)
			if err != nil {
				return
			}
			n := item["N"].(attr.Int)
			err = s.TransactWrite(ctx, []TransactItem{
				Update(key, Set("N", n+1)).If(Equals("N", n)),
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	final := mustGet(t, s, "g", "COUNTER")["N"].(attr.Int)
	assert.Equal(t, attr.Int(wins), final, "every successful write is counted exactly once")
	assert.GreaterOrEqual(t, wins, 1)
}

func TestTransactItem_String(t *testing.T) {
	ti := Update(Key{PK: "g", SK: "USER#abc"}, Set("VoteID", attr.String("f1"))).
		If(Or(NotExists(), Equals("VoteID", attr.Null{})))
	assert.Equal(t,
		`Update g/USER#abc IF (attribute_not_exists(SK) OR VoteID = {"NULL":true})`,
		ti.String())
}
