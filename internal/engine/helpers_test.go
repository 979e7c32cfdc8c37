package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/filmclub/internal/record"
	"github.com/roach88/filmclub/internal/store"
)

// t0 is the reference time for tests.
var t0 = time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(dir + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	s := setupTestStore(t)
	return New(s, "guild-1"), s
}

// nominate nominates a film with ID "film-<user>" and fails the test on error.
func nominate(t *testing.T, e *Engine, user, name string, at time.Time) record.Film {
	t.Helper()
	f, err := e.NominateFilm(context.Background(), Nomination{
		DiscordUserID: user,
		FilmName:      name,
		FilmID:        "film-" + user,
		At:            at,
	})
	require.NoError(t, err)
	return f
}

// snapshot returns the canonical JSON of every item in the guild, so tests
// can assert that a rejected operation changed nothing.
func snapshot(t *testing.T, s *store.Store, guild string) string {
	t.Helper()
	items, err := s.QueryAll(context.Background(), store.Query{PK: guild})
	require.NoError(t, err)
	data, err := json.Marshal(items)
	require.NoError(t, err)
	return string(data)
}

func mustUser(t *testing.T, e *Engine, id string) record.User {
	t.Helper()
	users, err := e.Users(context.Background())
	require.NoError(t, err)
	u, ok := users[id]
	require.True(t, ok, "user %s not found", id)
	return u
}

func mustNominated(t *testing.T, e *Engine, filmID string) record.Film {
	t.Helper()
	f, ok, err := e.NominatedFilm(context.Background(), filmID)
	require.NoError(t, err)
	require.True(t, ok, "film %s not nominated", filmID)
	return f
}

// requireUserError asserts err is a *UserError with the given code.
func requireUserError(t *testing.T, err error, code UserErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.True(t, IsUserError(err), "expected user error, got %v", err)
	require.Equal(t, code, UserErrorCodeOf(err))
}

// castVotesSum sums CastVotes over the nominated films.
func castVotesSum(t *testing.T, e *Engine) int64 {
	t.Helper()
	films, err := e.Nominations(context.Background())
	require.NoError(t, err)
	var sum int64
	for _, f := range films {
		sum += f.CastVotes
	}
	return sum
}

// votersCount counts users with a vote.
func votersCount(t *testing.T, e *Engine) int64 {
	t.Helper()
	users, err := e.Users(context.Background())
	require.NoError(t, err)
	var n int64
	for _, u := range users {
		if u.HasVoted() {
			n++
		}
	}
	return n
}

// interceptStore runs before once, just before the first TransactWrite,
// simulating a concurrent request landing between our read and our write.
type interceptStore struct {
	Store
	before func()
	done   bool
}

func (s *interceptStore) TransactWrite(ctx context.Context, items []store.TransactItem) error {
	if !s.done {
		s.done = true
		s.before()
	}
	return s.Store.TransactWrite(ctx, items)
}
