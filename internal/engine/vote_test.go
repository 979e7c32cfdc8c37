package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupVoters nominates one film per user: film-a, film-b, ...
func setupVoters(t *testing.T, e *Engine, users ...string) {
	t.Helper()
	for i, u := range users {
		nominate(t, e, u, "Film "+u, t0.Add(time.Duration(i)*time.Minute))
	}
}

func TestCastPreferenceVote_NotRegistered(t *testing.T) {
	e, s := newTestEngine(t)
	setupVoters(t, e, "a")
	before := snapshot(t, s, "guild-1")

	_, err := e.CastPreferenceVote(context.Background(), "stranger", "film-a")
	requireUserError(t, err, ErrCodeNotRegistered)
	assert.Equal(t, "You can't vote until you have nominated a film", err.Error())
	assert.Equal(t, before, snapshot(t, s, "guild-1"))
}

func TestCastPreferenceVote_OwnFilm(t *testing.T) {
	e, s := newTestEngine(t)
	setupVoters(t, e, "a", "b")
	ctx := context.Background()

	// Holding a vote elsewhere must not change the outcome.
	_, err := e.CastPreferenceVote(ctx, "a", "film-b")
	require.NoError(t, err)
	before := snapshot(t, s, "guild-1")

	_, err = e.CastPreferenceVote(ctx, "a", "film-a")
	requireUserError(t, err, ErrCodeOwnFilm)
	assert.Equal(t, "You can't vote for your own film", err.Error())
	assert.Equal(t, before, snapshot(t, s, "guild-1"))
}

func TestCastPreferenceVote_UnknownFilm(t *testing.T) {
	e, s := newTestEngine(t)
	setupVoters(t, e, "a")
	before := snapshot(t, s, "guild-1")

	_, err := e.CastPreferenceVote(context.Background(), "a", "nope")
	requireUserError(t, err, ErrCodeUnknownFilm)
	assert.Equal(t, "There is no nominated film with that (nope)", err.Error())
	assert.Equal(t, before, snapshot(t, s, "guild-1"))
}

func TestCastPreferenceVote_WatchedFilmIsUnknown(t *testing.T) {
	e, _ := newTestEngine(t)
	setupVoters(t, e, "a", "b")
	ctx := context.Background()

	_, err := e.StartWatchingFilm(ctx, "film-a", []string{"a"}, t0.Add(time.Hour))
	require.NoError(t, err)

	_, err = e.CastPreferenceVote(ctx, "b", "film-a")
	requireUserError(t, err, ErrCodeUnknownFilm)
}

func TestCastPreferenceVote_MovesVote(t *testing.T) {
	e, _ := newTestEngine(t)
	setupVoters(t, e, "a", "b", "c")
	ctx := context.Background()

	status, err := e.CastPreferenceVote(ctx, "a", "film-b")
	require.NoError(t, err)
	assert.Equal(t, VotingIncomplete, status)
	assert.Equal(t, int64(1), mustNominated(t, e, "film-b").CastVotes)

	_, err = e.CastPreferenceVote(ctx, "a", "film-c")
	require.NoError(t, err)
	assert.Equal(t, int64(0), mustNominated(t, e, "film-b").CastVotes)
	assert.Equal(t, int64(1), mustNominated(t, e, "film-c").CastVotes)
	assert.Equal(t, "film-c", *mustUser(t, e, "a").VoteID)
}

func TestCastPreferenceVote_SameVoteIsNoop(t *testing.T) {
	e, s := newTestEngine(t)
	setupVoters(t, e, "a", "b")
	ctx := context.Background()

	status, err := e.CastPreferenceVote(ctx, "a", "film-b")
	require.NoError(t, err)
	assert.Equal(t, VotingIncomplete, status)

	before := snapshot(t, s, "guild-1")
	status, err = e.CastPreferenceVote(ctx, "a", "film-b")
	require.NoError(t, err)
	assert.Equal(t, VotingIncomplete, status)
	assert.Equal(t, before, snapshot(t, s, "guild-1"))

	_, err = e.CastPreferenceVote(ctx, "b", "film-a")
	require.NoError(t, err)

	// Re-voting reports the same completeness a fresh read would.
	status, err = e.CastPreferenceVote(ctx, "a", "film-b")
	require.NoError(t, err)
	assert.Equal(t, VotingComplete, status)
	assert.Equal(t, int64(1), mustNominated(t, e, "film-b").CastVotes)
}

func TestCastPreferenceVote_Completeness(t *testing.T) {
	e, _ := newTestEngine(t)
	setupVoters(t, e, "a", "b", "c")
	ctx := context.Background()

	votes := []struct {
		user, film string
		want       VotingStatus
	}{
		{"a", "film-b", VotingIncomplete},
		{"b", "film-c", VotingIncomplete},
		{"a", "film-c", VotingIncomplete}, // changing a vote does not complete
		{"c", "film-a", VotingComplete},
		{"c", "film-b", VotingComplete},
	}
	for _, v := range votes {
		status, err := e.CastPreferenceVote(ctx, v.user, v.film)
		require.NoError(t, err)
		assert.Equal(t, v.want, status, "%s -> %s", v.user, v.film)
	}
}

func TestCastPreferenceVote_Conservation(t *testing.T) {
	e, _ := newTestEngine(t)
	users := []string{"a", "b", "c", "d", "e"}
	setupVoters(t, e, users...)
	ctx := context.Background()

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 60; i++ {
		voter := users[rng.Intn(len(users))]
		target := "film-" + users[rng.Intn(len(users))]

		_, err := e.CastPreferenceVote(ctx, voter, target)
		if err != nil {
			requireUserError(t, err, ErrCodeOwnFilm)
		}
		require.Equal(t, votersCount(t, e), castVotesSum(t, e), "after step %d", i)
	}
}

func TestCastPreferenceVote_ConcurrentConservation(t *testing.T) {
	e, _ := newTestEngine(t)
	users := []string{"a", "b", "c", "d"}
	setupVoters(t, e, users...)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i, voter := range users {
		for j := 0; j < 5; j++ {
			wg.Add(1)
			target := fmt.Sprintf("film-%s", users[(i+1+j%3)%len(users)])
			go func() {
				defer wg.Done()
				_, err := e.CastPreferenceVote(ctx, voter, target)
				if err != nil {
					assert.True(t, IsConflict(err), "unexpected error: %v", err)
				}
			}()
		}
	}
	wg.Wait()

	assert.Equal(t, votersCount(t, e), castVotesSum(t, e))
}

func TestCastPreferenceVote_StaleReadIsConflict(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	setup := New(s, "guild-1")
	setupVoters(t, setup, "a", "b", "c")

	// Another request moves a's vote after our read.
	racing := &interceptStore{Store: s, before: func() {
		_, err := setup.CastPreferenceVote(ctx, "a", "film-c")
		require.NoError(t, err)
	}}
	e := New(racing, "guild-1")

	_, err := e.CastPreferenceVote(ctx, "a", "film-b")
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.False(t, IsUserError(err))

	assert.Equal(t, "film-c", *mustUser(t, setup, "a").VoteID)
	assert.Equal(t, int64(0), mustNominated(t, setup, "film-b").CastVotes)
	assert.Equal(t, int64(1), mustNominated(t, setup, "film-c").CastVotes)
}
