package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/filmclub/internal/record"
)

func TestNominateFilm_RegistersUser(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	f, err := e.NominateFilm(ctx, Nomination{
		DiscordUserID: "abc",
		FilmName:      " My Film Name ",
		IMDbID:        record.Ptr("012345"),
		FilmID:        "f1",
		At:            t0,
	})
	require.NoError(t, err)
	assert.Equal(t, "My Film Name", f.FilmName)
	assert.Equal(t, "012345", *f.IMDbID)

	u := mustUser(t, e, "abc")
	assert.Equal(t, "f1", *u.NominatedFilmID)
	assert.Nil(t, u.VoteID)
	assert.Nil(t, u.AttendanceVoteID)

	stored := mustNominated(t, e, "f1")
	assert.True(t, f.Equal(stored))
	assert.Zero(t, stored.CastVotes)
	assert.Zero(t, stored.AttendanceVotes)
	assert.False(t, stored.IsWatched())
}

func TestNominateFilm_Exclusivity(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()
	nominate(t, e, "abc", "First", t0)

	before := snapshot(t, s, "guild-1")

	for _, name := range []string{"First", "Second"} {
		_, err := e.NominateFilm(ctx, Nomination{
			DiscordUserID: "abc",
			FilmName:      name,
			FilmID:        "other-" + name,
			At:            t0.Add(time.Minute),
		})
		requireUserError(t, err, ErrCodeAlreadyNominated)
		assert.Equal(t, "Unable to nominate a film as you have already nominated one", err.Error())
	}

	assert.Equal(t, before, snapshot(t, s, "guild-1"), "rejected nomination must not change state")
}

func TestNominateFilm_FilmIDReuse(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	g1 := New(s, "guild-1")
	g2 := New(s, "guild-2")

	_, err := g1.NominateFilm(ctx, Nomination{DiscordUserID: "abc", FilmName: "A", FilmID: "shared", At: t0})
	require.NoError(t, err)

	before := snapshot(t, s, "guild-1")
	_, err = g1.NominateFilm(ctx, Nomination{DiscordUserID: "def", FilmName: "B", FilmID: "shared", At: t0})
	requireUserError(t, err, ErrCodeAlreadyNominated)
	assert.Equal(t, before, snapshot(t, s, "guild-1"))

	users, err := g1.Users(ctx)
	require.NoError(t, err)
	assert.NotContains(t, users, "def", "user must not be registered by a rejected nomination")

	// The same ID in another guild is independent.
	_, err = g2.NominateFilm(ctx, Nomination{DiscordUserID: "def", FilmName: "B", FilmID: "shared", At: t0})
	require.NoError(t, err)
	assert.Equal(t, "B", mustNominated(t, g2, "shared").FilmName)
	assert.Equal(t, "A", mustNominated(t, g1, "shared").FilmName)
}

func TestNominateFilm_Invalid(t *testing.T) {
	e, s := newTestEngine(t)

	tests := []Nomination{
		{DiscordUserID: "abc", FilmName: "   ", FilmID: "f1", At: t0},
		{DiscordUserID: "abc", FilmName: "Film", FilmID: "", At: t0},
		{DiscordUserID: "abc", FilmName: "Film", FilmID: "a#b", At: t0},
		{DiscordUserID: "abc", FilmName: "Film", FilmID: "bad\xff", At: t0},
		{DiscordUserID: "ab\xc3", FilmName: "Film", FilmID: "f1", At: t0},
	}
	for _, n := range tests {
		_, err := e.NominateFilm(context.Background(), n)
		requireUserError(t, err, ErrCodeInvalidNomination)
	}
	assert.Equal(t, "[]", snapshot(t, s, "guild-1"))
}

func TestNominateFilm_DecomposedIDsStayReadable(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	// "e" + combining acute accent; not in NFC form.
	filmID := "cafe\u0301"
	_, err := e.NominateFilm(ctx, Nomination{
		DiscordUserID: "abc",
		FilmName:      "Film",
		FilmID:        filmID,
		At:            t0,
	})
	require.NoError(t, err)

	noms, err := e.Nominations(ctx)
	require.NoError(t, err)
	require.Len(t, noms, 1)
	assert.Equal(t, filmID, noms[0].FilmID)

	f := mustNominated(t, e, filmID)
	assert.Equal(t, filmID, f.FilmID)
	assert.Equal(t, filmID, *mustUser(t, e, "abc").NominatedFilmID)

	nominate(t, e, "def", "Other", t0)
	status, err := e.CastPreferenceVote(ctx, "def", filmID)
	require.NoError(t, err)
	assert.NotEmpty(t, status)
	assert.Equal(t, int64(1), mustNominated(t, e, filmID).CastVotes)
}

func TestNominateFilm_AfterWatching(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	nominate(t, e, "abc", "First", t0)

	_, err := e.StartWatchingFilm(ctx, "film-abc", []string{"abc"}, t0.Add(time.Hour))
	require.NoError(t, err)

	// The nominator's slot is free again, and the new nomination resets the
	// attendance recorded by the watch.
	_, err = e.NominateFilm(ctx, Nomination{DiscordUserID: "abc", FilmName: "Second", FilmID: "f2", At: t0.Add(2 * time.Hour)})
	require.NoError(t, err)

	u := mustUser(t, e, "abc")
	assert.Equal(t, "f2", *u.NominatedFilmID)
	assert.Nil(t, u.AttendanceVoteID)
}
