package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSearcher returns fixed results and records the last query.
type stubSearcher struct {
	results []SearchResult
	err     error
	query   *string
	limit   *int
}

func (s stubSearcher) SearchFilms(_ context.Context, query string, limit int) ([]SearchResult, error) {
	if s.query != nil {
		*s.query = query
	}
	if s.limit != nil {
		*s.limit = limit
	}
	return s.results, s.err
}

func complete(t *testing.T, d *Dispatcher, in Interaction) []Choice {
	t.Helper()
	resp, err := d.Handle(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, ResponseAutocompleteResult, resp.Type)
	cs := resp.Choices()
	require.NotNil(t, cs, "choices must be present even when empty")
	return cs
}

func TestAutocomplete_Vote(t *testing.T) {
	d, clock := newTestDispatcher(t)
	for _, u := range []string{"a", "b", "c"} {
		handle(t, d, command(u, "nominate", film("Film "+u)))
		clock.Advance(time.Minute)
	}
	handle(t, d, command("a", "vote", film("film-3")))

	// Newest first, own film excluded, ranking ignored.
	assert.Equal(t, []Choice{
		{Name: "Film c", Value: "film-3"},
		{Name: "Film a", Value: "film-1"},
	}, complete(t, d, autocomplete("b", "vote", "")))
}

func TestAutocomplete_Watch(t *testing.T) {
	d, clock := newTestDispatcher(t)
	for _, u := range []string{"a", "b", "c"} {
		handle(t, d, command(u, "nominate", film("Film "+u)))
		clock.Advance(time.Minute)
	}
	handle(t, d, command("a", "vote", film("film-3")))

	// Ranked, including the caller's own film.
	assert.Equal(t, []Choice{
		{Name: "Film c", Value: "film-3"},
		{Name: "Film a", Value: "film-1"},
		{Name: "Film b", Value: "film-2"},
	}, complete(t, d, autocomplete("b", "watch", "")))
}

func TestAutocomplete_Empty(t *testing.T) {
	d, _ := newTestDispatcher(t)
	assert.Empty(t, complete(t, d, autocomplete("a", "watch", "")))
	assert.Empty(t, complete(t, d, autocomplete("a", "vote", "")))
}

func TestAutocomplete_CapsChoices(t *testing.T) {
	d, clock := newTestDispatcher(t)
	for i := 0; i < MaxChoices+5; i++ {
		handle(t, d, command(fmt.Sprintf("user-%02d", i), "nominate", film(fmt.Sprintf("Film %02d", i))))
		clock.Advance(time.Minute)
	}
	assert.Len(t, complete(t, d, autocomplete("x", "watch", "")), MaxChoices)
}

func TestAutocomplete_Nominate(t *testing.T) {
	var query string
	var limit int
	searcher := stubSearcher{
		query: &query,
		limit: &limit,
		results: []SearchResult{
			{IMDbID: "0133093", Title: "The Matrix", Year: 1999, Kind: KindMovie},
			{IMDbID: "0106062", Title: "Matrix", Year: 1993, Kind: "tv series"},
			{IMDbID: "0234215", Title: "The Matrix Reloaded", Year: 2003, Kind: KindMovie},
			{IMDbID: "1", Title: "M1", Year: 2001, Kind: KindMovie},
			{IMDbID: "2", Title: "M2", Year: 2002, Kind: KindMovie},
			{IMDbID: "3", Title: "M3", Year: 2003, Kind: KindMovie},
			{IMDbID: "4", Title: "M4", Year: 2004, Kind: KindMovie},
		},
	}
	d, _ := newTestDispatcher(t, WithFilmSearcher(searcher))

	cs := complete(t, d, autocomplete("a", "nominate", "matrix"))
	assert.Equal(t, "matrix", query)
	assert.Equal(t, 10, limit)
	require.Len(t, cs, 5)
	assert.Equal(t, Choice{Name: "The Matrix (1999)", Value: "IMDB:0133093:The Matrix (1999)"}, cs[0])
	assert.Equal(t, "The Matrix Reloaded (2003)", cs[1].Name)
	assert.Equal(t, "M3 (2003)", cs[4].Name)

	// The chosen value nominates with the IMDb ID attached.
	msg := handle(t, d, command("a", "nominate", film(cs[0].Value)))
	assert.Contains(t, msg.Content, "  1. <@a> The Matrix (1999) (0 votes) [IMDB](<https://imdb.com/title/tt0133093>)")
}

func TestAutocomplete_NominateWithoutSearcher(t *testing.T) {
	d, _ := newTestDispatcher(t)
	assert.Empty(t, complete(t, d, autocomplete("a", "nominate", "matrix")))
}

func TestAutocomplete_NominateSearchFails(t *testing.T) {
	d, _ := newTestDispatcher(t, WithFilmSearcher(stubSearcher{err: errors.New("timeout")}))
	assert.Empty(t, complete(t, d, autocomplete("a", "nominate", "matrix")))
}
