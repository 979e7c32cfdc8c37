package dispatch

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/filmclub/internal/record"
)

// MaxChoices is the most autocomplete choices Discord displays.
const MaxChoices = 25

// maxSearchResults caps /nominate suggestions.
const maxSearchResults = 5

// FilmSearcher looks up films by partial title for /nominate autocomplete.
type FilmSearcher interface {
	// SearchFilms returns up to limit matches. Results may include TV shows
	// and other non-film entries.
	SearchFilms(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// SearchResult is one title match.
type SearchResult struct {
	IMDbID string
	Title  string
	Year   int
	Kind   string // "movie", "tv series", ...
}

// KindMovie is the SearchResult kind offered as a nomination.
const KindMovie = "movie"

func (d *Dispatcher) handleAutocomplete(ctx context.Context, req request) (Response, error) {
	switch req.name {
	case "nominate":
		return d.completeNominate(ctx, req)

	case "vote":
		films, err := d.engineFor(req.guildID).Nominations(ctx)
		if err != nil {
			return Response{}, err
		}
		// Newest first, without the caller's own film.
		films = slices.DeleteFunc(films, func(f record.Film) bool {
			return f.DiscordUserID == req.userID
		})
		slices.SortStableFunc(films, func(a, b record.Film) int {
			return b.DateNominated.Compare(a.DateNominated)
		})
		return choices(filmChoices(films)), nil

	case "watch":
		// Ranked, since the top film is most likely the one being watched.
		films, err := d.engineFor(req.guildID).Nominations(ctx)
		if err != nil {
			return Response{}, err
		}
		return choices(filmChoices(films)), nil

	default:
		return Response{}, fmt.Errorf("autocomplete not supported for /%s", req.name)
	}
}

// completeNominate suggests films from the searcher. Search failures are
// logged and answered with no suggestions.
func (d *Dispatcher) completeNominate(ctx context.Context, req request) (Response, error) {
	if d.searcher == nil {
		return choices(nil), nil
	}
	query, err := req.option(optionFilm)
	if err != nil {
		return Response{}, err
	}
	if query == "" {
		return choices(nil), nil
	}

	// Ask for extra results since non-films are dropped.
	results, err := d.searcher.SearchFilms(ctx, query, maxSearchResults*2)
	if err != nil {
		d.logger.Warn("film search failed", "query", query, "error", err)
		return choices(nil), nil
	}

	var cs []Choice
	for _, r := range results {
		if r.Kind != KindMovie {
			continue
		}
		name := fmt.Sprintf("%s (%d)", r.Title, r.Year)
		cs = append(cs, Choice{Name: name, Value: EncodeIMDb(r.IMDbID, name)})
		if len(cs) == maxSearchResults {
			break
		}
	}
	return choices(cs), nil
}

func filmChoices(films []record.Film) []Choice {
	if len(films) > MaxChoices {
		films = films[:MaxChoices]
	}
	cs := make([]Choice, len(films))
	for i, f := range films {
		cs[i] = Choice{Name: f.FilmName, Value: f.FilmID}
	}
	return cs
}
