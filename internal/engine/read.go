package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/roach88/filmclub/internal/attr"
	"github.com/roach88/filmclub/internal/record"
	"github.com/roach88/filmclub/internal/store"
)

// UserNomination pairs a user with their open nomination, if any.
type UserNomination struct {
	User record.User
	Film *record.Film
}

// WatchedPage is one page of watch history.
type WatchedPage struct {
	Films []record.Film

	// NextKey resumes the traversal. Empty when the history is exhausted.
	NextKey string
}

// Outstanding lists who is holding up the current cycle.
type Outstanding struct {
	NeedToNominate []string
	NeedToVote     []string
}

// Any reports whether anybody has something left to do.
func (o Outstanding) Any() bool {
	return len(o.NeedToNominate) > 0 || len(o.NeedToVote) > 0
}

// Users returns every user in the guild keyed by Discord user ID.
func (e *Engine) Users(ctx context.Context) (_ map[string]record.User, err error) {
	ctx, span := e.startSpan(ctx, "Users")
	defer func() { endSpan(span, err) }()

	items, err := e.store.QueryAll(ctx, store.Query{PK: e.guildID, Prefix: record.UserPrefix})
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}

	users := make(map[string]record.User, len(items))
	for _, item := range items {
		u, err := record.UserFromItem(item)
		if err != nil {
			return nil, fmt.Errorf("get users: %w", err)
		}
		users[u.DiscordUserID] = u
	}

	e.logger.Debug("read users", "count", len(users))
	return users, nil
}

// Nominations returns the nominated films in watch priority order.
// See RankNominations.
func (e *Engine) Nominations(ctx context.Context) (_ []record.Film, err error) {
	ctx, span := e.startSpan(ctx, "Nominations")
	defer func() { endSpan(span, err) }()

	films, err := e.queryFilms(ctx, record.NominatedPrefix)
	if err != nil {
		return nil, fmt.Errorf("get nominations: %w", err)
	}

	e.logger.Debug("read nominations", "count", len(films))
	return RankNominations(films), nil
}

// UsersByNomination joins every user with their nominated film. Users with a
// nomination come first in nomination rank order, then users without one in
// user ID order.
func (e *Engine) UsersByNomination(ctx context.Context) (_ []UserNomination, err error) {
	ctx, span := e.startSpan(ctx, "UsersByNomination")
	defer func() { endSpan(span, err) }()

	users, err := e.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("get users by nomination: %w", err)
	}
	films, err := e.Nominations(ctx)
	if err != nil {
		return nil, fmt.Errorf("get users by nomination: %w", err)
	}

	out := make([]UserNomination, 0, len(users))
	joined := make(map[string]bool, len(films))
	for _, f := range films {
		u, ok := users[f.DiscordUserID]
		if !ok || u.NominatedFilmID == nil || *u.NominatedFilmID != f.FilmID {
			continue
		}
		out = append(out, UserNomination{User: u, Film: &f})
		joined[u.DiscordUserID] = true
	}

	for _, id := range sortedUserIDs(users) {
		if !joined[id] {
			out = append(out, UserNomination{User: users[id]})
		}
	}
	return out, nil
}

// WatchedFilms returns every watched film, oldest first.
func (e *Engine) WatchedFilms(ctx context.Context) (_ []record.Film, err error) {
	ctx, span := e.startSpan(ctx, "WatchedFilms")
	defer func() { endSpan(span, err) }()

	films, err := e.queryFilms(ctx, record.WatchedPrefix)
	if err != nil {
		return nil, fmt.Errorf("get watched films: %w", err)
	}
	return films, nil
}

// WatchedFilmsAfter returns up to limit watched films, oldest first, starting
// after startKey. Pass an empty startKey for the first page and the returned
// NextKey for the following ones.
func (e *Engine) WatchedFilmsAfter(ctx context.Context, limit int, startKey string) (_ WatchedPage, err error) {
	ctx, span := e.startSpan(ctx, "WatchedFilmsAfter", attribute.Int("limit", limit))
	defer func() { endSpan(span, err) }()

	if limit <= 0 {
		return WatchedPage{}, userErrorf(ErrCodeInvalidPage, "Page size must be positive, got %d", limit)
	}
	if startKey != "" && !strings.HasPrefix(startKey, record.WatchedPrefix) {
		return WatchedPage{}, userErrorf(ErrCodeInvalidPage, "Invalid history continuation key")
	}

	page, err := e.store.Query(ctx, store.Query{
		PK:       e.guildID,
		Prefix:   record.WatchedPrefix,
		Limit:    limit,
		StartKey: startKey,
	})
	if errors.Is(err, store.ErrInvalidStartKey) {
		return WatchedPage{}, userErrorf(ErrCodeInvalidPage, "Invalid history continuation key")
	}
	if err != nil {
		return WatchedPage{}, fmt.Errorf("get watched films after: %w", err)
	}

	films, err := decodeFilms(page.Items)
	if err != nil {
		return WatchedPage{}, fmt.Errorf("get watched films after: %w", err)
	}
	return WatchedPage{Films: films, NextKey: page.LastKey}, nil
}

// NominatedFilm returns the nominated film with the given ID.
func (e *Engine) NominatedFilm(ctx context.Context, filmID string) (_ record.Film, _ bool, err error) {
	ctx, span := e.startSpan(ctx, "NominatedFilm", attribute.String("film.id", filmID))
	defer func() { endSpan(span, err) }()

	item, ok, err := e.store.GetItem(ctx, e.nominatedKey(filmID))
	if err != nil {
		return record.Film{}, false, fmt.Errorf("get nominated film: %w", err)
	}
	if !ok {
		return record.Film{}, false, nil
	}
	f, err := record.FilmFromItem(item)
	if err != nil {
		return record.Film{}, false, fmt.Errorf("get nominated film: %w", err)
	}
	return f, true, nil
}

// LatestWatched returns the most recently watched film.
func (e *Engine) LatestWatched(ctx context.Context) (_ record.Film, _ bool, err error) {
	ctx, span := e.startSpan(ctx, "LatestWatched")
	defer func() { endSpan(span, err) }()

	f, ok, err := e.latestWatched(ctx)
	if err != nil {
		return record.Film{}, false, fmt.Errorf("get latest watched: %w", err)
	}
	return f, ok, nil
}

func (e *Engine) latestWatched(ctx context.Context) (record.Film, bool, error) {
	page, err := e.store.Query(ctx, store.Query{
		PK:      e.guildID,
		Prefix:  record.WatchedPrefix,
		Reverse: true,
		Limit:   1,
	})
	if err != nil {
		return record.Film{}, false, err
	}
	if len(page.Items) == 0 {
		return record.Film{}, false, nil
	}
	f, err := record.FilmFromItem(page.Items[0])
	if err != nil {
		return record.Film{}, false, err
	}
	return f, true, nil
}

// AllFilms returns nominated and watched films, oldest nomination first.
func (e *Engine) AllFilms(ctx context.Context) (_ []record.Film, err error) {
	ctx, span := e.startSpan(ctx, "AllFilms")
	defer func() { endSpan(span, err) }()

	films, err := e.queryFilms(ctx, record.FilmPrefix)
	if err != nil {
		return nil, fmt.Errorf("get all films: %w", err)
	}
	sortByNominationDate(films)
	return films, nil
}

// Outstanding returns the users who still have to nominate or vote, each
// list in user ID order.
func (e *Engine) Outstanding(ctx context.Context) (_ Outstanding, err error) {
	ctx, span := e.startSpan(ctx, "Outstanding")
	defer func() { endSpan(span, err) }()

	users, err := e.Users(ctx)
	if err != nil {
		return Outstanding{}, fmt.Errorf("get outstanding: %w", err)
	}

	var out Outstanding
	for _, id := range sortedUserIDs(users) {
		u := users[id]
		if !u.HasNominated() {
			out.NeedToNominate = append(out.NeedToNominate, id)
		}
		if !u.HasVoted() {
			out.NeedToVote = append(out.NeedToVote, id)
		}
	}
	return out, nil
}

func (e *Engine) queryFilms(ctx context.Context, prefix string) ([]record.Film, error) {
	items, err := e.store.QueryAll(ctx, store.Query{PK: e.guildID, Prefix: prefix})
	if err != nil {
		return nil, err
	}
	return decodeFilms(items)
}

func decodeFilms(items []attr.Item) ([]record.Film, error) {
	films := make([]record.Film, 0, len(items))
	for _, item := range items {
		f, err := record.FilmFromItem(item)
		if err != nil {
			return nil, err
		}
		films = append(films, f)
	}
	return films, nil
}

func sortedUserIDs(users map[string]record.User) []string {
	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
