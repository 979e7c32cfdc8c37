package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/roach88/filmclub/internal/attr"
	"github.com/roach88/filmclub/internal/record"
	"github.com/roach88/filmclub/internal/store"
)

// StartWatchingFilm moves filmID from nominated to watched.
//
// In one transaction it clears every user's vote, registers attendance for
// the present users, clears the nominator's nomination, gives each present
// user's own open nomination one attendance vote, and re-keys the film under
// its watch time. Returns the watched film.
//
// Other films keep their CastVotes: counts carry over to the next cycle
// even though the votes behind them are cleared.
func (e *Engine) StartWatchingFilm(ctx context.Context, filmID string, present []string, now time.Time) (_ record.Film, err error) {
	ctx, span := e.startSpan(ctx, "StartWatchingFilm",
		attribute.String("film.id", filmID),
		attribute.Int("present", len(present)),
	)
	defer func() { endSpan(span, err) }()

	now = record.NormalizeTime(now)

	present = slices.Clone(present)
	slices.Sort(present)
	present = slices.Compact(present)
	if len(present) == 0 {
		return record.Film{}, userErrorf(ErrCodeNoAttendees, "At least one user must be present to start watching a film")
	}

	film, ok, err := e.NominatedFilm(ctx, filmID)
	if err != nil {
		return record.Film{}, fmt.Errorf("start watching film: %w", err)
	}
	if !ok {
		return record.Film{}, newUnknownFilmError(filmID)
	}

	users, err := e.Users(ctx)
	if err != nil {
		return record.Film{}, fmt.Errorf("start watching film: %w", err)
	}
	for _, id := range present {
		if _, known := users[id]; !known {
			return record.Film{}, userErrorf(ErrCodeUnknownUser, "<@%s> must nominate a film before attending", id)
		}
	}

	last, watchedBefore, err := e.latestWatched(ctx)
	if err != nil {
		return record.Film{}, fmt.Errorf("start watching film: %w", err)
	}
	if watchedBefore && now.Before(last.Watch.DateWatched.Add(WatchCooldown)) {
		return record.Film{}, userErrorf(ErrCodeWatchCooldown, "At least 24 hours must pass before watching films")
	}

	watched, err := film.Watched(now, present)
	if err != nil {
		return record.Film{}, fmt.Errorf("start watching film: %w", err)
	}

	var items []store.TransactItem
	for _, id := range sortedUserIDs(users) {
		u := users[id]
		isPresent := slices.Contains(present, id)
		isNominator := id == film.DiscordUserID

		attendance := attr.Value(attr.Null{})
		if isPresent {
			attendance = attr.String(filmID)
		}
		actions := []store.Action{
			store.Set(record.AttrVoteID, attr.Null{}),
			store.Set(record.AttrAttendanceVoteID, attendance),
		}
		if isNominator {
			actions = append(actions, store.Set(record.AttrNominatedFilmID, attr.Null{}))
		}

		// Staleness guard: the nomination we based this write on is unchanged.
		items = append(items, store.Update(e.userKey(id), actions...).If(
			store.Equals(record.AttrNominatedFilmID, attr.OptString(u.NominatedFilmID)),
		))

		if isPresent && !isNominator && u.NominatedFilmID != nil {
			items = append(items, store.Update(e.nominatedKey(*u.NominatedFilmID),
				store.Add(record.AttrAttendanceVotes, 1),
			).If(store.Exists()))
		}
	}

	deleteIdx := len(items)
	items = append(items,
		// Guards against the same film being watched twice in quick succession.
		store.Delete(e.nominatedKey(filmID)).If(store.Exists()),
		store.Put(e.key(watched.SK()), watched.Item()).If(store.NotExists()),
	)

	err = e.transact(ctx, "start watching film", items, func(tce *store.TransactionCanceledError) error {
		if tce.FailedAt(deleteIdx) {
			return newUnknownFilmError(filmID)
		}
		return &ConflictError{Op: "start watching film", Err: tce}
	})
	if err != nil {
		return record.Film{}, err
	}

	e.logger.Info("film watched",
		"film_id", filmID,
		"film_name", watched.FilmName,
		"present", present,
		"users", len(users),
	)
	return watched, nil
}
