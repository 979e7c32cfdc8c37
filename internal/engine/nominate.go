package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/roach88/filmclub/internal/attr"
	"github.com/roach88/filmclub/internal/record"
	"github.com/roach88/filmclub/internal/store"
)

// Nomination is the input to NominateFilm.
type Nomination struct {
	DiscordUserID string
	FilmName      string
	IMDbID        *string

	// FilmID must be new. Use an IDGenerator.
	FilmID string

	// At is the nomination time.
	At time.Time
}

// NominateFilm opens a nomination for the user, registering them if this is
// their first. It fails with ErrCodeAlreadyNominated when the user already has
// an open nomination or the film ID is taken; nothing is written in that case.
func (e *Engine) NominateFilm(ctx context.Context, n Nomination) (_ record.Film, err error) {
	ctx, span := e.startSpan(ctx, "NominateFilm",
		attribute.String("user.id", n.DiscordUserID),
		attribute.String("film.id", n.FilmID),
	)
	defer func() { endSpan(span, err) }()

	film, err := record.NewNominatedFilm(n.FilmID, n.FilmName, n.IMDbID, n.DiscordUserID, n.At)
	if err != nil {
		return record.Film{}, userErrorf(ErrCodeInvalidNomination, "Unable to nominate: %v", err)
	}

	items := []store.TransactItem{
		// Register or update the user, as long as they have no open nomination.
		store.Update(e.userKey(n.DiscordUserID),
			store.Set(record.AttrNominatedFilmID, attr.String(film.FilmID)),
			store.Set(record.AttrVoteID, attr.Null{}),
			store.Set(record.AttrAttendanceVoteID, attr.Null{}),
		).If(store.Or(
			store.NotExists(),
			store.Equals(record.AttrNominatedFilmID, attr.Null{}),
		)),
		// Never reuse a film ID.
		store.Put(e.key(film.SK()), film.Item()).If(store.NotExists()),
	}

	err = e.transact(ctx, "nominate film", items, func(*store.TransactionCanceledError) error {
		return newAlreadyNominatedError()
	})
	if err != nil {
		return record.Film{}, err
	}

	e.logger.Info("film nominated",
		"user", n.DiscordUserID,
		"film_id", film.FilmID,
		"film_name", film.FilmName,
	)
	return film, nil
}
