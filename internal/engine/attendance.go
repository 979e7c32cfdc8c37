package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/roach88/filmclub/internal/attr"
	"github.com/roach88/filmclub/internal/record"
	"github.com/roach88/filmclub/internal/store"
)

// AttendanceStatus reports the outcome of RecordAttendanceVote.
type AttendanceStatus string

const (
	AttendanceRegistered        AttendanceStatus = "REGISTERED"
	AttendanceAlreadyRegistered AttendanceStatus = "ALREADY_REGISTERED"
)

// RecordAttendanceVote registers the user as present at the latest watch.
//
// Attendance is accepted from the watch start to AttendanceWindow after it,
// both ends inclusive, at the precision of now. A user who already has an
// attendance vote (including everyone marked present when the watch started)
// gets AttendanceAlreadyRegistered and nothing is written.
func (e *Engine) RecordAttendanceVote(ctx context.Context, discordUserID string, now time.Time) (_ AttendanceStatus, err error) {
	ctx, span := e.startSpan(ctx, "RecordAttendanceVote",
		attribute.String("user.id", discordUserID),
	)
	defer func() { endSpan(span, err) }()

	user, ok, err := e.getUser(ctx, discordUserID)
	if err != nil {
		return "", fmt.Errorf("record attendance vote: %w", err)
	}
	if !ok {
		return "", userErrorf(ErrCodeNotRegistered, "You cannot register attendance until you have nominated")
	}
	if user.AttendanceVoteID != nil {
		e.logger.Debug("attendance already registered", "user", discordUserID)
		return AttendanceAlreadyRegistered, nil
	}

	film, ok, err := e.latestWatched(ctx)
	if err != nil {
		return "", fmt.Errorf("record attendance vote: %w", err)
	}
	if !ok {
		return "", userErrorf(ErrCodeNothingWatched, "There are no films that have been watched")
	}

	start := film.Watch.DateWatched
	end := start.Add(AttendanceWindow)
	if now.Before(start) {
		return "", userErrorf(ErrCodeNotStarted, "Cannot record attendance for a film that hasn't yet started")
	}
	if now.After(end) {
		return "", userErrorf(ErrCodeAttendanceClosed, "The cutoff for registering attendance was %s",
			end.Format("2006-01-02 15:04:05 MST"))
	}

	items := []store.TransactItem{
		store.Update(e.userKey(discordUserID),
			store.Set(record.AttrAttendanceVoteID, attr.String(film.FilmID)),
		).If(store.Equals(record.AttrAttendanceVoteID, attr.Null{})),
		store.Update(e.key(film.SK()),
			store.AddToSet(record.AttrUsersAttended, discordUserID),
		).If(store.Exists()),
	}
	// The user may have nominated again since the watch started, or may not
	// have nominated before it. Only an open nomination of someone other
	// than the watched film's nominator earns the bonus.
	if film.DiscordUserID != discordUserID && user.NominatedFilmID != nil {
		items = append(items, store.Update(e.nominatedKey(*user.NominatedFilmID),
			store.Add(record.AttrAttendanceVotes, 1),
		).If(store.Exists()))
	}

	if err := e.transact(ctx, "record attendance vote", items, conflict("record attendance vote")); err != nil {
		return "", err
	}

	e.logger.Info("attendance recorded", "user", discordUserID, "film_id", film.FilmID)
	return AttendanceRegistered, nil
}
