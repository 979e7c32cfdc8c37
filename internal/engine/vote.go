package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/roach88/filmclub/internal/attr"
	"github.com/roach88/filmclub/internal/record"
	"github.com/roach88/filmclub/internal/store"
)

// VotingStatus reports whether every user has voted.
type VotingStatus string

const (
	VotingIncomplete VotingStatus = "UNCOMPLETE"
	VotingComplete   VotingStatus = "COMPLETE"
)

// Transaction item positions in CastPreferenceVote.
const (
	voteItemUser = iota
	voteItemTarget
)

// CastPreferenceVote points the user's vote at filmID, moving it off any
// previous film. Voting again for the same film writes nothing.
//
// The returned status is computed from the users read before the write plus
// this vote; it is not re-read after commit, so a concurrent final vote may be
// missed.
func (e *Engine) CastPreferenceVote(ctx context.Context, discordUserID, filmID string) (_ VotingStatus, err error) {
	ctx, span := e.startSpan(ctx, "CastPreferenceVote",
		attribute.String("user.id", discordUserID),
		attribute.String("film.id", filmID),
	)
	defer func() { endSpan(span, err) }()

	users, err := e.Users(ctx)
	if err != nil {
		return "", fmt.Errorf("cast preference vote: %w", err)
	}

	user, ok := users[discordUserID]
	if !ok {
		return "", userErrorf(ErrCodeNotRegistered, "You can't vote until you have nominated a film")
	}
	if user.NominatedFilmID != nil && *user.NominatedFilmID == filmID {
		return "", userErrorf(ErrCodeOwnFilm, "You can't vote for your own film")
	}

	status := votingStatusAfter(users, discordUserID)

	previous := user.VoteID
	if previous != nil && *previous == filmID {
		e.logger.Debug("vote unchanged", "user", discordUserID, "film_id", filmID)
		return status, nil
	}

	items := []store.TransactItem{
		voteItemUser: store.Update(e.userKey(discordUserID),
			store.Set(record.AttrVoteID, attr.String(filmID)),
		).If(store.And(
			store.Exists(),
			store.Equals(record.AttrVoteID, attr.OptString(previous)),
		)),
		voteItemTarget: store.Update(e.nominatedKey(filmID),
			store.Add(record.AttrCastVotes, 1),
		).If(store.Exists()),
	}
	if previous != nil {
		// Films are only ever moved to watched after every VoteID is cleared,
		// so the previous film is still nominated.
		items = append(items, store.Update(e.nominatedKey(*previous),
			store.Add(record.AttrCastVotes, -1),
		))
	}

	err = e.transact(ctx, "cast preference vote", items, func(tce *store.TransactionCanceledError) error {
		if tce.FailedAt(voteItemTarget) {
			return newUnknownFilmError(filmID)
		}
		return &ConflictError{Op: "cast preference vote", Err: tce}
	})
	if err != nil {
		return "", err
	}

	e.logger.Info("vote cast",
		"user", discordUserID,
		"film_id", filmID,
		"status", string(status),
	)
	return status, nil
}

// votingStatusAfter reports completeness assuming voter has a vote.
func votingStatusAfter(users map[string]record.User, voter string) VotingStatus {
	for id, u := range users {
		if id != voter && !u.HasVoted() {
			return VotingIncomplete
		}
	}
	return VotingComplete
}
