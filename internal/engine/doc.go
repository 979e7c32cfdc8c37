// Package engine implements the film club state machine over the item store.
//
// A guild cycles through nominate, vote, watch and attendance:
//
//   - NominateFilm registers the user (on first use) and opens their nomination.
//   - CastPreferenceVote moves the user's single vote between nominated films.
//   - StartWatchingFilm moves a nominated film to the watched state, clears
//     every vote and awards attendance votes to present users' own nominations.
//   - RecordAttendanceVote lets late arrivals register within AttendanceWindow.
//
// Every mutating operation is at most a few reads followed by exactly one
// store transaction. Each write is guarded on the value just read, so
// concurrent requests never lose updates: the loser gets a *ConflictError.
//
// # Invariants
//
//   - A user has at most one open nomination.
//   - Within a voting cycle the sum of CastVotes over nominated films equals
//     the number of users with a VoteID.
//   - A film is either nominated or watched, and moves to watched once.
//   - Watches start at least WatchCooldown apart.
//
// # Errors
//
// *UserError is a violated precondition, safe to display. *ConflictError is a
// lost race, safe to retry by re-running the operation. Anything else is a
// fault (store unreachable, malformed record) and is returned wrapped.
package engine
