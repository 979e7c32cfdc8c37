package record

import (
	"fmt"

	"github.com/roach88/filmclub/internal/attr"
)

// User attribute names.
const (
	AttrNominatedFilmID  = "NominatedFilmID"
	AttrVoteID           = "VoteID"
	AttrAttendanceVoteID = "AttendanceVoteID"
)

// User is a guild member taking part in the club. Users are created by their
// first nomination.
type User struct {
	DiscordUserID    string
	NominatedFilmID  *string
	VoteID           *string
	AttendanceVoteID *string
}

// SK returns the user's sort key.
func (u User) SK() string {
	return UserSK(u.DiscordUserID)
}

// HasNominated reports whether the user has an open nomination.
func (u User) HasNominated() bool {
	return u.NominatedFilmID != nil
}

// HasVoted reports whether the user has cast a preference vote this cycle.
func (u User) HasVoted() bool {
	return u.VoteID != nil
}

// Item encodes the user without its partition key. Optional fields are
// written as explicit nulls.
func (u User) Item() attr.Item {
	return attr.Item{
		AttrSK:               attr.String(u.SK()),
		AttrNominatedFilmID:  attr.OptString(u.NominatedFilmID),
		AttrVoteID:           attr.OptString(u.VoteID),
		AttrAttendanceVoteID: attr.OptString(u.AttendanceVoteID),
	}
}

// UserFromItem decodes a stored user item.
func UserFromItem(item attr.Item) (User, error) {
	sk, err := item.String(AttrSK)
	if err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}
	id, err := ParseUserSK(sk)
	if err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}

	u := User{DiscordUserID: id}
	if u.NominatedFilmID, err = item.OptString(AttrNominatedFilmID); err != nil {
		return User{}, fmt.Errorf("decode user %s: %w", id, err)
	}
	if u.VoteID, err = item.OptString(AttrVoteID); err != nil {
		return User{}, fmt.Errorf("decode user %s: %w", id, err)
	}
	if u.AttendanceVoteID, err = item.OptString(AttrAttendanceVoteID); err != nil {
		return User{}, fmt.Errorf("decode user %s: %w", id, err)
	}
	return u, nil
}

// Equal reports whether two users hold the same state.
func (u User) Equal(other User) bool {
	return u.DiscordUserID == other.DiscordUserID &&
		equalOpt(u.NominatedFilmID, other.NominatedFilmID) &&
		equalOpt(u.VoteID, other.VoteID) &&
		equalOpt(u.AttendanceVoteID, other.AttendanceVoteID)
}

func equalOpt(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Ptr returns a pointer to s. Convenience for optional ID fields.
func Ptr(s string) *string {
	return &s
}
