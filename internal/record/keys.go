// Package record maps film club users and films to store items.
//
// Every item lives in the partition of its guild. Sort keys:
//
//	USER#<DiscordUserID>
//	FILM#NOMINATED#<FilmID>
//	FILM#WATCHED#<timestamp>#<FilmID>
//
// Watched keys embed a fixed-width UTC timestamp so that lexicographic order
// is chronological order: a reverse range scan finds the latest watch and a
// forward scan pages through history oldest first.
package record

import (
	"fmt"
	"strings"
	"time"
)

// Key attribute names shared by every item.
const (
	AttrPK = "PK"
	AttrSK = "SK"
)

// Sort key prefixes.
const (
	UserPrefix      = "USER#"
	FilmPrefix      = "FILM#"
	NominatedPrefix = "FILM#NOMINATED#"
	WatchedPrefix   = "FILM#WATCHED#"
)

// TimeLayout is the stored timestamp format. Always UTC with microseconds so
// every value has the same width.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// NormalizeTime converts t to the precision and zone that survive a
// format/parse round trip.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return NormalizeTime(t).Format(TimeLayout)
}

// ParseTime parses a TimeLayout timestamp.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// UserSK returns the sort key of a user.
func UserSK(discordUserID string) string {
	return UserPrefix + discordUserID
}

// NominatedSK returns the sort key of a nominated film.
func NominatedSK(filmID string) string {
	return NominatedPrefix + filmID
}

// WatchedSK returns the sort key of a film watched at the given time.
func WatchedSK(watchedAt time.Time, filmID string) string {
	return WatchedPrefix + FormatTime(watchedAt) + "#" + filmID
}

// ParseUserSK extracts the Discord user ID from a user sort key.
func ParseUserSK(sk string) (string, error) {
	id, ok := strings.CutPrefix(sk, UserPrefix)
	if !ok || id == "" {
		return "", fmt.Errorf("malformed user key %q", sk)
	}
	return id, nil
}

// ParseNominatedSK extracts the film ID from a nominated film sort key.
func ParseNominatedSK(sk string) (string, error) {
	id, ok := strings.CutPrefix(sk, NominatedPrefix)
	if !ok || id == "" {
		return "", fmt.Errorf("malformed nominated film key %q", sk)
	}
	return id, nil
}

// ParseWatchedSK extracts the watch time and film ID from a watched film sort key.
func ParseWatchedSK(sk string) (time.Time, string, error) {
	rest, ok := strings.CutPrefix(sk, WatchedPrefix)
	if !ok {
		return time.Time{}, "", fmt.Errorf("malformed watched film key %q", sk)
	}
	// The timestamp contains no '#', the film ID is everything after it.
	ts, filmID, ok := strings.Cut(rest, "#")
	if !ok || filmID == "" {
		return time.Time{}, "", fmt.Errorf("malformed watched film key %q", sk)
	}
	watchedAt, err := ParseTime(ts)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("malformed watched film key %q: %w", sk, err)
	}
	return watchedAt, filmID, nil
}
