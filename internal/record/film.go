package record

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/filmclub/internal/attr"
)

// Film attribute names.
const (
	AttrFilmID          = "FilmID"
	AttrFilmName        = "FilmName"
	AttrIMDbID          = "IMDbID"
	AttrDiscordUserID   = "DiscordUserID"
	AttrCastVotes       = "CastVotes"
	AttrAttendanceVotes = "AttendanceVotes"
	AttrDateNominated   = "DateNominated"
	AttrDateWatched     = "DateWatched"
	AttrUsersAttended   = "UsersAttended"
)

var (
	// ErrAlreadyWatched is returned when a watched film is watched again.
	ErrAlreadyWatched = errors.New("film has already been watched")

	// ErrNoAttendees is returned when a film is watched with nobody present.
	ErrNoAttendees = errors.New("a watched film needs at least one attendee")
)

// Watch holds the fields that only exist once a film has been watched.
type Watch struct {
	DateWatched   time.Time
	UsersAttended []string // sorted, never empty for films watched through Film.Watched
}

// Film is a nominated film, or a watched one when Watch is set.
//
// Build films with NewNominatedFilm and move them to the watched state with
// Watched. The zero Watch pointer is the nominated state.
type Film struct {
	FilmID          string
	FilmName        string
	IMDbID          *string
	DiscordUserID   string
	CastVotes       int64
	AttendanceVotes int64
	DateNominated   time.Time
	Watch           *Watch
}

// NewNominatedFilm builds a freshly nominated film with zero counters.
// The name is trimmed and NFC-normalized; a blank IMDb ID is treated as none.
// IDs are kept byte for byte since they are part of item keys.
func NewNominatedFilm(filmID, filmName string, imdbID *string, discordUserID string, at time.Time) (Film, error) {
	for _, s := range []string{filmID, filmName, discordUserID} {
		if !utf8.ValidString(s) {
			return Film{}, fmt.Errorf("%q is not valid UTF-8", s)
		}
	}
	if imdbID != nil && !utf8.ValidString(*imdbID) {
		return Film{}, fmt.Errorf("IMDb ID %q is not valid UTF-8", *imdbID)
	}

	name := norm.NFC.String(strings.TrimSpace(filmName))
	switch {
	case filmID == "":
		return Film{}, errors.New("film ID is required")
	case strings.Contains(filmID, "#"):
		return Film{}, fmt.Errorf("film ID %q must not contain '#'", filmID)
	case name == "":
		return Film{}, errors.New("film name is required")
	case discordUserID == "":
		return Film{}, errors.New("nominating user is required")
	}

	var imdb *string
	if imdbID != nil {
		if trimmed := strings.TrimSpace(*imdbID); trimmed != "" {
			imdb = &trimmed
		}
	}

	return Film{
		FilmID:        filmID,
		FilmName:      name,
		IMDbID:        imdb,
		DiscordUserID: discordUserID,
		DateNominated: NormalizeTime(at),
	}, nil
}

// Watched returns a copy of the film transitioned to the watched state.
func (f Film) Watched(at time.Time, usersAttended []string) (Film, error) {
	if f.IsWatched() {
		return Film{}, fmt.Errorf("film %s: %w", f.FilmID, ErrAlreadyWatched)
	}
	if len(usersAttended) == 0 {
		return Film{}, fmt.Errorf("film %s: %w", f.FilmID, ErrNoAttendees)
	}
	f.Watch = &Watch{
		DateWatched:   NormalizeTime(at),
		UsersAttended: []string(attr.NewStringSet(usersAttended...)),
	}
	return f, nil
}

// IsWatched reports whether the film has been watched.
func (f Film) IsWatched() bool {
	return f.Watch != nil
}

// TotalVotes is the ranking score: cast votes plus attendance votes.
func (f Film) TotalVotes() int64 {
	return f.CastVotes + f.AttendanceVotes
}

// SK returns the film's sort key for its current state.
func (f Film) SK() string {
	if f.Watch != nil {
		return WatchedSK(f.Watch.DateWatched, f.FilmID)
	}
	return NominatedSK(f.FilmID)
}

// Item encodes the film without its partition key.
func (f Film) Item() attr.Item {
	item := attr.Item{
		AttrSK:              attr.String(f.SK()),
		AttrFilmID:          attr.String(f.FilmID),
		AttrFilmName:        attr.String(f.FilmName),
		AttrIMDbID:          attr.OptString(f.IMDbID),
		AttrDiscordUserID:   attr.String(f.DiscordUserID),
		AttrCastVotes:       attr.Int(f.CastVotes),
		AttrAttendanceVotes: attr.Int(f.AttendanceVotes),
		AttrDateNominated:   attr.String(FormatTime(f.DateNominated)),
		AttrDateWatched:     attr.Null{},
		AttrUsersAttended:   attr.Null{},
	}
	if f.Watch != nil {
		item[AttrDateWatched] = attr.String(FormatTime(f.Watch.DateWatched))
		item[AttrUsersAttended] = attr.OptStringSet(f.Watch.UsersAttended)
	}
	return item
}

// FilmFromItem decodes a stored film item. The state comes from the sort key
// and must agree with the DateWatched attribute.
func FilmFromItem(item attr.Item) (Film, error) {
	sk, err := item.String(AttrSK)
	if err != nil {
		return Film{}, fmt.Errorf("decode film: %w", err)
	}

	var (
		keyID     string
		watchedAt *time.Time
	)
	switch {
	case strings.HasPrefix(sk, NominatedPrefix):
		if keyID, err = ParseNominatedSK(sk); err != nil {
			return Film{}, fmt.Errorf("decode film: %w", err)
		}
	case strings.HasPrefix(sk, WatchedPrefix):
		at, id, err := ParseWatchedSK(sk)
		if err != nil {
			return Film{}, fmt.Errorf("decode film: %w", err)
		}
		keyID, watchedAt = id, &at
	default:
		return Film{}, fmt.Errorf("decode film: %q is not a film key", sk)
	}

	f := Film{}
	if f.FilmID, err = item.String(AttrFilmID); err != nil {
		return Film{}, fmt.Errorf("decode film %s: %w", keyID, err)
	}
	if f.FilmID != keyID {
		return Film{}, fmt.Errorf("decode film %s: FilmID %q does not match key", keyID, f.FilmID)
	}
	if f.FilmName, err = item.String(AttrFilmName); err != nil {
		return Film{}, fmt.Errorf("decode film %s: %w", keyID, err)
	}
	if f.IMDbID, err = item.OptString(AttrIMDbID); err != nil {
		return Film{}, fmt.Errorf("decode film %s: %w", keyID, err)
	}
	if f.DiscordUserID, err = item.String(AttrDiscordUserID); err != nil {
		return Film{}, fmt.Errorf("decode film %s: %w", keyID, err)
	}
	if f.CastVotes, err = item.Int(AttrCastVotes); err != nil {
		return Film{}, fmt.Errorf("decode film %s: %w", keyID, err)
	}
	if f.AttendanceVotes, err = item.Int(AttrAttendanceVotes); err != nil {
		return Film{}, fmt.Errorf("decode film %s: %w", keyID, err)
	}
	nominated, err := item.String(AttrDateNominated)
	if err != nil {
		return Film{}, fmt.Errorf("decode film %s: %w", keyID, err)
	}
	if f.DateNominated, err = ParseTime(nominated); err != nil {
		return Film{}, fmt.Errorf("decode film %s: %w", keyID, err)
	}

	dateWatched, err := item.OptString(AttrDateWatched)
	if err != nil {
		return Film{}, fmt.Errorf("decode film %s: %w", keyID, err)
	}
	users, err := item.OptStringSet(AttrUsersAttended)
	if err != nil {
		return Film{}, fmt.Errorf("decode film %s: %w", keyID, err)
	}

	if watchedAt == nil {
		if dateWatched != nil || users != nil {
			return Film{}, fmt.Errorf("decode film %s: nominated film carries watch fields", keyID)
		}
		return f, nil
	}

	if dateWatched == nil {
		return Film{}, fmt.Errorf("decode film %s: watched film has no DateWatched", keyID)
	}
	at, err := ParseTime(*dateWatched)
	if err != nil {
		return Film{}, fmt.Errorf("decode film %s: %w", keyID, err)
	}
	if !at.Equal(*watchedAt) {
		return Film{}, fmt.Errorf("decode film %s: DateWatched %s does not match key", keyID, *dateWatched)
	}
	f.Watch = &Watch{DateWatched: at, UsersAttended: users}
	return f, nil
}

// Equal reports whether two films hold the same state.
func (f Film) Equal(other Film) bool {
	if f.FilmID != other.FilmID ||
		f.FilmName != other.FilmName ||
		!equalOpt(f.IMDbID, other.IMDbID) ||
		f.DiscordUserID != other.DiscordUserID ||
		f.CastVotes != other.CastVotes ||
		f.AttendanceVotes != other.AttendanceVotes ||
		!f.DateNominated.Equal(other.DateNominated) {
		return false
	}
	if f.Watch == nil || other.Watch == nil {
		return f.Watch == nil && other.Watch == nil
	}
	return f.Watch.DateWatched.Equal(other.Watch.DateWatched) &&
		slices.Equal(f.Watch.UsersAttended, other.Watch.UsersAttended)
}

// AttendedBy reports whether the user attended the watched film.
func (f Film) AttendedBy(discordUserID string) bool {
	if f.Watch == nil {
		return false
	}
	return attr.StringSet(f.Watch.UsersAttended).Contains(discordUserID)
}
