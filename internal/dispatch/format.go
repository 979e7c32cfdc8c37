package dispatch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/roach88/filmclub/internal/engine"
	"github.com/roach88/filmclub/internal/record"
)

// MaxMessageSize is the longest message content Discord accepts, in characters.
const MaxMessageSize = 2000

const imdbPrefix = "IMDB:"

// EncodeIMDb packs an IMDb ID and film name into a nominate option value.
func EncodeIMDb(imdbID, filmName string) string {
	return imdbPrefix + imdbID + ":" + filmName
}

// DecodeFilm splits a nominate option value into a film name and an optional
// IMDb ID. Values not produced by EncodeIMDb are plain film names.
func DecodeFilm(value string) (string, *string) {
	if !strings.HasPrefix(value, imdbPrefix) {
		return value, nil
	}
	parts := strings.SplitN(value, ":", 3)
	if len(parts) != 3 {
		return value, nil
	}
	return parts[2], record.Ptr(parts[1])
}

func mention(discordUserID string) string {
	return "<@" + discordUserID + ">"
}

// imdbLink is empty for films without an IMDb ID. The angle brackets stop
// Discord from embedding a preview.
func imdbLink(imdbID *string) string {
	if imdbID == nil {
		return ""
	}
	return fmt.Sprintf(" [IMDB](<https://imdb.com/title/tt%s>)", *imdbID)
}

// formatNomination renders one line of the ranked list. position is 1-based.
func formatNomination(position int, f record.Film) string {
	votes := f.TotalVotes()
	plural := "s"
	if votes == 1 {
		plural = ""
	}
	return fmt.Sprintf("  %d. %s %s (%d vote%s)%s",
		position, mention(f.DiscordUserID), f.FilmName, votes, plural, imdbLink(f.IMDbID))
}

func formatNominations(films []record.Film) string {
	lines := make([]string, len(films))
	for i, f := range films {
		lines[i] = formatNomination(i+1, f)
	}
	return strings.Join(lines, "\n")
}

func formatUser(discordUserID string) string {
	return "  - " + mention(discordUserID)
}

func formatWatched(f record.Film) string {
	return fmt.Sprintf("  • %s %s%s - %s",
		f.Watch.DateWatched.Format("2006-01-02"), f.FilmName, imdbLink(f.IMDbID), mention(f.DiscordUserID))
}

// formatHistory lists watched films, oldest first, stopping before the first
// film that would push the message past MaxMessageSize characters.
func formatHistory(films []record.Film) string {
	var b strings.Builder
	b.WriteString("Here are the films that have been watched:\n")
	size := utf8.RuneCountInString(b.String())
	for _, f := range films {
		line := formatWatched(f) + "\n"
		n := utf8.RuneCountInString(line)
		if size+n > MaxMessageSize {
			break
		}
		b.WriteString(line)
		size += n
	}
	return b.String()
}

// formatOutstanding renders the naughty list.
func formatOutstanding(o engine.Outstanding) string {
	if !o.Any() {
		return "There are no outstanding tasks."
	}

	var lines []string
	if len(o.NeedToNominate) > 0 {
		lines = append(lines, "These users need to nominate:")
		for _, id := range o.NeedToNominate {
			lines = append(lines, formatUser(id))
		}
		if len(o.NeedToVote) > 0 {
			lines = append(lines, "")
		}
	}
	if len(o.NeedToVote) > 0 {
		lines = append(lines, "These users need to vote:")
		for _, id := range o.NeedToVote {
			lines = append(lines, formatUser(id))
		}
	}
	return strings.Join(lines, "\n")
}
