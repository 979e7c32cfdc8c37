package harness

import (
	"fmt"

	"github.com/roach88/filmclub/internal/record"
)

// StepResult is the trace entry for one executed step.
type StepResult struct {
	Seq    int    `json:"seq"`
	Op     string `json:"op"`
	At     string `json:"at"`
	User   string `json:"user,omitempty"`
	FilmID string `json:"film_id,omitempty"`

	// Status is the engine status on success (voting or attendance).
	Status string `json:"status,omitempty"`

	// Error is the user error code on failure.
	Error string `json:"error,omitempty"`
}

// Standing is one row of the final ranking.
type Standing struct {
	FilmID          string `json:"film_id"`
	FilmName        string `json:"film_name"`
	DiscordUserID   string `json:"discord_user_id"`
	CastVotes       int64  `json:"cast_votes"`
	AttendanceVotes int64  `json:"attendance_votes"`
}

func standingOf(f record.Film) Standing {
	return Standing{
		FilmID:          f.FilmID,
		FilmName:        f.FilmName,
		DiscordUserID:   f.DiscordUserID,
		CastVotes:       f.CastVotes,
		AttendanceVotes: f.AttendanceVotes,
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success.
	// True if every expect clause matched.
	Pass bool `json:"pass"`

	// Trace contains one entry per step, in order.
	Trace []StepResult `json:"trace"`

	// Standings is the ranked list of open nominations after the last step.
	Standings []Standing `json:"standings"`

	// Watched lists watched film IDs, oldest first.
	Watched []string `json:"watched"`

	// Errors contains expectation mismatches.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []StepResult{},
		Standings: []Standing{},
		Watched:   []string{},
	}
}

// AddError records a mismatch and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Pass = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}
