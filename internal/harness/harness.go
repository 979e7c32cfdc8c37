package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/filmclub/internal/engine"
	"github.com/roach88/filmclub/internal/record"
	"github.com/roach88/filmclub/internal/store"
	"github.com/roach88/filmclub/internal/testutil"
)

// Harness executes scenario steps against one engine.
type Harness struct {
	engine *engine.Engine
	clock  *testutil.ManualClock
	ids    *testutil.SequenceGenerator
}

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes engine logs to l. Runs are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. Film IDs
// come from a SequenceGenerator and time from a ManualClock set to
// scenario.Start, so the same scenario always produces the same trace.
//
// A step whose outcome differs from its expect clause fails the result but
// does not stop the run. Errors other than user errors abort it.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	guild := scenario.Guild
	if guild == "" {
		guild = DefaultGuild
	}

	h := &Harness{
		engine: engine.New(st, guild, engine.WithLogger(cfg.logger)),
		clock:  testutil.NewManualClock(scenario.Start),
		ids:    testutil.NewSequenceGenerator("film"),
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		sr, err := h.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
		sr.Seq = i + 1
		result.Trace = append(result.Trace, sr)
		checkExpect(result, sr, step.Expect)
	}

	if err := h.collect(ctx, result); err != nil {
		return nil, err
	}

	if scenario.ExpectNominations != nil {
		got := make([]string, len(result.Standings))
		for i, s := range result.Standings {
			got[i] = s.FilmID
		}
		if !slices.Equal(got, scenario.ExpectNominations) {
			result.AddError("nominations: expected %v, got %v", scenario.ExpectNominations, got)
		}
	}

	return result, nil
}

// execute runs one step. User errors are recorded in the StepResult.
func (h *Harness) execute(ctx context.Context, step Step) (StepResult, error) {
	sr := StepResult{Op: step.Op, User: step.User, FilmID: step.FilmID}

	var status string
	var err error
	switch step.Op {
	case OpAdvance:
		h.clock.Advance(step.After)

	case OpNominate:
		filmID := step.FilmID
		if filmID == "" {
			filmID = h.ids.Generate()
		}
		sr.FilmID = filmID
		var imdb *string
		if step.IMDb != "" {
			imdb = record.Ptr(step.IMDb)
		}
		_, err = h.engine.NominateFilm(ctx, engine.Nomination{
			DiscordUserID: step.User,
			FilmName:      step.Film,
			IMDbID:        imdb,
			FilmID:        filmID,
			At:            h.clock.Now(),
		})

	case OpVote:
		var vs engine.VotingStatus
		vs, err = h.engine.CastPreferenceVote(ctx, step.User, step.FilmID)
		status = string(vs)

	case OpWatch:
		_, err = h.engine.StartWatchingFilm(ctx, step.FilmID, step.Present, h.clock.Now())

	case OpHere:
		var as engine.AttendanceStatus
		as, err = h.engine.RecordAttendanceVote(ctx, step.User, h.clock.Now())
		status = string(as)

	default:
		return sr, fmt.Errorf("unknown op %q", step.Op)
	}

	sr.At = h.clock.Now().Format(time.RFC3339Nano)
	if err != nil {
		if !engine.IsUserError(err) {
			return sr, err
		}
		sr.Error = string(engine.UserErrorCodeOf(err))
		return sr, nil
	}
	sr.Status = status
	return sr, nil
}

// collect records the final ranking and watch history.
func (h *Harness) collect(ctx context.Context, result *Result) error {
	films, err := h.engine.Nominations(ctx)
	if err != nil {
		return fmt.Errorf("reading nominations: %w", err)
	}
	for _, f := range films {
		result.Standings = append(result.Standings, standingOf(f))
	}

	watched, err := h.engine.WatchedFilms(ctx)
	if err != nil {
		return fmt.Errorf("reading watched films: %w", err)
	}
	for _, f := range watched {
		result.Watched = append(result.Watched, f.FilmID)
	}
	return nil
}

func checkExpect(result *Result, sr StepResult, expect *Expect) {
	want := Expect{}
	if expect != nil {
		want = *expect
	}
	if sr.Error != want.Error {
		switch {
		case want.Error == "":
			result.AddError("step %d (%s): unexpected error %s", sr.Seq, sr.Op, sr.Error)
		case sr.Error == "":
			result.AddError("step %d (%s): expected error %s, got success", sr.Seq, sr.Op, want.Error)
		default:
			result.AddError("step %d (%s): expected error %s, got %s", sr.Seq, sr.Op, want.Error, sr.Error)
		}
		return
	}
	if want.Status != "" && sr.Status != want.Status {
		result.AddError("step %d (%s): expected status %s, got %s", sr.Seq, sr.Op, want.Status, sr.Status)
	}
}
