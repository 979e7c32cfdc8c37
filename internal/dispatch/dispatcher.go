package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/filmclub/internal/engine"
)

// DefaultMaxConflictRetries is how many times a command is re-run after
// losing a race with a concurrent request.
const DefaultMaxConflictRetries = 3

// conflictMessage is shown when every retry lost a race.
const conflictMessage = "Someone else updated the film club at the same time. Please try again."

// ErrMalformedInteraction is returned for payloads missing the fields the
// interaction type requires.
var ErrMalformedInteraction = errors.New("malformed interaction")

// Dispatcher routes interactions to per-guild engines and renders the
// results as interaction responses.
//
// Thread-safety: Dispatcher is immutable after New and safe for concurrent use.
type Dispatcher struct {
	store      engine.Store
	engineOpts []engine.Option
	clock      engine.Clock
	ids        engine.IDGenerator
	searcher   FilmSearcher
	maxRetries int
	logger     *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock sets the wall clock. Defaults to engine.SystemClock.
func WithClock(c engine.Clock) Option {
	return func(d *Dispatcher) {
		d.clock = c
	}
}

// WithIDGenerator sets the film ID generator. Defaults to engine.UUIDv7Generator.
func WithIDGenerator(g engine.IDGenerator) Option {
	return func(d *Dispatcher) {
		d.ids = g
	}
}

// WithFilmSearcher enables /nominate autocomplete.
func WithFilmSearcher(s FilmSearcher) Option {
	return func(d *Dispatcher) {
		d.searcher = s
	}
}

// WithMaxConflictRetries sets how many times a command is re-run after a
// conflict. Zero disables retries.
func WithMaxConflictRetries(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.maxRetries = n
		}
	}
}

// WithLogger sets the logger. Engines inherit it. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithEngineOptions passes options to every engine the dispatcher creates.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(d *Dispatcher) {
		d.engineOpts = append(d.engineOpts, opts...)
	}
}

// New creates a Dispatcher over st.
func New(st engine.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:      st,
		clock:      engine.SystemClock{},
		ids:        engine.UUIDv7Generator{},
		maxRetries: DefaultMaxConflictRetries,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// engineFor returns the engine for a guild. Engines hold no state, so each
// request gets its own.
func (d *Dispatcher) engineFor(guildID string) *engine.Engine {
	opts := append([]engine.Option{engine.WithLogger(d.logger)}, d.engineOpts...)
	return engine.New(d.store, guildID, opts...)
}

// Handle answers one interaction.
//
// User errors become ephemeral messages. Conflicts are retried, and then
// reported as an ephemeral message. Any other error is returned and the
// caller should answer with a server error.
func (d *Dispatcher) Handle(ctx context.Context, in Interaction) (Response, error) {
	switch in.Type {
	case InteractionPing:
		return pong(), nil

	case InteractionApplicationCommand:
		req, err := newRequest(in)
		if err != nil {
			return Response{}, err
		}
		return d.withRetry(ctx, "/"+req.name, func() (Response, error) {
			return d.handleCommand(ctx, req)
		})

	case InteractionMessageComponent:
		req, err := newRequest(in)
		if err != nil {
			return Response{}, err
		}
		if in.Data.ComponentType != ComponentButton {
			return Response{}, fmt.Errorf("unknown message component (%d)", in.Data.ComponentType)
		}
		return d.withRetry(ctx, in.Data.CustomID, func() (Response, error) {
			return d.handleComponent(ctx, req, in.Data.CustomID)
		})

	case InteractionAutocomplete:
		req, err := newRequest(in)
		if err != nil {
			return Response{}, err
		}
		return d.handleAutocomplete(ctx, req)

	default:
		return Response{}, fmt.Errorf("unknown interaction type (%d)", in.Type)
	}
}

// request is a validated guild interaction.
type request struct {
	guildID string
	userID  string
	name    string
	options []CommandOption
}

func newRequest(in Interaction) (request, error) {
	if in.GuildID == "" {
		return request{}, fmt.Errorf("%w: missing guild_id", ErrMalformedInteraction)
	}
	if in.Member == nil || in.Member.User.ID == "" {
		return request{}, fmt.Errorf("%w: missing member", ErrMalformedInteraction)
	}
	if in.Data == nil {
		return request{}, fmt.Errorf("%w: missing data", ErrMalformedInteraction)
	}
	return request{
		guildID: in.GuildID,
		userID:  in.Member.User.ID,
		name:    in.Data.Name,
		options: in.Data.Options,
	}, nil
}

// option returns the value of the named option.
func (r request) option(name string) (string, error) {
	for _, o := range r.options {
		if o.Name == name {
			return o.Value, nil
		}
	}
	return "", fmt.Errorf("%w: /%s is missing option %q", ErrMalformedInteraction, r.name, name)
}

// withRetry runs fn, re-running it from the start while it loses races.
func (d *Dispatcher) withRetry(ctx context.Context, op string, fn func() (Response, error)) (Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := fn()

		var ue *engine.UserError
		switch {
		case err == nil:
			return resp, nil
		case errors.As(err, &ue):
			d.logger.Debug("user error", "op", op, "code", ue.Code)
			return ephemeral(ue.Message), nil
		case !engine.IsConflict(err):
			return Response{}, err
		case attempt >= d.maxRetries:
			d.logger.Warn("giving up after conflicts", "op", op, "attempts", attempt+1, "error", err)
			return ephemeral(conflictMessage), nil
		}

		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		d.logger.Debug("retrying after conflict", "op", op, "attempt", attempt+1)
	}
}
