package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/filmclub/internal/attr"
	"github.com/roach88/filmclub/internal/record"
	"github.com/roach88/filmclub/internal/store"
)

const tracerName = "github.com/roach88/filmclub/internal/engine"

const (
	// WatchCooldown is the minimum time between the starts of two watches.
	WatchCooldown = 24 * time.Hour

	// AttendanceWindow is how long after a watch starts attendance may be recorded.
	// It must stay shorter than WatchCooldown so two watches never overlap.
	AttendanceWindow = 4 * time.Hour
)

// Store is the storage the engine needs. *store.Store satisfies it.
type Store interface {
	GetItem(ctx context.Context, key store.Key) (attr.Item, bool, error)
	Query(ctx context.Context, q store.Query) (store.Page, error)
	QueryAll(ctx context.Context, q store.Query) ([]attr.Item, error)
	TransactWrite(ctx context.Context, items []store.TransactItem) error
}

// Engine runs the film club state machine for one guild.
//
// Engine holds no mutable state. Concurrent callers (in this process or
// another) coordinate only through conditional store transactions: every
// write path reads, then writes guarded on what it read. A lost race
// surfaces as a *ConflictError and the engine never retries.
type Engine struct {
	store   Store
	guildID string
	tracer  trace.Tracer
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithTracerProvider sets the tracer provider. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracer = tp.Tracer(tracerName)
	}
}

// New creates an Engine scoped to guildID.
func New(st Store, guildID string, opts ...Option) *Engine {
	e := &Engine{
		store:   st,
		guildID: guildID,
		tracer:  otel.Tracer(tracerName),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.With("guild", guildID)
	return e
}

// GuildID returns the guild this engine is scoped to.
func (e *Engine) GuildID() string {
	return e.guildID
}

// startSpan opens a span tagged with the guild.
func (e *Engine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("guild.id", e.guildID))
	return e.tracer.Start(ctx, "engine."+name, trace.WithAttributes(attrs...))
}

// endSpan records err on the span and ends it. User errors are expected
// outcomes and are recorded as events, not span failures.
func endSpan(span trace.Span, err error) {
	switch {
	case err == nil:
	case IsUserError(err):
		span.AddEvent("user_error", trace.WithAttributes(
			attribute.String("code", string(UserErrorCodeOf(err))),
		))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (e *Engine) key(sk string) store.Key {
	return store.Key{PK: e.guildID, SK: sk}
}

func (e *Engine) userKey(discordUserID string) store.Key {
	return e.key(record.UserSK(discordUserID))
}

func (e *Engine) nominatedKey(filmID string) store.Key {
	return e.key(record.NominatedSK(filmID))
}

// getUser reads one user. ok is false when the user has never nominated.
func (e *Engine) getUser(ctx context.Context, discordUserID string) (record.User, bool, error) {
	item, ok, err := e.store.GetItem(ctx, e.userKey(discordUserID))
	if err != nil || !ok {
		return record.User{}, false, err
	}
	u, err := record.UserFromItem(item)
	if err != nil {
		return record.User{}, false, err
	}
	return u, true, nil
}

// transact runs the write and converts a rejected transaction with classify.
// classify receives the rejection and returns the error to surface.
func (e *Engine) transact(ctx context.Context, op string, items []store.TransactItem,
	classify func(*store.TransactionCanceledError) error,
) error {
	err := e.store.TransactWrite(ctx, items)
	if err == nil {
		return nil
	}

	tce, ok := store.AsTransactionCanceled(err)
	if !ok {
		return fmt.Errorf("%s: %w", op, err)
	}

	e.logger.Warn("transaction rejected",
		"op", op,
		"items", len(items),
		"failed", tce.Failed(),
	)
	for _, i := range tce.Failed() {
		e.logger.Debug("failed condition", "op", op, "item", items[i].String())
	}
	return classify(tce)
}

func conflict(op string) func(*store.TransactionCanceledError) error {
	return func(tce *store.TransactionCanceledError) error {
		return &ConflictError{Op: op, Err: tce}
	}
}
