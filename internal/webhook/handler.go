package webhook

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/filmclub/internal/dispatch"
)

const tracerName = "github.com/roach88/filmclub/internal/webhook"

// maxBodyBytes bounds an interaction payload.
const maxBodyBytes = 1 << 20

// Dispatcher answers interactions. *dispatch.Dispatcher satisfies it.
type Dispatcher interface {
	Handle(ctx context.Context, in dispatch.Interaction) (dispatch.Response, error)
}

// Handler serves POST /interactions and GET /healthz.
type Handler struct {
	dispatcher Dispatcher
	publicKey  ed25519.PublicKey
	logger     *slog.Logger
	tracer     trace.Tracer
	mux        *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// WithTracerProvider sets the tracer provider. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(h *Handler) {
		h.tracer = tp.Tracer(tracerName)
	}
}

// NewHandler creates the HTTP handler. publicKey should come from
// ParsePublicKey; with a key of the wrong length every request is rejected
// with 401.
func NewHandler(d Dispatcher, publicKey ed25519.PublicKey, opts ...Option) *Handler {
	h := &Handler{
		dispatcher: d,
		publicKey:  publicKey,
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
		mux:        http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.mux.HandleFunc("POST /interactions", h.handleInteraction)
	h.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok\n")
	})
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleInteraction(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "webhook.interaction")
	defer span.End()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	if err := Verify(h.publicKey, r.Header.Get(HeaderSignature), r.Header.Get(HeaderTimestamp), body); err != nil {
		h.logger.Warn("rejected interaction", "error", err, "remote", r.RemoteAddr)
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var in dispatch.Interaction
	if err := json.Unmarshal(body, &in); err != nil {
		h.logger.Warn("undecodable interaction", "error", err)
		http.Error(w, "invalid interaction payload", http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.Int("interaction.type", int(in.Type)),
		attribute.String("guild.id", in.GuildID),
	)

	resp, err := h.dispatcher.Handle(ctx, in)
	if errors.Is(err, dispatch.ErrMalformedInteraction) {
		h.logger.Warn("malformed interaction", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("interaction failed", "type", in.Type, "guild", in.GuildID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("write interaction response", "error", err)
	}
}
