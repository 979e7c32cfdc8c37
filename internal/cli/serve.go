package cli

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/filmclub/internal/config"
	"github.com/roach88/filmclub/internal/dispatch"
	"github.com/roach88/filmclub/internal/engine"
	"github.com/roach88/filmclub/internal/telemetry"
	"github.com/roach88/filmclub/internal/webhook"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr      string
	PublicKey string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve Discord interactions over HTTP",
		Long: `Start the interactions webhook.

Discord POSTs slash commands, button clicks and autocomplete requests to
/interactions. Requests are verified against the application's Ed25519
public key before they reach the film club.

Configuration comes from FILMCLUB_* environment variables; flags override.

Example:
  FILMCLUB_PUBLIC_KEY=... filmclub serve --db ./filmclub.db --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default $FILMCLUB_LISTEN_ADDR or :8080)")
	cmd.Flags().StringVar(&opts.PublicKey, "public-key", "", "hex Ed25519 application public key (default $FILMCLUB_PUBLIC_KEY)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	slog.SetDefault(logger)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.ListenAddr = opts.Addr
	}
	if opts.PublicKey != "" {
		cfg.PublicKey = opts.PublicKey
	}
	if err := cfg.ValidateServe(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	publicKey, err := webhook.ParsePublicKey(cfg.PublicKey)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid public key", err)
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up telemetry", err)
	}
	defer func() {
		// The serve context is already cancelled here.
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error("error flushing traces", "error", err)
		}
	}()

	logger.Info("opening database", "path", cfg.DBPath)
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	server, err := newServer(cfg, st, logger, publicKey)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create server", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving interactions on %s. Press Ctrl-C to stop.\n", cfg.ListenAddr)
	if err := server.ListenAndServe(ctx); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

func newServer(cfg config.Config, st engine.Store, logger *slog.Logger, publicKey ed25519.PublicKey) (*webhook.Server, error) {
	d := dispatch.New(st,
		dispatch.WithLogger(logger),
		dispatch.WithMaxConflictRetries(cfg.MaxConflictRetries),
	)

	handler := webhook.NewHandler(d, publicKey, webhook.WithLogger(logger))
	return webhook.NewServer(webhook.ServerConfig{
		Addr:            cfg.ListenAddr,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, handler, logger)
}
