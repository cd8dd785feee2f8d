package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rank-it/internal/config"
	"rank-it/internal/db"
	"rank-it/internal/game"
	"rank-it/internal/logging"
	"rank-it/internal/server"
	"rank-it/internal/store/memory"
	"rank-it/internal/store/postgres"
	"rank-it/internal/topics"
)

const shutdownTimeout = 10 * time.Second

func newCmd() *cobra.Command {
	v := config.NewViper()
	cmd := &cobra.Command{
		Use:           "rank-it",
		Short:         "Serve the rank-it party game API.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(v)
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cobra.CheckErr(config.BindFlags(cmd.Flags(), v))
	cmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		return config.LoadDotEnv(".env")
	}
	cmd.CompletionOptions.HiddenDefaultCmd = true
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(gin.ReleaseMode)

	hub := server.NewHub(logger)
	notifiers := game.Notifiers{hub}
	var (
		store      game.Store
		serverOpts = []server.Option{server.WithLogger(logger)}
	)
	if cfg.DatabaseURL == "" {
		mem, err := memoryStore(cfg, logger)
		if err != nil {
			return err
		}
		store = mem
		logger.Warn().Msg("DATABASE_URL is not set; state is kept in memory")
	} else {
		conn, err := db.Open(cfg.DatabaseURL, cfg.Pool())
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		if err := db.Migrate(conn); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
		logger.Info().Msg("database migration complete")
		if cfg.TopicsCSV != "" {
			seeds, err := topics.ReadFile(cfg.TopicsCSV)
			if err != nil {
				return err
			}
			res, err := db.LoadTopicLibrary(conn, seeds)
			if err != nil {
				return fmt.Errorf("load topics: %w", err)
			}
			logTopicLoad(logger, cfg.TopicsCSV, res)
		}
		events := postgres.NewEventLog(conn, logger)
		notifiers = append(notifiers, events)
		store = postgres.New(conn)
		serverOpts = append(serverOpts, server.WithDB(conn), server.WithEvents(events))
	}

	svc := game.NewService(store,
		game.WithNotifier(notifiers),
		game.WithLogger(logger),
		game.WithJoinCodes(game.NewJoinCode, cfg.JoinCodeAttempts),
	)
	srv := server.New(svc, hub, cfg, serverOpts...)
	if cfg.TrustIdentityHeaders {
		logger.Warn().Msg("identity headers are trusted; only expose this server behind a proxy that sets them")
	}
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", httpServer.Addr).Msg("rank-it server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func memoryStore(cfg config.Config, logger zerolog.Logger) (*memory.Store, error) {
	store := memory.New()
	if cfg.TopicsCSV == "" {
		return store, nil
	}
	seeds, err := topics.ReadFile(cfg.TopicsCSV)
	if err != nil {
		return nil, err
	}
	for _, seed := range seeds {
		if _, err := store.AddTopic(seed.Name, seed.Items); err != nil {
			return nil, err
		}
	}
	logger.Info().Int("topics", len(seeds)).Str("file", cfg.TopicsCSV).Msg("topic library loaded")
	return store, nil
}

func logTopicLoad(logger zerolog.Logger, file string, res db.LoadResult) {
	logger.Info().Int("items", res.Inserted).Str("file", file).Msg("topic library loaded")
	if len(res.Frozen) > 0 {
		logger.Warn().Strs("topics", res.Frozen).Msg("new items skipped for topics already used by rounds")
	}
}
