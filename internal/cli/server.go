package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/auth"
	"classroom-quiz-service/internal/config"
	"classroom-quiz-service/internal/infra/memory"
	"classroom-quiz-service/internal/infra/postgres"
	infraredis "classroom-quiz-service/internal/infra/redis"
	transport "classroom-quiz-service/internal/transport/http"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	slog.SetDefault(log)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	coinRules, err := cfg.CoinRules()
	if err != nil {
		return err
	}
	identity, err := auth.NewJWTProvider(cfg.Auth.JWTSecret, cfg.Auth.Issuer, config.TTLDuration(cfg.Auth.TokenTTL, 12*time.Hour))
	if err != nil {
		return err
	}

	var store app.Store = memory.NewStore()
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
		db := postgres.Open(cfg.Postgres.URL)
		defer db.Close()
		store = postgres.NewStore(db)
		log.Info("using postgres store")
	} else {
		log.Warn("postgres not configured, state is kept in memory")
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// With Redis, events reach the local hub through the relay so every instance feeds its sockets.
	hub := memory.NewHub()
	events := app.FanoutPublisher{hub}
	var notifier app.Notifier = memory.NewLogNotifier(log)
	if redisClient != nil {
		publisher := infraredis.NewPublisher(redisClient)
		events = app.FanoutPublisher{publisher}
		notifier = publisher
		relay := infraredis.NewRelay(redisClient, hub, log.With("component", "relay"))
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error("event relay stopped", "err", err)
			}
		}()
	}

	directory := memory.NewDirectory(cfg.Directory.Teachers, cfg.Directory.Students)
	ledger := app.NewCoinLedger(store, coinRules,
		app.WithLedgerLogger(log.With("component", "ledger")),
		app.WithLedgerNotifier(notifier),
	)
	engine := app.NewQuizEngine(store, ledger, directory, cfg.QuizRules(),
		app.WithLogger(log.With("component", "engine")),
		app.WithEvents(events),
		app.WithNotifier(notifier),
	)

	// Quiz TTL governs how long finished leaderboards stay cached.
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var leaderboards app.LeaderboardSource
	if redisClient != nil {
		leaderboards = infraredis.NewLeaderboardCache(redisClient, engine, config.TTLDuration(cfg.Redis.TTL, quizTTL))
	} else {
		leaderboards = memory.NewLeaderboardCache(engine, quizTTL)
	}

	api := transport.NewAPI(engine, ledger, identity,
		transport.WithLeaderboards(leaderboards),
		transport.WithAPILogger(log.With("component", "http")),
	)
	wsHandler := transport.NewWSHandler(engine, identity, hub, log.With("component", "ws"))

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewMux(api, wsHandler, cfg.Server.StaticDir),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: websocket feeds are long-lived.
	}

	go func() {
		log.Info("starting quiz service", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
