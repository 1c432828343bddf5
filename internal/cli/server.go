package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"emotech-quiz-service/internal/app"
	"emotech-quiz-service/internal/config"
	"emotech-quiz-service/internal/domain"
	"emotech-quiz-service/internal/infra/memory"
	"emotech-quiz-service/internal/infra/postgres"
	redisinfra "emotech-quiz-service/internal/infra/redis"
	"emotech-quiz-service/internal/realtime"
	transport "emotech-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
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

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	journalTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)
	questionsTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		games        app.GameStore
		questions    app.QuestionStore
		participants app.ParticipantStore
	)
	if pool != nil {
		games = postgres.NewGameStore(pool)
		questions = postgres.NewQuestionStore(pool)
		participants = postgres.NewParticipantStore(pool)
	} else {
		games = memory.NewGameStore()
		questions = memory.NewQuestionStore()
		participants = memory.NewParticipantStore()
	}

	if redisClient != nil {
		questions = redisinfra.NewQuestionCache(redisClient, questions, questionsTTL)
	}

	var journal app.EventJournal
	if redisClient != nil {
		journal = redisinfra.NewJournal(redisClient, journalTTL)
	} else {
		journal = memory.NewJournal()
	}

	rooms := realtime.NewRegistry()
	service := app.NewSessionService(app.Config{
		Games:        games,
		Questions:    questions,
		Participants: participants,
		Journal:      journal,
		Rooms:        rooms,
		Settings: domain.GameSettings{
			QuestionTimeLimit: cfg.Game.QuestionTimeLimit,
			HintPenalty:       cfg.Game.HintPenalty,
			CheatPenalty:      cfg.Game.CheatPenalty,
		},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	transport.NewRESTHandler(service).Register(mux)
	mux.HandleFunc("/ws", transport.NewWSHandler(service, rooms).ServeWS)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// Write timeout stays off: websocket connections are long-lived.
	}

	go func() {
		log.Printf("starting quiz session service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
