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

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/config"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
	pgloader "trivia-room-service/internal/infra/postgres"
	redisinfra "trivia-room-service/internal/infra/redis"
	transport "trivia-room-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the trivia room server",
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.SetLoader = memory.NewStaticSetLoader(sampleQuestionSets())
	if pool != nil {
		loader = pgloader.NewQuestionLoader(pool)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var bank transport.QuestionBank
	if redisClient != nil {
		bank = redisinfra.NewQuestionBank(redisClient, loader, questionTTL)
	} else {
		bank = memory.NewQuestionBank(loader, questionTTL)
	}

	var presence app.PresenceMarker
	if redisClient != nil {
		presence = redisinfra.NewRoomPresence(redisClient, redisTTL)
	}

	registry := app.NewRegistry(app.Config{
		InactiveTTL: config.TTLDuration(cfg.Rooms.InactiveTTL, app.DefaultInactiveTTL),
		Presence:    presence,
	})
	handler := transport.NewHandler(registry, bank)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// The registry exposes only the check-and-delete pass; scheduling it is
	// this layer's job.
	cleanupInterval := config.TTLDuration(cfg.Rooms.CleanupInterval, 5*time.Minute)
	janitorDone := make(chan struct{})
	janitorStop := make(chan struct{})
	go func() {
		defer close(janitorDone)
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				registry.CleanupInactiveRooms()
			case <-janitorStop:
				return
			}
		}
	}()

	go func() {
		log.Printf("starting trivia room service on :%s", finalPort)
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

	close(janitorStop)
	<-janitorDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestionSets provides minimal demo content; configure Postgres for
// real question-set storage.
func sampleQuestionSets() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		"general": {
			ID: "general",
			Questions: []domain.Question{
				{
					Prompt:        "What is 2 + 2?",
					Options:       []string{"3", "4", "5"},
					CorrectAnswer: "4",
					Points:        10,
				},
				{
					Prompt:        "Which planet is known as the Red Planet?",
					Options:       []string{"Venus", "Mars", "Jupiter"},
					CorrectAnswer: "Mars",
					Points:        10,
				},
			},
		},
	}
}
