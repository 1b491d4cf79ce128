package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nextgen-quiz-service/internal/app"
	"nextgen-quiz-service/internal/config"
	"nextgen-quiz-service/internal/domain"
	"nextgen-quiz-service/internal/infra/memory"
	pgstore "nextgen-quiz-service/internal/infra/postgres"
	redisinfra "nextgen-quiz-service/internal/infra/redis"
	transport "nextgen-quiz-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var docs app.DocumentRepository = memory.NewDocumentRepository(sampleDocuments()...)
	if pool != nil {
		docs = pgstore.NewDocumentStore(pool)
	}
	if redisClient != nil {
		if store, ok := docs.(redisinfra.Store); ok {
			docs = redisinfra.NewDocumentCache(redisClient, store, quizTTL)
		}
	}

	var sessions app.SessionStore
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	service := app.NewQuizService(docs, sessions, cfg.Admin.Password)
	wsHandler := transport.NewWSHandler(service)
	api := transport.NewAPI(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	api.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
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

// sampleDocuments seeds demo mode; production runs against Postgres.
func sampleDocuments() []domain.QuizDocument {
	return []domain.QuizDocument{
		{
			Title:        "CSC 101 Week 1 Quiz",
			Department:   "Computer Science",
			Level:        "100 Level",
			Semester:     "First Semester",
			Course:       "CSC 101",
			Week:         "Week 1",
			QuizCategory: "Quiz 1",
			Questions: []domain.Question{
				{
					Prompt:      "What does CPU stand for?",
					Options:     []string{"Central Processing Unit", "Computer Personal Unit", "Central Program Utility"},
					Correct:     "Central Processing Unit",
					Explanation: "The CPU executes instructions and coordinates the other components.",
				},
				{
					Prompt:  "Which of these is an input device?",
					Options: []string{"Monitor", "Keyboard", "Printer"},
					Correct: "Keyboard",
				},
			},
		},
	}
}
