package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-progress-service/internal/app"
	"course-progress-service/internal/config"
	"course-progress-service/internal/domain"
	"course-progress-service/internal/infra/memory"
	pgcontent "course-progress-service/internal/infra/postgres"
	redisinfra "course-progress-service/internal/infra/redis"
	"course-progress-service/internal/prefs"
	transport "course-progress-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the concept progress server",
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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.ConceptPageLoader = memory.NewStaticPageLoader(samplePages())
	if pool != nil {
		loader = pgcontent.NewContentLoader(pool)
	}

	contentTTL := config.TTLDuration(cfg.Content.TTL, 10*time.Minute)
	var content app.ContentRepository
	if redisClient != nil {
		content = redisinfra.NewContentRepository(redisClient, loader, contentTTL)
	} else {
		content = memory.NewContentRepository(loader, contentTTL)
	}

	var progressStore app.ProgressStore
	var feedbackStore app.FeedbackStore
	if redisClient != nil {
		progressStore = redisinfra.NewProgressStore(redisClient)
		feedbackStore = redisinfra.NewFeedbackStore(redisClient)
	} else {
		progressStore = memory.NewProgressStore()
		feedbackStore = memory.NewFeedbackStore()
	}

	prefsPath := cfg.Prefs.Path
	if prefsPath == "" {
		prefsPath = "prefs.json"
	}
	prefsStore, err := prefs.Load(prefsPath)
	if err != nil {
		return err
	}

	service := app.NewProgressService(content, progressStore, feedbackStore, app.LogNotifier{})
	wsHandler := transport.NewWSHandler(service)
	prefsHandler := transport.NewPrefsHandler(prefsStore)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/prefs/mentor-mode", prefsHandler.ServeMentorMode)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting course progress service on :%s", finalPort)
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

// samplePages provides minimal demo content; swap the loader for the
// Postgres-backed one in production.
func samplePages() []domain.ConceptPage {
	return []domain.ConceptPage{
		{
			CourseID:    "course-1",
			LessonID:    "lesson-1",
			ConceptID:   "concept-1",
			Title:       "What is a tensor?",
			LessonTitle: "Getting started",
			BlockTypes:  []domain.ContentBlockType{domain.BlockText, domain.BlockQuiz},
			ConceptIDs:  []string{"concept-1", "concept-2"},
			Quizzes: []domain.Quiz{
				{
					ID: "quiz-1",
					Questions: []domain.Question{
						{
							Prompt: "What is 2 + 2?",
							Answers: []domain.Answer{
								{Text: "3", Explanation: "Off by one", Correct: false},
								{Text: "4", Explanation: "Correct!", Correct: true},
								{Text: "5", Explanation: "Off by one", Correct: false},
							},
						},
					},
				},
			},
		},
		{
			CourseID:    "course-1",
			LessonID:    "lesson-1",
			ConceptID:   "concept-2",
			Title:       "Tensors in practice",
			LessonTitle: "Getting started",
			BlockTypes:  []domain.ContentBlockType{domain.BlockVideo},
			ConceptIDs:  []string{"concept-1", "concept-2"},
		},
	}
}
