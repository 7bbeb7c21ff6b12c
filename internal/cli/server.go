package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"quiz-room-service/internal/app"
	"quiz-room-service/internal/config"
	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/infra/memory"
	"quiz-room-service/internal/infra/postgres"
	redisstore "quiz-room-service/internal/infra/redis"
	"quiz-room-service/internal/logging"
	transport "quiz-room-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz room server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	return logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
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
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	loader, err := quizLoader(cfg, pool)
	if err != nil {
		return err
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var (
		store app.RoomStore
		touch func(context.Context) error
	)
	if redisClient != nil {
		redisRooms := redisstore.NewRoomStore(redisClient, redisTTL, logger)
		store, touch = redisRooms, redisRooms.Touch
	} else {
		store = memory.NewRoomStore()
	}

	coordinator := app.NewCoordinator(store,
		app.WithLogger(logger),
		app.WithMaxRooms(cfg.Room.MaxRooms))
	hub := transport.NewHub(logger)
	wsHandler := transport.NewWSHandler(coordinator, quizRepo, hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/stats", wsHandler.ServeStats)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting quiz room service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		reaper := roomReaper{
			coordinator: coordinator,
			hub:         hub,
			touch:       touch,
			idleTTL:     config.TTLDuration(cfg.Room.IdleTTL, defaultIdleTTL),
			interval:    config.TTLDuration(cfg.Room.ReapInterval, defaultReapInterval),
			logger:      logger,
		}
		reaper.run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// quizLoader picks the quiz source: Postgres when configured, then the YAML
// catalogue, then the built-in sample.
func quizLoader(cfg config.Config, pool *pgxpool.Pool) (memory.QuizLoader, error) {
	if pool != nil {
		return postgres.NewQuizStore(pool), nil
	}
	if cfg.Quiz.File != "" {
		quizzes, err := memory.LoadQuizFile(cfg.Quiz.File)
		if err != nil {
			return nil, err
		}
		return memory.NewStaticQuizLoader(quizzes), nil
	}
	return memory.NewStaticQuizLoader(sampleQuizzes()), nil
}

const (
	defaultIdleTTL      = 30 * time.Minute
	defaultReapInterval = time.Minute
)

// roomReaper closes idle rooms and keeps Redis room markers alive.
// Non-positive durations fall back to the defaults.
type roomReaper struct {
	coordinator *app.Coordinator
	hub         *transport.Hub
	touch       func(context.Context) error
	idleTTL     time.Duration
	interval    time.Duration
	logger      *slog.Logger
}

func (r roomReaper) run(ctx context.Context) {
	interval := r.interval
	if interval <= 0 {
		interval = defaultReapInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r roomReaper) sweep(ctx context.Context) {
	idleTTL := r.idleTTL
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	for _, room := range r.coordinator.ExpireIdle(idleTTL) {
		r.hub.CloseRoom(room.Code, room.Connections, "idle timeout")
	}
	if r.touch == nil {
		return
	}
	if err := r.touch(ctx); err != nil {
		r.logger.Warn("refresh room markers", "error", err)
	}
}

// sampleQuizzes is served when neither Postgres nor a quiz file is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Warm-up",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "0", Text: "3"},
						{ID: "1", Text: "4"},
						{ID: "2", Text: "5"},
					},
					Correct: "1",
				},
				{
					ID:     "q2",
					Prompt: "Which planet is known as the red planet?",
					Options: []domain.Option{
						{ID: "0", Text: "Venus"},
						{ID: "1", Text: "Mars"},
						{ID: "2", Text: "Jupiter"},
					},
					Correct:          "1",
					TimeLimitSeconds: 20,
				},
			},
		},
	}
}
