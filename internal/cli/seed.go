package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"quiz-room-service/internal/config"
	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/infra/memory"
	"quiz-room-service/internal/infra/postgres"
	redisstore "quiz-room-service/internal/infra/redis"
)

// NewSeedCmd loads a YAML quiz catalogue into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert quizzes from a YAML file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.Quiz.File
			}
			return runSeed(cmd.Context(), cfg, file, newLogger(cfg))
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "quiz catalogue (defaults to quiz.file)")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, file string, logger *slog.Logger) error {
	if file == "" {
		return fmt.Errorf("no quiz file given")
	}
	quizzes, err := memory.LoadQuizFile(file)
	if err != nil {
		return err
	}
	if err := runMigrations(ctx, cfg, logger); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	store := postgres.NewQuizStore(pool)
	var cache quizInvalidator
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		cache = redisstore.NewQuizRepository(client, store, config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute))
	}
	return seedQuizzes(ctx, quizzes, store, cache, logger)
}

type quizSaver interface {
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
}

type quizInvalidator interface {
	Invalidate(ctx context.Context, quizID string) error
}

// seedQuizzes upserts every quiz and drops its cached copy. A cache failure
// is logged; the copy expires on its own TTL.
func seedQuizzes(ctx context.Context, quizzes map[string]domain.Quiz, store quizSaver, cache quizInvalidator, logger *slog.Logger) error {
	for id, quiz := range quizzes {
		if err := store.SaveQuiz(ctx, quiz); err != nil {
			return fmt.Errorf("save quiz %s: %w", id, err)
		}
		if cache != nil {
			if err := cache.Invalidate(ctx, id); err != nil {
				logger.Warn("quiz cache invalidation failed", "quiz", id, "error", err)
			}
		}
		logger.Info("quiz seeded", "quiz", id, "questions", len(quiz.Questions))
	}
	return nil
}
