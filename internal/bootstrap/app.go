package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"autodevhub/internal/config"
	"autodevhub/internal/model"
	rabbitmqClient "autodevhub/internal/platform/rabbitmq"
	redisClient "autodevhub/internal/platform/redis"
	sqliteClient "autodevhub/internal/platform/sqlite"
	"autodevhub/internal/repository"
	"autodevhub/internal/worker"
)

type App struct {
	Config      *config.Config
	DB          *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	EventWorker *worker.StoryEventWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	db, err := sqliteClient.New(ctx, cfg.SQLiteDSN(), cfg.SQLite.File)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.User{}, &model.UserStory{}, &model.Session{}, &model.StoryEvent{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}
	if err := sqliteClient.MigrateFTS(db); err != nil {
		return nil, err
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		_ = redisCli.Close()
		closeDB(db)
		return nil, err
	}

	eventRepo := repository.NewStoryEventRepository(db)
	eventWorker := worker.NewStoryEventWorker(mqConn, eventRepo, cfg.RabbitMQ.StoryEventsQueue)
	if err := eventWorker.Start(ctx); err != nil {
		_ = mqConn.Close()
		_ = redisCli.Close()
		closeDB(db)
		return nil, fmt.Errorf("start story event worker failed: %w", err)
	}

	return &App{
		Config:      cfg,
		DB:          db,
		Redis:       redisCli,
		MQConn:      mqConn,
		EventWorker: eventWorker,
		StartedAt:   time.Now(),
	}, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
