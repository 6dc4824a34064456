// Package app wires configuration, stores, caches and services into a
// runnable survey backend shared by the server and bot commands.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"feedbacksurvey/internal/cache"
	"feedbacksurvey/internal/config"
	"feedbacksurvey/internal/repository"
	"feedbacksurvey/internal/service"
	"feedbacksurvey/internal/survey"
	"feedbacksurvey/internal/transport/rest"
	"feedbacksurvey/internal/transport/ws"
)

const (
	pingTimeout     = 5 * time.Second
	sessionTokenTTL = 24 * time.Hour
)

// App holds the wired services and the connections behind them
type App struct {
	Config        *config.Config
	Log           *zap.Logger
	Questionnaire *survey.Questionnaire

	Auth      *service.AuthService
	Sessions  *service.SessionService
	Responses *service.ResponseService
	Hub       *ws.Hub

	mongo *mongo.Client
	rdb   *redis.Client
	pg    *sql.DB
}

// New connects the configured backends and builds the services
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Log: log}

	if err := a.connect(ctx); err != nil {
		a.closeConns()
		return nil, err
	}

	q, err := a.loadQuestionnaire(ctx)
	if err != nil {
		a.closeConns()
		return nil, err
	}
	a.Questionnaire = q

	repo, err := a.responseRepo(ctx)
	if err != nil {
		a.closeConns()
		return nil, err
	}

	var (
		sessionCache cache.SessionCache
		statsCache   cache.StatsCache
	)
	if a.rdb != nil {
		sessionCache = cache.NewSessionCache(a.rdb, cfg.Survey.SessionIdleTTL())
		statsCache = cache.NewStatsCache(a.rdb, cfg.Survey.Questionnaire)
	} else {
		sessionCache = cache.NewMemorySessionCache()
		statsCache = cache.NewMemoryStatsCache()
	}

	a.Auth = service.NewAuthService(cfg.Auth, sessionTokenTTL)
	a.Responses = service.NewResponseService(repo, statsCache, q, log)
	a.Sessions = service.NewSessionService(q, a.Auth, a.Responses, sessionCache, service.SessionConfigFrom(cfg.Survey), log)

	// the hub pushes state and toasts and carries confirmation prompts
	a.Hub = ws.NewHub(log)
	a.Sessions.SetBroadcaster(a.Hub)
	a.Sessions.SetPrompter(a.Hub)

	log.Info("survey backend ready",
		zap.String("store", cfg.Store),
		zap.Bool("redis", a.rdb != nil),
		zap.Int("questions", q.Len()),
	)
	return a, nil
}

// Router builds the HTTP handler for the REST and WebSocket API
func (a *App) Router() http.Handler {
	return rest.NewRouter(&rest.Container{
		AuthService:     a.Auth,
		SessionService:  a.Sessions,
		ResponseService: a.Responses,
		WSHub:           a.Hub,
		Logger:          a.Log,
		CORSOrigins:     a.Config.HTTP.CORSOrigins,
	})
}

// Close tears down sessions, waits for pending recordings and disconnects backends
func (a *App) Close(ctx context.Context) {
	if a.Sessions != nil {
		a.Sessions.Shutdown(ctx)
	}
	if a.Hub != nil {
		a.Hub.Close()
	}
	a.closeConns()
}

func (a *App) connect(ctx context.Context) error {
	cfg := a.Config

	if cfg.Mongo.URI != "" {
		client, err := ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return err
		}
		a.mongo = client
		a.Log.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))
	}

	if cfg.Redis.Addr != "" {
		rdb, err := ConnectRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			return err
		}
		a.rdb = rdb
		a.Log.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	if cfg.Store == config.StorePostgres {
		db, err := repository.OpenPostgres(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		a.pg = db
		a.Log.Info("connected to Postgres")
	}
	return nil
}

func (a *App) responseRepo(ctx context.Context) (repository.ResponseRepo, error) {
	switch a.Config.Store {
	case config.StoreMongo:
		db := a.mongo.Database(a.Config.Mongo.Database)
		if err := repository.EnsureResponseIndexes(ctx, db); err != nil {
			return nil, fmt.Errorf("ensure response indexes: %w", err)
		}
		return repository.NewMongoResponseRepo(db), nil
	case config.StorePostgres:
		if err := repository.EnsureResponseSchema(ctx, a.pg); err != nil {
			return nil, fmt.Errorf("ensure response schema: %w", err)
		}
		return repository.NewPostgresResponseRepo(a.pg), nil
	default:
		a.Log.Warn("using in-memory response store, submissions are lost on restart")
		return repository.NewMemoryResponseRepo(), nil
	}
}

// loadQuestionnaire prefers the YAML file, then the stored questionnaire, then the built-in one
func (a *App) loadQuestionnaire(ctx context.Context) (*survey.Questionnaire, error) {
	cfg := a.Config.Survey
	if cfg.QuestionsFile != "" {
		q, err := survey.LoadQuestionnaire(cfg.QuestionsFile)
		if err != nil {
			return nil, err
		}
		a.Log.Info("questionnaire loaded from file", zap.String("path", cfg.QuestionsFile))
		return q, nil
	}

	if a.mongo != nil {
		repo := repository.NewQuestionnaireRepo(a.mongo.Database(a.Config.Mongo.Database))
		doc, err := repo.GetByName(ctx, cfg.Questionnaire)
		switch {
		case err == nil:
			q, err := survey.NewQuestionnaire(doc.Questions)
			if err != nil {
				return nil, fmt.Errorf("stored questionnaire %q: %w", cfg.Questionnaire, err)
			}
			a.Log.Info("questionnaire loaded from MongoDB", zap.String("name", cfg.Questionnaire))
			return q, nil
		case !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("load questionnaire %q: %w", cfg.Questionnaire, err)
		}
	}

	return survey.DefaultQuestionnaire(), nil
}

func (a *App) closeConns() {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			a.Log.Warn("mongo disconnect", zap.Error(err))
		}
		a.mongo = nil
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.Log.Warn("redis close", zap.Error(err))
		}
		a.rdb = nil
	}
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.Log.Warn("postgres close", zap.Error(err))
		}
		a.pg = nil
	}
}

// ConnectMongo connects and pings MongoDB
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return client, nil
}

// ConnectRedis connects and pings Redis. A redis:// prefix is accepted.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: strings.TrimPrefix(addr, "redis://"),
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping Redis: %w", err)
	}
	return rdb, nil
}
