package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"hoa-assistant-backend/llm"
	"hoa-assistant-backend/metrics"
	"hoa-assistant-backend/repository"
	"hoa-assistant-backend/retrieval"
	"hoa-assistant-backend/service"
)

// app holds the long-lived collaborators shared by the commands
type app struct {
	DB       *pgxpool.Pool
	Provider *llm.Provider
	Metrics  *metrics.Metrics
	Answers  *service.AnswerService
}

func (a *app) Close() {
	if a.Provider != nil {
		if err := a.Provider.Close(); err != nil {
			zap.L().Warn("close llm provider", zap.Error(err))
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// initApp connects to Postgres and the model APIs and builds the answer service
func initApp(ctx context.Context) (*app, error) {
	a := &app{Metrics: metrics.New()}

	db, err := initPostgres(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	a.DB = db

	provider, err := llm.NewProvider(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Provider = provider

	clauses := repository.NewClauseRepository(db)
	pipeline, err := retrieval.NewPipeline(
		provider.Embedder(),
		clauses,
		clauses,
		cfg.Retrieval.Options(),
		retrieval.WithObserver(a.Metrics),
	)
	if err != nil {
		a.Close()
		return nil, eris.Wrap(err, "build retrieval pipeline")
	}

	answers, err := service.NewAnswerService(
		service.AnswerWithRetriever(pipeline),
		service.AnswerWithGenerator(provider.Generator()),
		service.AnswerWithFormatOptions(cfg.Format.Options()),
		service.AnswerWithObserver(a.Metrics),
	)
	if err != nil {
		a.Close()
		return nil, eris.Wrap(err, "build answer service")
	}
	a.Answers = answers

	return a, nil
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "connect to postgres")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "ping postgres")
	}

	zap.L().Info("postgres connection established")
	return pool, nil
}
