package application

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"duoduo-bargain/internal/config"
	"duoduo-bargain/internal/domain/service/bargain"
	"duoduo-bargain/internal/domain/service/product"
	"duoduo-bargain/internal/infrastructure/persistence"
	"duoduo-bargain/internal/infrastructure/secondme"
	"duoduo-bargain/internal/infrastructure/sessionstore"
	"duoduo-bargain/internal/server"
	"duoduo-bargain/internal/worker"
	"duoduo-bargain/pkg/application/connectors"
	"duoduo-bargain/pkg/application/modules"
	"duoduo-bargain/pkg/httpx"
	"duoduo-bargain/pkg/logx"
	"duoduo-bargain/pkg/middlewarex"
)

const logFieldMaxLen = 4096

func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	postgres := &connectors.Postgres{
		DSN:             cfg.Postgres.DSN,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}
	defer postgres.Close(ctx)

	redis := &connectors.Redis{
		Address:            cfg.Redis.Address,
		Username:           cfg.Redis.Username,
		Password:           cfg.Redis.Password,
		DatabaseNumber:     cfg.Redis.DatabaseNumber,
		PoolSize:           cfg.Redis.PoolSize,
		MinIdleConnections: cfg.Redis.MinIdleConnections,
		MaxIdleConnections: cfg.Redis.MaxIdleConnections,
	}
	defer redis.Close(ctx)

	db := postgres.Client(ctx)

	userRepo := persistence.NewUserRepository(db)
	productRepo := persistence.NewProductRepository(db)
	bargainRepo := persistence.NewBargainRepository(db)

	loginSessions := sessionstore.NewStore(redis.Client(ctx), cfg.Auth.SessionTTL)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DatabaseNumber,
	})
	defer asynqClient.Close()

	expiryScheduler := worker.NewExpiryScheduler(asynqClient)

	productService := product.NewService(productRepo, expiryScheduler)

	secondMeHTTPClient := &http.Client{
		Transport: httpx.NewLoggingRoundTripper(
			http.DefaultTransport,
			httpx.WithLogFieldMaxLen(logFieldMaxLen),
			httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker()),
		),
	}

	oauthClient := secondme.NewOAuthClient(secondme.OAuthConfig{
		AppID:       cfg.SecondMe.AppID,
		AppSecret:   cfg.SecondMe.AppSecret,
		TokenURL:    cfg.SecondMe.TokenURL,
		RefreshURL:  cfg.SecondMe.RefreshURL,
		UserInfoURL: cfg.SecondMe.UserInfoURL,
	}, secondMeHTTPClient)

	chatClient := secondme.NewChatClient(cfg.SecondMe.BaseURL, secondMeHTTPClient)

	negotiator := bargain.NewNegotiator(bargainRepo, userRepo, productRepo, chatClient).
		WithMaxExchanges(cfg.Bargain.MaxExchanges).
		WithInterTurnDelay(cfg.Bargain.InterTurnDelay)

	srv := server.NewServer(
		server.NewAuthServer(
			userRepo,
			oauthClient,
			loginSessions,
			cfg.SecondMe.RedirectURI,
			cfg.Auth.PostLoginURL,
			cfg.Auth.SessionTTL,
			cfg.Auth.MockLoginEnabled,
		),
		server.NewProductServer(productService),
		server.NewBargainServer(bargainRepo, negotiator, productRepo),
	)

	router := newRouter(srv)

	g, ctx := errgroup.WithContext(ctx)

	modules.HTTPServer{ShutdownTimeout: cfg.HTTP.ShutdownTimeout}.Run(ctx, g, &http.Server{
		Addr:              cfg.HTTP.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	})

	modules.ProbeServer{
		Name:          cfg.App.Name,
		Version:       cfg.App.Version,
		ListenAddress: cfg.HTTP.ProbeListenAddress,
	}.Run(ctx, g)

	modules.MetricServer{ListenAddress: cfg.HTTP.MetricListenAddress}.Run(ctx, g)

	modules.AsynqServer{
		RedisAddress:  cfg.Redis.Address,
		RedisUsername: cfg.Redis.Username,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DatabaseNumber,
	}.Run(ctx, g,
		modules.AsynqQueues{"default": 1},
		modules.AsynqHandler{
			Pattern: worker.TypeProductExpire,
			Handle:  worker.HandleProductExpire(productService),
		},
	)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("g.Wait: %w", err)
	}

	return nil
}

func newRouter(srv server.Server) chi.Router {
	masker := logx.NewSensitiveDataMasker()

	router := chi.NewRouter()
	router.Use(
		middlewarex.TraceID,
		middlewarex.Logger,
		middlewarex.Recovery,
		middlewarex.RequestLogging(masker, logFieldMaxLen),
		middlewarex.ResponseLogging(masker, logFieldMaxLen),
	)

	srv.RegisterRoutes(router)

	return router
}
