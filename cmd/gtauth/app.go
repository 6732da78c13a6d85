package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gt-platform/gtauth/internal/db"
	"github.com/gt-platform/gtauth/internal/handlers"
	"github.com/gt-platform/gtauth/internal/handlers/middleware"
	"github.com/gt-platform/gtauth/internal/logger"
	"github.com/gt-platform/gtauth/internal/repository/postgres"
	"github.com/gt-platform/gtauth/internal/revocation"
	"github.com/gt-platform/gtauth/internal/service/auth"
	"github.com/gt-platform/gtauth/internal/service/person"
	"github.com/gt-platform/gtauth/internal/service/social"
	"github.com/gt-platform/gtauth/internal/token"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Connect to redis for the revoked token blacklist
	redisClient := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize token codec and revocation store
	key, err := token.NewKey(c.SecretKey)
	if err != nil {
		pool.Close()
		redisClient.Close() // nolint:errcheck
		return nil, fmt.Errorf("error while creating signing key. Err: %w", err)
	}
	codec := token.NewCodec(key)
	revoked := revocation.NewRedisStore(redisClient)

	// Social login verifiers, mounted only when configured
	var socialVerifiers []social.Verifier
	if c.GoogleClientID != "" {
		googleVerifier, err := social.NewGoogleVerifier(social.GoogleConfig{ClientID: c.GoogleClientID})
		if err != nil {
			pool.Close()
			redisClient.Close() // nolint:errcheck
			return nil, fmt.Errorf("error while creating google verifier. Err: %w", err)
		}
		socialVerifiers = append(socialVerifiers, googleVerifier)
	}

	// Initialize services
	authService, err := auth.NewService(
		auth.Config{
			AccessTokenTTL:  c.AccessTokenTTL,
			RefreshTokenTTL: c.RefreshTokenTTL,
		},
		codec, revoked, storage.User(), socialVerifiers, logger,
	)
	if err != nil {
		pool.Close()
		redisClient.Close() // nolint:errcheck
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	personService, err := person.NewService(storage.Person())
	if err != nil {
		pool.Close()
		redisClient.Close() // nolint:errcheck
		return nil, fmt.Errorf("error while creating person service. Err: %w", err)
	}

	// Browser-redirect google flow, mounted only when fully configured
	var oauthHandler *handlers.OAuthHandler
	if c.GoogleClientID != "" && c.GoogleClientSecret != "" {
		flow, err := social.NewGoogleFlow(social.GoogleFlowConfig{
			ClientID:     c.GoogleClientID,
			ClientSecret: c.GoogleClientSecret,
			RedirectURL:  c.OAuthRedirectURL,
		})
		if err != nil {
			pool.Close()
			redisClient.Close() // nolint:errcheck
			return nil, fmt.Errorf("error while creating google oauth flow. Err: %w", err)
		}
		oauthHandler = handlers.NewOAuth(flow, authService, c.OAuthSuccessRedirectURL, c.OAuthFailureRedirectURL, logger)
	}

	// Initialize handlers
	authHandler := handlers.NewAuth(authService, logger)
	personHandler := handlers.NewPerson(personService, logger)
	userHandler := handlers.NewUser()

	outer := []func(http.Handler) http.Handler{
		middleware.Logger(logger),
	}
	if origin := c.CORSOrigin(); origin != "" {
		outer = append(outer, middleware.CORS(origin))
	}

	mux := handlers.NewRouter(
		authHandler,
		oauthHandler,
		personHandler,
		userHandler,
		middleware.Gate(authService, logger),
		outer...,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		closers: []func(){
			pool.Close,
			func() { redisClient.Close() }, // nolint:errcheck
		},
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	for _, closeFn := range s.closers {
		closeFn()
	}

	return err
}
