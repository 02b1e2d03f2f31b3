package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/vinocellar/account-service/internal/command"
	"github.com/vinocellar/account-service/internal/config"
	"github.com/vinocellar/account-service/internal/events"
	"github.com/vinocellar/account-service/internal/handler"
	"github.com/vinocellar/account-service/internal/logger"
	"github.com/vinocellar/account-service/internal/migrations"
	"github.com/vinocellar/account-service/internal/notifier"
	"github.com/vinocellar/account-service/internal/query"
	redisClient "github.com/vinocellar/account-service/internal/redis"
	"github.com/vinocellar/account-service/internal/repository"
	"github.com/vinocellar/account-service/internal/session"
	"github.com/vinocellar/account-service/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Init(cfg.LogLevel, cfg.Development())
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Write store
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	if err := migrations.Up(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	// Read model, sessions and event stream
	rdb, err := redisClient.NewClient(ctx, redisClient.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	store := repository.NewManager(db)
	readRepo := repository.NewUserReadRepository(db, rdb, cfg.UserViewTTL)
	sessions := session.NewStore(rdb, cfg.SessionTTL, cfg.RememberTTL)
	tokens := session.NewTokens(cfg.JWTSecret)
	hasher := utils.NewBcryptHasher(cfg.BcryptCost)
	publisher := events.NewPublisher(rdb)

	userCommands := command.NewUserCommandService(store, readRepo, hasher, sessions, publisher, cfg.ResetURLBase)
	authCommands := command.NewAuthCommandService(store, hasher, sessions, tokens)
	userQueries := query.NewUserQueryService(readRepo, store.Users(), store.Collections())

	secureCookies := !cfg.Development()
	router := newRouter(routes{
		users:    handler.NewUserHandler(userCommands, userQueries, secureCookies),
		auth:     handler.NewAuthHandler(authCommands, secureCookies),
		resets:   handler.NewPasswordResetHandler(userCommands, userQueries),
		tokens:   tokens,
		sessions: sessions,
	})

	// Mail delivery for password resets
	mailer := notifier.NewMailer(notifier.NewSMTPSender(
		cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom,
	))
	subscriber := events.NewSubscriber(rdb, events.SubscriberConfig{
		Group:    "mailer",
		Consumer: "mailer-" + uuid.NewString(),
		Stream:   events.UserEventsStream,
		Handlers: mailer.Handlers(),
	})
	go func() {
		if err := subscriber.Start(ctx); err != nil {
			log.Error().Err(err).Msg("subscriber stopped")
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("account service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
