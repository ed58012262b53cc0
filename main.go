package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/Low-P1ng/Doodlerush/auth"
	"github.com/Low-P1ng/Doodlerush/config"
	"github.com/Low-P1ng/Doodlerush/crypto"
	"github.com/Low-P1ng/Doodlerush/game"
	"github.com/Low-P1ng/Doodlerush/logger"
	"github.com/Low-P1ng/Doodlerush/migrations"
	"github.com/Low-P1ng/Doodlerush/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func CreateServer(allowedOrigins []string, l zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(logger.Gin(l), gin.Recovery())

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.Setup("info", false)
		boot.Fatal().Err(err).Msg("loading config")
	}

	l := logger.Setup(cfg.LogLevel, cfg.Debug)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Dependencies
	embedded := game.NewEmbeddedWords()
	l.Debug().Int("words", embedded.Len()).Msg("embedded word list loaded")
	words := game.WordSupplier(embedded)
	var recorder game.ResultRecorder
	var results game.ResultsReader

	if cfg.PostgresURL != "" {
		if err := migrations.Migrate(cfg.PostgresURL); err != nil {
			l.Fatal().Err(err).Msg("running migrations")
		}
		pgRepo, err := storage.NewPostgresRepo(ctx, cfg.PostgresURL)
		if err != nil {
			l.Fatal().Err(err).Msg("connecting to postgres")
		}
		defer pgRepo.Close()

		words = game.NewBankWords(pgRepo, words, l)
		recorder = pgRepo
		results = pgRepo
	} else {
		l.Warn().Msg("POSTGRES_URL not set, using the embedded word list and no game history")
	}

	passwordHasher := crypto.NewArgon2idHasher(3, 1024*64, 32, 16, 1)
	tokenManager := crypto.NewJWTManager(cfg.JWTKey, cfg.TokenAge)

	authService := auth.NewService(tokenManager)
	authHandler := auth.NewAuthHandler(authService, cfg.TokenAge, l)

	// cancelled once the shutdown grace period is over
	gameCtx, cancelGames := context.WithCancel(context.Background())
	defer cancelGames()

	hub := game.NewHub(gameCtx, game.NewTickerGen(), l)
	svc := game.NewService(game.NewSessionStore(), game.Collaborators{
		Registry:    hub,
		Broadcaster: hub,
		Roster:      hub,
		Words:       words,
		Recorder:    recorder,
		Logger:      l,
	})
	hub.SetGameRunner(svc)

	r := CreateServer(cfg.AllowedOrigins, l)

	{
		authGroup := r.Group("/auth")
		authGroup.POST("/guest", authHandler.GuestHandler)
		authGroup.POST("/logout", authHandler.LogoutHandler)
		authGroup.GET("/refresh", authHandler.RefreshSessionHandler)
	}

	gameHandler := game.NewGameHandler(hub, passwordHasher, results, cfg.PublicURL, cfg.AllowedOrigins, l)
	{
		gameGroup := r.Group("/game")
		gameGroup.Use(authHandler.RequireAuthMiddleware(time.Second * 2))

		gameGroup.POST("/rooms", gameHandler.CreateRoomHandler)
		gameGroup.GET("/rooms", gameHandler.ListRoomsHandler)
		gameGroup.GET("/rooms/:roomid/join", gameHandler.JoinRoomHandler)
		gameGroup.GET("/rooms/:roomid/qr", gameHandler.QRCodeHandler)
		gameGroup.GET("/results", gameHandler.ResultsHandler)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Info().Int("games", svc.Running()).Msg("shutting down")

		graceCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()

		if err := server.Shutdown(graceCtx); err != nil {
			l.Error().Err(err).Msg("http shutdown")
		}
		if err := svc.Wait(graceCtx); err != nil {
			l.Warn().Int("games", svc.Running()).Msg("grace period over, cancelling games")
		}
		cancelGames()
		return nil
	})

	if err := g.Wait(); err != nil {
		l.Fatal().Err(err).Msg("server stopped")
	}
}
