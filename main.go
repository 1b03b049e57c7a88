package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/sync/errgroup"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/cache"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/config"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/db"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/handlers"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/jobs"
	applog "github.com/brunomigmarques/CiclismoPortugal-sub006/logger"
	mw "github.com/brunomigmarques/CiclismoPortugal-sub006/middleware"
)

func main() {
	cfg := config.Load()
	logger, err := applog.New("api", cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bdb := db.Setup(cfg)
	defer bdb.Close()

	if err := db.CreateTables(ctx, bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}
	store := db.NewStore(bdb)

	h := handlers.New(store, cfg.JWTKey(), logger).WithBotSeed(cfg.BotSeed)

	// Redis is optional: without it the price lock is in-process and
	// standings are read straight from the database.
	var lock jobs.Locker
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis unavailable", zap.Error(err))
		}
		defer rc.Close()
		lock = rc
		h.WithCache(rc, cfg.StandingsCacheTTL).WithHealthCheck("redis", rc)
	}
	prices := jobs.NewPriceUpdater(store, lock, logger.With(zap.String("job", "pricing")))
	h.WithPriceJob(prices)

	e := newServer(h, cfg, logger)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.EnableScheduler {
		g.Go(func() error {
			jobs.NewScheduler(prices, cfg.PriceUpdateHour, logger).Start(gctx)
			return nil
		})
	}
	g.Go(func() error { return serve(gctx, e, cfg, logger) })

	if err := g.Wait(); err != nil {
		logger.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}

func newServer(h *handlers.Handler, cfg *config.Config, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
			}
			if id := mw.UserID(c); id != 0 {
				fields = append(fields, zap.Int64("user_id", id))
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				logger.Error("http request", fields...)
			case v.Status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"*", "Authorization"},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit("2M"))

	e.GET("/healthz", h.Healthz)

	// Public
	e.POST("/api/signin", h.Signin)

	// Protected – require valid JWT in Authorization header
	api := e.Group("/api", mw.JWT(cfg.JWTKey()))
	api.GET("/cyclists", h.ListCyclists)
	api.GET("/cyclists/:id", h.GetCyclist)
	api.GET("/races", h.ListRaces)
	api.GET("/races/:id/results", h.RaceResults)
	api.POST("/teams", h.CreateTeam)
	api.GET("/teams/me", h.MyTeam)
	api.GET("/teams/me/validation", h.ValidateMyTeam)
	api.POST("/teams/me/cyclists", h.BuyCyclist)
	api.DELETE("/teams/me/cyclists/:cyclistId", h.SellCyclist)
	api.PUT("/teams/me/captain", h.SetCaptain)
	api.PUT("/teams/me/lineup", h.SetLineup)
	api.POST("/teams/me/chips", h.PlayChip)
	api.POST("/leagues", h.CreateLeague)
	api.POST("/leagues/join", h.JoinLeague)
	api.GET("/leagues/:id/standings", h.Standings)

	// Admin – JWT plus the admin flag
	admin := api.Group("/admin", mw.Admin())
	admin.POST("/password-hash", h.PasswordHash)
	admin.POST("/races", h.CreateRace)
	admin.POST("/races/:id/startlist", h.AddStartlist)
	admin.POST("/races/:id/results", h.UploadResults)
	admin.POST("/races/:id/results/html", h.UploadResultsHTML)
	admin.POST("/races/:id/finish", h.FinishRace)
	admin.POST("/bots", h.GenerateBots)
	admin.POST("/pricing/run", h.RunPricing)

	return e
}

// serve runs plain HTTP in debug mode and autocert TLS otherwise, shutting
// down when ctx ends.
func serve(ctx context.Context, e *echo.Echo, cfg *config.Config, logger *zap.Logger) error {
	s := &http.Server{
		Addr:         cfg.Port,
		Handler:      e,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	if !cfg.Debug {
		autoTLS := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			Cache:      autocert.DirCache(".cache"),
			HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
		}
		s.Addr = ":443"
		s.TLSConfig = autoTLS.TLSConfig()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	var err error
	if cfg.Debug {
		logger.Info("starting server", zap.String("mode", "debug"), zap.String("addr", s.Addr))
		err = s.ListenAndServe()
	} else {
		logger.Info("starting server", zap.String("mode", "tls"), zap.Strings("domains", cfg.TLSDomains))
		err = s.ListenAndServeTLS("", "")
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
