package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/streetguess/internal/bot"
	"github.com/playperu/streetguess/internal/config"
	"github.com/playperu/streetguess/internal/countries"
	"github.com/playperu/streetguess/internal/database"
	"github.com/playperu/streetguess/internal/game"
	"github.com/playperu/streetguess/internal/geocode"
	"github.com/playperu/streetguess/internal/handler/health"
	"github.com/playperu/streetguess/internal/history"
	"github.com/playperu/streetguess/internal/migrations"
	"github.com/playperu/streetguess/internal/search"
	"github.com/playperu/streetguess/internal/server"
	"github.com/playperu/streetguess/internal/streetview"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Country data ---
	table, err := countries.Load(os.DirFS(cfg.DataDir))
	if err != nil {
		return fmt.Errorf("loading country data: %w", err)
	}
	logger.Info("loaded country data", "dir", cfg.DataDir, "countries", table.Len())

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	checks := map[string]health.Checker{
		"sqlite": health.CheckerFunc(db.PingContext),
	}

	// --- Imagery ---
	images := streetview.NewClient(cfg.StreetViewBaseURL, cfg.GoogleMapsAPIKey, cfg.RequestTimeout, logger)

	var finder game.Finder
	if cfg.SearchEnabled() {
		client, err := geocode.NewClient(cfg.GeocodeBaseURL, cfg.GoogleMapsAPIKey, cfg.RequestTimeout, logger)
		if err != nil {
			return fmt.Errorf("creating geocoder: %w", err)
		}
		var geocoder search.Geocoder = client

		// --- Redis ---
		if cfg.RedisURL != "" {
			rdb, err := openRedis(ctx, cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("connecting to redis: %w", err)
			}
			defer rdb.Close()
			logger.Info("connected to redis")

			geocoder = geocode.NewCached(geocoder, geocode.NewRedisStore(rdb), cfg.GeocodeCacheTTL, logger)
			checks["redis"] = health.CheckerFunc(func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			})
		}

		finder = search.New(images, geocoder, logger, search.Options{
			MaxAttempts: cfg.SearchMaxAttempts,
			Pacing:      cfg.SearchPacing,
		})
	} else {
		logger.Warn("GOOGLE_MAPS_API_KEY not set, games are disabled")
	}

	// --- Game ---
	games := game.NewManager(finder, table, logger, game.Options{
		StopMinElapsed: cfg.StopMinElapsed,
	})
	rounds := history.New(db)
	broker := server.NewBroker()

	botCtx, stopBot := context.WithCancel(context.WithoutCancel(ctx))
	defer stopBot()
	b := bot.New(botCtx, games, table, images, broker, rounds, logger, bot.Options{
		HintCooldown:   cfg.HintCooldown,
		StartCooldown:  cfg.StartCooldown,
		StopMinElapsed: cfg.StopMinElapsed,
	})

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Bot:            b,
		Games:          games,
		Table:          table,
		Images:         images,
		History:        rounds,
		Broker:         broker,
		Checks:         checks,
		ChatToken:      cfg.ChatToken,
		AdminTokenHash: cfg.AdminTokenHash,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		err := srv.Shutdown(context.Background())

		// Abandon searches still in flight. Close also refuses searches
		// requested by websocket frames that outlive Shutdown.
		stopBot()
		b.Close()
		return err
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
