package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/stocksim/trade-engine/internal/achievement"
	"github.com/stocksim/trade-engine/internal/clock"
	"github.com/stocksim/trade-engine/internal/config"
	"github.com/stocksim/trade-engine/internal/feed"
	"github.com/stocksim/trade-engine/internal/metrics"
	"github.com/stocksim/trade-engine/internal/model"
	"github.com/stocksim/trade-engine/internal/offer"
	"github.com/stocksim/trade-engine/internal/store"
	"github.com/stocksim/trade-engine/internal/trade"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("configuration failed", "err", err)
		os.Exit(1)
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.Database.URL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)

		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			slog.Error("schema migration failed", "err", err)
			os.Exit(1)
		}
		st = pg
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if cfg.Redis.URL != "" {
			opt, err := redis.ParseURL(cfg.Redis.URL)
			if err != nil {
				slog.Error("invalid redis url", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, time.Duration(cfg.Redis.CacheTTLSeconds)*time.Second)
			slog.Info("Redis save cache enabled")
		}
	} else {
		slog.Warn("database url not set, using in-memory store (saves will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Market feed ---
	var fd feed.Feed
	if cfg.Feed.BaseURL != "" {
		fd = feed.NewClient(cfg.Feed.BaseURL)
		slog.Info("market feed configured", "base_url", cfg.Feed.BaseURL)
	} else {
		slog.Warn("feed base url not set, using static built-in quotes")
		fd = feed.NewStatic(defaultQuotes())
	}

	// --- Offer generator ---
	seed := uint64(time.Now().UnixNano())
	rng := rand.New(rand.NewPCG(seed, seed>>32))
	gen := offer.NewGenerator(rng)

	// --- Achievements ---
	tracker := achievement.NewTracker()

	// --- WebSocket hub ---
	wsHub := trade.NewWSHub()
	go wsHub.Run()

	// --- Trade service ---
	startingCash := decimal.NewFromFloat(cfg.Game.StartingCash)
	svc := trade.NewService(fd, st, gen, tracker, wsHub, startingCash, cfg.Game.MaxDailyOffers)

	// Resume the auto-save if one exists.
	if game, err := svc.LoadFrom(context.Background(), store.AutoSaveSlot); err == nil {
		slog.Info("resumed auto-save", "day", game.Day)
	} else if !errors.Is(err, store.ErrNotFound) {
		slog.Warn("auto-save restore failed", "err", err)
	}

	// --- Day clock ---
	var dayClock *clock.DayClock
	if cfg.Game.DayCron != "" {
		dayClock, err = clock.New(cfg.Game.DayCron, func(day int) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, err := svc.AdvanceDay(ctx, day); err != nil {
				slog.Error("scheduled day advance failed", "day", day, "err", err)
			}
		})
		if err != nil {
			slog.Error("invalid day cron schedule", "spec", cfg.Game.DayCron, "err", err)
			os.Exit(1)
		}
		if day := svc.Day(); day > 0 {
			dayClock.SetDay(day)
		}
		dayClock.Start()
		defer dayClock.Stop()
	}

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"trade-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time offer and trade events.
		r.Get("/ws", wsHub.HandleWS)

		svc.Routes(r)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("trade-engine listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down trade-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("trade-engine stopped")
}

// defaultQuotes is the built-in market used when no feed is configured.
func defaultQuotes() map[string]model.Quote {
	return map[string]model.Quote{
		"ACME": {CurrentPrice: decimal.NewFromFloat(142.50), Sector: "industrial"},
		"BOLT": {CurrentPrice: decimal.NewFromFloat(38.20), Sector: "energy"},
		"CRUX": {CurrentPrice: decimal.NewFromFloat(251.00), Sector: "technology"},
		"DUNE": {CurrentPrice: decimal.NewFromFloat(17.85), Sector: "materials"},
		"EBBS": {CurrentPrice: decimal.NewFromFloat(64.40), Sector: "finance"},
		"FLUX": {CurrentPrice: decimal.NewFromFloat(93.75), Sector: "technology"},
	}
}
