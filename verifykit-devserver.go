package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	verifyhttp "github.com/itellico/verifykit/adapters/http"
	"github.com/itellico/verifykit/core"
	pgstore "github.com/itellico/verifykit/storage/postgres"
)

type config struct {
	ListenAddr     string
	Issuer         string
	AccessSecret   string
	BaseURL        string
	DBURL          string
	RedisURL       string
	MigrateOnStart bool
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}

	cmd := "serve"
	if len(os.Args) > 1 && strings.TrimSpace(os.Args[1]) != "" {
		cmd = strings.TrimSpace(os.Args[1])
	}

	switch cmd {
	case "serve":
		if err := runServe(cfg); err != nil {
			fatal(err)
		}
	case "migrate":
		if err := runMigrate(cfg); err != nil {
			fatal(err)
		}
	default:
		fatal(fmt.Errorf("unknown command %q (supported: serve, migrate)", cmd))
	}
}

func loadConfig() (*config, error) {
	c := &config{
		ListenAddr:     envOr("VERIFYKIT_LISTEN_ADDR", ":8080"),
		Issuer:         strings.TrimRight(strings.TrimSpace(os.Getenv("VERIFYKIT_ISSUER")), "/"),
		AccessSecret:   strings.TrimSpace(os.Getenv("VERIFYKIT_ACCESS_SECRET")),
		BaseURL:        strings.TrimRight(strings.TrimSpace(os.Getenv("VERIFYKIT_BASE_URL")), "/"),
		DBURL:          firstEnv("DB_URL", "DATABASE_URL"),
		RedisURL:       strings.TrimSpace(os.Getenv("REDIS_URL")),
		MigrateOnStart: envBool("VERIFYKIT_MIGRATE_ON_START", true),
	}
	if c.Issuer == "" {
		return nil, fmt.Errorf("VERIFYKIT_ISSUER is required (e.g. http://localhost:8080)")
	}
	if c.AccessSecret == "" {
		return nil, fmt.Errorf("VERIFYKIT_ACCESS_SECRET is required")
	}
	return c, nil
}

func runServe(cfg *config) error {
	ctx := context.Background()

	svc, err := verifyhttp.NewService(core.Config{
		Issuer:            cfg.Issuer,
		AccessTokenSecret: []byte(cfg.AccessSecret),
		BaseURL:           cfg.BaseURL,
	})
	if err != nil {
		return err
	}

	if cfg.DBURL != "" {
		pg, err := pgxpool.New(ctx, cfg.DBURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		if cfg.MigrateOnStart {
			if err := pgstore.Bootstrap(ctx, pg); err != nil {
				return err
			}
		}
		svc.WithPostgres(pg)
	}

	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opt)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		svc.WithRedis(rdb)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	mux.Handle("/", svc.APIHandler())

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}

func runMigrate(cfg *config) error {
	if cfg.DBURL == "" {
		return fmt.Errorf("DB_URL (or DATABASE_URL) is required for migrate")
	}
	ctx := context.Background()
	pg, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()
	return pgstore.Bootstrap(ctx, pg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	case "0", "f", "false", "n", "no", "off":
		return false
	}
	return fallback
}

func fatal(err error) {
	if err == nil {
		os.Exit(0)
	}
	if errors.Is(err, http.ErrServerClosed) {
		os.Exit(0)
	}
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
