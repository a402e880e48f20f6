// Package app boots the proxy selection service: load configuration,
// ingest the proxy pool, optionally enrich it with GeoLite data, then
// serve selection over HTTP.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/fa993/rama/internal/app/server"
	"github.com/fa993/rama/internal/config"
	"github.com/fa993/rama/internal/database"
	"github.com/fa993/rama/internal/geolite"
	"github.com/fa993/rama/internal/ingest"
	"github.com/fa993/rama/internal/proxydb"
	"github.com/fa993/rama/internal/support"
)

func Run() error {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found. Falling back to system environment variables.")
	}

	log.SetLevel(log.DebugLevel)

	portFlag := flag.Int("port", 0, "Port for the API server (overrides settings)")
	flag.Parse()

	config.ReadSettings()
	cfg := config.GetConfig()

	port := cfg.Server.Port
	if *portFlag != 0 {
		port = *portFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proxies, err := loadPool(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info("Proxy pool loaded", "records", len(proxies))

	enrichPool(cfg, proxies)

	db, err := buildStore(ctx, cfg, proxies)
	if err != nil {
		return err
	}

	defer func() {
		if err := support.CloseRedisClient(); err != nil {
			log.Warn("error closing redis client", "error", err)
		}
	}()

	return server.New(db).OpenRoutes(ctx, port)
}

func loadPool(ctx context.Context, cfg config.Config) ([]proxydb.Proxy, error) {
	switch cfg.Pool.Source {
	case config.SourceCSV:
		reader, err := ingest.OpenRowReader(cfg.Pool.CSVPath)
		if err != nil {
			return nil, fmt.Errorf("opening proxy csv: %w", err)
		}
		defer reader.Close()
		return ingest.ReadAll(ctx, reader)

	case config.SourceRedis:
		client, err := support.GetRedisClient()
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return ingest.ReadAll(ctx, ingest.NewRedisReader(client, cfg.Pool.RedisKey))

	default:
		return nil, fmt.Errorf("unknown pool source %q", cfg.Pool.Source)
	}
}

func enrichPool(cfg config.Config, proxies []proxydb.Proxy) {
	if cfg.GeoLite.CountryDBPath == "" && cfg.GeoLite.ASNDBPath == "" {
		return
	}

	resolver, err := geolite.Open(cfg.GeoLite.CountryDBPath, cfg.GeoLite.ASNDBPath)
	if err != nil {
		log.Warn("GeoLite enrichment disabled", "error", err)
		return
	}
	defer resolver.Close()

	resolver.EnrichProxies(proxies)
}

func buildStore(ctx context.Context, cfg config.Config, proxies []proxydb.Proxy) (proxydb.Database, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory, "":
		db, err := proxydb.NewMemoryProxyDB(proxies)
		if err != nil {
			var insertErr *proxydb.InsertError
			if errors.As(err, &insertErr) {
				log.Error("proxy pool rejected", "records", len(insertErr.Proxies()))
			}
			return nil, fmt.Errorf("building proxy pool: %w", err)
		}
		return db, nil

	case config.BackendPostgres:
		gormDB, err := database.SetupDB()
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		store := database.NewGormProxyDB(gormDB)
		if err := store.Seed(ctx, proxies); err != nil {
			return nil, fmt.Errorf("seeding proxy pool: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
