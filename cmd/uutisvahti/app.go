package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"uutisvahti/aggregator/internal/archive"
	"uutisvahti/aggregator/internal/cache"
	"uutisvahti/aggregator/internal/config"
	"uutisvahti/aggregator/internal/database"
	"uutisvahti/aggregator/internal/dedup"
	"uutisvahti/aggregator/internal/enrich"
	"uutisvahti/aggregator/internal/feed"
	"uutisvahti/aggregator/internal/importsources"
	"uutisvahti/aggregator/internal/ingest"
	"uutisvahti/aggregator/internal/publisher"
	"uutisvahti/aggregator/internal/scoring"
	"uutisvahti/aggregator/internal/server"
	"uutisvahti/aggregator/internal/server/storage"
)

func openDB(cfg *config.Config, skipMigrations bool) (*database.DB, error) {
	dbCfg := database.NewConfig(cfg.DBDriver, cfg.DataSource())
	dbCfg.SkipMigrations = skipMigrations

	db, err := database.NewDB(dbCfg)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to initialize database")
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-shutdown:
			log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(shutdown)
	}()

	return ctx, cancel
}

// runImport loads sources from a CSV file or URL. With fresh set an existing
// SQLite database is deleted first, after confirmation.
func runImport(cfg *config.Config, fresh bool) error {
	if fresh && cfg.DBDriver == database.DriverSQLite {
		if _, err := os.Stat(cfg.DBPath); err == nil {
			fmt.Printf("Database %s already exists. All data will be lost.\n", cfg.DBPath)
			fmt.Print("Delete and recreate? (y/N): ")

			var answer string
			fmt.Scanln(&answer)

			if strings.ToLower(answer) != "y" {
				log.Info().Msg("Operation canceled by user")
				return fmt.Errorf("operation canceled by user")
			}

			if err := database.DeleteDB(cfg.DBPath); err != nil {
				log.Error().Err(err).Str("path", cfg.DBPath).Msg("Failed to delete existing database")
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			log.Info().Str("path", cfg.DBPath).Msg("Deleted existing database")

			if err := clearSeenCache(context.Background(), cfg); err != nil {
				return err
			}
		}
	}

	db, err := openDB(cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	report, err := importsources.NewImporter(db).ImportFile(ctx, cfg.SourcesCSVPath)
	if err != nil {
		return err
	}
	for _, rowErr := range report.Errors {
		log.Warn().Msg(rowErr)
	}
	return nil
}

// clearSeenCache forgets every remembered URL so that articles removed from
// storage are ingested again. It does nothing without a Redis URL.
func clearSeenCache(ctx context.Context, cfg *config.Config) error {
	if cfg.RedisURL == "" {
		return nil
	}

	seen, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.SeenTTL)
	if err != nil {
		return err
	}
	defer seen.Close()

	if err := seen.Clear(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to clear seen-URL cache")
		return fmt.Errorf("failed to clear seen-URL cache: %w", err)
	}
	log.Info().Msg("Cleared seen-URL cache")
	return nil
}

// newIngestService wires the ingestion pipeline. The returned cleanup
// releases the optional cache and broker connections.
func newIngestService(ctx context.Context, cfg *config.Config, db *database.DB) (*ingest.Service, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn().Err(err).Msg("Failed to close connection")
			}
		}
	}

	filter := dedup.NewFilter(db, nil)
	if cfg.RedisURL != "" {
		seen, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.SeenTTL)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, seen.Close)
		filter = dedup.NewFilter(db, seen)
		log.Info().Dur("ttl", cfg.SeenTTL).Msg("Seen-URL cache enabled")
	}

	opts := []ingest.Option{ingest.WithMaxEntries(cfg.MaxEntries)}

	if cfg.AMQPURL != "" {
		pub, err := publisher.NewRabbitMQ(publisher.Config{URL: cfg.AMQPURL, Exchange: cfg.AMQPExchange})
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, pub.Close)
		opts = append(opts, ingest.WithPublisher(pub))
	}

	if cfg.ArchiveBucket != "" {
		arch, err := archive.New(ctx, archive.Config{
			Bucket:    cfg.ArchiveBucket,
			Endpoint:  cfg.ArchiveEndpoint,
			Region:    cfg.ArchiveRegion,
			AccessKey: cfg.ArchiveAccessKey,
			SecretKey: cfg.ArchiveSecretKey,
		})
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		opts = append(opts, ingest.WithArchiver(arch))
		log.Info().Str("bucket", cfg.ArchiveBucket).Msg("Feed archive enabled")
	}

	svc := ingest.NewService(
		db,
		db,
		feed.NewFetcher(cfg.FetchTimeout, cfg.UserAgent),
		filter,
		scoring.NewScorer(cfg.Keywords),
		opts...,
	)
	return svc, cleanup, nil
}

// newEnrichJob returns nil when no model API key is configured.
func newEnrichJob(cfg *config.Config, db *database.DB) *enrich.Job {
	if cfg.LLMAPIKey == "" {
		return nil
	}
	client := enrich.NewClient(cfg.LLMEndpoint, cfg.LLMModel, cfg.LLMAPIKey, 60*time.Second)
	return enrich.NewJob(db, client, enrich.WithBatch(cfg.EnrichBatch), enrich.WithDelay(cfg.EnrichDelay))
}

// runPeriodically calls fn once and then every interval until ctx ends.
// A zero interval means a single call.
func runPeriodically(ctx context.Context, interval time.Duration, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if interval == 0 {
			return err
		}
		log.Error().Err(err).Msg("Cycle failed")
	}

	if interval == 0 {
		log.Info().Msg("One-shot run completed, exiting")
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().
		Dur("interval", interval).
		Time("next_run", time.Now().Add(interval)).
		Msg("Waiting for next cycle")

	for {
		select {
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				// Continue to the next cycle rather than exiting
				log.Error().Err(err).Msg("Cycle failed")
			}

			log.Info().
				Time("next_run", time.Now().Add(interval)).
				Msg("Waiting for next cycle")

		case <-ctx.Done():
			log.Info().Msg("Shutting down periodic processing")
			return nil
		}
	}
}

// runStart runs ingestion once or every cfg.Interval. Each run gets
// cfg.RunTimeout as its deadline.
func runStart(cfg *config.Config) error {
	db, err := openDB(cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	svc, cleanup, err := newIngestService(ctx, cfg, db)
	defer cleanup()
	if err != nil {
		return err
	}

	if cfg.Interval <= 0 {
		log.Info().Msg("Running in one-shot mode")
		cfg.Interval = 0
	} else {
		log.Info().Int64("interval_minutes", int64(cfg.Interval.Minutes())).Msg("Running in periodic mode")
	}

	return runPeriodically(ctx, cfg.Interval, func(ctx context.Context) error {
		runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()

		res, err := svc.Run(runCtx)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Info().
			Str("run_id", res.RunID).
			Int("inserted", res.Inserted).
			Int("skipped", res.Skipped).
			Int("failed_sources", res.FailedSources).
			Msg("Ingestion cycle finished")
		return nil
	})
}

// runSummarize enriches pending articles once or every interval.
func runSummarize(cfg *config.Config, interval time.Duration) error {
	if cfg.LLMAPIKey == "" {
		return errors.New("UUTISVAHTI_LLM_API_KEY is not configured")
	}

	db, err := openDB(cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	job := newEnrichJob(cfg, db)
	return runPeriodically(ctx, interval, func(ctx context.Context) error {
		_, err := job.Run(ctx)
		return err
	})
}

// runServer serves the read and admin API. Admin jobs share the ingestion wiring.
func runServer(cfg *config.Config) error {
	db, err := openDB(cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, cleanup, err := newIngestService(ctx, cfg, db)
	defer cleanup()
	if err != nil {
		return err
	}

	deps := server.Deps{
		Store:      db,
		Articles:   storage.NewRepository(db),
		Ingester:   svc,
		JobTimeout: cfg.RunTimeout,
	}
	if job := newEnrichJob(cfg, db); job != nil {
		deps.Enricher = job
	}

	return server.RunServer(deps, cfg.ListenAddr(), log.Logger, cfg.APIKey)
}

// runMigrate applies pending migrations, or rolls back the last down of them.
func runMigrate(cfg *config.Config, down int) error {
	db, err := openDB(cfg, down > 0)
	if err != nil {
		return err
	}
	defer db.Close()

	if down > 0 {
		if err := db.RollbackMigrations(down); err != nil {
			return err
		}
		log.Info().Int("count", down).Msg("Rolled back migrations")
		return clearSeenCache(context.Background(), cfg)
	}

	log.Info().Msg("Database schema is up to date")
	return nil
}
