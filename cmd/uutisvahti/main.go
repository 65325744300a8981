package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"uutisvahti/aggregator/internal/config"
)

const usage = `Usage: uutisvahti [command] [options]
Commands: import, start, server, summarize, migrate

For command-specific options, use: uutisvahti [command] -h`

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// commonFlags registers the database and log level options every command shares.
func commonFlags(fs *flag.FlagSet, cfg *config.Config, logLevel *string) {
	fs.StringVar(&cfg.DBDriver, "driver", cfg.DBDriver,
		"Database driver: sqlite3 or postgres (env: UUTISVAHTI_DB_DRIVER)")
	fs.StringVar(&cfg.DBPath, "db", config.GetEnvString("UUTISVAHTI_DB_PATH", cfg.DBPath),
		"Path to the SQLite database file (env: UUTISVAHTI_DB_PATH)")
	fs.StringVar(&cfg.DBDSN, "dsn", cfg.DBDSN,
		"PostgreSQL connection string (env: UUTISVAHTI_DB_DSN)")
	fs.StringVar(logLevel, "log-level", config.GetEnvString("UUTISVAHTI_LOG_LEVEL", cfg.LogLevel.String()),
		"Log level: debug, info, warn, error (env: UUTISVAHTI_LOG_LEVEL)")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	var logLevelStr string

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	commonFlags(importCmd, cfg, &logLevelStr)
	importCmd.StringVar(&cfg.SourcesCSVPath, "csv", config.GetEnvString("UUTISVAHTI_CSV_PATH", cfg.SourcesCSVPath),
		"Path or http(s) URL of the sources CSV file (env: UUTISVAHTI_CSV_PATH)")
	fresh := importCmd.Bool("fresh", false, "Delete the SQLite database before importing")

	startCmd := flag.NewFlagSet("start", flag.ExitOnError)
	commonFlags(startCmd, cfg, &logLevelStr)
	var intervalMinutes int
	startCmd.IntVar(&intervalMinutes, "interval", config.GetEnvInt("UUTISVAHTI_INTERVAL", config.DefaultInterval),
		"Interval in minutes between ingestion runs, 0 for one-shot mode (env: UUTISVAHTI_INTERVAL)")
	startCmd.IntVar(&cfg.MaxEntries, "max-entries", cfg.MaxEntries,
		"Entries considered per source and run (env: UUTISVAHTI_MAX_ENTRIES)")
	startCmd.DurationVar(&cfg.RunTimeout, "timeout", cfg.RunTimeout,
		"Deadline for a single ingestion run (env: UUTISVAHTI_RUN_TIMEOUT)")

	serverCmd := flag.NewFlagSet("server", flag.ExitOnError)
	commonFlags(serverCmd, cfg, &logLevelStr)
	serverCmd.StringVar(&cfg.ServerHost, "host", config.GetEnvString("UUTISVAHTI_HOST", cfg.ServerHost),
		"Host to bind the server to (env: UUTISVAHTI_HOST)")
	serverCmd.IntVar(&cfg.ServerPort, "port", config.GetEnvInt("UUTISVAHTI_PORT", cfg.ServerPort),
		"Port to listen on (env: UUTISVAHTI_PORT)")

	summarizeCmd := flag.NewFlagSet("summarize", flag.ExitOnError)
	commonFlags(summarizeCmd, cfg, &logLevelStr)
	summarizeCmd.IntVar(&cfg.EnrichBatch, "batch", cfg.EnrichBatch,
		"Articles summarised per run (env: UUTISVAHTI_ENRICH_BATCH)")
	summarizeCmd.DurationVar(&cfg.EnrichDelay, "delay", cfg.EnrichDelay,
		"Pause between model calls (env: UUTISVAHTI_ENRICH_DELAY)")
	var summarizeEvery int
	summarizeCmd.IntVar(&summarizeEvery, "interval", 0,
		"Interval in minutes between batches, 0 for a single batch")

	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	commonFlags(migrateCmd, cfg, &logLevelStr)
	down := migrateCmd.Int("down", 0, "Roll back this many migrations instead of applying pending ones")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	// parse applies a subcommand's flags and the resulting log level.
	parse := func(fs *flag.FlagSet) {
		fs.Parse(os.Args[2:])
		if level, err := zerolog.ParseLevel(logLevelStr); err == nil {
			cfg.LogLevel = level
		}
		zerolog.SetGlobalLevel(cfg.LogLevel)
	}

	switch os.Args[1] {
	case "import":
		parse(importCmd)
		err = runImport(cfg, *fresh)

	case "start":
		parse(startCmd)
		cfg.Interval = time.Duration(intervalMinutes) * time.Minute
		err = runStart(cfg)

	case "server":
		parse(serverCmd)
		err = runServer(cfg)

	case "summarize":
		parse(summarizeCmd)
		err = runSummarize(cfg, time.Duration(summarizeEvery)*time.Minute)

	case "migrate":
		parse(migrateCmd)
		err = runMigrate(cfg, *down)

	case "-h", "--help", "help":
		fmt.Println(usage)
		os.Exit(0)

	default:
		log.Error().Str("command", os.Args[1]).Msg("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}

	if err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("Command failed")
		os.Exit(1)
	}
}
