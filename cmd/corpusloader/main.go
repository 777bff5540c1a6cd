// Command corpusloader bulk-loads patent documents into PostgreSQL from a
// JSON Lines file, seeding the matching corpus.  Each line is one document:
//
//	{"owner": "...", "title": "...", "abstract": "...", "claims": "...", "description": "...", "domain": "...", "inventors": ["..."]}
//
// Every record is inserted as a fresh submission; re-running the loader on
// the same export duplicates its documents.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/turtacn/PatentSentinel/internal/config"
	"github.com/turtacn/PatentSentinel/internal/domain/document"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/database/postgres"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (env-only when empty)")
	input := flag.String("input", "", "JSON Lines file with patent documents (required)")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "corpusloader: -input is required")
		flag.Usage()
		os.Exit(2)
	}
	if err := run(*configPath, *input); err != nil {
		fmt.Fprintf(os.Stderr, "corpusloader: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, input string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	log, err := logging.NewLogger(logging.LogConfig{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	log = log.Named("corpusloader")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := postgres.NewConnection(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := pg.RunMigrations(); err != nil {
		return err
	}

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("cannot open input file: %w", err)
	}
	defer f.Close()

	repo := repositories.NewDocumentRepository(pg.Pool(), log)
	loaded, skipped, err := load(ctx, repo, f, log)
	if err != nil {
		return err
	}
	log.Info("corpus load complete", logging.Int("loaded", loaded), logging.Int("skipped", skipped))
	return nil
}

// load reads JSON Lines from r and inserts each record.  Malformed or invalid
// lines are skipped with a warning; storage errors abort the load.
func load(ctx context.Context, repo *repositories.DocumentRepository, f *os.File, log logging.Logger) (loaded, skipped int, err error) {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var fields document.Fields
		if err := json.Unmarshal([]byte(text), &fields); err != nil {
			log.Warn("skipping malformed record", logging.Int("line", line), logging.Err(err))
			skipped++
			continue
		}
		doc, err := document.New(fields)
		if err != nil {
			log.Warn("skipping invalid record", logging.Int("line", line), logging.Err(err))
			skipped++
			continue
		}

		if err := repo.Create(ctx, doc); err != nil {
			return loaded, skipped, err
		}
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return loaded, skipped, fmt.Errorf("reading input: %w", err)
	}
	return loaded, skipped, nil
}
