package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"banketl/internal/config"
	"banketl/internal/etl"
	"banketl/internal/logging"
	"banketl/internal/service"
	"banketl/internal/storage"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("banketl", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "path to YAML config file (defaults apply when empty)")
	query := flags.String("query", "", "read query to run after loading (default: whole table)")
	listSources := flags.Bool("sources", false, "list available source types and exit")
	showHistory := flags.Int("history", 0, "print the last N recorded runs and exit")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	// .env is optional; variables feed ${VAR} expansion in the config file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "load .env: %v\n", err)
		return 1
	}

	if *listSources {
		for _, spec := range etl.ListSources() {
			fmt.Fprintf(stdout, "%-12s %s\n", spec.Type, spec.Label)
			for _, f := range spec.ConfigFields {
				fmt.Fprintf(stdout, "  %-10s %s\n", f.Key, f.Help)
			}
		}
		return 0
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if *query != "" {
		cfg.Store.Query = *query
	}

	logger := logging.Setup(stderr, cfg.Logging.Level, cfg.Logging.Format)

	var history *storage.RunLogStore
	if cfg.History.Path != "" {
		db, err := storage.New(cfg.History.Path)
		if err != nil {
			logger.Error("open run history", "path", cfg.History.Path, "error", err)
			return 1
		}
		defer db.Close()
		history = storage.NewRunLogStore(db)
	}

	svc := service.NewETLService(cfg, history, service.NewFileEmitter(cfg.Logging.ProgressFile), logger)

	if *showHistory > 0 {
		logs, err := svc.History(*showHistory)
		if err != nil {
			logger.Error("read run history", "error", err)
			return 1
		}
		if err := service.PrintHistory(stdout, logs); err != nil {
			logger.Error("print run history", "error", err)
			return 1
		}
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := svc.RunJob(ctx)
	if err != nil {
		logger.Error("run failed", "error", err)
		return 1
	}

	if err := service.PrintQueryResult(stdout, cfg.Query(), result.Query); err != nil {
		logger.Error("print query result", "error", err)
		return 1
	}
	return 0
}
