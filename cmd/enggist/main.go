package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/enggist/pkg/config"
	"github.com/umputun/enggist/pkg/content"
	"github.com/umputun/enggist/pkg/feed"
	"github.com/umputun/enggist/pkg/ingest"
	"github.com/umputun/enggist/pkg/llm"
	"github.com/umputun/enggist/pkg/repository"
	"github.com/umputun/enggist/pkg/scheduler"
	"github.com/umputun/enggist/pkg/summarize"
	"github.com/umputun/enggist/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"config.yml" description:"configuration file"`
	Listen string `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides config"`

	Run        string `long:"run" choice:"ingest" choice:"summarize" description:"run the job once in-process and exit"`
	Trigger    string `long:"trigger" choice:"ingest" choice:"summarize" description:"trigger the job on a running server and exit"`
	ImportOPML string `long:"import-opml" description:"import sources from OPML file and exit"`
	Lock       string `long:"lock" env:"LOCK" default:"/tmp/enggist.lock" description:"lock file guarding one-shot runs"`

	// common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug, opts.NoColor)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

// run loads configuration and executes the requested mode, server by default
func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	setupLog(opts.Debug, opts.NoColor, cfg.Secrets()...)

	if opts.Trigger != "" {
		return triggerJob(ctx, cfg, opts.Trigger, os.Stdout)
	}

	repos, err := repository.NewRepositories(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := repos.Close(); err != nil {
			log.Printf("[WARN] failed to close database: %v", err)
		}
	}()

	if opts.ImportOPML != "" {
		return importOPML(ctx, repos.Source, opts.ImportOPML, os.Stdout)
	}

	ingester, batcher := makeJobs(cfg, repos)

	if opts.Run != "" {
		return runOnce(ctx, opts.Run, opts.Lock, cfg.Summarize.Timeout, ingester, batcher, os.Stdout)
	}

	log.Printf("[INFO] starting enggist version %s", revision)

	if cfg.Schedule.Enabled {
		sched := scheduler.NewScheduler(scheduler.Params{
			Ingester:          ingester,
			Batcher:           batcher,
			IngestInterval:    cfg.Schedule.IngestInterval,
			SummarizeInterval: cfg.Schedule.SummarizeInterval,
			SummarizeTimeout:  cfg.Summarize.Timeout,
		})
		sched.Start(ctx)
		defer sched.Stop()
	}

	srv := server.New(server.Config{
		Listen:           cfg.Server.Listen,
		Timeout:          cfg.Server.Timeout,
		BaseURL:          cfg.Server.BaseURL,
		PageSize:         cfg.Server.PageSize,
		IngestSecret:     cfg.Server.IngestSecret,
		SummarizeTimeout: cfg.Summarize.Timeout,
		Version:          revision,
		Debug:            opts.Debug,
	}, server.NewRepositoryAdapter(repos), ingester, batcher)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	log.Print("[INFO] shutdown complete")
	return nil
}

// makeJobs wires ingestion and summarization pipelines
func makeJobs(cfg *config.Config, repos *repository.Repositories) (*ingest.Ingester, *summarize.Batcher) {
	fetcher := feed.NewFetcher(feed.FetcherConfig{
		Timeout:     cfg.Feed.Timeout,
		UserAgent:   cfg.Feed.UserAgent,
		MaxItems:    cfg.Feed.MaxItems,
		InsecureTLS: cfg.Feed.InsecureTLS != nil && *cfg.Feed.InsecureTLS,
	})
	ingester := ingest.NewIngester(repos.Source, repos.Post, fetcher, cfg.Feed.MaxWorkers)

	var extractor summarize.Extractor
	if cfg.Extraction.Enabled {
		extractor = content.NewHTTPExtractor(cfg.Extraction.Timeout, cfg.Extraction.UserAgent)
	}
	batcher := summarize.NewBatcher(repos.Post, repos.Summary, llm.NewSummarizer(cfg.LLM), extractor, summarize.Config{
		MaxPosts:         cfg.Summarize.MaxPosts,
		BatchSize:        cfg.Summarize.BatchSize,
		Disabled:         cfg.Summarize.Disabled,
		WarnThreshold:    cfg.Summarize.WarnThreshold,
		MinContentLength: cfg.Extraction.MinContentLength,
	})
	if !cfg.Summarize.Disabled && cfg.LLM.APIKey == "" {
		log.Printf("[WARN] llm.api_key is not set, summarization requests will fail")
	}
	return ingester, batcher
}

func setupLog(dbg, noColor bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(os.Stdout), lgr.Err(os.Stderr)}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}

