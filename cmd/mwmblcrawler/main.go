// Command mwmblcrawler is the primary crawl worker: it requests a batch
// of URLs from the coordinator, crawls them concurrently, submits the
// results once, and repeats forever.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mwmbl/crawlworker/internal/batch"
	"github.com/mwmbl/crawlworker/internal/config"
	"github.com/mwmbl/crawlworker/internal/coordinator"
	"github.com/mwmbl/crawlworker/internal/crawl"
	"github.com/mwmbl/crawlworker/internal/fetcher"
	"github.com/mwmbl/crawlworker/internal/identity"
	"github.com/mwmbl/crawlworker/internal/robots"
)

var (
	numThreads int
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "mwmblcrawler",
	Short: "Crawl batches of URLs handed out by the mwmbl coordinator",
	RunE:  run,
}

func init() {
	rootCmd.Flags().IntVarP(&numThreads, "num-threads", "j", config.DefaultNumThreads, "number of URLs to crawl concurrently per batch")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}
	log.Logger = logger

	settings, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	userID, err := identity.Load(settings.ConfigDir)
	if err != nil {
		return fmt.Errorf("loading worker identity: %w", err)
	}
	logger.Info().Str("user_id", userID).Int("num_threads", numThreads).Msg("starting crawl worker")

	fetch := fetcher.New(config.UserAgent, settings.FetchTimeout, settings.MaxFetchSize, settings.FetchChunkSize, logger)
	gate := robots.New(fetch, config.UserAgent)
	engine := &crawl.Engine{
		Robots:          gate,
		Fetch:           fetch,
		Now:             nowMillis,
		NumTitleChars:   settings.NumTitleChars,
		NumExtractChars: settings.NumExtractChars,
	}
	coord := coordinator.New(settings.CoordinatorURL, userID, http.DefaultClient, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down")
			return nil
		default:
		}

		if err := iterate(ctx, coord, engine, numThreads, logger); err != nil {
			logger.Error().Err(err).Msg("crawl iteration failed")
			select {
			case <-ctx.Done():
				return nil
			case <-timeAfter(settings.IterationBackoff):
			}
		}
	}
}

func iterate(ctx context.Context, coord *coordinator.Client, engine *crawl.Engine, concurrency int, logger zerolog.Logger) error {
	urls, err := coord.NewBatch(ctx)
	if err != nil {
		return fmt.Errorf("requesting batch: %w", err)
	}
	logger.Debug().Int("count", len(urls)).Msg("received batch")

	results := batch.Run(ctx, engine, urls, concurrency)

	if err := coord.Submit(ctx, results); err != nil {
		return fmt.Errorf("submitting results: %w", err)
	}
	logger.Debug().Int("count", len(results)).Msg("submitted results")
	return nil
}
