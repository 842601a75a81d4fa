// Command mwmblboard runs the board-item adapter: it walks a public
// discussion-board API backwards from its current high-water mark,
// turns fresh items into CrawlResults, and submits them through the
// same coordinator ingest endpoint the primary crawl worker uses.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mwmbl/crawlworker/internal/boardadapter"
	"github.com/mwmbl/crawlworker/internal/config"
	"github.com/mwmbl/crawlworker/internal/coordinator"
	"github.com/mwmbl/crawlworker/internal/fetcher"
	"github.com/mwmbl/crawlworker/internal/identity"
	"github.com/mwmbl/crawlworker/internal/seenids"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "mwmblboard",
	Short: "Crawl fresh board items and submit them to the mwmbl coordinator",
	RunE:  run,
}

func init() {
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

	settings, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	userID, err := identity.Load(settings.ConfigDir)
	if err != nil {
		return fmt.Errorf("loading worker identity: %w", err)
	}
	logger.Info().Str("user_id", userID).Msg("starting board adapter")

	seen, err := seenids.Open(settings.SeenIDsPath)
	if err != nil {
		return fmt.Errorf("opening seen-ids store: %w", err)
	}
	defer seen.Close()

	fetch := fetcher.New(config.UserAgent, settings.FetchTimeout, settings.MaxFetchSize, settings.FetchChunkSize, logger)
	coord := coordinator.New(settings.CoordinatorURL, userID, http.DefaultClient, logger)

	adapter := &boardadapter.Adapter{
		BaseURL:         settings.BoardAPIURL,
		Fetch:           fetch,
		Seen:            seen,
		NumTitleChars:   settings.NumTitleChars,
		NumExtractChars: settings.NumExtractChars,
		Concurrency:     settings.BoardConcurrency,
		Now:             func() int64 { return time.Now().UnixMilli() },
		Logger:          logger,
	}
	loop := &boardadapter.Loop{
		Adapter:     adapter,
		Submit:      coord,
		NumItems:    settings.NumItemsToFetch,
		SubmitWait:  settings.SubmitRetryWait,
		SubmitTries: settings.SubmitRetries,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	loop.Run(ctx, settings.IterationBackoff, func(err error) {
		logger.Error().Err(err).Msg("board adapter iteration failed")
	})
	logger.Info().Msg("shutting down")
	return nil
}
