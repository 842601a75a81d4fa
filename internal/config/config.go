// Package config builds the process-wide, immutable settings value the
// rest of the crawl worker is constructed from: a struct populated once
// at startup from the process environment via github.com/caarlos0/env
// struct tags, then threaded down through every component rather than
// read from mutable globals.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// UserAgent is the fixed identity robots.txt is evaluated under. It is
// not configurable: the coordinator protocol and the robots contract are
// both pinned to it.
const UserAgent = "Mwmbl"

// Default tunables for fetch, extract, link, and board-adapter behavior.
// These live as defaults on Settings rather than bare consts so callers
// can override them per-process through the environment, while still
// resolving to these exact numbers unless overridden.
const (
	DefaultFetchTimeout     = 3 * time.Second
	DefaultMaxFetchSize     = 1 << 20 // 1 MiB
	DefaultFetchChunkSize   = 1 << 10 // ~1 KiB
	DefaultNumTitleChars    = 65
	DefaultNumExtractChars  = 155
	DefaultMaxURLLength     = 150
	DefaultMaxNewLinks      = 50
	DefaultMaxExtraLinks    = 50
	DefaultNumThreads       = 1
	DefaultNumItemsToFetch  = 100
	DefaultBoardConcurrency = 50
	DefaultSubmitRetries    = 10
	DefaultSubmitRetryWait  = 5 * time.Second
	DefaultIterationBackoff = 10 * time.Second
)

// Settings is the immutable, fully-resolved configuration for a worker
// process. It is built once at startup by Load and a *Settings is then
// threaded down through every component; nothing mutates it afterwards.
type Settings struct {
	// CoordinatorURL is the base URL of the handout/ingest HTTP service.
	CoordinatorURL string `env:"MWMBL_COORDINATOR_URL" envDefault:"https://api.mwmbl.org"`
	// BoardAPIURL is the base URL of the public board-item JSON API.
	BoardAPIURL string `env:"MWMBL_BOARD_API_URL" envDefault:"https://hacker-news.firebaseio.com/v0"`
	// ConfigDir overrides the platform user-config directory; empty means
	// use os.UserConfigDir().
	ConfigDir string `env:"MWMBL_CONFIG_DIR"`

	FetchTimeout   time.Duration `env:"MWMBL_FETCH_TIMEOUT" envDefault:"3s"`
	MaxFetchSize   int64         `env:"MWMBL_MAX_FETCH_SIZE" envDefault:"1048576"`
	FetchChunkSize int           `env:"MWMBL_FETCH_CHUNK_SIZE" envDefault:"1024"`

	// MaxURLLength, MaxNewLinks and MaxExtraLinks are parsed but not read
	// anywhere: the link classifier applies its own fixed limits of 150,
	// 50 and 50, so overriding them through the environment has no effect.
	NumTitleChars   int `env:"MWMBL_NUM_TITLE_CHARS" envDefault:"65"`
	NumExtractChars int `env:"MWMBL_NUM_EXTRACT_CHARS" envDefault:"155"`
	MaxURLLength    int `env:"MWMBL_MAX_URL_LENGTH" envDefault:"150"`
	MaxNewLinks     int `env:"MWMBL_MAX_NEW_LINKS" envDefault:"50"`
	MaxExtraLinks   int `env:"MWMBL_MAX_EXTRA_LINKS" envDefault:"50"`

	// NumThreads and Debug are parsed but not read by either command; the
	// commands take these from their --num-threads and --debug flags.
	NumThreads int `env:"MWMBL_NUM_THREADS" envDefault:"1"`
	Debug      bool `env:"MWMBL_DEBUG" envDefault:"false"`

	NumItemsToFetch  int           `env:"MWMBL_NUM_ITEMS_TO_FETCH" envDefault:"100"`
	BoardConcurrency int           `env:"MWMBL_BOARD_CONCURRENCY" envDefault:"50"`
	SubmitRetries    int           `env:"MWMBL_SUBMIT_RETRIES" envDefault:"10"`
	SubmitRetryWait  time.Duration `env:"MWMBL_SUBMIT_RETRY_WAIT" envDefault:"5s"`
	IterationBackoff time.Duration `env:"MWMBL_ITERATION_BACKOFF" envDefault:"10s"`

	SeenIDsPath string `env:"MWMBL_SEEN_IDS_PATH" envDefault:"hn.db"`
}

// Load resolves Settings from the process environment, applying the
// envDefault tags for anything unset.
func Load() (*Settings, error) {
	settings := &Settings{}
	if err := env.Parse(settings); err != nil {
		return nil, err
	}
	return settings, nil
}
