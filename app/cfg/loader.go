package cfg

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

const (
	ModeBatch = "batch"
	ModePoll  = "poll"
)

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Topic configuration
	TopicsDir string `long:"topics-dir" env:"TOPICS_DIR" default:"./topics" description:"Directory containing topic configuration files"`
	Topics    string `long:"topics" env:"TOPICS" description:"Comma-separated topic IDs to run (required)" required:"true"`

	// Pipeline configuration
	Mode              string `long:"mode" env:"MODE" default:"batch" choice:"batch" choice:"poll" description:"Pipeline mode: one batch pass or a timed polling loop"`
	Engage            bool   `long:"engage" env:"ENGAGE" description:"Submit replies to the platform (otherwise dry run)"`
	MaxRepliesPerPass int    `long:"max-replies" env:"MAX_REPLIES_PER_PASS" default:"1" description:"Maximum replies submitted per batch pass"`
	CooldownMin       int    `long:"cooldown-min" env:"COOLDOWN_MIN" default:"300" description:"Minimum cool-down after each reply attempt in seconds"`
	CooldownMax       int    `long:"cooldown-max" env:"COOLDOWN_MAX" default:"600" description:"Maximum cool-down after each reply attempt in seconds"`
	SweepDelay        int    `long:"sweep-delay" env:"SWEEP_DELAY" default:"600" description:"Delay between polling sweeps in seconds"`
	TimeLimit         int    `long:"time-limit" env:"TIME_LIMIT" default:"3600" description:"Polling mode time limit in seconds"`

	// Content source configuration
	ListingBaseURL  string `long:"listing-base-url" env:"LISTING_BASE_URL" default:"https://www.reddit.com" description:"Base URL of the content listing feeds"`
	Subreddit       string `long:"subreddit" env:"SUBREDDIT" default:"news" description:"Community to fetch submissions from"`
	Listing         string `long:"listing" env:"LISTING" default:"hot" choice:"hot" choice:"new" choice:"top" choice:"rising" description:"Listing strategy"`
	FetchLimit      int    `long:"fetch-limit" env:"FETCH_LIMIT" default:"25" description:"Number of items to fetch per sweep"`
	SubmissionID    string `long:"submission" env:"SUBMISSION_ID" description:"Submission whose comments are polled in poll mode"`
	RequestsPerMin  int    `long:"requests-per-minute" env:"REQUESTS_PER_MINUTE" default:"30" description:"Outbound fetch request budget"`
	FetchTimeout    int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Fetch timeout in seconds"`
	ArticleMaxBytes int64  `long:"article-max-bytes" env:"ARTICLE_MAX_BYTES" default:"2097152" description:"Largest linked article accepted for keyword extraction"`

	// Persistence
	LedgerPath string `long:"ledger" env:"LEDGER_PATH" default:"./data/engaged_ids.txt" description:"Engagement ledger file"`
	ArchiveDir string `long:"archive-dir" env:"ARCHIVE_DIR" default:"./data/runs" description:"Directory for archived run records"`
	DBPath     string `long:"db" env:"DB_PATH" default:"./data/history.db" description:"SQLite run history database (empty disables)"`

	// Platform credentials
	RedditClientID     string `long:"reddit-client-id" env:"REDDIT_CLIENT_ID" description:"OAuth client id"`
	RedditClientSecret string `long:"reddit-client-secret" env:"REDDIT_CLIENT_SECRET" description:"OAuth client secret"`
	RedditUsername     string `long:"reddit-username" env:"REDDIT_USERNAME" description:"Account username"`
	RedditPassword     string `long:"reddit-password" env:"REDDIT_PASSWORD" description:"Account password"`
	RedditAPIURL       string `long:"reddit-api-url" env:"REDDIT_API_URL" default:"https://oauth.reddit.com" description:"Authenticated API base URL"`
	RedditAuthURL      string `long:"reddit-auth-url" env:"REDDIT_AUTH_URL" default:"https://www.reddit.com/api/v1/access_token" description:"OAuth token endpoint"`

	// Providers
	RelevanceURL string `long:"relevance-url" env:"RELEVANCE_URL" description:"Relevance scoring endpoint (empty uses local keyword overlap)"`
	ResponderURL string `long:"responder-url" env:"RESPONDER_URL" description:"Conversational response endpoint (empty uses the utterance corpus)"`
	ProviderKey  string `long:"provider-key" env:"PROVIDER_KEY" description:"API key sent to scoring and response providers"`

	// Status API
	Port         string `long:"port" env:"PORT" description:"Status API port (empty disables)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for run history endpoints (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"topic-agent/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses the given arguments instead of os.Args when args is non-nil.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		TopicsDir:          raw.TopicsDir,
		TopicIDs:           splitList(raw.Topics),
		Mode:               raw.Mode,
		Engage:             raw.Engage,
		MaxRepliesPerPass:  raw.MaxRepliesPerPass,
		CooldownMin:        seconds(raw.CooldownMin),
		CooldownMax:        seconds(raw.CooldownMax),
		SweepDelay:         seconds(raw.SweepDelay),
		TimeLimit:          seconds(raw.TimeLimit),
		ListingBaseURL:     strings.TrimRight(raw.ListingBaseURL, "/"),
		Subreddit:          raw.Subreddit,
		Listing:            raw.Listing,
		FetchLimit:         raw.FetchLimit,
		SubmissionID:       raw.SubmissionID,
		RequestsPerMin:     raw.RequestsPerMin,
		FetchTimeout:       seconds(raw.FetchTimeout),
		ArticleMaxBytes:    raw.ArticleMaxBytes,
		LedgerPath:         raw.LedgerPath,
		ArchiveDir:         raw.ArchiveDir,
		DBPath:             raw.DBPath,
		RedditClientID:     raw.RedditClientID,
		RedditClientSecret: raw.RedditClientSecret,
		RedditUsername:     raw.RedditUsername,
		RedditPassword:     raw.RedditPassword,
		RedditAPIURL:       strings.TrimRight(raw.RedditAPIURL, "/"),
		RedditAuthURL:      raw.RedditAuthURL,
		RelevanceURL:       raw.RelevanceURL,
		ResponderURL:       raw.ResponderURL,
		ProviderKey:        raw.ProviderKey,
		Port:               raw.Port,
		APIAccessKey:       raw.APIAccessKey,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func validate(cfg *Cfg) error {
	if len(cfg.TopicIDs) == 0 {
		return fmt.Errorf("at least one topic is required")
	}
	if cfg.MaxRepliesPerPass < 1 {
		return fmt.Errorf("max replies per pass must be at least 1")
	}
	if cfg.CooldownMin < 0 || cfg.CooldownMax < cfg.CooldownMin {
		return fmt.Errorf("cool-down range is invalid: %s..%s", cfg.CooldownMin, cfg.CooldownMax)
	}
	if cfg.FetchLimit <= 0 {
		return fmt.Errorf("fetch limit must be positive")
	}
	if cfg.Mode == ModePoll && cfg.SubmissionID == "" {
		return fmt.Errorf("poll mode requires a submission id")
	}
	if cfg.Mode == ModePoll && cfg.SweepDelay < time.Second {
		return fmt.Errorf("sweep delay must be at least 1 second in poll mode")
	}
	if cfg.Engage {
		required := map[string]string{
			"reddit client id":     cfg.RedditClientID,
			"reddit client secret": cfg.RedditClientSecret,
			"reddit username":      cfg.RedditUsername,
			"reddit password":      cfg.RedditPassword,
		}
		for name, value := range required {
			if value == "" {
				return fmt.Errorf("%s is required when engaging", name)
			}
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
