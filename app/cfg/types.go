package cfg

import "time"

type Cfg struct {
	// Topic configuration
	TopicsDir string
	TopicIDs  []string

	// Pipeline configuration
	Mode              string
	Engage            bool
	MaxRepliesPerPass int
	CooldownMin       time.Duration
	CooldownMax       time.Duration
	SweepDelay        time.Duration
	TimeLimit         time.Duration

	// Content source configuration
	ListingBaseURL  string
	Subreddit       string
	Listing         string
	FetchLimit      int
	SubmissionID    string
	RequestsPerMin  int
	FetchTimeout    time.Duration
	ArticleMaxBytes int64

	// Persistence
	LedgerPath string
	ArchiveDir string
	DBPath     string

	// Platform credentials
	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string
	RedditAPIURL       string
	RedditAuthURL      string

	// Providers
	RelevanceURL string
	ResponderURL string
	ProviderKey  string

	// Status API
	Port         string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

func (c *Cfg) IsPolling() bool {
	return c.Mode == ModePoll
}
