package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/topic-agent/app/api"
	"github.com/lysyi3m/topic-agent/app/cfg"
	"github.com/lysyi3m/topic-agent/app/database"
	"github.com/lysyi3m/topic-agent/app/engage"
	"github.com/lysyi3m/topic-agent/app/feed"
	"github.com/lysyi3m/topic-agent/app/ledger"
	"github.com/lysyi3m/topic-agent/app/provider"
	"github.com/lysyi3m/topic-agent/app/record"
	"github.com/lysyi3m/topic-agent/app/reddit"
	"github.com/lysyi3m/topic-agent/app/scoring"
	"github.com/lysyi3m/topic-agent/app/topic"
	"github.com/lysyi3m/topic-agent/app/utterance"
)

const (
	fetchRetries    = 3
	providerRetries = 2
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting topic-agent", "version", appCfg.Version, "mode", appCfg.Mode, "engage", appCfg.Engage)

	if err := run(appCfg); err != nil {
		slog.Error("Engagement failed", "error", err)
		os.Exit(1)
	}

	slog.Info("topic-agent shutdown complete")
}

func run(appCfg *cfg.Cfg) error {
	loader := topic.NewLoader(appCfg.TopicsDir)
	profiles, err := loader.LoadAll(appCfg.TopicIDs)
	if err != nil {
		return fmt.Errorf("failed to load topics: %w", err)
	}
	slog.Info("Loaded topic configurations", "count", len(profiles), "dir", appCfg.TopicsDir)

	engagementLedger, err := ledger.Open(appCfg.LedgerPath)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer engagementLedger.Close()
	slog.Info("Engagement ledger loaded", "path", appCfg.LedgerPath, "entries", engagementLedger.Len())

	var history database.RunHistory
	var recordHistory record.History
	if appCfg.DBPath != "" {
		db, err := database.Open(appCfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open run history: %w", err)
		}
		defer db.Close()

		repo := database.NewRunRepository(db)
		history, recordHistory = repo, repo
		slog.Info("Run history enabled", "path", appCfg.DBPath)
	}

	fetcher := feed.NewFetcher(
		provider.NewHTTPClient(appCfg.FetchTimeout, fetchRetries),
		feed.NewParser(),
		appCfg.ListingBaseURL,
		appCfg.UserAgent,
		appCfg.RequestsPerMin,
		appCfg.ArticleMaxBytes,
	)
	keywords := feed.NewKeywordExtractor(fetcher, feed.NewContentExtractor(), 0)

	providerHTTP := provider.NewHTTPClient(appCfg.FetchTimeout, providerRetries)

	var relevance provider.RelevanceScorer = scoring.NewLocalRelevance(keywords, profiles...)
	if appCfg.RelevanceURL != "" {
		relevance = provider.NewRelevanceClient(
			provider.NewClient(providerHTTP, appCfg.RelevanceURL, appCfg.ProviderKey, appCfg.UserAgent))
	}

	var responder provider.Responder
	if appCfg.ResponderURL != "" {
		responder = provider.NewResponderClient(
			provider.NewClient(providerHTTP, appCfg.ResponderURL, appCfg.ProviderKey, appCfg.UserAgent))
	}

	var poster reddit.Poster = reddit.DryRunPoster{}
	if appCfg.Engage {
		// replies are not idempotent, never retry them
		poster = reddit.NewClient(
			provider.NewHTTPClient(appCfg.FetchTimeout, 0),
			appCfg.RedditAPIURL,
			appCfg.RedditAuthURL,
			appCfg.UserAgent,
			reddit.Credentials{
				ClientID:     appCfg.RedditClientID,
				ClientSecret: appCfg.RedditClientSecret,
				Username:     appCfg.RedditUsername,
				Password:     appCfg.RedditPassword,
			},
		)
	} else {
		slog.Warn("Engagement disabled, replies will only be logged")
	}

	recorder := record.NewRecorder(appCfg.ArchiveDir, recordHistory)

	source := feed.Source{Community: appCfg.Subreddit, Listing: appCfg.Listing}
	if appCfg.IsPolling() {
		source = feed.Source{Submission: appCfg.SubmissionID}
	}

	runners := make([]engage.Runner, 0, len(profiles))
	for _, profile := range profiles {
		generator := newGenerator(profile, responder, appCfg.IsPolling())

		runners = append(runners, engage.NewExecutor(profile,
			engage.Options{
				Mode:              appCfg.Mode,
				Live:              appCfg.Engage,
				Source:            source,
				FetchLimit:        appCfg.FetchLimit,
				MaxRepliesPerPass: appCfg.MaxRepliesPerPass,
				SweepDelay:        appCfg.SweepDelay,
				TimeLimit:         appCfg.TimeLimit,
			},
			engage.Dependencies{
				Source:    fetcher,
				Scorer:    scoring.NewScorer(profile, keywords, relevance, fetcher),
				Generator: generator,
				Poster:    poster,
				Ledger:    engagementLedger,
				Archiver:  recorder,
				Cooldown:  engage.NewCooldown(appCfg.CooldownMin, appCfg.CooldownMax, nil),
			},
		))
	}

	scheduler := engage.NewScheduler(runners...)
	scheduler.Start()

	var httpServer *http.Server
	serverErrChan := make(chan error, 1)
	if appCfg.Port != "" {
		handler := api.NewHandler(history, profiles, "", appCfg.Version)
		httpServer = &http.Server{
			Addr:         ":" + appCfg.Port,
			Handler:      api.NewServer(handler, appCfg.APIAccessKey),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		go func() {
			slog.Info("Starting HTTP server", "port", appCfg.Port)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, draining", "signal", sig.String())
	case <-scheduler.Done():
		slog.Info("All topics finished")
		if httpServer != nil && scheduler.Err() == nil {
			// keep serving history until told to stop
			select {
			case sig := <-sigChan:
				slog.Info("Received signal", "signal", sig.String())
			case err := <-serverErrChan:
				slog.Error("Server error", "error", err)
			}
		}
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	// cancels the run in progress and waits for its record to be archived
	scheduler.Stop()

	for _, summary := range scheduler.Summaries() {
		slog.Info("Topic summary",
			"topic", summary.TopicID,
			"passes", summary.Passes,
			"replies", summary.Replies,
			"archives", len(summary.Archives),
			"interrupted", summary.Interrupted)
	}

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		} else {
			slog.Info("HTTP server stopped")
		}
	}

	return scheduler.Err()
}

// newGenerator picks a topic's reply source. Poll mode replies within one thread,
// so corpus draws never repeat there.
func newGenerator(profile *topic.Profile, responder provider.Responder, polling bool) utterance.Generator {
	if responder != nil {
		return utterance.NewResponderGenerator(responder, profile.ID())
	}
	noRepeat := profile.Settings().NoRepeatUtterances || polling
	return utterance.NewRandomGenerator(profile.Utterances(), noRepeat, nil)
}
