// Package engage gates scored items and runs the fetch, score, reply and record cycle.
package engage

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

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
	ModeBatch = "batch"
	ModePoll  = "poll"
)

type State string

const (
	StateIdle      State = "IDLE"
	StateFetching  State = "FETCHING"
	StateScoring   State = "SCORING"
	StateGating    State = "GATING"
	StateReplying  State = "REPLYING"
	StateRecording State = "RECORDING"
	StateDone      State = "DONE"
)

type ItemSource interface {
	FetchItems(ctx context.Context, source feed.Source, limit int) ([]feed.Item, error)
}

// ItemScorer returns the item's record even when scoring fails; the executor
// substitutes a fresh one if it gets nil.
type ItemScorer interface {
	Score(ctx context.Context, item feed.Item) (*scoring.AnalysisRecord, error)
}

type Archiver interface {
	Archive(ctx context.Context, run *record.Run, topicID string, runAt time.Time) (string, error)
}

// WritableLedger is a ledger the executor records live replies in.
type WritableLedger interface {
	ledger.Ledger
	Add(itemID string) error
}

type Options struct {
	Mode              string
	Live              bool // false: replies go to a dry-run poster and the ledger is left alone
	Source            feed.Source
	FetchLimit        int
	MaxRepliesPerPass int
	SweepDelay        time.Duration
	TimeLimit         time.Duration
}

type Dependencies struct {
	Source    ItemSource
	Scorer    ItemScorer
	Generator utterance.Generator
	Poster    reddit.Poster
	Ledger    WritableLedger
	Archiver  Archiver
	Cooldown  *Cooldown
	Sleeper   Sleeper
}

// Summary describes a finished executor run.
type Summary struct {
	TopicID     string
	Passes      int
	Replies     int
	Archives    []string
	Interrupted bool
}

// Executor drives one topic through IDLE, FETCHING, SCORING, GATING, REPLYING,
// RECORDING and DONE. Everything happens on the caller's goroutine, items in fetch order.
type Executor struct {
	profile *topic.Profile
	policy  Policy
	opts    Options
	deps    Dependencies
	now     func() time.Time

	state     State
	processed map[string]struct{} // run-local: handled items that must not be retried this run
	issued    map[string]struct{} // reply texts sent this run
}

// MinSweepDelay keeps consecutive poll passes in different archive seconds, so no
// pass overwrites the Run Record of the one before it.
const MinSweepDelay = time.Second

func NewExecutor(profile *topic.Profile, opts Options, deps Dependencies) *Executor {
	if opts.MaxRepliesPerPass <= 0 {
		opts.MaxRepliesPerPass = 1
	}
	if opts.Mode == ModePoll && opts.SweepDelay < MinSweepDelay {
		opts.SweepDelay = MinSweepDelay
	}
	if deps.Sleeper == nil {
		deps.Sleeper = TimerSleeper{}
	}
	if deps.Cooldown == nil {
		deps.Cooldown = NewCooldown(300*time.Second, 600*time.Second, nil)
	}

	return &Executor{
		profile: profile,
		policy:  PolicyFromSettings(profile.Settings()),
		opts:    opts,
		deps:    deps,
		now:     time.Now,
		state:   StateIdle,
	}
}

func (e *Executor) State() State {
	return e.state
}

func (e *Executor) transition(to State) {
	slog.Debug("Executor state change", "topic", e.profile.ID(), "from", e.state, "to", to)
	e.state = to
}

func newRunID(topicID string, at time.Time) string {
	return fmt.Sprintf("%s-%d-%d", topicID, at.UnixNano(), rand.IntN(10000))
}

// Run executes passes until the mode says DONE. An interrupt through ctx is not an
// error: the pass in progress is archived with what completed and Run returns nil.
// Only resource failures (ledger writes, archive writes) are returned.
func (e *Executor) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{TopicID: e.profile.ID()}
	e.processed = make(map[string]struct{})
	e.issued = make(map[string]struct{})
	e.state = StateIdle

	startedAt := e.now()

	slog.Info("Engagement run started",
		"topic", e.profile.ID(),
		"mode", e.opts.Mode,
		"live", e.opts.Live,
		"clearance", e.policy.Mode)

	for {
		pass, passErr := e.pass(ctx)

		e.transition(StateRecording)
		pass.FinishedAt = e.now()
		pass.Interrupted = ctx.Err() != nil
		passDuration.WithLabelValues(e.profile.ID(), e.opts.Mode).Observe(pass.FinishedAt.Sub(pass.StartedAt).Seconds())

		path, err := e.deps.Archiver.Archive(context.WithoutCancel(ctx), pass, e.profile.ID(), pass.StartedAt)
		if err != nil {
			e.transition(StateDone)
			return summary, fmt.Errorf("failed to archive run record: %w", err)
		}

		summary.Passes++
		summary.Replies += pass.Replies
		summary.Archives = append(summary.Archives, path)

		if passErr != nil {
			e.transition(StateDone)
			return summary, passErr
		}

		if ctx.Err() != nil {
			e.transition(StateDone)
			summary.Interrupted = true
			slog.Info("Engagement run interrupted, state flushed", "topic", e.profile.ID(), "passes", summary.Passes)
			return summary, nil
		}

		if e.opts.Mode != ModePoll || e.now().Sub(startedAt) >= e.opts.TimeLimit {
			break
		}

		e.transition(StateIdle)
		slog.Debug("Waiting for next sweep", "topic", e.profile.ID(), "delay", e.opts.SweepDelay)
		if err := e.deps.Sleeper.Sleep(ctx, e.opts.SweepDelay); err != nil {
			summary.Interrupted = true
			break
		}
	}

	e.transition(StateDone)

	slog.Info("Engagement run finished",
		"topic", e.profile.ID(),
		"passes", summary.Passes,
		"replies", summary.Replies,
		"duration", e.now().Sub(startedAt))

	return summary, nil
}

// pass runs FETCHING through REPLYING. The returned run is always usable for
// RECORDING; the error is non-nil only for failures that must end the run.
func (e *Executor) pass(ctx context.Context) (*record.Run, error) {
	startedAt := e.now()
	run := &record.Run{
		ID:        newRunID(e.profile.ID(), startedAt),
		TopicID:   e.profile.ID(),
		Mode:      e.opts.Mode,
		StartedAt: startedAt,
	}

	e.transition(StateFetching)
	items, err := e.deps.Source.FetchItems(ctx, e.opts.Source, e.opts.FetchLimit)
	if err != nil {
		if ctx.Err() != nil {
			return run, nil
		}
		slog.Error("Failed to fetch items", "topic", e.profile.ID(), "phase", "fetch", "error", err)
		if e.opts.Mode == ModeBatch {
			return run, fmt.Errorf("failed to fetch items: %w", err)
		}
		return run, nil
	}

	e.transition(StateScoring)
	scored := e.score(ctx, run, items)
	if ctx.Err() != nil {
		return run, nil
	}

	e.transition(StateGating)
	cleared := e.gate(run, items, scored)

	e.transition(StateReplying)
	return run, e.reply(ctx, run, cleared)
}

func (e *Executor) score(ctx context.Context, run *record.Run, items []feed.Item) []*scoring.AnalysisRecord {
	var scored []*scoring.AnalysisRecord
	for _, item := range items {
		if _, done := e.processed[item.ID]; done {
			slog.Debug("Item already handled this run", "topic", e.profile.ID(), "item_id", item.ID)
			continue
		}

		rec, err := e.deps.Scorer.Score(ctx, item)
		if ctx.Err() != nil {
			return scored
		}
		if rec == nil {
			rec = scoring.NewAnalysisRecord(item)
		}
		run.Records = append(run.Records, rec)

		if err != nil {
			// retried on a later pass or run; never gated, never ledgered
			itemsSkipped.WithLabelValues(e.profile.ID()).Inc()
			if !errors.Is(err, scoring.ErrScoringSkipped) {
				slog.Error("Unexpected scoring error", "topic", e.profile.ID(), "item_id", item.ID, "phase", "score", "error", err)
				rec.Outcome = scoring.OutcomeScoringSkipped
			}
			continue
		}

		itemsScored.WithLabelValues(e.profile.ID()).Inc()
		scored = append(scored, rec)
	}
	return scored
}

func (e *Executor) gate(run *record.Run, items []feed.Item, scored []*scoring.AnalysisRecord) []*scoring.AnalysisRecord {
	if len(items) > 0 {
		words := 0
		for _, item := range items {
			words += len(strings.Fields(item.Title))
		}
		run.AverageTitleWords = float64(words) / float64(len(items))
	}

	settings := e.profile.Settings()
	policy := e.policy.WithDerivedMin(run.AverageTitleWords, settings.Clearance.IntersectionMinDivider)
	if policy.Mode == topic.ClearanceIntersection {
		run.IntersectionMin = policy.IntersectionMin
	}

	var cleared []*scoring.AnalysisRecord
	for _, rec := range scored {
		switch {
		case e.deps.Ledger.Contains(rec.ItemID):
			rec.Outcome = scoring.OutcomeAlreadyEngaged
		case Clearance(rec, e.deps.Ledger, policy):
			rec.Outcome = scoring.OutcomeCleared
			cleared = append(cleared, rec)
			itemsCleared.WithLabelValues(e.profile.ID()).Inc()
		default:
			rec.Outcome = scoring.OutcomeNotCleared
			e.processed[rec.ItemID] = struct{}{}
		}
	}

	slog.Info("Items gated",
		"topic", e.profile.ID(),
		"fetched", len(items),
		"scored", len(scored),
		"cleared", len(cleared),
		"clearance", policy.Mode)

	return cleared
}

func (e *Executor) reply(ctx context.Context, run *record.Run, cleared []*scoring.AnalysisRecord) error {
	conversational := e.opts.Mode == ModePoll
	minWords := e.profile.Settings().MinContextWords
	attempts := 0

	for _, rec := range cleared {
		if !conversational && attempts >= e.opts.MaxRepliesPerPass {
			// left for the next run
			break
		}
		if _, done := e.processed[rec.ItemID]; done {
			continue
		}

		item := *rec.Item
		input := cmp.Or(item.Body, item.Title)

		if conversational && len(strings.Fields(input)) < minWords {
			rec.Outcome = scoring.OutcomeTooShort
			e.processed[rec.ItemID] = struct{}{}
			slog.Debug("Item too short to reply to", "topic", e.profile.ID(), "item_id", rec.ItemID)
			continue
		}

		text, err := e.deps.Generator.Generate(ctx, item, input)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			rec.Outcome = scoring.OutcomeNoUtterance
			rec.Error = err.Error()
			if errors.Is(err, utterance.ErrCorpusExhausted) {
				slog.Warn("Utterance corpus exhausted, no more replies this pass", "topic", e.profile.ID(), "item_id", rec.ItemID)
				return nil
			}
			e.processed[rec.ItemID] = struct{}{}
			if errors.Is(err, provider.ErrInvalidInput) {
				slog.Warn("Reply generation rejected input", "topic", e.profile.ID(), "item_id", rec.ItemID, "phase", "generate", "error", err)
			} else {
				slog.Error("Reply generation failed", "topic", e.profile.ID(), "item_id", rec.ItemID, "phase", "generate", "error", err)
			}
			continue
		}

		if _, dup := e.issued[text]; conversational && dup {
			rec.Outcome = scoring.OutcomeDuplicateReply
			e.processed[rec.ItemID] = struct{}{}
			slog.Info("Duplicate reply rejected", "topic", e.profile.ID(), "item_id", rec.ItemID)
			continue
		}

		attempts++
		if err := e.submit(ctx, run, rec, text); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		wait := e.deps.Cooldown.Next()
		cooldownSeconds.WithLabelValues(e.profile.ID()).Add(wait.Seconds())
		slog.Info("Cooling down", "topic", e.profile.ID(), "item_id", rec.ItemID, "delay", wait)
		if err := e.deps.Sleeper.Sleep(ctx, wait); err != nil {
			return nil
		}
	}

	return nil
}

// submit posts one reply and records its outcome. Only a ledger write failure is returned.
func (e *Executor) submit(ctx context.Context, run *record.Run, rec *scoring.AnalysisRecord, text string) error {
	err := e.deps.Poster.PostReply(ctx, rec.ItemID, text)
	e.processed[rec.ItemID] = struct{}{}

	switch {
	case err == nil:
	case ctx.Err() != nil:
		rec.Outcome = scoring.OutcomeReplyFailed
		rec.Error = "interrupted"
		replyCount.WithLabelValues(e.profile.ID(), "interrupted").Inc()
		return nil
	case errors.Is(err, reddit.ErrRateLimited):
		rec.Outcome = scoring.OutcomeRateLimited
		rec.Error = err.Error()
		replyCount.WithLabelValues(e.profile.ID(), "rate_limited").Inc()
		slog.Warn("Reply rate limited", "topic", e.profile.ID(), "item_id", rec.ItemID, "phase", "reply", "error", err)
		return nil
	default:
		rec.Outcome = scoring.OutcomeReplyFailed
		rec.Error = err.Error()
		replyCount.WithLabelValues(e.profile.ID(), "failed").Inc()
		slog.Error("Reply failed", "topic", e.profile.ID(), "item_id", rec.ItemID, "phase", "reply", "error", err)
		return nil
	}

	e.issued[text] = struct{}{}
	run.Replies++

	if !e.opts.Live {
		rec.MarkEngaged(text, e.now(), scoring.OutcomeDryRun)
		replyCount.WithLabelValues(e.profile.ID(), "dry_run").Inc()
		return nil
	}

	rec.MarkEngaged(text, e.now(), scoring.OutcomeReplied)
	replyCount.WithLabelValues(e.profile.ID(), "success").Inc()
	slog.Info("Replied", "topic", e.profile.ID(), "item_id", rec.ItemID, "permalink", rec.Permalink)

	if err := e.deps.Ledger.Add(rec.ItemID); err != nil {
		return fmt.Errorf("failed to record engagement of %s: %w", rec.ItemID, err)
	}
	return nil
}
