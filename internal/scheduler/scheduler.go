package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"FlipSentinel/internal/collector"
	"FlipSentinel/internal/fund"
	"FlipSentinel/internal/model"
	"FlipSentinel/internal/notifier"
	"FlipSentinel/internal/recorder"
	"FlipSentinel/internal/strategy"
)

// Notifier delivers formatted messages.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options tune each evaluation run.
type Options struct {
	Window   int
	Lookback time.Duration
	TopN     int
	Filters  model.Filters
}

// Scheduler manages all cron tasks and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Fund      *fund.Manager
	Notifier  Notifier
	Recorder  recorder.Recorder
	Options   Options
	Ctx       context.Context
	Clock     func() time.Time

	backfillMu    sync.Mutex
	mu            sync.Mutex
	historySynced bool
	runs          int
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, fm *fund.Manager, n Notifier, rec recorder.Recorder, opts Options) *Scheduler {
	if opts.Window <= 0 {
		opts.Window = strategy.AnalysisWindow
	}
	if opts.Lookback <= 0 {
		opts.Lookback = 24 * time.Hour
	}
	if opts.TopN <= 0 {
		opts.TopN = 10
	}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		Collector: col,
		Fund:      fm,
		Notifier:  n,
		Recorder:  rec,
		Options:   opts,
		Ctx:       ctx,
		Clock:     time.Now,
	}
}

// RegisterAll registers the price refresh, volume refresh and report tasks.
func (s *Scheduler) RegisterAll(latestCron, volumeCron, reportCron string) error {
	if _, err := s.Cron.AddFunc(latestCron, s.latestTask); err != nil {
		return fmt.Errorf("register latest task: %w", err)
	}
	if _, err := s.Cron.AddFunc(volumeCron, s.volumeTask); err != nil {
		return fmt.Errorf("register volume task: %w", err)
	}
	if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// Bootstrap loads item metadata, volumes and current prices, then runs the
// one-time history backfill.
func (s *Scheduler) Bootstrap(ctx context.Context) error {
	n, err := s.Collector.SyncMapping(ctx)
	if err != nil {
		return err
	}
	log.Printf("[INFO] synced %d items", n)

	if n, err = s.Collector.RefreshVolumes(ctx); err != nil {
		return err
	}
	log.Printf("[INFO] stored %d volumes", n)

	if n, err = s.Collector.RefreshLatest(ctx); err != nil {
		return err
	}
	log.Printf("[INFO] stored %d latest prices", n)

	return s.syncHistory(ctx)
}

// HistorySynced reports whether the backfill has completed.
func (s *Scheduler) HistorySynced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historySynced
}

var errNoBackfillTargets = errors.New("no items with enough volume to backfill")

// syncHistory runs the backfill until it succeeds once. Without stored
// volumes there is nothing to backfill, and the flag stays unset.
func (s *Scheduler) syncHistory(ctx context.Context) error {
	s.backfillMu.Lock()
	defer s.backfillMu.Unlock()
	if s.HistorySynced() {
		return nil
	}

	targets, err := s.Collector.BackfillTargets()
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return errNoBackfillTargets
	}
	n, err := s.Collector.BackfillHistory(ctx, targets)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.historySynced = true
	s.mu.Unlock()
	log.Printf("[INFO] history backfill done: %d samples for %d items", n, len(targets))
	return nil
}

func (s *Scheduler) latestTask() {
	n, err := s.Collector.RefreshLatest(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] refresh latest: %v", err)
		return
	}
	log.Printf("[INFO] stored %d latest prices", n)

	if !s.HistorySynced() {
		s.resumeBootstrap()
	}
}

// resumeBootstrap repeats the metadata and volume sync a failed Bootstrap
// skipped, then retries the backfill.
func (s *Scheduler) resumeBootstrap() {
	if _, err := s.Collector.SyncMapping(s.Ctx); err != nil {
		log.Printf("[WARN] sync mapping: %v", err)
		return
	}
	if _, err := s.Collector.RefreshVolumes(s.Ctx); err != nil {
		log.Printf("[WARN] refresh volumes: %v", err)
		return
	}
	if err := s.syncHistory(s.Ctx); err != nil {
		log.Printf("[WARN] history backfill: %v", err)
	}
}

func (s *Scheduler) volumeTask() {
	if _, err := s.Collector.SyncMapping(s.Ctx); err != nil {
		log.Printf("[WARN] sync mapping: %v", err)
	}
	n, err := s.Collector.RefreshVolumes(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] refresh volumes: %v", err)
		return
	}
	log.Printf("[INFO] stored %d volumes", n)
}

func (s *Scheduler) reportTask() {
	log.Println("[INFO] running report task")
	budget := s.Fund.Budget()
	a, err := s.evaluate(budget, true)
	if err != nil {
		log.Printf("[ERROR] report evaluation: %v", err)
		s.trySend(fmt.Sprintf("❌ evaluation failed: %v", err))
		return
	}
	s.trySend(notifier.FormatOpportunities(a.Opportunities, budget, s.Options.TopN, s.Clock()))
	s.trySend(notifier.FormatPortfolio(a.Portfolio))
}

// evaluate runs one analysis on the stored market data and records it.
// Runs against the bankroll also update the bankroll state.
func (s *Scheduler) evaluate(budget int64, bankroll bool) (*model.Analysis, error) {
	now := s.Clock()
	snap, err := s.Collector.Snapshot(s.Options.Window, s.Options.Lookback, now)
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}
	a, err := strategy.Analyze(snap, budget, s.Options.Filters)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	runID := uuid.NewString()
	if err := s.Recorder.RecordRun(recorder.NewRunRecord(runID, now, a)); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()

	if bankroll {
		s.Fund.RecordPortfolio(runID, a.Portfolio, now)
	}
	log.Printf("[INFO] run %s: %d opportunities, %d selected, budget %d", runID, len(a.Opportunities), len(a.Portfolio.Selections), budget)
	return a, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	// Group chats address commands as /cmd@BotName.
	name, _, _ := strings.Cut(fields[0], "@")
	args := fields[1:]

	switch name {
	case "/top":
		budget := s.Fund.Budget()
		a, err := s.evaluate(budget, true)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatOpportunities(a.Opportunities, budget, s.Options.TopN, s.Clock())
	case "/portfolio":
		budget := s.Fund.Budget()
		bankroll := true
		if len(args) > 0 {
			v, err := ParseAmount(args[0])
			if err != nil {
				return fmt.Sprintf("❌ %v", err)
			}
			budget, bankroll = v, false
		}
		a, err := s.evaluate(budget, bankroll)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatPortfolio(a.Portfolio)
	case "/budget":
		if len(args) == 0 {
			return "usage: /budget &lt;amount&gt;, e.g. /budget 25m"
		}
		v, err := ParseAmount(args[0])
		if err == nil {
			err = s.Fund.SetBudget(v)
		}
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		state := s.Fund.GetState()
		return "✅ bankroll updated\n\n" + notifier.FormatFundStatus(&state)
	case "/status":
		state := s.Fund.GetState()
		items, err := s.Recorder.Items()
		if err != nil {
			log.Printf("[ERROR] load items: %v", err)
		}
		s.mu.Lock()
		runs, synced := s.runs, s.historySynced
		s.mu.Unlock()
		return notifier.FormatFundStatus(&state) + "\n" +
			notifier.FormatStatus(s.Collector.Fetcher.Name(), len(items), synced, runs)
	default:
		return notifier.HelpText
	}
}

var errBadAmount = errors.New("invalid amount")

// ParseAmount reads a coin amount such as "2500000", "2,500,000", "2.5m",
// "750k" or "1b".
func ParseAmount(s string) (int64, error) {
	v := strings.ToLower(strings.NewReplacer(",", "", "_", "").Replace(strings.TrimSpace(s)))
	mult := 1.0
	switch {
	case strings.HasSuffix(v, "k"):
		mult, v = 1e3, strings.TrimSuffix(v, "k")
	case strings.HasSuffix(v, "m"):
		mult, v = 1e6, strings.TrimSuffix(v, "m")
	case strings.HasSuffix(v, "b"):
		mult, v = 1e9, strings.TrimSuffix(v, "b")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f*mult >= math.MaxInt64 {
		return 0, fmt.Errorf("%w %q", errBadAmount, s)
	}
	amount := int64(f * mult)
	if amount <= 0 {
		return 0, fmt.Errorf("%w %q: must be positive", errBadAmount, s)
	}
	return amount, nil
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
