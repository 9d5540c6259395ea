// Package tracker wires scanning, scoring, analysis and reporting into the
// operations the CLI exposes.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/whale-tracker/pkg/config"
	"github.com/whale-tracker/pkg/db"
	"github.com/whale-tracker/pkg/monitor"
	"github.com/whale-tracker/pkg/notify"
	"github.com/whale-tracker/pkg/report"
	"github.com/whale-tracker/pkg/scanner"
	"github.com/whale-tracker/pkg/trader"
	"github.com/whale-tracker/pkg/whale"
)

// trackedWhaleLimit caps how many stored whales join the configured seeds on each
// track pass.
const trackedWhaleLimit = 100

// Scanner fetches and stores wallet transfers.
type Scanner interface {
	TrackAll(ctx context.Context, targets []scanner.Target) []scanner.Result
	IsContract(ctx context.Context, address string, chain config.Chain) (bool, error)
}

type Tracker struct {
	cfg      *config.Config
	store    *db.Store
	scanner  Scanner
	analyzer *trader.Analyzer
	notifier notify.Notifier
	detector *whale.Detector
	out      io.Writer
	now      func() time.Time
}

type Option func(*Tracker)

func WithNotifier(n notify.Notifier) Option { return func(t *Tracker) { t.notifier = n } }

func WithOutput(w io.Writer) Option { return func(t *Tracker) { t.out = w } }

func WithClock(now func() time.Time) Option { return func(t *Tracker) { t.now = now } }

func New(cfg *config.Config, store *db.Store, sc Scanner, an *trader.Analyzer, opts ...Option) *Tracker {
	t := &Tracker{
		cfg:      cfg,
		store:    store,
		scanner:  sc,
		analyzer: an,
		detector: whale.NewDetector(cfg.WhaleScoreThreshold),
		out:      os.Stdout,
		now:      time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Summary counts per-target outcomes of a track pass. Processed targets succeeded,
// Skipped ones had no explorer configured and Failed ones returned an error.
type Summary struct {
	Processed  int               `json:"processed"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	Inserted   int               `json:"inserted"`
	Alerts     int               `json:"alerts"`
	Candidates []whale.Candidate `json:"candidates,omitempty"`
}

// ── Targets ──────────────────────────────────────────────────────────────────

// Targets returns the configured seed whales, every watched address and the top
// stored whales, each address and chain pair once.
func (t *Tracker) Targets() ([]scanner.Target, error) {
	targets := scanner.TargetsFor(t.cfg, t.cfg.KnownWhales)

	stored, err := t.store.GetTopWhales(trackedWhaleLimit)
	if err != nil {
		return nil, fmt.Errorf("load whales: %w", err)
	}
	watched, err := t.store.GetWatchedWhales()
	if err != nil {
		return nil, fmt.Errorf("load watched whales: %w", err)
	}
	for _, w := range append(watched, stored...) {
		targets = append(targets, scanner.Target{Address: w.Address, Chain: w.Chain})
	}

	seen := make(map[string]bool, len(targets))
	out := targets[:0]
	for _, tg := range targets {
		key := config.AddressKey(tg.Address) + "|" + string(tg.Chain)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tg)
	}
	return out, nil
}

// ── Track ────────────────────────────────────────────────────────────────────

// Track scans targets (all Targets when nil), stores new transfers, alerts on new
// whale-size transfers and feeds them to the stream detector.
func (t *Tracker) Track(ctx context.Context, targets []scanner.Target) (Summary, error) {
	var sum Summary
	if targets == nil {
		var err error
		if targets, err = t.Targets(); err != nil {
			return sum, err
		}
	}
	if len(targets) == 0 {
		log.Warn().Msg("⚠️  Nothing to track: set KNOWN_WHALES or run discover first")
		return sum, nil
	}

	log.Info().Int("targets", len(targets)).Msg("🛰️  Tracking whales")
	var fresh []db.Transaction
	for _, r := range t.scanner.TrackAll(ctx, targets) {
		switch {
		case errors.Is(r.Err, scanner.ErrNoExplorer):
			sum.Skipped++
			continue
		case r.Err != nil:
			// rows stored before the failure are still new
			sum.Failed++
		default:
			sum.Processed++
		}
		sum.Inserted += r.Inserted
		fresh = append(fresh, r.New...)

		for _, tx := range r.New {
			if tx.ValueUSD < t.cfg.MinWhaleTxUSD || t.notifier == nil {
				continue
			}
			if err := t.notifier.Notify(ctx, notify.Alert{Wallet: r.Target.Address, Tx: tx}); err != nil {
				log.Warn().Err(err).Str("hash", tx.Hash).Msg("⚠️  Alert delivery failed")
				continue
			}
			sum.Alerts++
		}
	}

	sum.Candidates = t.detector.Process(fresh)
	for _, c := range sum.Candidates {
		log.Info().Str("address", c.Address).Float64("score", c.Score).Msg("🐋 Active whale in stream")
	}

	log.Info().Int("processed", sum.Processed).Int("failed", sum.Failed).Int("skipped", sum.Skipped).
		Int("inserted", sum.Inserted).Int("alerts", sum.Alerts).Msg("📦 Track pass complete")
	return sum, ctx.Err()
}

// ── Analyze ──────────────────────────────────────────────────────────────────

// Analyze profiles every stored whale as a trader and saves those above the minimum
// score. Profiles that fail to save are logged and still returned.
func (t *Tracker) Analyze(ctx context.Context, limit int) ([]trader.Profile, trader.RunStats, error) {
	profiles, stats, err := t.analyzer.FindTopTraders(ctx, limit)
	if err != nil {
		return profiles, stats, err
	}
	for _, p := range profiles {
		if err := t.analyzer.Save(p); err != nil {
			log.Error().Err(err).Str("wallet", p.WalletAddress).Msg("❌ Saving trader failed")
		}
	}
	log.Info().Int("analyzed", stats.Analyzed).Int("failed", stats.Failed).Int("profitable", len(profiles)).
		Msg("💰 Trader analysis complete")
	report.PrintTraders(t.out, profiles)
	return profiles, stats, nil
}

// ── Report ───────────────────────────────────────────────────────────────────

// Report writes the JSON report to path and prints the console summary.
func (t *Tracker) Report(ctx context.Context, path string, limit int) (*report.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := report.Build(t.store, limit, t.now())
	if err != nil {
		return nil, err
	}
	if err := report.WriteJSON(path, r); err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Msg("📄 Report written")

	report.PrintWhales(t.out, r.TopWhales)
	report.PrintSummary(t.out, r)
	return r, nil
}

// ── Monitor ──────────────────────────────────────────────────────────────────

// Monitor runs Track then Discover on cfg.MonitorSchedule until ctx is cancelled.
func (t *Tracker) Monitor(ctx context.Context) error {
	m := monitor.New(t.cfg.MonitorSchedule, t.monitorCycle)
	return m.Run(ctx)
}

func (t *Tracker) monitorCycle(ctx context.Context) error {
	sum, err := t.Track(ctx, nil)
	if err != nil {
		return fmt.Errorf("track: %w", err)
	}
	if sum.Processed == 0 && sum.Failed > 0 {
		return fmt.Errorf("all %d targets failed", sum.Failed)
	}
	if _, err := t.Discover(ctx); err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	return nil
}
