package trader

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/whale-tracker/pkg/config"
	"github.com/whale-tracker/pkg/db"
)

// DefaultMinTraderScore is the score a wallet must exceed to count as profitable.
const DefaultMinTraderScore = 400.0

const StatusNoSessions = "no_sessions"

// Store is the slice of the database the analyzer reads and writes.
type Store interface {
	GetTransactionsForAddress(address string) ([]db.Transaction, error)
	GetAllWhaleAddresses() ([]string, error)
	SaveTrader(p db.ProfitableTrader) error
}

// MovementSource reports a token's percentage price move in the day before ts.
type MovementSource interface {
	MovementAt(ctx context.Context, chain config.Chain, tokenAddress string, ts int64) (float64, error)
}

// Profile is the analysis result for one wallet.
type Profile struct {
	WalletAddress string           `json:"wallet_address"`
	Status        string           `json:"status,omitempty"`
	Score         float64          `json:"profitability_score"`
	Tier          Tier             `json:"tier"`
	Metrics       Metrics          `json:"metrics"`
	Pattern       Pattern          `json:"pattern"`
	SessionCount  int              `json:"session_count"`
	Sessions      []SessionSummary `json:"sessions"`
}

// Snapshot converts the profile into the row stored for the wallet.
func (p Profile) Snapshot() (db.ProfitableTrader, error) {
	sessions, err := json.Marshal(p.Sessions)
	if err != nil {
		return db.ProfitableTrader{}, fmt.Errorf("encode sessions: %w", err)
	}
	return db.ProfitableTrader{
		WalletAddress:      p.WalletAddress,
		TotalProfit:        p.Metrics.TotalProfit,
		WinRate:            p.Metrics.WinRate,
		TradeCount:         p.SessionCount,
		AvgProfitPerTrade:  p.Metrics.AvgProfitPerTrade,
		TotalVolume:        p.Metrics.TotalVolume,
		ProfitabilityScore: p.Score,
		Tier:               string(p.Tier),
		TradingStrategy:    string(p.Pattern.PrimaryStrategy),
		StrategyConfidence: p.Pattern.Confidence,
		Sessions:           string(sessions),
	}, nil
}

// RunStats counts what happened to each wallet in a batch analysis.
type RunStats struct {
	Analyzed int `json:"analyzed"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

type Analyzer struct {
	store    Store
	detector *SessionDetector
	prices   PriceSource
	minScore float64
}

type Option func(*Analyzer)

// WithPrices revalues sessions at historical prices. If the source also
// implements MovementSource it supplies the entry market movement.
func WithPrices(p PriceSource) Option { return func(a *Analyzer) { a.prices = p } }

func WithMinVolume(usd float64) Option {
	return func(a *Analyzer) { a.detector = NewSessionDetector(usd) }
}

func WithMinScore(score float64) Option { return func(a *Analyzer) { a.minScore = score } }

func NewAnalyzer(store Store, opts ...Option) *Analyzer {
	a := &Analyzer{
		store:    store,
		detector: NewSessionDetector(DefaultMinSessionVolumeUSD),
		minScore: DefaultMinTraderScore,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// AnalyzeWallet rebuilds the wallet's sessions from stored transfers and scores them.
func (a *Analyzer) AnalyzeWallet(ctx context.Context, wallet string) (Profile, error) {
	records, err := a.store.GetTransactionsForAddress(wallet)
	if err != nil {
		return Profile{}, fmt.Errorf("load transactions for %s: %w", wallet, err)
	}

	sessions := a.detector.Group(Tag(wallet, records))
	if len(sessions) == 0 {
		return Profile{WalletAddress: wallet, Status: StatusNoSessions, Tier: TierEmerging, Pattern: DetectPattern(nil)}, nil
	}

	if a.prices != nil {
		a.enrich(ctx, sessions)
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for i := range sessions {
		summaries = append(summaries, sessions[i].Summary())
	}

	return Profile{
		WalletAddress: wallet,
		Score:         TraderScore(summaries),
		Tier:          ClassifyTier(summaries),
		Metrics:       PerformanceMetrics(summaries),
		Pattern:       DetectPattern(summaries),
		SessionCount:  len(sessions),
		Sessions:      summaries,
	}, nil
}

func (a *Analyzer) enrich(ctx context.Context, sessions []Session) {
	movements, _ := a.prices.(MovementSource)
	for i := range sessions {
		s := &sessions[i]
		if err := s.ApplyHistoricalPrices(ctx, a.prices); err != nil {
			log.Warn().Err(err).Str("token", s.TokenSymbol).Msg("⚠️  Historical price unavailable, keeping USD totals")
		}
		if movements == nil || s.TokenAddress == "" {
			continue
		}
		move, err := movements.MovementAt(ctx, s.Chain, s.TokenAddress, s.EntryTimestamp)
		if err != nil {
			log.Debug().Err(err).Str("token", s.TokenSymbol).Msg("No market movement at entry")
			continue
		}
		s.MarketMovementAtEntry = &move
	}
}

// Save overwrites the wallet's stored snapshot.
func (a *Analyzer) Save(p Profile) error {
	row, err := p.Snapshot()
	if err != nil {
		return err
	}
	return a.store.SaveTrader(row)
}

// FindTopTraders analyses every known whale and returns those scoring above the
// minimum, best first. A failing wallet is logged and counted and does not stop
// the rest.
func (a *Analyzer) FindTopTraders(ctx context.Context, limit int) ([]Profile, RunStats, error) {
	var stats RunStats
	addresses, err := a.store.GetAllWhaleAddresses()
	if err != nil {
		return nil, stats, fmt.Errorf("list whales: %w", err)
	}

	var out []Profile
	for _, addr := range addresses {
		if err := ctx.Err(); err != nil {
			return out, stats, err
		}
		p, err := a.AnalyzeWallet(ctx, addr)
		if err != nil {
			stats.Failed++
			log.Error().Err(err).Str("wallet", addr).Msg("❌ Analysis failed")
			continue
		}
		stats.Analyzed++
		if p.Score <= a.minScore {
			stats.Skipped++
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, stats, nil
}
