// Package trader rebuilds per-token trading sessions from a wallet's transfer
// history and scores the wallet's profitability.
package trader

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/whale-tracker/pkg/config"
	"github.com/whale-tracker/pkg/db"
)

// DefaultMinSessionVolumeUSD is the smallest transfer that counts toward a session.
const DefaultMinSessionVolumeUSD = 100_000.0

// Direction is the side of a transfer from the analysed wallet's point of view.
type Direction int

const (
	DirectionUnknown Direction = iota
	Buy
	Sell
)

func (d Direction) String() string {
	switch d {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// DirectionFor returns Sell when wallet sent the transfer and Buy otherwise.
func DirectionFor(wallet string, tx db.Transaction) Direction {
	if config.SameAddress(tx.FromAddress, wallet) {
		return Sell
	}
	return Buy
}

// Transaction is a stored transfer tagged with its direction.
type Transaction struct {
	db.Transaction
	Direction Direction `json:"transaction_type"`
}

// Tag attaches directions for wallet to every record.
func Tag(wallet string, txs []db.Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, Transaction{Transaction: tx, Direction: DirectionFor(wallet, tx)})
	}
	return out
}

// PriceSource resolves a token's USD price at a past instant.
type PriceSource interface {
	PriceAt(ctx context.Context, chain config.Chain, tokenAddress string, ts int64) (float64, error)
}

// Session is one token round trip. All entries form a single cost basis and all
// exits a single proceeds figure; individual lots are not matched.
type Session struct {
	TokenSymbol    string        `json:"token_symbol"`
	TokenAddress   string        `json:"token_address,omitempty"`
	Chain          config.Chain  `json:"chain"`
	Entries        []Transaction `json:"entry_transactions"`
	Exits          []Transaction `json:"exit_transactions"`
	EntryTimestamp int64         `json:"entry_timestamp"`
	ExitTimestamp  int64         `json:"exit_timestamp"`
	TotalInvested  float64       `json:"total_invested"`
	TotalReceived  float64       `json:"total_received"`
	VolumeNative   float64       `json:"volume_native"`
	EntryPrice     float64       `json:"entry_price,omitempty"`
	ExitPrice      float64       `json:"exit_price,omitempty"`

	// MarketMovementAtEntry is the token's percentage move around the entry, when
	// known. It is supplied by the caller.
	MarketMovementAtEntry *float64 `json:"market_movement_at_entry,omitempty"`
}

func (s *Session) ProfitLoss() float64 { return s.TotalReceived - s.TotalInvested }

func (s *Session) ProfitPercentage() float64 {
	if s.TotalInvested == 0 {
		return 0
	}
	return s.ProfitLoss() / s.TotalInvested * 100
}

// IsProfitable is strict: breaking even is not a win.
func (s *Session) IsProfitable() bool { return s.ProfitLoss() > 0 }

func (s *Session) HoldDuration() time.Duration {
	if s.EntryTimestamp == 0 || s.ExitTimestamp == 0 {
		return 0
	}
	return time.Duration(s.ExitTimestamp-s.EntryTimestamp) * time.Second
}

// HoldDurationDays counts whole days held. Exits before the first entry floor
// toward negative infinity.
func (s *Session) HoldDurationDays() int {
	d := s.HoldDuration()
	return int(math.Floor(d.Hours() / 24))
}

// ApplyHistoricalPrices revalues the session from native volume and the token price
// at entry and exit. It is a no-op without a token address or timestamps, and the
// USD sums are kept when either price is unavailable.
func (s *Session) ApplyHistoricalPrices(ctx context.Context, prices PriceSource) error {
	if s.TokenAddress == "" || s.EntryTimestamp == 0 || s.ExitTimestamp == 0 {
		return nil
	}
	entry, err := prices.PriceAt(ctx, s.Chain, s.TokenAddress, s.EntryTimestamp)
	if err != nil {
		return fmt.Errorf("entry price for %s: %w", s.TokenSymbol, err)
	}
	exit, err := prices.PriceAt(ctx, s.Chain, s.TokenAddress, s.ExitTimestamp)
	if err != nil {
		return fmt.Errorf("exit price for %s: %w", s.TokenSymbol, err)
	}
	s.EntryPrice, s.ExitPrice = entry, exit
	if entry > 0 && exit > 0 && s.VolumeNative != 0 {
		s.TotalInvested = s.VolumeNative * entry
		s.TotalReceived = s.VolumeNative * exit
	}
	return nil
}

// Summary is the flattened view used by scoring and pattern detection.
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		TokenSymbol:           s.TokenSymbol,
		ProfitLoss:            s.ProfitLoss(),
		ProfitPercentage:      s.ProfitPercentage(),
		Volume:                s.TotalInvested,
		HoldDurationDays:      float64(s.HoldDurationDays()),
		MarketMovementAtEntry: s.MarketMovementAtEntry,
	}
}

// SessionDetector groups a wallet's history into sessions.
type SessionDetector struct {
	MinVolumeUSD float64
}

func NewSessionDetector(minVolumeUSD float64) *SessionDetector {
	if minVolumeUSD < 0 {
		minVolumeUSD = DefaultMinSessionVolumeUSD
	}
	return &SessionDetector{MinVolumeUSD: minVolumeUSD}
}

// Group drops transfers below the volume floor, partitions the rest by token symbol
// and emits one session for each token that has both a buy and a sell. Records
// without a direction, symbol or finite value are skipped. Sessions come out in the
// order their token was first seen.
func (d *SessionDetector) Group(txs []Transaction) []Session {
	byToken := map[string][]Transaction{}
	var order []string
	for _, tx := range txs {
		if tx.Direction == DirectionUnknown || tx.TokenSymbol == "" || !finite(tx.ValueUSD) || !finite(tx.ValueNative) {
			continue
		}
		if tx.ValueUSD < d.MinVolumeUSD {
			continue
		}
		if _, ok := byToken[tx.TokenSymbol]; !ok {
			order = append(order, tx.TokenSymbol)
		}
		byToken[tx.TokenSymbol] = append(byToken[tx.TokenSymbol], tx)
	}

	var sessions []Session
	for _, symbol := range order {
		group := byToken[symbol]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Timestamp < group[j].Timestamp })

		var entries, exits []Transaction
		for _, tx := range group {
			if tx.Direction == Buy {
				entries = append(entries, tx)
			} else {
				exits = append(exits, tx)
			}
		}
		if len(entries) == 0 || len(exits) == 0 {
			continue
		}

		s := Session{
			TokenSymbol:    symbol,
			TokenAddress:   group[0].TokenAddress,
			Chain:          group[0].Chain,
			Entries:        entries,
			Exits:          exits,
			EntryTimestamp: entries[0].Timestamp,
			ExitTimestamp:  exits[len(exits)-1].Timestamp,
		}
		for _, tx := range entries {
			s.TotalInvested += tx.ValueUSD
			s.VolumeNative += tx.ValueNative
		}
		for _, tx := range exits {
			s.TotalReceived += tx.ValueUSD
		}
		sessions = append(sessions, s)
	}
	return sessions
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
