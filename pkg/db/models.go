package db

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/whale-tracker/pkg/config"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// ---- Core Models ----

// Transaction is one observed value movement. Rows are immutable once written and
// unique by hash.
type Transaction struct {
	ID            int64        `json:"id"`
	Hash          string       `json:"hash"`
	Chain         config.Chain `json:"chain"`
	FromAddress   string       `json:"from_address"`
	ToAddress     string       `json:"to_address"`
	TokenSymbol   string       `json:"token_symbol"`
	TokenAddress  string       `json:"token_address,omitempty"` // empty for native transfers
	ValueNative   float64      `json:"value_native"`
	ValueUSD      float64      `json:"value_usd"`
	Timestamp     int64        `json:"timestamp"` // unix seconds
	WhaleCategory string       `json:"whale_category"`
	GasUsed       int64        `json:"gas_used,omitempty"`
	GasPrice      int64        `json:"gas_price,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Validate rejects records missing required fields or carrying non-finite values.
func (t Transaction) Validate() error {
	switch {
	case t.Hash == "":
		return fmt.Errorf("%w: missing hash", ErrInvalidTransaction)
	case t.Chain == "":
		return fmt.Errorf("%w: %s missing chain", ErrInvalidTransaction, t.Hash)
	case t.FromAddress == "" || t.ToAddress == "":
		return fmt.Errorf("%w: %s missing address", ErrInvalidTransaction, t.Hash)
	case t.TokenSymbol == "":
		return fmt.Errorf("%w: %s missing token symbol", ErrInvalidTransaction, t.Hash)
	case !finite(t.ValueNative) || !finite(t.ValueUSD):
		return fmt.Errorf("%w: %s non-numeric value", ErrInvalidTransaction, t.Hash)
	case t.Timestamp <= 0:
		return fmt.Errorf("%w: %s missing timestamp", ErrInvalidTransaction, t.Hash)
	}
	return nil
}

// Counterparty returns the other side of the transfer as seen from address.
func (t Transaction) Counterparty(address string) string {
	if config.SameAddress(t.FromAddress, address) {
		return t.ToAddress
	}
	return t.FromAddress
}

// WhaleAddress is the persisted per-address aggregate.
type WhaleAddress struct {
	Address            string       `json:"address"`
	Chain              config.Chain `json:"chain"`
	FirstSeen          int64        `json:"first_seen"`
	LastSeen           int64        `json:"last_seen"`
	TotalVolumeUSD     float64      `json:"total_volume_usd"`
	TransactionCount   int          `json:"transaction_count"`
	AvgTransactionSize float64      `json:"avg_transaction_size"`
	UniqueCounterparts int          `json:"unique_counterparts"`
	WhaleScore         float64      `json:"whale_score"`
	Label              string       `json:"label"`
	IsFalsePositive    bool         `json:"is_false_positive"`
	Watched            bool         `json:"watched"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// ProfitableTrader is the latest analysis snapshot for a wallet. Each analysis run
// overwrites the previous row.
type ProfitableTrader struct {
	WalletAddress      string    `json:"wallet_address"`
	TotalProfit        float64   `json:"total_profit"`
	WinRate            float64   `json:"win_rate"`
	TradeCount         int       `json:"trade_count"`
	AvgProfitPerTrade  float64   `json:"avg_profit_per_trade"`
	TotalVolume        float64   `json:"total_volume"`
	ProfitabilityScore float64   `json:"profitability_score"`
	Tier               string    `json:"tier"`
	TradingStrategy    string    `json:"trading_strategy"`
	StrategyConfidence float64   `json:"strategy_confidence"`
	Sessions           string    `json:"sessions"` // JSON
	LastAnalyzed       time.Time `json:"last_analyzed"`
}

type Relationship struct {
	FromAddress      string  `json:"from_address"`
	ToAddress        string  `json:"to_address"`
	InteractionCount int     `json:"interaction_count"`
	TotalVolumeUSD   float64 `json:"total_volume_usd"`
	LastInteraction  int64   `json:"last_interaction"`
}

type DailyStat struct {
	Date               string       `json:"date"`
	Chain              config.Chain `json:"chain"`
	TransactionCount   int          `json:"transaction_count"`
	TotalVolumeUSD     float64      `json:"total_volume_usd"`
	UniqueAddresses    int          `json:"unique_addresses"`
	AvgTransactionSize float64      `json:"avg_transaction_size"`
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
