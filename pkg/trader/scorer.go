package trader

import "math"

// SessionSummary carries the per-session numbers the scorers read.
type SessionSummary struct {
	TokenSymbol           string   `json:"token_symbol,omitempty"`
	ProfitLoss            float64  `json:"profit_loss"`
	ProfitPercentage      float64  `json:"profit_percentage"`
	Volume                float64  `json:"volume"`
	HoldDurationDays      float64  `json:"hold_duration_days"`
	MarketMovementAtEntry *float64 `json:"market_movement_at_entry,omitempty"`
}

type Metrics struct {
	WinRate           float64 `json:"win_rate"`
	TotalProfit       float64 `json:"total_profit"`
	AvgProfitPerTrade float64 `json:"avg_profit_per_trade"`
	TotalVolume       float64 `json:"total_volume"`
}

// PerformanceMetrics returns zeros for an empty slice.
func PerformanceMetrics(sessions []SessionSummary) Metrics {
	if len(sessions) == 0 {
		return Metrics{}
	}
	var m Metrics
	wins := 0
	for _, s := range sessions {
		if s.ProfitLoss > 0 {
			wins++
		}
		m.TotalProfit += s.ProfitLoss
		m.TotalVolume += s.Volume
	}
	n := float64(len(sessions))
	m.WinRate = float64(wins) / n
	m.AvgProfitPerTrade = m.TotalProfit / n
	return m
}

const MaxTraderScore = 1000.0

// TraderScore is capped at 1000 with no lower clamp, so net losses can pull it
// below the sum of the other components.
func TraderScore(sessions []SessionSummary) float64 {
	if len(sessions) == 0 {
		return 0
	}
	m := PerformanceMetrics(sessions)

	winRate := m.WinRate * 400
	profit := math.Min(m.TotalProfit/300, 350)
	volume := math.Min(m.TotalVolume/3000, 150)
	consistency := math.Min(float64(len(sessions))*25, 100)

	return math.Min(winRate+profit+volume+consistency, MaxTraderScore)
}

type Tier string

const (
	TierElite      Tier = "ELITE"
	TierAdvanced   Tier = "ADVANCED"
	TierProficient Tier = "PROFICIENT"
	TierEmerging   Tier = "EMERGING"
)

var tierThresholds = []struct {
	tier      Tier
	minProfit float64
	minWin    float64
}{
	{TierElite, 100_000, 0.7},
	{TierAdvanced, 50_000, 0.6},
	{TierProficient, 25_000, 0.5},
}

func ClassifyTier(sessions []SessionSummary) Tier {
	return TierFor(PerformanceMetrics(sessions))
}

// TierFor picks the first tier whose profit and win-rate floors are both met.
func TierFor(m Metrics) Tier {
	for _, t := range tierThresholds {
		if m.TotalProfit >= t.minProfit && m.WinRate >= t.minWin {
			return t.tier
		}
	}
	return TierEmerging
}

// Rank orders tiers from EMERGING (0) to ELITE (3).
func (t Tier) Rank() int {
	switch t {
	case TierElite:
		return 3
	case TierAdvanced:
		return 2
	case TierProficient:
		return 1
	}
	return 0
}

func (t Tier) Emoji() string {
	switch t {
	case TierElite:
		return "🏆"
	case TierAdvanced:
		return "🥇"
	case TierProficient:
		return "🥈"
	}
	return "🌱"
}
