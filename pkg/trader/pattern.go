package trader

type Strategy string

const (
	StrategyUnknown  Strategy = "UNKNOWN"
	StrategyDipBuyer Strategy = "DIP_BUYER"
	StrategySwing    Strategy = "SWING_TRADER"
	StrategyDay      Strategy = "DAY_TRADER"
	StrategyPosition Strategy = "POSITION_TRADER"
)

// dipThreshold is the entry-time market move, in percent, that counts as buying a dip.
const dipThreshold = -5.0

type Pattern struct {
	PrimaryStrategy Strategy `json:"primary_strategy"`
	Confidence      float64  `json:"confidence"`
	AvgHoldDays     float64  `json:"avg_hold_days"`
}

// DetectPattern classifies the dominant strategy. Sessions without a market
// movement reading count as a 0% move.
func DetectPattern(sessions []SessionSummary) Pattern {
	if len(sessions) == 0 {
		return Pattern{PrimaryStrategy: StrategyUnknown}
	}

	var hold float64
	dips := 0
	for _, s := range sessions {
		hold += s.HoldDurationDays
		if s.MarketMovementAtEntry != nil && *s.MarketMovementAtEntry < dipThreshold {
			dips++
		}
	}
	n := float64(len(sessions))
	avgHold := hold / n
	dipRatio := float64(dips) / n

	switch {
	case dipRatio > 0.6:
		return Pattern{PrimaryStrategy: StrategyDipBuyer, Confidence: dipRatio, AvgHoldDays: avgHold}
	case avgHold >= 2 && avgHold <= 30:
		return Pattern{PrimaryStrategy: StrategySwing, Confidence: 0.8, AvgHoldDays: avgHold}
	case avgHold < 2:
		return Pattern{PrimaryStrategy: StrategyDay, Confidence: 0.7, AvgHoldDays: avgHold}
	}
	return Pattern{PrimaryStrategy: StrategyPosition, Confidence: 0.6, AvgHoldDays: avgHold}
}
