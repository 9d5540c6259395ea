package whale

import "math"

type FilterInput struct {
	TransactionCount   int     `json:"transaction_count"`
	UniqueCounterparts int     `json:"unique_counterparts"`
	AvgHoldingTimeDays float64 `json:"avg_holding_time_days"`
	IsContract         bool    `json:"is_contract"`
}

// False positive rules. These are best-effort heuristics: they catch most exchange
// hot wallets and bots and will misjudge some real whales.
const (
	RuleExchangeHotWallet = "exchange_hot_wallet"
	RuleHotWalletOrBot    = "short_holding_high_frequency"
	RuleContractFanout    = "contract_counterpart_ratio"
	RuleCounterpartRatio  = "unrealistic_counterpart_ratio"
)

// FalsePositiveReason returns the first rule that marks in as an exchange, bot or
// contract address, or "" when none apply.
func FalsePositiveReason(in FilterInput) string {
	ratio := float64(in.UniqueCounterparts) / math.Max(float64(in.TransactionCount), 1)

	switch {
	case in.TransactionCount > 1000 && in.UniqueCounterparts > 800:
		return RuleExchangeHotWallet
	case in.AvgHoldingTimeDays < 1.0 && in.TransactionCount > 100:
		return RuleHotWalletOrBot
	case in.IsContract && ratio > 0.9:
		return RuleContractFanout
	case ratio > 0.95 && in.TransactionCount > 50:
		return RuleCounterpartRatio
	}
	return ""
}

func IsFalsePositive(in FilterInput) bool {
	return FalsePositiveReason(in) != ""
}

// FilterInputFromMetrics derives filter input from an aggregate. Contract status
// comes from the caller since it needs a chain lookup.
func FilterInputFromMetrics(m *AddressMetrics, isContract bool) FilterInput {
	return FilterInput{
		TransactionCount:   m.TransactionCount,
		UniqueCounterparts: m.UniqueCounterparts(),
		AvgHoldingTimeDays: m.AvgHoldingDays(),
		IsContract:         isContract,
	}
}
