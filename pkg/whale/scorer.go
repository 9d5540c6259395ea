package whale

import "math"

// Weights of the whale score components. They sum to 1.0.
const (
	volumeWeight      = 0.4
	frequencyWeight   = 0.3
	consistencyWeight = 0.2
	diversityWeight   = 0.1
)

type ScoreInput struct {
	TotalVolume        float64 `json:"total_volume"`
	TransactionCount   int     `json:"transaction_count"`
	AvgTransactionSize float64 `json:"avg_transaction_size"`
	TimeSpanDays       float64 `json:"time_span_days"`
	UniqueCounterparts int     `json:"unique_counterparts"`
}

// FromMetrics builds a score input from an aggregate using its observed span.
func FromMetrics(m *AddressMetrics) ScoreInput {
	return ScoreInput{
		TotalVolume:        m.TotalVolume,
		TransactionCount:   m.TransactionCount,
		AvgTransactionSize: m.AvgTransactionSize(),
		TimeSpanDays:       float64(m.TimeSpanDays()),
		UniqueCounterparts: m.UniqueCounterparts(),
	}
}

// Candidate is a scored address. It is recomputed on demand and never stored as-is.
type Candidate struct {
	Address            string  `json:"address"`
	Score              float64 `json:"score"`
	TotalVolume        float64 `json:"total_volume"`
	TransactionCount   int     `json:"transaction_count"`
	AvgTransactionSize float64 `json:"avg_transaction_size"`
	TimeSpanDays       float64 `json:"time_span_days"`
	UniqueCounterparts int     `json:"unique_counterparts"`
}

func NewCandidate(address string, in ScoreInput) Candidate {
	return Candidate{
		Address:            address,
		Score:              Score(in),
		TotalVolume:        in.TotalVolume,
		TransactionCount:   in.TransactionCount,
		AvgTransactionSize: in.AvgTransactionSize,
		TimeSpanDays:       in.TimeSpanDays,
		UniqueCounterparts: in.UniqueCounterparts,
	}
}

// Score is the weighted whale score, rounded to 2 decimals. It has no upper bound
// and is a different scale from the 0-1000 trader score.
func Score(in ScoreInput) float64 {
	n := float64(in.TransactionCount)

	volume := math.Log10(math.Max(in.TotalVolume, 1)) * 75
	frequency := (n / math.Max(in.TimeSpanDays, 1)) * 50

	consistency := 0.0
	if in.TransactionCount > 0 {
		consistency = math.Min((in.TotalVolume/n)/1000, 100)
	}

	diversity := math.Min(float64(in.UniqueCounterparts)/math.Max(n, 1)*200, 100)

	final := volume*volumeWeight + frequency*frequencyWeight + consistency*consistencyWeight + diversity*diversityWeight
	return math.Round(final*100) / 100
}
