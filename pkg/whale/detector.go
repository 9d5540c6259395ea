package whale

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/whale-tracker/pkg/db"
)

// Stream detection thresholds.
const (
	DefaultScoreThreshold = 100.0
	streamMinVolume       = 10_000.0
	streamMinTransactions = 2
	streamWindowDays      = 1.0
)

// Detector scores senders in a live transfer stream. Aggregates accumulate across
// Process calls until Reset.
type Detector struct {
	agg       *Aggregator
	threshold float64
}

func NewDetector(threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultScoreThreshold
	}
	return &Detector{agg: NewAggregator(), threshold: threshold}
}

// Process folds txs into the sender aggregates and returns the addresses whose score
// reaches the threshold, highest first. Malformed records are skipped.
func (d *Detector) Process(txs []db.Transaction) []Candidate {
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			log.Warn().Err(err).Str("hash", tx.Hash).Msg("⚠️  Skipping malformed transfer")
			continue
		}
		d.agg.Update(tx.FromAddress, tx)
	}

	var out []Candidate
	for _, m := range d.agg.All() {
		if m.TotalVolume <= streamMinVolume || m.TransactionCount < streamMinTransactions {
			continue
		}
		if reason := FalsePositiveReason(FilterInputFromMetrics(m, false)); reason != "" {
			log.Debug().Str("address", m.Address).Str("rule", reason).Msg("Dropped false positive")
			continue
		}
		in := FromMetrics(m)
		in.TimeSpanDays = streamWindowDays
		c := NewCandidate(m.Address, in)
		if c.Score >= d.threshold {
			out = append(out, c)
		}
	}
	SortCandidates(out)
	return out
}

// Aggregator exposes the running aggregates.
func (d *Detector) Aggregator() *Aggregator { return d.agg }

func (d *Detector) Reset() { d.agg.Reset() }

// SortCandidates orders by score descending, then address.
func SortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Score != cs[j].Score {
			return cs[i].Score > cs[j].Score
		}
		return cs[i].Address < cs[j].Address
	})
}
