// Package whale turns raw transfers into per-address aggregates, scores them and
// filters out exchange and bot wallets.
package whale

import (
	"sort"

	"github.com/whale-tracker/pkg/config"
	"github.com/whale-tracker/pkg/db"
)

const secondsPerDay = 86400

// AddressMetrics is the running aggregate for one address. TotalVolume only grows
// as long as records carry non-negative USD values.
type AddressMetrics struct {
	Address          string              `json:"address"`
	TotalVolume      float64             `json:"total_volume"`
	TransactionCount int                 `json:"transaction_count"`
	Counterparts     map[string]struct{} `json:"-"`
	FirstSeen        int64               `json:"first_seen"`
	LastSeen         int64               `json:"last_seen"`
}

func (m *AddressMetrics) AvgTransactionSize() float64 {
	if m.TransactionCount == 0 {
		return 0
	}
	return m.TotalVolume / float64(m.TransactionCount)
}

func (m *AddressMetrics) UniqueCounterparts() int { return len(m.Counterparts) }

// TimeSpanDays is the number of whole days between the first and last observation.
func (m *AddressMetrics) TimeSpanDays() int {
	if m.LastSeen <= m.FirstSeen {
		return 0
	}
	return int((m.LastSeen - m.FirstSeen) / secondsPerDay)
}

// AvgHoldingDays approximates holding time as the mean gap between observed
// transfers. Addresses seen once report 0.
func (m *AddressMetrics) AvgHoldingDays() float64 {
	if m.TransactionCount < 2 || m.LastSeen <= m.FirstSeen {
		return 0
	}
	return float64(m.LastSeen-m.FirstSeen) / secondsPerDay / float64(m.TransactionCount-1)
}

// Aggregator folds transfers into AddressMetrics. It does not de-duplicate: callers
// pass each hash once.
type Aggregator struct {
	metrics map[string]*AddressMetrics
}

func NewAggregator() *Aggregator {
	return &Aggregator{metrics: map[string]*AddressMetrics{}}
}

// Update folds tx into the metrics of address. The counterparty is the other side
// of the transfer.
func (a *Aggregator) Update(address string, tx db.Transaction) {
	if address == "" {
		return
	}
	key := config.AddressKey(address)
	m, ok := a.metrics[key]
	if !ok {
		m = &AddressMetrics{Address: address, Counterparts: map[string]struct{}{}, FirstSeen: tx.Timestamp, LastSeen: tx.Timestamp}
		a.metrics[key] = m
	}
	m.TotalVolume += tx.ValueUSD
	m.TransactionCount++
	if cp := tx.Counterparty(address); cp != "" {
		m.Counterparts[config.AddressKey(cp)] = struct{}{}
	}
	if tx.Timestamp < m.FirstSeen {
		m.FirstSeen = tx.Timestamp
	}
	if tx.Timestamp > m.LastSeen {
		m.LastSeen = tx.Timestamp
	}
}

// Observe folds tx into both the sender and the receiver.
func (a *Aggregator) Observe(tx db.Transaction) {
	a.Update(tx.FromAddress, tx)
	if config.AddressKey(tx.ToAddress) != config.AddressKey(tx.FromAddress) {
		a.Update(tx.ToAddress, tx)
	}
}

func (a *Aggregator) Metrics(address string) (*AddressMetrics, bool) {
	m, ok := a.metrics[config.AddressKey(address)]
	return m, ok
}

// All returns every aggregate ordered by address.
func (a *Aggregator) All() []*AddressMetrics {
	out := make([]*AddressMetrics, 0, len(a.metrics))
	for _, m := range a.metrics {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return config.AddressKey(out[i].Address) < config.AddressKey(out[j].Address) })
	return out
}

func (a *Aggregator) Len() int { return len(a.metrics) }

// Reset drops all aggregates.
func (a *Aggregator) Reset() {
	a.metrics = map[string]*AddressMetrics{}
}
