package tracker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/whale-tracker/pkg/config"
	"github.com/whale-tracker/pkg/db"
	"github.com/whale-tracker/pkg/report"
	"github.com/whale-tracker/pkg/whale"
)

// Discover scores every address seen in the discovery window, stores those above
// the whale threshold and returns the ones that are not false positives, best first.
func (t *Tracker) Discover(ctx context.Context) ([]whale.Candidate, error) {
	now := t.now()
	days := t.cfg.DiscoveryWindowDays
	if days <= 0 {
		days = 30
	}
	txs, err := t.store.GetTransactionsInWindow(now.AddDate(0, 0, -days).Unix(), now.Unix()+1)
	if err != nil {
		return nil, fmt.Errorf("load window: %w", err)
	}

	agg := whale.NewAggregator()
	chains := make(map[string]config.Chain)
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			log.Warn().Err(err).Msg("⚠️  Skipping malformed transfer")
			continue
		}
		agg.Observe(tx)
		for _, addr := range []string{tx.FromAddress, tx.ToAddress} {
			if _, ok := chains[config.AddressKey(addr)]; !ok {
				chains[config.AddressKey(addr)] = tx.Chain
			}
		}
	}
	log.Info().Int("transfers", len(txs)).Int("addresses", agg.Len()).Int("days", days).Msg("🔎 Discovering whales")

	threshold := t.cfg.WhaleScoreThreshold
	if threshold <= 0 {
		threshold = whale.DefaultScoreThreshold
	}

	var out []whale.Candidate
	var falsePositives int
	for _, m := range agg.All() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if config.IsExchangeAddress(m.Address) {
			continue
		}
		c := whale.NewCandidate(m.Address, whale.FromMetrics(m))
		if c.Score < threshold {
			continue
		}

		chain := chains[config.AddressKey(m.Address)]
		isContract, err := t.scanner.IsContract(ctx, m.Address, chain)
		if err != nil {
			log.Debug().Err(err).Str("address", m.Address).Msg("Contract check unavailable")
		}
		reason := whale.FalsePositiveReason(whale.FilterInputFromMetrics(m, isContract))

		row := db.WhaleAddress{
			Address:            m.Address,
			Chain:              chain,
			FirstSeen:          m.FirstSeen,
			LastSeen:           m.LastSeen,
			TotalVolumeUSD:     m.TotalVolume,
			TransactionCount:   m.TransactionCount,
			AvgTransactionSize: m.AvgTransactionSize(),
			UniqueCounterparts: m.UniqueCounterparts(),
			WhaleScore:         c.Score,
			IsFalsePositive:    reason != "",
		}
		if info := config.LookupAddress(m.Address); info.Type != config.AddressUnknown {
			row.Label = info.Label
		}
		if err := t.store.UpsertWhale(row); err != nil {
			log.Error().Err(err).Str("address", m.Address).Msg("❌ Saving whale failed")
		}

		if reason != "" {
			falsePositives++
			log.Debug().Str("address", m.Address).Str("rule", reason).Msg("Dropped false positive")
			continue
		}
		out = append(out, c)
	}

	whale.SortCandidates(out)
	log.Info().Int("whales", len(out)).Int("false_positives", falsePositives).Msg("🐋 Discovery complete")
	report.PrintCandidates(t.out, out)
	return out, nil
}
