package tracker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/whale-tracker/pkg/config"
	"github.com/whale-tracker/pkg/whale"
)

// Correlate compares large EVM movements against large Solana movements in the
// discovery window. Each transfer of at least cfg.MinWhaleTxUSD counts once, by
// its sender.
func (t *Tracker) Correlate(ctx context.Context) (whale.Correlation, error) {
	if err := ctx.Err(); err != nil {
		return whale.Correlation{}, err
	}
	now := t.now()
	days := t.cfg.DiscoveryWindowDays
	if days <= 0 {
		days = 30
	}
	txs, err := t.store.GetTransactionsInWindow(now.AddDate(0, 0, -days).Unix(), now.Unix()+1)
	if err != nil {
		return whale.Correlation{}, fmt.Errorf("load window: %w", err)
	}

	var evm, sol []whale.ChainActivity
	for _, tx := range txs {
		if tx.ValueUSD < t.cfg.MinWhaleTxUSD {
			continue
		}
		a := whale.ChainActivity{Address: tx.FromAddress, Volume: tx.ValueUSD, Timestamp: tx.Timestamp}
		if tx.Chain == config.ChainSolana {
			sol = append(sol, a)
		} else {
			evm = append(evm, a)
		}
	}

	c := whale.FindCorrelations(evm, sol)
	log.Info().Int("evm", len(evm)).Int("solana", len(sol)).Int("time_matches", len(c.TimeMatches)).
		Int("volume_matches", len(c.VolumeMatches)).Float64("score", c.Score).Msg("🔗 Cross-chain correlation")
	return c, nil
}
