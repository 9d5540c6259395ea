// Package report serializes the current whale and trader state to JSON and prints
// console tables.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/whale-tracker/pkg/db"
)

const topWhalesInReport = 20

// Source is the read side of the store a report needs.
type Source interface {
	GetTopWhales(limit int) ([]db.WhaleAddress, error)
	GetTopTraders(limit int) ([]db.ProfitableTrader, error)
	DailyStats(date string) ([]db.DailyStat, error)
	GetAddressNetwork(address string, minInteractions int) ([]db.Relationship, error)
	GetStats() (map[string]int64, error)
}

type Summary struct {
	TotalWhalesTracked int              `json:"total_whales_tracked"`
	TotalTraders       int              `json:"total_traders"`
	DailyStats         []db.DailyStat   `json:"daily_stats"`
	Counts             map[string]int64 `json:"counts"`
}

type Report struct {
	GeneratedAt     time.Time             `json:"generated_at"`
	Summary         Summary               `json:"summary"`
	TopWhales       []db.WhaleAddress     `json:"top_whales"`
	TopTraders      []db.ProfitableTrader `json:"top_traders"`
	NetworkAnalysis []db.Relationship     `json:"network_analysis"`
}

// Build collects the top limit whales and traders, today's per-chain stats and the
// counterparty network of the highest scoring whale.
func Build(src Source, limit int, now time.Time) (*Report, error) {
	whales, err := src.GetTopWhales(limit)
	if err != nil {
		return nil, fmt.Errorf("top whales: %w", err)
	}
	traders, err := src.GetTopTraders(limit)
	if err != nil {
		return nil, fmt.Errorf("top traders: %w", err)
	}
	daily, err := src.DailyStats(now.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}
	counts, err := src.GetStats()
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	r := &Report{
		GeneratedAt: now.UTC(),
		Summary: Summary{
			TotalWhalesTracked: len(whales),
			TotalTraders:       len(traders),
			DailyStats:         daily,
			Counts:             counts,
		},
		TopWhales:  whales,
		TopTraders: traders,
	}
	if len(r.TopWhales) > topWhalesInReport {
		r.TopWhales = r.TopWhales[:topWhalesInReport]
	}
	if len(whales) > 0 {
		network, err := src.GetAddressNetwork(whales[0].Address, 1)
		if err != nil {
			return nil, fmt.Errorf("network for %s: %w", whales[0].Address, err)
		}
		r.NetworkAnalysis = network
	}
	return r, nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
