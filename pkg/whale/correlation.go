package whale

import (
	"math"
	"time"
)

const (
	correlationWindow   = 30 * time.Minute
	volumeSimilarityMin = 0.8
)

// ChainActivity is one large movement attributed to an address on some chain.
type ChainActivity struct {
	Address   string  `json:"address"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"timestamp"`
}

type TimeMatch struct {
	EVMAddress    string  `json:"evm_address"`
	SolanaAddress string  `json:"solana_address"`
	MinutesApart  float64 `json:"minutes_apart"`
	Strength      float64 `json:"strength"`
}

type VolumeMatch struct {
	EVMAddress    string  `json:"evm_address"`
	SolanaAddress string  `json:"solana_address"`
	EVMVolume     float64 `json:"evm_volume"`
	SolanaVolume  float64 `json:"solana_volume"`
	Ratio         float64 `json:"ratio"`
}

// Correlation links activity on an EVM chain with activity on Solana. Score is the
// number of matches per comparable pair times 100 and may exceed 100 when one
// movement matches several on the other side.
type Correlation struct {
	Score         float64       `json:"correlation_score"`
	TimeMatches   []TimeMatch   `json:"time_correlations"`
	VolumeMatches []VolumeMatch `json:"volume_correlations"`
}

// FindCorrelations pairs every EVM movement with every Solana movement and records
// those within 30 minutes of each other and those whose volumes are within 20%.
func FindCorrelations(evm, sol []ChainActivity) Correlation {
	var c Correlation
	window := correlationWindow.Minutes()

	for _, e := range evm {
		for _, s := range sol {
			diff := math.Abs(float64(e.Timestamp-s.Timestamp)) / 60
			if diff <= window {
				c.TimeMatches = append(c.TimeMatches, TimeMatch{
					EVMAddress:    e.Address,
					SolanaAddress: s.Address,
					MinutesApart:  round(diff, 2),
					Strength:      math.Max(0, (window-diff)/window),
				})
			}

			if e.Volume > 0 && s.Volume > 0 {
				ratio := math.Min(e.Volume, s.Volume) / math.Max(e.Volume, s.Volume)
				if ratio >= volumeSimilarityMin {
					c.VolumeMatches = append(c.VolumeMatches, VolumeMatch{
						EVMAddress:    e.Address,
						SolanaAddress: s.Address,
						EVMVolume:     e.Volume,
						SolanaVolume:  s.Volume,
						Ratio:         round(ratio, 3),
					})
				}
			}
		}
	}

	if possible := min(len(evm), len(sol)); possible > 0 {
		c.Score = float64(len(c.TimeMatches)+len(c.VolumeMatches)) / float64(possible) * 100
	}
	return c
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
