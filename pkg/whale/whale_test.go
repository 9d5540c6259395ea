package whale

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whale-tracker/pkg/config"
	"github.com/whale-tracker/pkg/db"
)

func transfer(hash, from, to string, usd float64, ts int64) db.Transaction {
	return db.Transaction{
		Hash: hash, Chain: config.ChainEthereum, FromAddress: from, ToAddress: to,
		TokenSymbol: "ETH", ValueNative: usd / 3000, ValueUSD: usd, Timestamp: ts,
	}
}

func TestScoreSeparatesWhaleFromSmallWallet(t *testing.T) {
	high := Score(ScoreInput{TotalVolume: 10_000_000, TransactionCount: 100, AvgTransactionSize: 100_000, TimeSpanDays: 30, UniqueCounterparts: 50})
	low := Score(ScoreInput{TotalVolume: 50_000, TransactionCount: 5, AvgTransactionSize: 10_000, TimeSpanDays: 30, UniqueCounterparts: 2})

	assert.Equal(t, 290.0, high)
	assert.InDelta(t, 153.47, low, 0.001)
	assert.Greater(t, high, low)
}

func TestScoreEdgeCases(t *testing.T) {
	// no transactions: only the log10(1) volume term, which is zero
	assert.Equal(t, 0.0, Score(ScoreInput{}))

	// zero span is treated as one day
	a := Score(ScoreInput{TotalVolume: 1000, TransactionCount: 2, TimeSpanDays: 0, UniqueCounterparts: 1})
	b := Score(ScoreInput{TotalVolume: 1000, TransactionCount: 2, TimeSpanDays: 1, UniqueCounterparts: 1})
	assert.Equal(t, a, b)

	// consistency and diversity saturate at 100
	s := Score(ScoreInput{TotalVolume: 1e12, TransactionCount: 1, TimeSpanDays: 1, UniqueCounterparts: 10})
	assert.InDelta(t, 0.4*12*75+0.3*50+0.2*100+0.1*100, s, 0.001)
}

func TestFalsePositiveFilter(t *testing.T) {
	assert.True(t, IsFalsePositive(FilterInput{TransactionCount: 10000, UniqueCounterparts: 5000, AvgHoldingTimeDays: 0.1}))
	assert.False(t, IsFalsePositive(FilterInput{TransactionCount: 50, UniqueCounterparts: 20, AvgHoldingTimeDays: 7.5}))

	tests := []struct {
		name string
		in   FilterInput
		want string
	}{
		{"exchange", FilterInput{TransactionCount: 1001, UniqueCounterparts: 801, AvgHoldingTimeDays: 5}, RuleExchangeHotWallet},
		{"bot", FilterInput{TransactionCount: 101, UniqueCounterparts: 10, AvgHoldingTimeDays: 0.5}, RuleHotWalletOrBot},
		{"contract", FilterInput{TransactionCount: 10, UniqueCounterparts: 10, AvgHoldingTimeDays: 5, IsContract: true}, RuleContractFanout},
		{"ratio", FilterInput{TransactionCount: 60, UniqueCounterparts: 59, AvgHoldingTimeDays: 5}, RuleCounterpartRatio},
		{"boundary 100 txs", FilterInput{TransactionCount: 100, UniqueCounterparts: 10, AvgHoldingTimeDays: 0.5}, ""},
		{"boundary ratio 50 txs", FilterInput{TransactionCount: 50, UniqueCounterparts: 50, AvgHoldingTimeDays: 5}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FalsePositiveReason(tt.in))
		})
	}
}

func TestAggregatorFoldsTransfers(t *testing.T) {
	agg := NewAggregator()
	agg.Observe(transfer("0x1", "0xAA", "0xbb", 1000, 100))
	agg.Observe(transfer("0x2", "0xaa", "0xCC", 3000, 100+2*secondsPerDay))
	agg.Observe(transfer("0x3", "0xBB", "0xaa", 2000, 50))

	m, ok := agg.Metrics("0xaa")
	require.True(t, ok)
	assert.Equal(t, 3, m.TransactionCount)
	assert.Equal(t, 6000.0, m.TotalVolume)
	assert.Equal(t, 2000.0, m.AvgTransactionSize())
	assert.Equal(t, 2, m.UniqueCounterparts())
	assert.Equal(t, int64(50), m.FirstSeen)
	assert.Equal(t, int64(100+2*secondsPerDay), m.LastSeen)
	assert.Equal(t, 2, m.TimeSpanDays())

	assert.Equal(t, 3, agg.Len())
	agg.Reset()
	assert.Equal(t, 0, agg.Len())
	_, ok = agg.Metrics("0xaa")
	assert.False(t, ok)
}

func TestAggregatorKeepsSolanaCase(t *testing.T) {
	agg := NewAggregator()
	tx := transfer("sig", "AbCdEf", "aBcDeF", 10, 1)
	tx.Chain = config.ChainSolana
	agg.Observe(tx)
	assert.Equal(t, 2, agg.Len())
}

func TestDetectorStream(t *testing.T) {
	d := NewDetector(0)

	var txs []db.Transaction
	for i := 0; i < 5; i++ {
		txs = append(txs, transfer(fmt.Sprintf("0xw%d", i), "0xwhale", fmt.Sprintf("0xdest%d", i), 200_000, int64(1000+i)))
	}
	txs = append(txs,
		transfer("0xs1", "0xsmall", "0xdest0", 20, 1000),
		transfer("0xs2", "0xsmall", "0xdest1", 20, 1001),
		transfer("0xone", "0xsingle", "0xdest0", 5_000_000, 1000),
		db.Transaction{Hash: "bad", Chain: config.ChainEthereum},
	)

	got := d.Process(txs)
	require.Len(t, got, 1)
	assert.Equal(t, "0xwhale", got[0].Address)
	assert.Equal(t, 1.0, got[0].TimeSpanDays)
	assert.GreaterOrEqual(t, got[0].Score, DefaultScoreThreshold)

	// state accumulates across batches until Reset
	got = d.Process([]db.Transaction{transfer("0xone2", "0xsingle", "0xdest9", 5_000_000, 2000)})
	require.Len(t, got, 2)
	assert.GreaterOrEqual(t, got[0].Score, got[1].Score)

	d.Reset()
	assert.Empty(t, d.Process(nil))
}

func TestClassifySize(t *testing.T) {
	assert.Equal(t, SizeUltra, ClassifySize(1_000_000))
	assert.Equal(t, SizeMega, ClassifySize(999_999))
	assert.Equal(t, SizeMega, ClassifySize(500_000))
	assert.Equal(t, SizeLarge, ClassifySize(100_000))
	assert.Equal(t, SizeRegular, ClassifySize(99_999.99))
	assert.Equal(t, "🐋", SizeUltra.Emoji())
}

func TestFindCorrelations(t *testing.T) {
	evm := []ChainActivity{{Address: "0xA", Volume: 100_000, Timestamp: 0}}
	sol := []ChainActivity{
		{Address: "SolA", Volume: 90_000, Timestamp: 15 * 60},
		{Address: "SolB", Volume: 10_000, Timestamp: 31 * 60},
	}

	c := FindCorrelations(evm, sol)
	require.Len(t, c.TimeMatches, 1)
	assert.Equal(t, "SolA", c.TimeMatches[0].SolanaAddress)
	assert.Equal(t, 15.0, c.TimeMatches[0].MinutesApart)
	assert.InDelta(t, 0.5, c.TimeMatches[0].Strength, 1e-9)

	require.Len(t, c.VolumeMatches, 1)
	assert.Equal(t, 0.9, c.VolumeMatches[0].Ratio)
	assert.Equal(t, 200.0, c.Score)

	assert.Equal(t, 0.0, FindCorrelations(nil, sol).Score)
}
