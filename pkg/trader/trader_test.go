package trader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whale-tracker/pkg/config"
	"github.com/whale-tracker/pkg/db"
)

const wallet = "0xWallet"

func record(hash, symbol string, dir Direction, usd, native float64, ts int64) db.Transaction {
	tx := db.Transaction{
		Hash: hash, Chain: config.ChainEthereum, TokenSymbol: symbol,
		ValueUSD: usd, ValueNative: native, Timestamp: ts,
	}
	if dir == Sell {
		tx.FromAddress, tx.ToAddress = wallet, "0xdex"
	} else {
		tx.FromAddress, tx.ToAddress = "0xdex", wallet
	}
	return tx
}

func elite() []SessionSummary {
	return []SessionSummary{
		{ProfitLoss: 25000, Volume: 150000},
		{ProfitLoss: 50000, Volume: 200000},
		{ProfitLoss: 30000, Volume: 150000},
		{ProfitLoss: 75000, Volume: 250000},
		{ProfitLoss: -15000, Volume: 150000},
	}
}

func average() []SessionSummary {
	return []SessionSummary{
		{ProfitLoss: 10000, Volume: 120000},
		{ProfitLoss: -8000, Volume: 120000},
		{ProfitLoss: 15000, Volume: 120000},
		{ProfitLoss: -12000, Volume: 120000},
	}
}

func TestDirectionFor(t *testing.T) {
	assert.Equal(t, Sell, DirectionFor("0xwallet", db.Transaction{FromAddress: wallet}))
	assert.Equal(t, Buy, DirectionFor(wallet, db.Transaction{FromAddress: "0xother", ToAddress: wallet}))
	assert.Equal(t, "sell", Sell.String())

	sol := "So1anaWaLLet111"
	assert.Equal(t, Sell, DirectionFor(sol, db.Transaction{FromAddress: sol}))
	assert.Equal(t, Buy, DirectionFor(sol, db.Transaction{FromAddress: "so1anawallet111", ToAddress: sol}))
}

func TestGroupBuildsOneSessionPerToken(t *testing.T) {
	txs := Tag(wallet, []db.Transaction{
		record("1", "ETH", Sell, 200000, 60, 300),
		record("2", "ETH", Buy, 150000, 50, 100),
		record("3", "ETH", Buy, 50000, 20, 150), // below the floor
		record("4", "ETH", Buy, 120000, 40, 200),
		record("5", "UNI", Buy, 500000, 1000, 100),
		record("6", "PEPE", Sell, 300000, 1e9, 100),
	})

	sessions := NewSessionDetector(DefaultMinSessionVolumeUSD).Group(txs)
	require.Len(t, sessions, 1)

	s := sessions[0]
	assert.Equal(t, "ETH", s.TokenSymbol)
	require.Len(t, s.Entries, 2)
	require.Len(t, s.Exits, 1)
	assert.Equal(t, int64(100), s.EntryTimestamp)
	assert.Equal(t, int64(300), s.ExitTimestamp)
	assert.Equal(t, 270000.0, s.TotalInvested)
	assert.Equal(t, 200000.0, s.TotalReceived)
	assert.Equal(t, 90.0, s.VolumeNative)
	assert.Equal(t, -70000.0, s.ProfitLoss())
	assert.False(t, s.IsProfitable())
}

func TestGroupBuyOnlyTokenHasNoSession(t *testing.T) {
	txs := Tag(wallet, []db.Transaction{
		record("1", "UNI", Buy, 5_000_000, 1, 100),
		record("2", "UNI", Buy, 9_000_000, 1, 200),
	})
	assert.Empty(t, NewSessionDetector(0).Group(txs))
}

func TestGroupFloorRemovesWholeToken(t *testing.T) {
	txs := Tag(wallet, []db.Transaction{
		record("1", "ETH", Buy, 99_999, 1, 100),
		record("2", "ETH", Sell, 150_000, 1, 200),
	})
	assert.Empty(t, NewSessionDetector(DefaultMinSessionVolumeUSD).Group(txs))
}

func TestGroupInvestedMatchesQualifyingBuys(t *testing.T) {
	records := []db.Transaction{
		record("a", "ETH", Buy, 110000, 1, 10),
		record("b", "ETH", Buy, 130000, 1, 20),
		record("c", "ETH", Sell, 400000, 1, 30),
		record("d", "SOL", Buy, 250000, 1, 40),
		record("e", "SOL", Sell, 100000, 1, 50),
		record("f", "SOL", Buy, 90000, 1, 60),
		record("g", "ARB", Buy, 700000, 1, 70),
	}
	sessions := NewSessionDetector(DefaultMinSessionVolumeUSD).Group(Tag(wallet, records))
	require.Len(t, sessions, 2)
	assert.Equal(t, "ETH", sessions[0].TokenSymbol)
	assert.Equal(t, "SOL", sessions[1].TokenSymbol)

	var invested float64
	for _, s := range sessions {
		invested += s.TotalInvested
	}
	assert.Equal(t, 110000.0+130000+250000, invested)
}

func TestSessionDerivedFields(t *testing.T) {
	start := int64(1_700_000_000)
	s := Session{TotalInvested: 100, TotalReceived: 100, EntryTimestamp: start, ExitTimestamp: start + 3*86400 + 5*3600}
	assert.Equal(t, 0.0, s.ProfitLoss())
	assert.False(t, s.IsProfitable(), "break-even is not profitable")
	assert.Equal(t, 3, s.HoldDurationDays())

	s.TotalReceived = 150
	assert.Equal(t, 50.0, s.ProfitPercentage())
	assert.True(t, s.IsProfitable())

	empty := Session{TotalReceived: 10}
	assert.Equal(t, 0.0, empty.ProfitPercentage())
	assert.Equal(t, 0, empty.HoldDurationDays())
}

type fakePrices struct {
	prices map[int64]float64
	err    error
}

func (f fakePrices) PriceAt(_ context.Context, _ config.Chain, _ string, ts int64) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.prices[ts], nil
}

func TestApplyHistoricalPrices(t *testing.T) {
	ctx := context.Background()
	s := Session{TokenSymbol: "WETH", TokenAddress: "0xc02a", VolumeNative: 10, EntryTimestamp: 100, ExitTimestamp: 200, TotalInvested: 1, TotalReceived: 1}

	require.NoError(t, s.ApplyHistoricalPrices(ctx, fakePrices{prices: map[int64]float64{100: 2000, 200: 2500}}))
	assert.Equal(t, 20000.0, s.TotalInvested)
	assert.Equal(t, 25000.0, s.TotalReceived)
	assert.Equal(t, 2000.0, s.EntryPrice)

	native := Session{TokenSymbol: "ETH", VolumeNative: 10, EntryTimestamp: 100, ExitTimestamp: 200, TotalInvested: 7}
	require.NoError(t, native.ApplyHistoricalPrices(ctx, fakePrices{err: errors.New("unused")}))
	assert.Equal(t, 7.0, native.TotalInvested)

	failing := s
	assert.Error(t, failing.ApplyHistoricalPrices(ctx, fakePrices{err: errors.New("rate limited")}))
	assert.Equal(t, 20000.0, failing.TotalInvested)
}

func TestPerformanceMetrics(t *testing.T) {
	m := PerformanceMetrics(elite())
	assert.Equal(t, 0.8, m.WinRate)
	assert.Equal(t, 165000.0, m.TotalProfit)
	assert.Equal(t, 33000.0, m.AvgProfitPerTrade)
	assert.Equal(t, 900000.0, m.TotalVolume)
	assert.Equal(t, TierElite, ClassifyTier(elite()))

	m = PerformanceMetrics(average())
	assert.Equal(t, 0.5, m.WinRate)
	assert.Equal(t, 5000.0, m.TotalProfit)
	assert.Equal(t, TierEmerging, ClassifyTier(average()))

	assert.Equal(t, Metrics{}, PerformanceMetrics(nil))
	assert.Equal(t, TierEmerging, ClassifyTier(nil))
}

func TestTraderScore(t *testing.T) {
	e := TraderScore(elite())
	a := TraderScore(average())

	assert.Equal(t, 920.0, e)
	assert.InDelta(t, 466.67, a, 0.01)
	assert.Greater(t, e, a)
	assert.Equal(t, 0.0, TraderScore(nil))

	huge := []SessionSummary{{ProfitLoss: 1e9, Volume: 1e9}, {ProfitLoss: 1e9, Volume: 1e9}, {ProfitLoss: 1e9, Volume: 1e9}, {ProfitLoss: 1e9, Volume: 1e9}}
	assert.Equal(t, MaxTraderScore, TraderScore(huge))

	losing := []SessionSummary{{ProfitLoss: -300000, Volume: 0}}
	assert.Equal(t, -1000.0+25, TraderScore(losing))
}

func TestTierMonotonicInProfit(t *testing.T) {
	for _, wr := range []float64{0.4, 0.5, 0.65, 0.75, 1.0} {
		prev := -1
		for profit := 0.0; profit <= 200_000; profit += 5_000 {
			rank := TierFor(Metrics{WinRate: wr, TotalProfit: profit}).Rank()
			assert.GreaterOrEqual(t, rank, prev, "win rate %.2f profit %.0f", wr, profit)
			prev = rank
		}
	}
	assert.Equal(t, TierAdvanced, TierFor(Metrics{WinRate: 0.6, TotalProfit: 50_000}))
	assert.Equal(t, TierProficient, TierFor(Metrics{WinRate: 0.65, TotalProfit: 49_999}))
}

func TestDetectPattern(t *testing.T) {
	dip := -8.0
	flat := 1.0

	p := DetectPattern([]SessionSummary{
		{HoldDurationDays: 1, MarketMovementAtEntry: &dip},
		{HoldDurationDays: 1, MarketMovementAtEntry: &dip},
		{HoldDurationDays: 1, MarketMovementAtEntry: &dip},
		{HoldDurationDays: 1, MarketMovementAtEntry: &flat},
	})
	assert.Equal(t, StrategyDipBuyer, p.PrimaryStrategy)
	assert.Equal(t, 0.75, p.Confidence)

	tests := []struct {
		hold []float64
		want Strategy
		conf float64
	}{
		{[]float64{2, 30}, StrategySwing, 0.8},
		{[]float64{0, 1}, StrategyDay, 0.7},
		{[]float64{40, 60}, StrategyPosition, 0.6},
	}
	for _, tt := range tests {
		var ss []SessionSummary
		for _, h := range tt.hold {
			ss = append(ss, SessionSummary{HoldDurationDays: h})
		}
		p := DetectPattern(ss)
		assert.Equal(t, tt.want, p.PrimaryStrategy)
		assert.Equal(t, tt.conf, p.Confidence)
	}

	assert.Equal(t, Pattern{PrimaryStrategy: StrategyUnknown}, DetectPattern(nil))
}
