package db

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whale-tracker/pkg/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTx(hash, from, to string, usd float64, ts int64) Transaction {
	return Transaction{
		Hash: hash, Chain: config.ChainEthereum, FromAddress: from, ToAddress: to,
		TokenSymbol: "WETH", TokenAddress: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		ValueNative: usd / 3000, ValueUSD: usd, Timestamp: ts, WhaleCategory: "LARGE WHALE",
	}
}

func TestInsertTransactionIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	tx := sampleTx("0xabc", "0xA", "0xB", 150000, 1700000000)

	inserted, err := s.InsertTransaction(tx)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.InsertTransaction(tx)
	require.NoError(t, err)
	assert.False(t, inserted, "duplicate hash must be a no-op")

	txs, err := s.GetTransactionsForAddress("0xa")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "0xabc", txs[0].Hash)
	assert.Equal(t, config.ChainEthereum, txs[0].Chain)

	rels, err := s.GetAddressNetwork("0xA", 1)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, 1, rels[0].InteractionCount, "relationship counted once per unique hash")
}

func TestInsertTransactionRejectsMalformed(t *testing.T) {
	s := newTestStore(t)

	cases := map[string]Transaction{
		"no hash":    sampleTx("", "0xA", "0xB", 1, 1),
		"no address": sampleTx("0x1", "", "0xB", 1, 1),
		"nan value":  sampleTx("0x2", "0xA", "0xB", math.NaN(), 1),
		"no time":    sampleTx("0x3", "0xA", "0xB", 1, 0),
	}
	for name, tx := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.InsertTransaction(tx)
			assert.ErrorIs(t, err, ErrInvalidTransaction)
		})
	}
}

func TestTransactionsOrderedAndWindowed(t *testing.T) {
	s := newTestStore(t)
	for _, tx := range []Transaction{
		sampleTx("0x3", "0xA", "0xC", 3, 300),
		sampleTx("0x1", "0xB", "0xA", 1, 100),
		sampleTx("0x2", "0xA", "0xB", 2, 200),
	} {
		_, err := s.InsertTransaction(tx)
		require.NoError(t, err)
	}

	txs, err := s.GetTransactionsForAddress("0xA")
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, []string{"0x1", "0x2", "0x3"}, []string{txs[0].Hash, txs[1].Hash, txs[2].Hash})

	window, err := s.GetTransactionsInWindow(150, 300)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "0x2", window[0].Hash)

	recent, err := s.GetRecentTransactions(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "0x3", recent[0].Hash)
}

func TestWhaleUpsertAndTopN(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpsertWhale(WhaleAddress{Address: "0xA", Chain: config.ChainEthereum, FirstSeen: 100, LastSeen: 200, WhaleScore: 150, Label: "fund"}))
	require.NoError(t, s.UpsertWhale(WhaleAddress{Address: "0xB", Chain: config.ChainEthereum, WhaleScore: 300}))
	require.NoError(t, s.UpsertWhale(WhaleAddress{Address: "0xC", Chain: config.ChainEthereum, WhaleScore: 900, IsFalsePositive: true}))

	// re-scoring keeps the widest span and the existing label
	require.NoError(t, s.UpsertWhale(WhaleAddress{Address: "0xA", Chain: config.ChainEthereum, FirstSeen: 150, LastSeen: 400, WhaleScore: 500}))

	w, err := s.GetWhale("0xa")
	require.NoError(t, err)
	assert.Equal(t, int64(100), w.FirstSeen)
	assert.Equal(t, int64(400), w.LastSeen)
	assert.Equal(t, 500.0, w.WhaleScore)
	assert.Equal(t, "fund", w.Label)

	top, err := s.GetTopWhales(10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "0xA", top[0].Address)
	assert.Equal(t, "0xB", top[1].Address)

	addrs, err := s.GetAllWhaleAddresses()
	require.NoError(t, err)
	assert.Equal(t, []string{"0xA", "0xB"}, addrs)

	_, err = s.GetWhale("0xmissing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTraderSnapshotOverwrites(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveTrader(ProfitableTrader{WalletAddress: "0xA", TotalProfit: 1000, ProfitabilityScore: 450, Tier: "EMERGING", TradingStrategy: "DAY_TRADER"}))
	require.NoError(t, s.SaveTrader(ProfitableTrader{WalletAddress: "0xA", TotalProfit: 200000, ProfitabilityScore: 920, Tier: "ELITE", TradingStrategy: "SWING_TRADER", LastAnalyzed: time.Now()}))
	require.NoError(t, s.SaveTrader(ProfitableTrader{WalletAddress: "0xB", ProfitabilityScore: 500, Tier: "EMERGING"}))

	p, err := s.GetTrader("0xA")
	require.NoError(t, err)
	assert.Equal(t, "ELITE", p.Tier)
	assert.Equal(t, 200000.0, p.TotalProfit)
	assert.Equal(t, "[]", p.Sessions)

	top, err := s.GetTopTraders(10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "0xA", top[0].WalletAddress)

	stats, err := s.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats["profitable_traders"])
	assert.Equal(t, int64(1), stats["elite_traders"])
}

func TestDailyStats(t *testing.T) {
	s := newTestStore(t)
	day := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Unix()
	for _, tx := range []Transaction{
		sampleTx("0x1", "0xA", "0xB", 100, day),
		sampleTx("0x2", "0xA", "0xC", 300, day+60),
		sampleTx("0x3", "0xA", "0xB", 999, day+86400),
	} {
		_, err := s.InsertTransaction(tx)
		require.NoError(t, err)
	}

	stats, err := s.DailyStats("2024-03-01")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].TransactionCount)
	assert.Equal(t, 400.0, stats[0].TotalVolumeUSD)
	assert.Equal(t, 200.0, stats[0].AvgTransactionSize)
	assert.Equal(t, 3, stats[0].UniqueAddresses)
}

func TestSolanaAddressesAreCaseSensitive(t *testing.T) {
	s := newTestStore(t)
	tx := sampleTx("sig1", "So1anaAbC111", "So1anaDeF222", 200000, 1700000000)
	tx.Chain = config.ChainSolana
	_, err := s.InsertTransaction(tx)
	require.NoError(t, err)

	txs, err := s.GetTransactionsForAddress("So1anaAbC111")
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	txs, err = s.GetTransactionsForAddress("so1anaabc111")
	require.NoError(t, err)
	assert.Empty(t, txs)

	rels, err := s.GetAddressNetwork("So1anaAbC111", 1)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "So1anaDeF222", rels[0].ToAddress)

	require.NoError(t, s.UpsertWhale(WhaleAddress{Address: "So1anaAbC111", Chain: config.ChainSolana, WhaleScore: 200}))
	_, err = s.GetWhale("so1anaabc111")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertTransactionRollsBackOnRelationshipFailure(t *testing.T) {
	s := newTestStore(t)
	_, err := s.db.Exec(`DROP TABLE address_relationships`)
	require.NoError(t, err)

	tx := sampleTx("0xabc", "0xA", "0xB", 150000, 1700000000)
	inserted, err := s.InsertTransaction(tx)
	require.Error(t, err)
	assert.False(t, inserted)

	txs, err := s.GetTransactionsForAddress("0xA")
	require.NoError(t, err)
	assert.Empty(t, txs, "transfer row must not outlive a failed relationship update")

	_, err = s.db.Exec(schema)
	require.NoError(t, err)
	inserted, err = s.InsertTransaction(tx)
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestWatchedSurvivesUpserts(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpsertWhale(WhaleAddress{Address: "0xmanual", Chain: config.ChainEthereum, Label: "desk", Watched: true}))
	require.NoError(t, s.UpsertWhale(WhaleAddress{Address: "0xmanual", Chain: config.ChainEthereum, WhaleScore: 120}))
	require.NoError(t, s.UpsertWhale(WhaleAddress{Address: "0xother", Chain: config.ChainEthereum, WhaleScore: 900}))

	watched, err := s.GetWatchedWhales()
	require.NoError(t, err)
	require.Len(t, watched, 1)
	assert.Equal(t, "0xmanual", watched[0].Address)
	assert.Equal(t, "desk", watched[0].Label)
	assert.Equal(t, 120.0, watched[0].WhaleScore)
}

func TestNewStoreMigratesOlderSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	_, err = s.db.Exec(`ALTER TABLE whale_addresses DROP COLUMN watched`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.UpsertWhale(WhaleAddress{Address: "0xa", Chain: config.ChainEthereum, Watched: true}))
	watched, err := s.GetWatchedWhales()
	require.NoError(t, err)
	assert.Len(t, watched, 1)
}
