package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/whale-tracker/pkg/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    hash TEXT UNIQUE NOT NULL,
    chain TEXT NOT NULL,
    from_address TEXT NOT NULL,
    to_address TEXT NOT NULL,
    token_symbol TEXT NOT NULL,
    token_address TEXT,
    value_native REAL NOT NULL,
    value_usd REAL NOT NULL,
    timestamp INTEGER NOT NULL,
    whale_category TEXT NOT NULL DEFAULT '',
    gas_used INTEGER DEFAULT 0,
    gas_price INTEGER DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS whale_addresses (
    address TEXT PRIMARY KEY,
    chain TEXT NOT NULL DEFAULT 'ethereum',
    first_seen INTEGER,
    last_seen INTEGER,
    total_volume_usd REAL DEFAULT 0,
    transaction_count INTEGER DEFAULT 0,
    avg_transaction_size REAL DEFAULT 0,
    unique_counterparts INTEGER DEFAULT 0,
    whale_score REAL DEFAULT 0,
    label TEXT DEFAULT '',
    is_false_positive BOOLEAN DEFAULT FALSE,
    watched BOOLEAN DEFAULT FALSE,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS profitable_traders (
    wallet_address TEXT PRIMARY KEY,
    total_profit REAL,
    win_rate REAL,
    trade_count INTEGER,
    avg_profit_per_trade REAL,
    total_volume REAL,
    profitability_score REAL,
    tier TEXT,
    trading_strategy TEXT,
    strategy_confidence REAL,
    sessions TEXT DEFAULT '[]',
    last_analyzed TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS address_relationships (
    from_address TEXT,
    to_address TEXT,
    interaction_count INTEGER DEFAULT 1,
    total_volume_usd REAL DEFAULT 0,
    last_interaction INTEGER,
    PRIMARY KEY (from_address, to_address)
);

CREATE INDEX IF NOT EXISTS idx_tx_from ON transactions(from_address);
CREATE INDEX IF NOT EXISTS idx_tx_to ON transactions(to_address);
CREATE INDEX IF NOT EXISTS idx_tx_from_lower ON transactions(lower(from_address));
CREATE INDEX IF NOT EXISTS idx_tx_to_lower ON transactions(lower(to_address));
CREATE INDEX IF NOT EXISTS idx_tx_time ON transactions(timestamp);
CREATE INDEX IF NOT EXISTS idx_tx_chain ON transactions(chain);
CREATE INDEX IF NOT EXISTS idx_whale_score ON whale_addresses(whale_score);
CREATE INDEX IF NOT EXISTS idx_trader_score ON profitable_traders(profitability_score);
`

// Columns added after the first schema. ALTER fails with a duplicate column error
// on databases that already have them, which is ignored.
var migrations = []string{
	`ALTER TABLE whale_addresses ADD COLUMN watched BOOLEAN DEFAULT FALSE`,
}

type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	for _, m := range migrations {
		db.Exec(m)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ---- Transactions ----

const txColumns = `id, hash, chain, from_address, to_address, token_symbol, COALESCE(token_address,''),
	value_native, value_usd, timestamp, whale_category, COALESCE(gas_used,0), COALESCE(gas_price,0), created_at`

// InsertTransaction writes tx unless its hash is already stored. It reports whether
// a new row was written.
func (s *Store) InsertTransaction(tx Transaction) (bool, error) {
	if err := tx.Validate(); err != nil {
		return false, err
	}
	dbtx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer dbtx.Rollback()

	res, err := dbtx.Exec(`
		INSERT OR IGNORE INTO transactions
		(hash, chain, from_address, to_address, token_symbol, token_address, value_native, value_usd,
		 timestamp, whale_category, gas_used, gas_price)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		tx.Hash, string(tx.Chain), tx.FromAddress, tx.ToAddress, tx.TokenSymbol, nullable(tx.TokenAddress),
		tx.ValueNative, tx.ValueUSD, tx.Timestamp, tx.WhaleCategory, tx.GasUsed, tx.GasPrice)
	if err != nil {
		return false, fmt.Errorf("insert tx %s: %w", tx.Hash, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}

	if _, err := dbtx.Exec(`
		INSERT INTO address_relationships (from_address, to_address, interaction_count, total_volume_usd, last_interaction)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(from_address, to_address) DO UPDATE SET
			interaction_count = interaction_count + 1,
			total_volume_usd = total_volume_usd + excluded.total_volume_usd,
			last_interaction = MAX(last_interaction, excluded.last_interaction)`,
		config.AddressKey(tx.FromAddress), config.AddressKey(tx.ToAddress), tx.ValueUSD, tx.Timestamp); err != nil {
		return false, fmt.Errorf("update relationship: %w", err)
	}
	if err := dbtx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx %s: %w", tx.Hash, err)
	}
	return true, nil
}

// GetTransactionsForAddress returns every transfer touching address, oldest first.
func (s *Store) GetTransactionsForAddress(address string) ([]Transaction, error) {
	from, key := addressColumn("from_address", address)
	to, _ := addressColumn("to_address", address)
	return s.queryTransactions(`SELECT `+txColumns+` FROM transactions
		WHERE `+from+`=? OR `+to+`=?
		ORDER BY timestamp ASC, id ASC`, key, key)
}

// GetTransactionsInWindow returns transfers with from <= timestamp < to, oldest first.
func (s *Store) GetTransactionsInWindow(from, to int64) ([]Transaction, error) {
	return s.queryTransactions(`SELECT `+txColumns+` FROM transactions
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC, id ASC`, from, to)
}

func (s *Store) GetRecentTransactions(limit int) ([]Transaction, error) {
	return s.queryTransactions(`SELECT `+txColumns+` FROM transactions
		ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
}

func (s *Store) queryTransactions(query string, args ...interface{}) ([]Transaction, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		var chain string
		if err := rows.Scan(&t.ID, &t.Hash, &chain, &t.FromAddress, &t.ToAddress, &t.TokenSymbol, &t.TokenAddress,
			&t.ValueNative, &t.ValueUSD, &t.Timestamp, &t.WhaleCategory, &t.GasUsed, &t.GasPrice, &t.CreatedAt); err != nil {
			continue
		}
		t.Chain = config.Chain(chain)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// ---- Whale Addresses ----

func (s *Store) UpsertWhale(w WhaleAddress) error {
	_, err := s.db.Exec(`
		INSERT INTO whale_addresses
		(address, chain, first_seen, last_seen, total_volume_usd, transaction_count, avg_transaction_size,
		 unique_counterparts, whale_score, label, is_false_positive, watched, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(address) DO UPDATE SET
			chain=excluded.chain,
			first_seen=MIN(whale_addresses.first_seen, excluded.first_seen),
			last_seen=MAX(whale_addresses.last_seen, excluded.last_seen),
			total_volume_usd=excluded.total_volume_usd,
			transaction_count=excluded.transaction_count,
			avg_transaction_size=excluded.avg_transaction_size,
			unique_counterparts=excluded.unique_counterparts,
			whale_score=excluded.whale_score,
			label=CASE WHEN excluded.label != '' THEN excluded.label ELSE whale_addresses.label END,
			is_false_positive=excluded.is_false_positive,
			watched=whale_addresses.watched OR excluded.watched,
			updated_at=CURRENT_TIMESTAMP`,
		w.Address, string(w.Chain), w.FirstSeen, w.LastSeen, w.TotalVolumeUSD, w.TransactionCount,
		w.AvgTransactionSize, w.UniqueCounterparts, w.WhaleScore, w.Label, w.IsFalsePositive, w.Watched)
	if err != nil {
		return fmt.Errorf("upsert whale %s: %w", w.Address, err)
	}
	return nil
}

const whaleColumns = `address, chain, COALESCE(first_seen,0), COALESCE(last_seen,0), total_volume_usd, transaction_count,
	avg_transaction_size, unique_counterparts, whale_score, COALESCE(label,''), is_false_positive, COALESCE(watched,FALSE), updated_at`

func (s *Store) GetWhale(address string) (*WhaleAddress, error) {
	col, key := addressColumn("address", address)
	row := s.db.QueryRow(`SELECT `+whaleColumns+` FROM whale_addresses WHERE `+col+`=?`, key)
	w, err := scanWhale(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return w, err
}

// GetTopWhales returns the highest scoring whales, false positives excluded.
func (s *Store) GetTopWhales(limit int) ([]WhaleAddress, error) {
	return s.queryWhales(`SELECT `+whaleColumns+` FROM whale_addresses
		WHERE is_false_positive = FALSE
		ORDER BY whale_score DESC LIMIT ?`, limit)
}

func (s *Store) queryWhales(query string, args ...interface{}) ([]WhaleAddress, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var whales []WhaleAddress
	for rows.Next() {
		w, err := scanWhale(rows)
		if err != nil {
			continue
		}
		whales = append(whales, *w)
	}
	return whales, rows.Err()
}

// GetWatchedWhales returns every address added by hand, whatever its score.
func (s *Store) GetWatchedWhales() ([]WhaleAddress, error) {
	return s.queryWhales(`SELECT `+whaleColumns+` FROM whale_addresses
		WHERE watched = TRUE ORDER BY updated_at ASC`)
}

func (s *Store) GetAllWhaleAddresses() ([]string, error) {
	rows, err := s.db.Query(`SELECT address FROM whale_addresses WHERE is_false_positive = FALSE ORDER BY whale_score DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addrs []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			continue
		}
		addrs = append(addrs, a)
	}
	return addrs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWhale(r rowScanner) (*WhaleAddress, error) {
	var w WhaleAddress
	var chain string
	if err := r.Scan(&w.Address, &chain, &w.FirstSeen, &w.LastSeen, &w.TotalVolumeUSD, &w.TransactionCount,
		&w.AvgTransactionSize, &w.UniqueCounterparts, &w.WhaleScore, &w.Label, &w.IsFalsePositive, &w.Watched, &w.UpdatedAt); err != nil {
		return nil, err
	}
	w.Chain = config.Chain(chain)
	return &w, nil
}

// ---- Profitable Traders ----

// SaveTrader replaces the snapshot for the wallet.
func (s *Store) SaveTrader(p ProfitableTrader) error {
	if p.LastAnalyzed.IsZero() {
		p.LastAnalyzed = time.Now().UTC()
	}
	if p.Sessions == "" {
		p.Sessions = "[]"
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO profitable_traders
		(wallet_address, total_profit, win_rate, trade_count, avg_profit_per_trade, total_volume,
		 profitability_score, tier, trading_strategy, strategy_confidence, sessions, last_analyzed)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.WalletAddress, p.TotalProfit, p.WinRate, p.TradeCount, p.AvgProfitPerTrade, p.TotalVolume,
		p.ProfitabilityScore, p.Tier, p.TradingStrategy, p.StrategyConfidence, p.Sessions, p.LastAnalyzed)
	if err != nil {
		return fmt.Errorf("save trader %s: %w", p.WalletAddress, err)
	}
	return nil
}

const traderColumns = `wallet_address, total_profit, win_rate, trade_count, avg_profit_per_trade, COALESCE(total_volume,0),
	profitability_score, tier, trading_strategy, COALESCE(strategy_confidence,0), COALESCE(sessions,'[]'), last_analyzed`

func (s *Store) GetTrader(wallet string) (*ProfitableTrader, error) {
	col, key := addressColumn("wallet_address", wallet)
	row := s.db.QueryRow(`SELECT `+traderColumns+` FROM profitable_traders WHERE `+col+`=?`, key)
	p, err := scanTrader(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *Store) GetTopTraders(limit int) ([]ProfitableTrader, error) {
	rows, err := s.db.Query(`SELECT `+traderColumns+` FROM profitable_traders
		ORDER BY profitability_score DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var traders []ProfitableTrader
	for rows.Next() {
		p, err := scanTrader(rows)
		if err != nil {
			continue
		}
		traders = append(traders, *p)
	}
	return traders, rows.Err()
}

func scanTrader(r rowScanner) (*ProfitableTrader, error) {
	var p ProfitableTrader
	if err := r.Scan(&p.WalletAddress, &p.TotalProfit, &p.WinRate, &p.TradeCount, &p.AvgProfitPerTrade, &p.TotalVolume,
		&p.ProfitabilityScore, &p.Tier, &p.TradingStrategy, &p.StrategyConfidence, &p.Sessions, &p.LastAnalyzed); err != nil {
		return nil, err
	}
	return &p, nil
}

// ---- Relationships ----

// GetAddressNetwork returns the counterparties of address with at least
// minInteractions transfers, largest volume first.
func (s *Store) GetAddressNetwork(address string, minInteractions int) ([]Relationship, error) {
	addr := config.AddressKey(address)
	rows, err := s.db.Query(`
		SELECT from_address, to_address, interaction_count, total_volume_usd, COALESCE(last_interaction,0)
		FROM address_relationships
		WHERE (from_address=? OR to_address=?) AND interaction_count >= ?
		ORDER BY total_volume_usd DESC`, addr, addr, minInteractions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []Relationship
	for rows.Next() {
		var r Relationship
		if err := rows.Scan(&r.FromAddress, &r.ToAddress, &r.InteractionCount, &r.TotalVolumeUSD, &r.LastInteraction); err != nil {
			continue
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// ---- Stats ----

// DailyStats aggregates transfers per chain for a UTC date (YYYY-MM-DD).
func (s *Store) DailyStats(date string) ([]DailyStat, error) {
	rows, err := s.db.Query(`
		SELECT chain, COUNT(*), COALESCE(SUM(value_usd),0)
		FROM transactions WHERE date(timestamp, 'unixepoch') = ?
		GROUP BY chain ORDER BY chain`, date)
	if err != nil {
		return nil, err
	}

	var stats []DailyStat
	for rows.Next() {
		st := DailyStat{Date: date}
		var chain string
		if err := rows.Scan(&chain, &st.TransactionCount, &st.TotalVolumeUSD); err != nil {
			continue
		}
		st.Chain = config.Chain(chain)
		if st.TransactionCount > 0 {
			st.AvgTransactionSize = st.TotalVolumeUSD / float64(st.TransactionCount)
		}
		stats = append(stats, st)
	}
	rows.Close()

	for i := range stats {
		s.db.QueryRow(`
			SELECT COUNT(DISTINCT a) FROM (
				SELECT `+foldedAddress("from_address")+` AS a FROM transactions WHERE chain=? AND date(timestamp, 'unixepoch')=?
				UNION
				SELECT `+foldedAddress("to_address")+` FROM transactions WHERE chain=? AND date(timestamp, 'unixepoch')=?
			)`, string(stats[i].Chain), date, string(stats[i].Chain), date).Scan(&stats[i].UniqueAddresses)
	}
	return stats, nil
}

func (s *Store) GetStats() (map[string]int64, error) {
	stats := map[string]int64{}
	tables := []string{"transactions", "whale_addresses", "profitable_traders", "address_relationships"}

	for _, t := range tables {
		var count int64
		if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&count); err == nil {
			stats[t] = count
		}
	}

	var fp int64
	s.db.QueryRow("SELECT COUNT(*) FROM whale_addresses WHERE is_false_positive = TRUE").Scan(&fp)
	stats["false_positives"] = fp

	var elite int64
	s.db.QueryRow("SELECT COUNT(*) FROM profitable_traders WHERE tier = 'ELITE'").Scan(&elite)
	stats["elite_traders"] = elite

	return stats, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// addressColumn returns the column expression and argument that match address:
// case-folded for EVM hex, exact for Solana base58.
func addressColumn(column, address string) (string, string) {
	if config.IsEVMAddress(address) {
		return "lower(" + column + ")", config.AddressKey(address)
	}
	return column, address
}

func foldedAddress(column string) string {
	return "CASE WHEN " + column + " LIKE '0x%' THEN lower(" + column + ") ELSE " + column + " END"
}
