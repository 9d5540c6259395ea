package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Chain string

const (
	ChainSolana   Chain = "solana"
	ChainEthereum Chain = "ethereum"
	ChainBase     Chain = "base"
	ChainBSC      Chain = "bsc"
)

func AllEVMChains() []Chain {
	return []Chain{ChainEthereum, ChainBase, ChainBSC}
}

func AllChains() []Chain {
	return []Chain{ChainSolana, ChainEthereum, ChainBase, ChainBSC}
}

// ChainsForAddress returns the chains an address can live on, judged by its format.
func ChainsForAddress(address string) []Chain {
	if strings.HasPrefix(address, "0x") {
		return AllEVMChains()
	}
	return []Chain{ChainSolana}
}

type KnownWhale struct {
	Address string
	Chain   Chain
}

type Config struct {
	// Solana
	SolanaRPCURL  string
	SolscanAPIKey string

	// EVM RPCs (contract detection)
	EVMRPC map[Chain]string

	// Block Explorer API endpoints and keys
	ExplorerURLs map[Chain]string
	ExplorerKeys map[Chain]string

	// Price APIs
	CoinGeckoAPI   string
	DexScreenerAPI string
	PriceCacheTTL  time.Duration

	// Seed addresses for track/monitor
	KnownWhales []KnownWhale

	// Detection thresholds
	MinSessionVolumeUSD float64
	WhaleScoreThreshold float64
	MinTraderScore      float64
	MinWhaleTxUSD       float64
	DiscoveryWindowDays int

	// Fetch fan-out
	ScanWorkers int
	ExplorerRPS float64

	// Scheduling
	MonitorSchedule string

	// DB
	DBPath string

	// Outputs
	DashboardPort int
	ReportPath    string
	CSVLogPath    string

	// Telegram alerts
	TelegramBotToken string
	TelegramChatID   int64

	LogLevel zerolog.Level
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		SolanaRPCURL:  envOr("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		SolscanAPIKey: os.Getenv("SOLSCAN_API_KEY"),

		CoinGeckoAPI:   envOr("COINGECKO_API_URL", "https://api.coingecko.com/api/v3"),
		DexScreenerAPI: envOr("DEXSCREENER_API", "https://api.dexscreener.com"),
		PriceCacheTTL:  time.Duration(envInt("PRICE_CACHE_TTL", 60)) * time.Second,

		MinSessionVolumeUSD: envFloat("MIN_SESSION_VOLUME_USD", 100000),
		WhaleScoreThreshold: envFloat("WHALE_SCORE_THRESHOLD", 100),
		MinTraderScore:      envFloat("MIN_TRADER_SCORE", 400),
		MinWhaleTxUSD:       envFloat("MIN_WHALE_TX_USD", 100000),
		DiscoveryWindowDays: envInt("DISCOVERY_WINDOW_DAYS", 30),

		ScanWorkers: envInt("SCAN_WORKERS", 4),
		ExplorerRPS: envFloat("EXPLORER_RPS", 5),

		MonitorSchedule: envOr("MONITOR_SCHEDULE", "@every 30m"),

		DBPath:        envOr("DB_PATH", "whale_tracker.db"),
		DashboardPort: envInt("DASHBOARD_PORT", 8080),
		ReportPath:    envOr("REPORT_PATH", "whale_report.json"),
		CSVLogPath:    os.Getenv("CSV_LOG_PATH"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		LogLevel:         zerolog.InfoLevel,
	}

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if lvl, err := zerolog.ParseLevel(v); err == nil {
			cfg.LogLevel = lvl
		}
	}

	// EVM RPCs
	cfg.EVMRPC = map[Chain]string{
		ChainEthereum: envOr("ETH_RPC_URL", "https://eth.llamarpc.com"),
		ChainBase:     envOr("BASE_RPC_URL", "https://mainnet.base.org"),
		ChainBSC:      envOr("BSC_RPC_URL", "https://bsc-dataseed.binance.org"),
	}

	// Explorers
	cfg.ExplorerURLs = map[Chain]string{
		ChainEthereum: envOr("ETHERSCAN_API_URL", "https://api.etherscan.io/api"),
		ChainBase:     envOr("BASESCAN_API_URL", "https://api.basescan.org/api"),
		ChainBSC:      envOr("BSCSCAN_API_URL", "https://api.bscscan.com/api"),
	}
	cfg.ExplorerKeys = map[Chain]string{
		ChainEthereum: os.Getenv("ETHERSCAN_API_KEY"),
		ChainBase:     os.Getenv("BASESCAN_API_KEY"),
		ChainBSC:      os.Getenv("BSCSCAN_API_KEY"),
	}

	cfg.KnownWhales = ParseKnownWhales(os.Getenv("KNOWN_WHALES"))

	if cfg.ScanWorkers < 1 {
		cfg.ScanWorkers = 1
	}
	return cfg, nil
}

// ParseKnownWhales parses "addr:chain,addr" lists. Non-0x addresses without a chain
// are Solana; 0x addresses without one are left open for every EVM chain.
func ParseKnownWhales(s string) []KnownWhale {
	var out []KnownWhale
	for _, w := range splitTrim(s) {
		parts := strings.SplitN(w, ":", 2)
		kw := KnownWhale{Address: parts[0]}
		if len(parts) == 2 && parts[1] != "" {
			kw.Chain = Chain(parts[1])
		} else if chains := ChainsForAddress(kw.Address); len(chains) == 1 {
			kw.Chain = chains[0]
		}
		out = append(out, kw)
	}
	return out
}

func (c *Config) GetExplorerURL(chain Chain) string {
	return c.ExplorerURLs[chain]
}

func (c *Config) GetExplorerKey(chain Chain) string {
	return c.ExplorerKeys[chain]
}

func (c *Config) Validate() error {
	hasEVM := c.ExplorerKeys[ChainEthereum] != "" || c.ExplorerKeys[ChainBase] != "" || c.ExplorerKeys[ChainBSC] != ""
	hasSolana := c.SolanaRPCURL != ""
	if !hasEVM && !hasSolana {
		return fmt.Errorf("no chain access configured — need ETHERSCAN_API_KEY (EVM) or SOLANA_RPC_URL")
	}
	if c.TelegramBotToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN set without TELEGRAM_CHAT_ID")
	}
	return nil
}

// helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
