package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/whale-tracker/pkg/config"
	"github.com/whale-tracker/pkg/dashboard"
	"github.com/whale-tracker/pkg/db"
	"github.com/whale-tracker/pkg/notify"
	"github.com/whale-tracker/pkg/price"
	"github.com/whale-tracker/pkg/scanner"
	"github.com/whale-tracker/pkg/tracker"
	"github.com/whale-tracker/pkg/trader"
	"github.com/whale-tracker/pkg/tui"
)

const usage = `whale tracker

usage: tracker <command> [flags]

commands:
  discover    score addresses seen in stored transfers and save whales
  track       fetch new transfers for seed and stored whales
  analyze     profile whales as traders and save the profitable ones
  correlate   look for matching EVM and Solana movements
  report      write the JSON report and print summary tables
  monitor     track + discover on MONITOR_SCHEDULE until interrupted
  dashboard   serve the web dashboard
  watch       live terminal view
  setup       write .env.example
`

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" || os.Args[1] == "help" {
		fmt.Print(usage)
		return
	}
	verb, args := os.Args[1], os.Args[2:]

	if verb == "setup" {
		if err := writeEnvExample(".env.example"); err != nil {
			log.Fatal().Err(err).Msg("setup failed")
		}
		log.Info().Msg("📝 wrote .env.example, copy it to .env and fill in your keys")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	fs := flag.NewFlagSet(verb, flag.ContinueOnError)
	limit := fs.Int("limit", 50, "number of whales / traders to show")
	out := fs.String("out", cfg.ReportPath, "report output path")
	refresh := fs.Duration("refresh", 15*time.Second, "watch refresh interval")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	switch verb {
	case "track", "monitor":
		if err := cfg.Validate(); err != nil {
			log.Fatal().Err(err).Msg("config invalid")
		}
	case "discover", "analyze", "correlate", "report", "dashboard", "watch":
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", verb, usage)
		os.Exit(2)
	}

	store, err := db.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}
	defer store.Close()

	oracle := price.NewOracle(cfg)
	sc := scanner.New(cfg, store, oracle)
	defer sc.Close()
	an := trader.NewAnalyzer(store,
		trader.WithPrices(oracle),
		trader.WithMinVolume(cfg.MinSessionVolumeUSD),
		trader.WithMinScore(cfg.MinTraderScore),
	)
	tr := tracker.New(cfg, store, sc, an, tracker.WithNotifier(buildNotifier(cfg)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch verb {
	case "discover":
		cands, err := tr.Discover(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("discover failed")
		}
		log.Info().Int("whales", len(cands)).Msg("✅ discovery done")

	case "track":
		sum, err := tr.Track(ctx, nil)
		if err != nil {
			log.Fatal().Err(err).Msg("track failed")
		}
		log.Info().Int("inserted", sum.Inserted).Int("failed", sum.Failed).Msg("✅ tracking done")

	case "analyze":
		if _, _, err := tr.Analyze(ctx, *limit); err != nil {
			log.Fatal().Err(err).Msg("analyze failed")
		}

	case "correlate":
		c, err := tr.Correlate(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("correlate failed")
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(c); err != nil {
			log.Fatal().Err(err).Msg("writing correlation failed")
		}

	case "report":
		if _, err := tr.Report(ctx, *out, *limit); err != nil {
			log.Fatal().Err(err).Msg("report failed")
		}

	case "monitor":
		printSummary(cfg, store)
		dash := dashboard.New(store, cfg.DashboardPort)
		go func() {
			if err := dash.Run(ctx); !isShutdown(err) {
				log.Error().Err(err).Msg("dashboard error")
			}
		}()
		if err := tr.Monitor(ctx); !isShutdown(err) {
			log.Error().Err(err).Msg("monitor error")
		}

	case "dashboard":
		printSummary(cfg, store)
		if err := dashboard.New(store, cfg.DashboardPort).Run(ctx); !isShutdown(err) {
			log.Fatal().Err(err).Msg("dashboard failed")
		}

	case "watch":
		if err := tui.Run(ctx, store, *refresh); !isShutdown(err) {
			log.Fatal().Err(err).Msg("watch failed")
		}
	}
	log.Info().Msg("goodbye 👋")
}

// isShutdown reports whether err is nil or only the result of an interrupt.
func isShutdown(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	var ns notify.Multi
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️  Telegram alerts disabled")
		} else {
			ns = append(ns, tg)
		}
	}
	if cfg.CSVLogPath != "" {
		ns = append(ns, notify.NewCSVLog(cfg.CSVLogPath))
	}
	if len(ns) == 0 {
		return nil
	}
	return ns
}

func printSummary(cfg *config.Config, store *db.Store) {
	stats, _ := store.GetStats()
	fmt.Println("\n" + strings.Repeat("═", 60))
	fmt.Println("  🐋 WHALE TRACKER - RUNNING")
	fmt.Println(strings.Repeat("═", 60))
	fmt.Printf("  Seeds:     %d known whales\n", len(cfg.KnownWhales))
	fmt.Printf("  Chains:    Solana, Ethereum, Base, BSC\n")
	fmt.Printf("  Schedule:  %s\n", cfg.MonitorSchedule)
	fmt.Printf("  Dashboard: http://localhost:%d\n", cfg.DashboardPort)
	alerts := "❌ Disabled (set TELEGRAM_BOT_TOKEN or CSV_LOG_PATH)"
	switch {
	case cfg.TelegramBotToken != "" && cfg.CSVLogPath != "":
		alerts = "✅ Telegram + CSV"
	case cfg.TelegramBotToken != "":
		alerts = "✅ Telegram"
	case cfg.CSVLogPath != "":
		alerts = "✅ CSV " + cfg.CSVLogPath
	}
	fmt.Printf("  Alerts:    %s\n", alerts)
	if stats != nil {
		fmt.Printf("  DB: %d txs, %d whales, %d traders\n", stats["transactions"], stats["whale_addresses"], stats["profitable_traders"])
	}
	fmt.Println(strings.Repeat("═", 60) + "\n")
}

const envExample = `# Storage
DB_PATH=whale_tracker.db

# EVM explorers (at least one key, or a Solana RPC, is required)
ETHERSCAN_API_KEY=
BASESCAN_API_KEY=
BSCSCAN_API_KEY=

# RPC endpoints (contract detection + Solana history)
ETH_RPC_URL=https://eth.llamarpc.com
BASE_RPC_URL=https://mainnet.base.org
BSC_RPC_URL=https://bsc-dataseed.binance.org
SOLANA_RPC_URL=https://api.mainnet-beta.solana.com

# Prices
COINGECKO_API_URL=https://api.coingecko.com/api/v3
DEXSCREENER_API=https://api.dexscreener.com
PRICE_CACHE_TTL=60

# Seed whales: address[:chain], comma separated
KNOWN_WHALES=0x28c6c06298d514db089934071355e5743bf21d60:ethereum,0x21a31ee1afc51d94c2efccaa2092ad1028285549:ethereum

# Thresholds
MIN_SESSION_VOLUME_USD=100000
WHALE_SCORE_THRESHOLD=100
MIN_TRADER_SCORE=400
MIN_WHALE_TX_USD=100000
DISCOVERY_WINDOW_DAYS=30

# Fetching
SCAN_WORKERS=4
EXPLORER_RPS=5
MONITOR_SCHEDULE=@every 30m

# Outputs
DASHBOARD_PORT=8080
REPORT_PATH=whale_report.json
CSV_LOG_PATH=

# Telegram alerts
TELEGRAM_BOT_TOKEN=
TELEGRAM_CHAT_ID=

LOG_LEVEL=info
`

func writeEnvExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	return os.WriteFile(path, []byte(envExample), 0o644)
}
