// Package price resolves USD prices: live quotes from DexScreener and historical
// points from CoinGecko.
package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/whale-tracker/pkg/config"
)

var ErrNoPrice = errors.New("no price available")

// Wrapped native tokens, used to quote native transfers on DexScreener.
var wrappedNative = map[config.Chain]string{
	config.ChainSolana:   "So11111111111111111111111111111111111111112",
	config.ChainEthereum: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
	config.ChainBase:     "0x4200000000000000000000000000000000000006",
	config.ChainBSC:      "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c",
}

// CoinGecko asset platforms and native coin ids.
var (
	geckoPlatform = map[config.Chain]string{
		config.ChainSolana:   "solana",
		config.ChainEthereum: "ethereum",
		config.ChainBase:     "base",
		config.ChainBSC:      "binance-smart-chain",
	}
	geckoNative = map[config.Chain]string{
		config.ChainSolana:   "solana",
		config.ChainEthereum: "ethereum",
		config.ChainBase:     "ethereum",
		config.ChainBSC:      "binancecoin",
	}
)

const (
	historyTTL    = 24 * time.Hour
	historySlack  = time.Hour
	geckoInterval = 2 * time.Second
)

type Oracle struct {
	client      *http.Client
	coingecko   string
	dexscreener string
	limiter     *rate.Limiter
	live        *Cache
	history     *Cache
}

func NewOracle(cfg *config.Config) *Oracle {
	ttl := cfg.PriceCacheTTL
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Oracle{
		client:      &http.Client{Timeout: 30 * time.Second},
		coingecko:   strings.TrimRight(cfg.CoinGeckoAPI, "/"),
		dexscreener: strings.TrimRight(cfg.DexScreenerAPI, "/"),
		limiter:     rate.NewLimiter(rate.Every(geckoInterval), 1),
		live:        NewCache(ttl),
		history:     NewCache(historyTTL),
	}
}

// Reset drops both caches.
func (o *Oracle) Reset() {
	o.live.Reset()
	o.history.Reset()
}

// Current returns the live USD price of a token, or of the chain's native coin when
// tokenAddress is empty. The most liquid DexScreener pair wins.
func (o *Oracle) Current(ctx context.Context, chain config.Chain, tokenAddress string) (float64, error) {
	if tokenAddress == "" {
		tokenAddress = wrappedNative[chain]
	}
	if tokenAddress == "" {
		return 0, fmt.Errorf("%w: unknown chain %s", ErrNoPrice, chain)
	}
	key := string(chain) + ":" + config.AddressKey(tokenAddress)
	if p, ok := o.live.Get(key); ok {
		return p, nil
	}

	body, err := o.getJSON(ctx, fmt.Sprintf("%s/latest/dex/tokens/%s", o.dexscreener, tokenAddress))
	if err != nil {
		return 0, err
	}

	var result struct {
		Pairs []struct {
			PriceUSD  string `json:"priceUsd"`
			ChainID   string `json:"chainId"`
			Liquidity struct {
				USD float64 `json:"usd"`
			} `json:"liquidity"`
		} `json:"pairs"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("decode dexscreener: %w", err)
	}

	best, bestLiq := 0.0, -1.0
	for _, p := range result.Pairs {
		if p.ChainID != "" && p.ChainID != string(chain) {
			continue
		}
		if price, _ := strconv.ParseFloat(p.PriceUSD, 64); price > 0 && p.Liquidity.USD > bestLiq {
			best, bestLiq = price, p.Liquidity.USD
		}
	}
	if best <= 0 {
		return 0, fmt.Errorf("%w: %s on %s", ErrNoPrice, tokenAddress, chain)
	}
	o.live.Set(key, best)
	return best, nil
}

// Native returns the native coin price, falling back to a fixed estimate when the
// API is down.
func (o *Oracle) Native(ctx context.Context, chain config.Chain) float64 {
	p, err := o.Current(ctx, chain, "")
	if err != nil {
		log.Warn().Err(err).Str("chain", string(chain)).Msg("⚠️  Live price unavailable, using fallback")
		return FallbackPrice(chain)
	}
	return p
}

// USDValue converts an amount to USD. Native amounts use Native; token amounts
// return 0 when no quote exists.
func (o *Oracle) USDValue(ctx context.Context, chain config.Chain, tokenAddress string, amount float64) float64 {
	if amount == 0 {
		return 0
	}
	if tokenAddress == "" {
		return amount * o.Native(ctx, chain)
	}
	p, err := o.Current(ctx, chain, tokenAddress)
	if err != nil {
		log.Debug().Err(err).Str("token", tokenAddress).Msg("No token quote")
		return 0
	}
	return amount * p
}

// PriceAt returns the CoinGecko price point nearest ts. An empty tokenAddress
// prices the native coin.
func (o *Oracle) PriceAt(ctx context.Context, chain config.Chain, tokenAddress string, ts int64) (float64, error) {
	var path string
	if tokenAddress == "" {
		id, ok := geckoNative[chain]
		if !ok {
			return 0, fmt.Errorf("%w: unknown chain %s", ErrNoPrice, chain)
		}
		path = "/coins/" + id
	} else {
		platform, ok := geckoPlatform[chain]
		if !ok {
			return 0, fmt.Errorf("%w: unknown chain %s", ErrNoPrice, chain)
		}
		path = fmt.Sprintf("/coins/%s/contract/%s", platform, strings.ToLower(tokenAddress))
	}

	hour := ts / 3600
	key := fmt.Sprintf("%s:%s:%d", chain, config.AddressKey(tokenAddress), hour)
	if p, ok := o.history.Get(key); ok {
		return p, nil
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	slack := int64(historySlack.Seconds())
	url := fmt.Sprintf("%s%s/market_chart/range?vs_currency=usd&from=%d&to=%d", o.coingecko, path, ts-slack, ts+slack)
	body, err := o.getJSON(ctx, url)
	if err != nil {
		return 0, err
	}

	var chart struct {
		Prices [][2]float64 `json:"prices"`
	}
	if err := json.Unmarshal(body, &chart); err != nil {
		return 0, fmt.Errorf("decode coingecko: %w", err)
	}

	target := float64(ts * 1000)
	best, bestDist := 0.0, math.Inf(1)
	for _, pt := range chart.Prices {
		if d := math.Abs(pt[0] - target); pt[1] > 0 && d < bestDist {
			best, bestDist = pt[1], d
		}
	}
	if best <= 0 {
		return 0, fmt.Errorf("%w: %s at %d", ErrNoPrice, path, ts)
	}
	o.history.Set(key, best)
	return best, nil
}

// MovementAt is the percentage change over the day before ts.
func (o *Oracle) MovementAt(ctx context.Context, chain config.Chain, tokenAddress string, ts int64) (float64, error) {
	before, err := o.PriceAt(ctx, chain, tokenAddress, ts-86400)
	if err != nil {
		return 0, err
	}
	at, err := o.PriceAt(ctx, chain, tokenAddress, ts)
	if err != nil {
		return 0, err
	}
	return (at - before) / before * 100, nil
}

func (o *Oracle) getJSON(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
}

// FallbackPrice is a conservative estimate used when live quotes fail.
func FallbackPrice(chain config.Chain) float64 {
	switch chain {
	case config.ChainSolana:
		return 150.0
	case config.ChainBSC:
		return 300.0
	default:
		return 2500.0
	}
}
