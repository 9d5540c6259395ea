// Package scanner pulls wallet transfers from block explorers and chain RPCs and
// turns them into stored transactions.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/whale-tracker/pkg/config"
	"github.com/whale-tracker/pkg/db"
)

var ErrNoExplorer = errors.New("no explorer configured")

// Prices converts native and token amounts to USD.
type Prices interface {
	Native(ctx context.Context, chain config.Chain) float64
	USDValue(ctx context.Context, chain config.Chain, tokenAddress string, amount float64) float64
}

// Store persists fetched transfers; duplicate hashes are no-ops.
type Store interface {
	InsertTransaction(tx db.Transaction) (bool, error)
}

type Scanner struct {
	cfg       *config.Config
	store     Store
	prices    Prices
	client    *http.Client
	limiter   *rate.Limiter
	contracts *ContractChecker
	solana    solanaRPC
}

func New(cfg *config.Config, store Store, prices Prices) *Scanner {
	rps := cfg.ExplorerRPS
	if rps <= 0 {
		rps = 5
	}
	s := &Scanner{
		cfg:       cfg,
		store:     store,
		prices:    prices,
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		contracts: NewContractChecker(cfg.EVMRPC),
	}
	if cfg.SolanaRPCURL != "" {
		s.solana = newSolanaClient(cfg.SolanaRPCURL)
	}
	return s
}

// FetchWallet returns the recent transfers of address on chain.
func (s *Scanner) FetchWallet(ctx context.Context, address string, chain config.Chain) ([]db.Transaction, error) {
	if chain == config.ChainSolana {
		return s.fetchSolana(ctx, address)
	}
	return s.fetchEVM(ctx, address, chain)
}

// TrackWallet fetches and stores the wallet's transfers, returning the ones that were
// new. Malformed records are logged and skipped.
func (s *Scanner) TrackWallet(ctx context.Context, address string, chain config.Chain) ([]db.Transaction, error) {
	txs, err := s.FetchWallet(ctx, address, chain)
	if err != nil {
		return nil, err
	}
	var fresh []db.Transaction
	for _, tx := range txs {
		ok, err := s.store.InsertTransaction(tx)
		if errors.Is(err, db.ErrInvalidTransaction) {
			log.Debug().Err(err).Msg("Skipping malformed transfer")
			continue
		}
		if err != nil {
			return fresh, err
		}
		if ok {
			fresh = append(fresh, tx)
		}
	}
	return fresh, nil
}

// Target is one wallet on one chain.
type Target struct {
	Address string       `json:"address"`
	Chain   config.Chain `json:"chain"`
}

// TargetsFor expands known whales into targets; EVM addresses without an explicit
// chain are tried on every EVM chain with an explorer key.
func TargetsFor(cfg *config.Config, whales []config.KnownWhale) []Target {
	var out []Target
	for _, w := range whales {
		if w.Chain != "" {
			out = append(out, Target{Address: w.Address, Chain: w.Chain})
			continue
		}
		for _, c := range config.ChainsForAddress(w.Address) {
			if c == config.ChainSolana || cfg.GetExplorerKey(c) != "" {
				out = append(out, Target{Address: w.Address, Chain: c})
			}
		}
	}
	return out
}

// Result is the outcome of tracking one target.
type Result struct {
	Target   Target           `json:"target"`
	Inserted int              `json:"inserted"`
	New      []db.Transaction `json:"-"`
	Err      error            `json:"-"`
}

// TrackAll tracks every target with at most cfg.ScanWorkers in flight. A failing
// target is recorded in its Result and does not cancel the others.
func (s *Scanner) TrackAll(ctx context.Context, targets []Target) []Result {
	results := make([]Result, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.ScanWorkers, 1))

	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			fresh, err := s.TrackWallet(ctx, t.Address, t.Chain)
			results[i] = Result{Target: t, Inserted: len(fresh), New: fresh, Err: err}
			if err != nil {
				log.Warn().Err(err).Str("address", t.Address).Str("chain", string(t.Chain)).Msg("⚠️  Track failed")
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// IsContract reports whether address holds code. Solana addresses are never
// contracts here.
func (s *Scanner) IsContract(ctx context.Context, address string, chain config.Chain) (bool, error) {
	if chain == config.ChainSolana {
		return false, nil
	}
	return s.contracts.IsContract(ctx, chain, address)
}

// Close releases RPC connections.
func (s *Scanner) Close() {
	s.contracts.Close()
}

func (s *Scanner) getJSON(ctx context.Context, url string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 10<<20)) // 10MB max
}
