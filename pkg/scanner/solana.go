package scanner

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"

	"github.com/whale-tracker/pkg/config"
	"github.com/whale-tracker/pkg/db"
	"github.com/whale-tracker/pkg/whale"
)

// ── Solana ──────────────────────────────────────────────────

const (
	lamportsPerSOL   = 1e9
	solSignaturePage = 100
)

type solanaRPC interface {
	GetSignaturesForAddressWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error)
	GetTransaction(ctx context.Context, txSig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
}

func newSolanaClient(endpoint string) solanaRPC {
	return rpc.New(endpoint)
}

// fetchSolana reads native SOL movements from the wallet's recent signatures.
func (s *Scanner) fetchSolana(ctx context.Context, address string) ([]db.Transaction, error) {
	if s.solana == nil {
		return nil, fmt.Errorf("no Solana RPC configured")
	}
	wallet, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid Solana address %q: %w", address, err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	limit := solSignaturePage
	sigs, err := s.solana.GetSignaturesForAddressWithOpts(ctx, wallet, &rpc.GetSignaturesForAddressOpts{Limit: &limit})
	if err != nil {
		return nil, fmt.Errorf("getSignaturesForAddress: %w", err)
	}

	solPrice := s.prices.Native(ctx, config.ChainSolana)
	maxVersion := uint64(0)
	var out []db.Transaction

	for _, sig := range sigs {
		if sig.Err != nil {
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return out, err
		}
		res, err := s.solana.GetTransaction(ctx, sig.Signature, &rpc.GetTransactionOpts{
			Encoding:                       solana.EncodingBase64,
			MaxSupportedTransactionVersion: &maxVersion,
		})
		if err != nil {
			log.Debug().Err(err).Str("sig", sig.Signature.String()).Msg("getTransaction failed")
			continue
		}
		if res == nil || res.Meta == nil || res.Meta.Err != nil || res.Transaction == nil {
			continue
		}
		tx, err := res.Transaction.GetTransaction()
		if err != nil {
			continue
		}

		mv, ok := nativeMovement(wallet, tx.Message.AccountKeys, res.Meta.PreBalances, res.Meta.PostBalances, res.Meta.Fee)
		if !ok {
			continue
		}

		var ts int64
		if res.BlockTime != nil {
			ts = int64(*res.BlockTime)
		} else if sig.BlockTime != nil {
			ts = int64(*sig.BlockTime)
		}

		value := float64(mv.lamports) / lamportsPerSOL
		usd := value * solPrice
		out = append(out, db.Transaction{
			Hash:          sig.Signature.String(),
			Chain:         config.ChainSolana,
			FromAddress:   mv.from,
			ToAddress:     mv.to,
			TokenSymbol:   "SOL",
			ValueNative:   value,
			ValueUSD:      usd,
			Timestamp:     ts,
			WhaleCategory: string(whale.ClassifySize(usd)),
		})
	}
	return out, nil
}

type movement struct {
	from, to string
	lamports uint64
}

// nativeMovement derives a single SOL transfer from balance deltas. The fee is
// added back for the fee payer so paying fees alone is not a transfer. The
// counterparty is the account whose balance moved most in the other direction.
func nativeMovement(wallet solana.PublicKey, keys solana.PublicKeySlice, pre, post []uint64, fee uint64) (movement, bool) {
	n := min(len(keys), len(pre), len(post))
	idx := -1
	for i := 0; i < n; i++ {
		if keys[i].Equals(wallet) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return movement{}, false
	}

	delta := func(i int) int64 {
		d := int64(post[i]) - int64(pre[i])
		if i == 0 {
			d += int64(fee)
		}
		return d
	}

	own := delta(idx)
	if own == 0 {
		return movement{}, false
	}

	cp, best := -1, int64(0)
	for i := 0; i < n; i++ {
		if i == idx {
			continue
		}
		d := delta(i)
		if (own > 0 && d < best) || (own < 0 && d > best) {
			cp, best = i, d
		}
	}
	if cp < 0 {
		return movement{}, false
	}

	if own > 0 {
		return movement{from: keys[cp].String(), to: wallet.String(), lamports: uint64(own)}, true
	}
	return movement{from: wallet.String(), to: keys[cp].String(), lamports: uint64(-own)}, true
}
