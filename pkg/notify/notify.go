// Package notify delivers new whale transfer alerts to Telegram and a CSV log.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/whale-tracker/pkg/config"
	"github.com/whale-tracker/pkg/db"
	"github.com/whale-tracker/pkg/whale"
)

// Alert is a newly stored transfer seen from a tracked wallet.
type Alert struct {
	Wallet string
	Tx     db.Transaction
}

func (a Alert) Direction() string {
	if config.SameAddress(a.Tx.FromAddress, a.Wallet) {
		return "SENT"
	}
	return "RECEIVED"
}

func (a Alert) Time() string {
	return time.Unix(a.Tx.Timestamp, 0).UTC().Format("2006-01-02 15:04:05")
}

type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// Multi fans an alert out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, a Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var txURLs = map[config.Chain]string{
	config.ChainEthereum: "https://etherscan.io/tx/",
	config.ChainBase:     "https://basescan.org/tx/",
	config.ChainBSC:      "https://bscscan.com/tx/",
	config.ChainSolana:   "https://solscan.io/tx/",
}

// TxURL links to the transfer on the chain's explorer. Token transfer hashes carry
// a ":contract" suffix that is dropped.
func TxURL(chain config.Chain, hash string) string {
	if i := strings.IndexByte(hash, ':'); i > 0 {
		hash = hash[:i]
	}
	return txURLs[chain] + hash
}

// Format renders the alert as Telegram Markdown.
func Format(a Alert) string {
	size := whale.SizeCategory(a.Tx.WhaleCategory)
	if size == "" {
		size = whale.ClassifySize(a.Tx.ValueUSD)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*\n\n", size.Emoji(), size)
	fmt.Fprintf(&b, "*Wallet:* `%s`\n", a.Wallet)
	fmt.Fprintf(&b, "*Hash:* [%s](%s)\n", shortHash(a.Tx.Hash), TxURL(a.Tx.Chain, a.Tx.Hash))
	fmt.Fprintf(&b, "*Token:* %s %s ($%.0f)\n", trimFloat(a.Tx.ValueNative), a.Tx.TokenSymbol, a.Tx.ValueUSD)
	fmt.Fprintf(&b, "*Direction:* %s\n", a.Direction())
	fmt.Fprintf(&b, "*From:* `%s`\n", a.Tx.FromAddress)
	fmt.Fprintf(&b, "*To:* `%s`\n", a.Tx.ToAddress)
	fmt.Fprintf(&b, "*Time:* %s UTC", a.Time())
	return b.String()
}

func shortHash(h string) string {
	if i := strings.IndexByte(h, ':'); i > 0 {
		h = h[:i]
	}
	if len(h) > 16 {
		return h[:10] + "..." + h[len(h)-6:]
	}
	return h
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.6f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
