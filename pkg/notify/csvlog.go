package notify

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
)

var csvHeader = []string{"timestamp", "wallet", "hash", "chain", "token", "value", "value_usd", "direction", "from", "to"}

// CSVLog appends one row per alert, writing the header when the file is new.
type CSVLog struct {
	mu   sync.Mutex
	path string
}

func NewCSVLog(path string) *CSVLog {
	return &CSVLog{path: path}
}

func (c *CSVLog) Notify(_ context.Context, a Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, statErr := os.Stat(c.path)
	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if os.IsNotExist(statErr) {
		if err := w.Write(csvHeader); err != nil {
			return err
		}
	}
	if err := w.Write([]string{
		a.Time(), a.Wallet, a.Tx.Hash, string(a.Tx.Chain), a.Tx.TokenSymbol,
		strconv.FormatFloat(a.Tx.ValueNative, 'f', -1, 64),
		strconv.FormatFloat(a.Tx.ValueUSD, 'f', 2, 64),
		a.Direction(), a.Tx.FromAddress, a.Tx.ToAddress,
	}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
