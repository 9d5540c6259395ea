package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/whale-tracker/pkg/config"
	"github.com/whale-tracker/pkg/db"
)

type Dashboard struct {
	store *db.Store
	port  int
}

func New(store *db.Store, port int) *Dashboard {
	return &Dashboard{store: store, port: port}
}

func (d *Dashboard) Handler() http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/stats", cors(d.handleStats))
	mux.HandleFunc("/api/whales", cors(d.handleWhales))
	mux.HandleFunc("/api/whales/add", cors(d.handleAddWhale))
	mux.HandleFunc("/api/traders", cors(d.handleTraders))
	mux.HandleFunc("/api/transactions", cors(d.handleTransactions))
	mux.HandleFunc("/api/wallet/", cors(d.handleWallet))

	// Serve frontend
	mux.HandleFunc("/", d.serveFrontend)
	return mux
}

// Run serves until ctx is cancelled.
func (d *Dashboard) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", d.port),
		Handler:           d.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", srv.Addr).Msg("🌐 dashboard started")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func cors(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func queryInt(r *http.Request, key string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && v > 0 {
		return v
	}
	return def
}

func (d *Dashboard) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := d.store.GetStats()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func (d *Dashboard) handleWhales(w http.ResponseWriter, r *http.Request) {
	whales, err := d.store.GetTopWhales(queryInt(r, "limit", 50))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if whales == nil {
		whales = []db.WhaleAddress{}
	}
	writeJSON(w, whales)
}

func (d *Dashboard) handleAddWhale(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	var req struct {
		Address string `json:"address"`
		Chain   string `json:"chain"`
		Label   string `json:"label"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.Address == "" {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	chain := config.Chain(req.Chain)
	if chain == "" {
		if config.IsEVMAddress(req.Address) {
			chain = config.ChainEthereum
		} else {
			chain = config.ChainSolana
		}
	}

	entry := db.WhaleAddress{Address: req.Address, Chain: chain}
	if existing, err := d.store.GetWhale(req.Address); err == nil {
		entry = *existing
	}
	entry.Label = req.Label
	entry.Watched = true
	if err := d.store.UpsertWhale(entry); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	log.Info().Str("address", req.Address).Str("chain", string(chain)).Msg("➕ whale added via dashboard")
	writeJSON(w, map[string]interface{}{
		"address": req.Address,
		"chain":   chain,
		"status":  "ok",
		"message": "Whale added. It will be scanned on the next track cycle.",
	})
}

func (d *Dashboard) handleTraders(w http.ResponseWriter, r *http.Request) {
	traders, err := d.store.GetTopTraders(queryInt(r, "limit", 50))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if traders == nil {
		traders = []db.ProfitableTrader{}
	}
	writeJSON(w, traders)
}

func (d *Dashboard) handleTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := d.store.GetRecentTransactions(queryInt(r, "limit", 100))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []db.Transaction{}
	}
	writeJSON(w, txs)
}

func (d *Dashboard) handleWallet(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimPrefix(r.URL.Path, "/api/wallet/")
	if address == "" || strings.Contains(address, "/") {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	whale, err := d.store.GetWhale(address)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	trader, err := d.store.GetTrader(address)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	txs, _ := d.store.GetTransactionsForAddress(address)
	network, _ := d.store.GetAddressNetwork(address, 1)
	if whale == nil && trader == nil && len(txs) == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]interface{}{
		"address":      address,
		"label":        config.LookupAddress(address),
		"whale":        whale,
		"trader":       trader,
		"transactions": txs,
		"network":      network,
	})
}
