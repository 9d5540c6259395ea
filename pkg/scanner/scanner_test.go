package scanner

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whale-tracker/pkg/config"
	"github.com/whale-tracker/pkg/db"
	"github.com/whale-tracker/pkg/whale"
)

const (
	walletAddr = "0x742d35cc6634c0532925a3b844bc454e4438f44e"
	otherAddr  = "0x28c6c06298d514db089934071355e5743bf21d60"
	uniToken   = "0x1f9840a85d5af5bf1d1762f925bdaddc4201f984"
)

type fixedPrices struct{}

func (fixedPrices) Native(context.Context, config.Chain) float64 { return 3000 }

func (fixedPrices) USDValue(_ context.Context, _ config.Chain, token string, amount float64) float64 {
	if token == uniToken {
		return amount * 10
	}
	return 0
}

type memStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memStore) InsertTransaction(tx db.Transaction) (bool, error) {
	if err := tx.Validate(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[tx.Hash] {
		return false, nil
	}
	m.seen[tx.Hash] = true
	return true, nil
}

func explorer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apikey") != "key" {
			fmt.Fprint(w, `{"status":"0","message":"NOTOK","result":"Invalid API Key"}`)
			return
		}
		if q.Get("address") == otherAddr {
			fmt.Fprint(w, `{"status":"0","message":"No transactions found","result":[]}`)
			return
		}
		switch q.Get("action") {
		case "txlist":
			fmt.Fprintf(w, `{"status":"1","message":"OK","result":[
				{"hash":"0xaaa","from":"%s","to":"%s","value":"50000000000000000000","timeStamp":"1700000000","gasUsed":"21000","gasPrice":"30000000000","isError":"0"},
				{"hash":"0xbbb","from":"%s","to":"%s","value":"1000000000000000000","timeStamp":"1700000100","gasUsed":"21000","gasPrice":"30000000000","isError":"1"},
				{"hash":"0xccc","from":"%s","to":"%s","value":"0","timeStamp":"1700000200","gasUsed":"50000","gasPrice":"30000000000","isError":"0"}
			]}`, walletAddr, otherAddr, walletAddr, otherAddr, walletAddr, uniToken)
		case "tokentx":
			fmt.Fprintf(w, `{"status":"1","message":"OK","result":[
				{"hash":"0xddd","from":"%s","to":"%s","value":"20000000000000000000000","timeStamp":"1700000300","contractAddress":"%s","tokenSymbol":"UNI","tokenDecimal":"18"},
				{"hash":"0xddd","from":"%s","to":"%s","value":"150000000000","timeStamp":"1700000300","contractAddress":"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48","tokenSymbol":"USDC","tokenDecimal":"6"}
			]}`, otherAddr, walletAddr, uniToken, walletAddr, otherAddr)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestScanner(t *testing.T, store Store) *Scanner {
	srv := explorer(t)
	cfg := &config.Config{
		ExplorerURLs: map[config.Chain]string{config.ChainEthereum: srv.URL},
		ExplorerKeys: map[config.Chain]string{config.ChainEthereum: "key"},
		ExplorerRPS:  1000,
		ScanWorkers:  2,
	}
	return New(cfg, store, fixedPrices{})
}

func TestFetchEVM(t *testing.T) {
	s := newTestScanner(t, &memStore{})

	txs, err := s.FetchWallet(context.Background(), walletAddr, config.ChainEthereum)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	eth := txs[0]
	assert.Equal(t, "0xaaa", eth.Hash)
	assert.Equal(t, "ETH", eth.TokenSymbol)
	assert.Equal(t, 50.0, eth.ValueNative)
	assert.Equal(t, 150000.0, eth.ValueUSD)
	assert.Equal(t, string(whale.SizeLarge), eth.WhaleCategory)
	assert.Equal(t, int64(21000), eth.GasUsed)

	uni := txs[1]
	assert.Equal(t, "0xddd:"+uniToken, uni.Hash)
	assert.Equal(t, uniToken, uni.TokenAddress)
	assert.Equal(t, 20000.0, uni.ValueNative)
	assert.Equal(t, 200000.0, uni.ValueUSD)

	usdc := txs[2]
	assert.Equal(t, "USDC", usdc.TokenSymbol)
	assert.Equal(t, 150000.0, usdc.ValueUSD)
	assert.NotEqual(t, uni.Hash, usdc.Hash)
}

func TestFetchEVMErrors(t *testing.T) {
	s := newTestScanner(t, &memStore{})

	_, err := s.FetchWallet(context.Background(), walletAddr, config.ChainBase)
	assert.ErrorIs(t, err, ErrNoExplorer)

	_, err = s.FetchWallet(context.Background(), "not-an-address", config.ChainEthereum)
	assert.Error(t, err)

	txs, err := s.FetchWallet(context.Background(), otherAddr, config.ChainEthereum)
	require.NoError(t, err)
	assert.Empty(t, txs)

	s.cfg.ExplorerKeys[config.ChainEthereum] = "wrong"
	_, err = s.FetchWallet(context.Background(), walletAddr, config.ChainEthereum)
	assert.ErrorContains(t, err, "Invalid API Key")
}

func TestTrackAllIsolatesFailures(t *testing.T) {
	store := &memStore{}
	s := newTestScanner(t, store)

	results := s.TrackAll(context.Background(), []Target{
		{Address: walletAddr, Chain: config.ChainEthereum},
		{Address: walletAddr, Chain: config.ChainBSC},
		{Address: "SoLanaWithoutRPC", Chain: config.ChainSolana},
	})
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, 3, results[0].Inserted)
	assert.Len(t, results[0].New, 3)
	assert.ErrorIs(t, results[1].Err, ErrNoExplorer)
	assert.Error(t, results[2].Err)

	// second pass is idempotent
	fresh, err := s.TrackWallet(context.Background(), walletAddr, config.ChainEthereum)
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestTargetsFor(t *testing.T) {
	cfg := &config.Config{ExplorerKeys: map[config.Chain]string{config.ChainEthereum: "k", config.ChainBSC: "k"}}
	targets := TargetsFor(cfg, []config.KnownWhale{
		{Address: walletAddr},
		{Address: walletAddr, Chain: config.ChainBase},
		{Address: "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"},
	})
	assert.Equal(t, []Target{
		{Address: walletAddr, Chain: config.ChainEthereum},
		{Address: walletAddr, Chain: config.ChainBSC},
		{Address: walletAddr, Chain: config.ChainBase},
		{Address: "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", Chain: config.ChainSolana},
	}, targets)
}

type fakeCode struct {
	calls int
	code  map[common.Address][]byte
}

func (f *fakeCode) CodeAt(_ context.Context, a common.Address, _ *big.Int) ([]byte, error) {
	f.calls++
	if a == common.HexToAddress(otherAddr) {
		return nil, errors.New("node down")
	}
	return f.code[a], nil
}

func (f *fakeCode) Close() {}

func TestContractChecker(t *testing.T) {
	fake := &fakeCode{code: map[common.Address][]byte{common.HexToAddress(uniToken): {0x60, 0x80}}}
	c := NewContractChecker(map[config.Chain]string{config.ChainEthereum: "http://node"})
	c.dial = func(context.Context, string) (codeReader, error) { return fake, nil }

	ok, err := c.IsContract(context.Background(), config.ChainEthereum, uniToken)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.IsContract(context.Background(), config.ChainEthereum, walletAddr)
	require.NoError(t, err)
	assert.False(t, ok)

	// cached
	_, _ = c.IsContract(context.Background(), config.ChainEthereum, uniToken)
	assert.Equal(t, 2, fake.calls)

	_, err = c.IsContract(context.Background(), config.ChainEthereum, otherAddr)
	assert.Error(t, err)

	_, err = c.IsContract(context.Background(), config.ChainBase, uniToken)
	assert.ErrorContains(t, err, "no RPC configured")
}

func TestNativeMovement(t *testing.T) {
	payer := solana.MustPublicKeyFromBase58("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
	dest := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	system := solana.SystemProgramID
	keys := solana.PublicKeySlice{payer, dest, system}

	// payer sends 2 SOL and pays a 5000 lamport fee
	pre := []uint64{10_000_000_000, 1_000_000_000, 1}
	post := []uint64{7_999_995_000, 3_000_000_000, 1}

	mv, ok := nativeMovement(payer, keys, pre, post, 5000)
	require.True(t, ok)
	assert.Equal(t, payer.String(), mv.from)
	assert.Equal(t, dest.String(), mv.to)
	assert.Equal(t, uint64(2_000_000_000), mv.lamports)

	mv, ok = nativeMovement(dest, keys, pre, post, 5000)
	require.True(t, ok)
	assert.Equal(t, payer.String(), mv.from)
	assert.Equal(t, uint64(2_000_000_000), mv.lamports)

	// fee only
	_, ok = nativeMovement(payer, keys, []uint64{10, 5, 1}, []uint64{5, 5, 1}, 5)
	assert.False(t, ok)

	_, ok = nativeMovement(solana.TokenProgramID, keys, pre, post, 5000)
	assert.False(t, ok)
}

func TestTokenValue(t *testing.T) {
	assert.Equal(t, 1.5, weiToEth("1500000000000000000"))
	assert.Equal(t, 0.0, weiToEth(""))
	assert.Equal(t, 0.0, weiToEth("not-a-number"))
	assert.Equal(t, 2500.0, tokenValue("2500000000", 6))
	assert.Equal(t, 1.0, tokenValue("0xde0b6b3a7640000", 18))
}
