package scanner

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/whale-tracker/pkg/config"
)

// ── eth_getCode: Contract Detection ─────────────────────────

type codeReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	Close()
}

// ContractChecker answers "is this address a contract" per EVM chain and
// remembers the answers.
type ContractChecker struct {
	mu      sync.Mutex
	rpcURLs map[config.Chain]string
	clients map[config.Chain]codeReader
	known   map[string]bool
	dial    func(ctx context.Context, url string) (codeReader, error)
}

func NewContractChecker(rpcURLs map[config.Chain]string) *ContractChecker {
	return &ContractChecker{
		rpcURLs: rpcURLs,
		clients: map[config.Chain]codeReader{},
		known:   map[string]bool{},
		dial: func(ctx context.Context, url string) (codeReader, error) {
			return ethclient.DialContext(ctx, url)
		},
	}
}

func (c *ContractChecker) IsContract(ctx context.Context, chain config.Chain, address string) (bool, error) {
	if !common.IsHexAddress(address) {
		return false, fmt.Errorf("invalid EVM address %q", address)
	}
	key := string(chain) + ":" + config.AddressKey(address)

	c.mu.Lock()
	if v, ok := c.known[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	client, err := c.client(ctx, chain)
	c.mu.Unlock()
	if err != nil {
		return false, err
	}

	code, err := client.CodeAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return false, fmt.Errorf("eth_getCode %s: %w", address, err)
	}
	isContract := len(code) > 0

	c.mu.Lock()
	c.known[key] = isContract
	c.mu.Unlock()
	return isContract, nil
}

// client must be called with mu held.
func (c *ContractChecker) client(ctx context.Context, chain config.Chain) (codeReader, error) {
	if cl, ok := c.clients[chain]; ok {
		return cl, nil
	}
	url := c.rpcURLs[chain]
	if url == "" {
		return nil, fmt.Errorf("no RPC configured for %s", chain)
	}
	cl, err := c.dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", chain, err)
	}
	c.clients[chain] = cl
	return cl, nil
}

func (c *ContractChecker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for chain, cl := range c.clients {
		cl.Close()
		delete(c.clients, chain)
	}
}
