package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/whale-tracker/pkg/config"
	"github.com/whale-tracker/pkg/db"
	"github.com/whale-tracker/pkg/whale"
)

// ── EVM (ETH / Base / BSC) ─────────────────────────────────

var stables = map[string]bool{
	"USDC": true, "USDT": true, "BUSD": true, "DAI": true, "FRAX": true, "TUSD": true,
}

type etherscanTx struct {
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	TimeStamp       string `json:"timeStamp"`
	GasUsed         string `json:"gasUsed"`
	GasPrice        string `json:"gasPrice"`
	IsError         string `json:"isError"`
	ContractAddress string `json:"contractAddress"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
}

func (s *Scanner) fetchEVM(ctx context.Context, address string, chain config.Chain) ([]db.Transaction, error) {
	apiURL := s.cfg.GetExplorerURL(chain)
	apiKey := s.cfg.GetExplorerKey(chain)
	if apiURL == "" || apiKey == "" {
		return nil, fmt.Errorf("%w for %s", ErrNoExplorer, chain)
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid EVM address %q", address)
	}

	native := nativeSymbol(chain)
	nativePrice := s.prices.Native(ctx, chain)
	var out []db.Transaction

	// Normal txs carry native value
	txs, err := s.etherscanList(ctx, apiURL, apiKey, address, "txlist")
	if err != nil {
		return nil, fmt.Errorf("txlist: %w", err)
	}
	for _, etx := range txs {
		if etx.Hash == "" || etx.IsError == "1" {
			continue
		}
		value := weiToEth(etx.Value)
		if value == 0 {
			continue
		}
		usd := value * nativePrice
		out = append(out, db.Transaction{
			Hash:          etx.Hash,
			Chain:         chain,
			FromAddress:   etx.From,
			ToAddress:     etx.To,
			TokenSymbol:   native,
			ValueNative:   value,
			ValueUSD:      usd,
			Timestamp:     parseInt64(etx.TimeStamp),
			WhaleCategory: string(whale.ClassifySize(usd)),
			GasUsed:       parseInt64(etx.GasUsed),
			GasPrice:      parseInt64(etx.GasPrice),
		})
	}

	// ERC-20 transfers. One tx hash can move several tokens, so the stored hash is
	// suffixed with the token contract.
	tokenTxs, err := s.etherscanList(ctx, apiURL, apiKey, address, "tokentx")
	if err != nil {
		log.Warn().Err(err).Str("address", address).Msg("⚠️  tokentx fetch failed")
		return out, nil
	}
	for _, etx := range tokenTxs {
		if etx.Hash == "" || etx.TokenSymbol == "" {
			continue
		}
		decimals := int(parseInt64(etx.TokenDecimal))
		if etx.TokenDecimal == "" {
			decimals = 18
		}
		value := tokenValue(etx.Value, decimals)
		if value == 0 {
			continue
		}

		usd := value
		if !stables[strings.ToUpper(etx.TokenSymbol)] {
			usd = s.prices.USDValue(ctx, chain, etx.ContractAddress, value)
		}
		out = append(out, db.Transaction{
			Hash:          etx.Hash + ":" + strings.ToLower(etx.ContractAddress),
			Chain:         chain,
			FromAddress:   etx.From,
			ToAddress:     etx.To,
			TokenSymbol:   etx.TokenSymbol,
			TokenAddress:  etx.ContractAddress,
			ValueNative:   value,
			ValueUSD:      usd,
			Timestamp:     parseInt64(etx.TimeStamp),
			WhaleCategory: string(whale.ClassifySize(usd)),
			GasUsed:       parseInt64(etx.GasUsed),
			GasPrice:      parseInt64(etx.GasPrice),
		})
	}
	return out, nil
}

func (s *Scanner) etherscanList(ctx context.Context, apiURL, apiKey, address, action string) ([]etherscanTx, error) {
	url := fmt.Sprintf("%s?module=account&action=%s&address=%s&startblock=0&endblock=99999999&page=1&offset=100&sort=desc&apikey=%s",
		apiURL, action, address, apiKey)

	body, err := s.getJSON(ctx, url)
	if err != nil {
		return nil, err
	}

	var result struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode etherscan: %w", err)
	}

	if result.Status != "1" {
		if strings.HasPrefix(result.Message, "No transactions found") {
			return nil, nil
		}
		var msg string
		_ = json.Unmarshal(result.Result, &msg)
		return nil, fmt.Errorf("etherscan status %s: %s %s", result.Status, result.Message, msg)
	}

	var txs []etherscanTx
	if err := json.Unmarshal(result.Result, &txs); err != nil {
		return nil, fmt.Errorf("decode etherscan result: %w", err)
	}
	return txs, nil
}

func nativeSymbol(chain config.Chain) string {
	switch chain {
	case config.ChainBSC:
		return "BNB"
	case config.ChainSolana:
		return "SOL"
	}
	return "ETH"
}
