package config

import "strings"

type AddressType string

const (
	AddressExchange AddressType = "exchange"
	AddressProtocol AddressType = "protocol"
	AddressUnknown  AddressType = "unknown"
)

type AddressInfo struct {
	Label    string      `json:"label"`
	Type     AddressType `json:"type"`
	Exchange string      `json:"exchange"`
	Chain    Chain       `json:"chain"`
}

// --- Known exchange / protocol addresses (lower-cased keys) ---

var KnownAddresses = map[string]AddressInfo{
	// Binance
	"0x742d35cc6634c0532925a3b844bc454e4438f44e": {"Binance Hot Wallet", AddressExchange, "Binance", ChainEthereum},
	"0x28c6c06298d514db089934071355e5743bf21d60": {"Binance Hot Wallet 2", AddressExchange, "Binance", ChainEthereum},
	"0x8484ef722627bf18ca5ae6bcf031c23e6e922b30": {"Binance Hot Wallet 3", AddressExchange, "Binance", ChainEthereum},
	"0xdfd5293d8e347dfe59e90efd55b2956a1343963d": {"Binance Hot Wallet 4", AddressExchange, "Binance", ChainEthereum},
	"0x564286362092d8e7936f0549571a803b203aaced": {"Binance Hot Wallet 5", AddressExchange, "Binance", ChainEthereum},
	"0x0681d8db095565fe8a346fa0277bffde9c0edbbf": {"Binance Hot Wallet 6", AddressExchange, "Binance", ChainEthereum},
	"0xfe9e8709d3215310075d67e3ed32a380ccf451c8": {"Binance Hot Wallet 7", AddressExchange, "Binance", ChainEthereum},
	// Coinbase
	"0x71660c4005ba85c37ccec55d0c4493e66fe775d3": {"Coinbase Wallet", AddressExchange, "Coinbase", ChainEthereum},
	"0x503828976d22510aad0201ac7ec88293211d23da": {"Coinbase Wallet 2", AddressExchange, "Coinbase", ChainEthereum},
	"0xddfabcdc4d8ffc6d5beaf154f18b778f892a0740": {"Coinbase Wallet 3", AddressExchange, "Coinbase", ChainEthereum},
	"0x02466e547bfdab679fc49e5041ff6af2765739b3": {"Coinbase Wallet 4", AddressExchange, "Coinbase", ChainEthereum},
	// Kraken
	"0x2910543af39aba0cd09dbb2d50200b3e800a63d2": {"Kraken Exchange", AddressExchange, "Kraken", ChainEthereum},
	"0x0a869d79a7052c7f1b55a8ebabbea3420f0d1e13": {"Kraken Exchange 2", AddressExchange, "Kraken", ChainEthereum},
	"0xe853c56864a2ebe4576a807d26fdc4a0ada51919": {"Kraken Exchange 3", AddressExchange, "Kraken", ChainEthereum},
	"0x60882d6f70857606cdd37729ccce882015d1755e": {"Exchange Hot Wallet", AddressExchange, "Unknown CEX", ChainEthereum},

	// DEX routers
	"0x7a250d5630b4cf539739df2c5dacb4c659f2488d": {"Uniswap V2: Router", AddressProtocol, "Uniswap", ChainEthereum},
	"0xe592427a0aece92de3edee1f18e0157c05861564": {"Uniswap V3: Router", AddressProtocol, "Uniswap", ChainEthereum},
	"0xd9e1ce17f2641f24ae83637ab66a2cca9c378b9f": {"SushiSwap: Router", AddressProtocol, "SushiSwap", ChainEthereum},
	"0x99a58482bd75cbab83b27ec03ca68ff489b5788f": {"Curve: Registry Exchange", AddressProtocol, "Curve", ChainEthereum},
	"0xba12222222228d8ba445958a75a0704d566bf2c8": {"Balancer: Vault", AddressProtocol, "Balancer", ChainEthereum},
	"0x47fe8ab9ee47dd65c24df52324181790b9f47efc": {"DEX Aggregator", AddressProtocol, "DEX Router", ChainEthereum},
	"0x11b815efb8f581194ae79006d24e0d814b7697f6": {"Trading Pool", AddressProtocol, "Liquidity Pool", ChainEthereum},
	"0x23f5a668a9590130940ef55964ead9787976f2cc": {"MEV Bot", AddressProtocol, "MEV/Arbitrage", ChainEthereum},
}

// LookupAddress returns the known label for an address, or a format-derived
// placeholder with type unknown.
func LookupAddress(address string) AddressInfo {
	if info, ok := KnownAddresses[strings.ToLower(address)]; ok {
		return info
	}
	info := AddressInfo{Type: AddressUnknown, Exchange: "Unknown", Chain: ChainEthereum}
	switch {
	case strings.HasPrefix(address, "0x") && len(address) == 42:
		info.Label = address[:10] + "..."
	case len(address) > 30 && !strings.HasPrefix(address, "0x"):
		info.Chain = ChainSolana
		info.Label = address[:8] + "..." + address[len(address)-8:]
	default:
		info.Label = address
		if len(address) > 10 {
			info.Label = strings.ToLower(address[:10]) + "..."
		}
	}
	return info
}

func IsExchangeAddress(address string) bool {
	return LookupAddress(address).Type == AddressExchange
}

func IsProtocolAddress(address string) bool {
	return LookupAddress(address).Type == AddressProtocol
}

// IsEVMAddress reports whether address is 0x-prefixed hex form.
func IsEVMAddress(address string) bool {
	return strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X")
}

// AddressKey folds EVM addresses to lower case. Solana base58 is case-sensitive
// and is returned as is.
func AddressKey(address string) string {
	if IsEVMAddress(address) {
		return strings.ToLower(address)
	}
	return address
}

func SameAddress(a, b string) bool {
	return AddressKey(a) == AddressKey(b)
}
