package scanner

import (
	"math/big"
	"strconv"

	gmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/params"
)

func weiToEth(wei string) float64 {
	v, ok := gmath.ParseBig256(wei)
	if !ok {
		return 0
	}
	eth, _ := new(big.Float).Quo(new(big.Float).SetInt(v), big.NewFloat(params.Ether)).Float64()
	return eth
}

// tokenValue scales a raw integer amount (decimal or 0x hex) down by 10^decimals.
func tokenValue(raw string, decimals int) float64 {
	v, ok := gmath.ParseBig256(raw)
	if !ok || v.Sign() == 0 {
		return 0
	}
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v), new(big.Float).SetInt(unit)).Float64()
	return f
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
