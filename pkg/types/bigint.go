package types

import (
	"math/big"
	"strings"
)

// CloneInt returns a copy of i, treating nil as zero.
func CloneInt(i *big.Int) *big.Int {
	if i == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(i)
}

// MinInt returns the smaller of a and b.
func MinInt(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// ParseAmount parses a non negative decimal amount. Amounts cross every text
// boundary as decimal strings because balances routinely exceed 2^53.
func ParseAmount(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '+' {
		return nil, false
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, false
	}
	return n, true
}
