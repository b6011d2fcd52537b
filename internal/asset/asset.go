// Package asset models the ERC20 tokens the bot sizes trades for.
// On-chain quantities stay in big.Int; decimal.Decimal is only used at
// the boundaries (config parsing, logs, UI).
package asset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ChainIDEthereum is Ethereum mainnet.
const ChainIDEthereum uint64 = 1

// Token is the metadata of an ERC20 token. The address is its identity;
// the symbol is only a lookup key and display name.
type Token struct {
	symbol   string
	name     string
	address  common.Address
	decimals uint8
	chainID  uint64
}

// NewToken creates a mainnet token.
func NewToken(symbol, name string, address common.Address, decimals uint8) *Token {
	return NewTokenOnChain(ChainIDEthereum, symbol, name, address, decimals)
}

// NewTokenOnChain creates a token on chainID.
func NewTokenOnChain(chainID uint64, symbol, name string, address common.Address, decimals uint8) *Token {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if address == (common.Address{}) {
		panic("asset: zero token address")
	}
	if decimals > 30 {
		panic("asset: suspicious decimals (>30)")
	}
	return &Token{
		symbol:   symbol,
		name:     name,
		address:  address,
		decimals: decimals,
		chainID:  chainID,
	}
}

// Symbol returns the ticker symbol (e.g. "USDC").
func (t *Token) Symbol() string {
	return t.symbol
}

// Name returns the human-readable name, falling back to the symbol.
func (t *Token) Name() string {
	if t.name == "" {
		return t.symbol
	}
	return t.name
}

// Address returns the token contract address.
func (t *Token) Address() common.Address {
	return t.address
}

// Decimals returns the number of decimal places.
func (t *Token) Decimals() uint8 {
	return t.decimals
}

// ChainID returns the chain the token lives on.
func (t *Token) ChainID() uint64 {
	return t.chainID
}

// Equals compares identity (chain and address).
func (t *Token) Equals(other *Token) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.chainID == other.chainID && t.address == other.address
}

func (t *Token) String() string {
	return fmt.Sprintf("%s(%s)", t.symbol, t.address.Hex())
}
