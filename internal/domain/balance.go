package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenMetadata is what a token contract reports about itself. Fields stay
// empty when the contract does not answer.
type TokenMetadata struct {
	Name        string   `json:"name,omitempty"`
	Symbol      string   `json:"symbol,omitempty"`
	Decimals    uint8    `json:"decimals"`
	TotalSupply *big.Int `json:"total_supply,omitempty"`
}

type TokenBalance struct {
	Token common.Address `json:"token"`
	TokenMetadata
	Balance *big.Int `json:"balance"`
}

// Treasury is a wallet's native balance plus its non-zero token holdings.
type Treasury struct {
	Wallet common.Address `json:"wallet"`
	Native *big.Int       `json:"native"`
	Tokens []TokenBalance `json:"tokens"`
}
