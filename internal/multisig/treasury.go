package multisig

import (
	"context"
	"fmt"
	"math/big"

	"msigwallet/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
)

// Balances reads the wallet's native balance and its balance of every
// listed token. Tokens are deduplicated, the zero address is skipped and
// zero balances are left out. A token whose metadata cannot be read is
// still reported with empty metadata.
func (c *Client) Balances(ctx context.Context, tokens []common.Address) (domain.Treasury, error) {
	provider, err := c.reader(ctx)
	if err != nil {
		return domain.Treasury{}, err
	}
	ctx, span := c.tracer.Start(ctx, "multisig.Balances")
	defer span.End()
	span.SetAttributes(
		attribute.String("wallet", c.wallet.Hex()),
		attribute.Int("token.count", len(tokens)),
	)

	native, err := provider.Balance(ctx, c.wallet)
	if err != nil {
		return domain.Treasury{}, fmt.Errorf("native balance: %w", err)
	}
	treasury := domain.Treasury{Wallet: c.wallet, Native: native, Tokens: []domain.TokenBalance{}}

	seen := make(map[common.Address]struct{}, len(tokens))
	for _, token := range tokens {
		if token == (common.Address{}) {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}

		balance, err := provider.TokenBalance(ctx, token, c.wallet)
		if err != nil {
			return domain.Treasury{}, fmt.Errorf("balance of %s: %w", token.Hex(), err)
		}
		if balance == nil || balance.Sign() == 0 {
			continue
		}
		metadata, err := provider.TokenMetadata(ctx, token)
		if err != nil {
			c.logger.Warn("token metadata unavailable", "token", token.Hex(), "err", err)
			metadata = domain.TokenMetadata{}
		}
		treasury.Tokens = append(treasury.Tokens, domain.TokenBalance{
			Token:         token,
			TokenMetadata: metadata,
			Balance:       new(big.Int).Set(balance),
		})
	}
	return treasury, nil
}
