package multisig

import (
	"math/big"

	"msigwallet/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

// Summarize describes what tx moves. Native transfers carry no calldata and
// report the zero token; decoded calls report the called contract as token
// and their `to`/`amount` parameters when present.
func (c *Client) Summarize(tx domain.Transaction) domain.ProposalSummary {
	if tx.IsNativeTransfer() {
		to := tx.Destination
		return domain.ProposalSummary{
			Token:  common.Address{},
			To:     &to,
			Amount: tx.Value,
		}
	}

	summary := domain.ProposalSummary{Token: tx.Destination}
	decoded, ok := c.codec.Decode(tx.Data)
	if !ok {
		return summary
	}
	summary.Interface = decoded.Interface
	summary.Function = decoded.Method.Name
	summary.Params = decoded.NamedParams()
	if value, ok := decoded.Param("to"); ok {
		if to, ok := value.(common.Address); ok {
			summary.To = &to
		}
	}
	if value, ok := decoded.Param("amount"); ok {
		if amount, ok := value.(*big.Int); ok {
			summary.Amount = amount
		}
	}
	return summary
}
