package multisig

import (
	"context"
	"math/big"

	"msigwallet/internal/abicodec"

	"github.com/ethereum/go-ethereum/common"
)

// submitSelfCall proposes a call from the wallet to itself. Membership and
// settings changes all go through this path.
func (c *Client) submitSelfCall(ctx context.Context, title, description, function string, args ...any) (Steps, error) {
	if c.wallet == (common.Address{}) {
		return nil, ErrNoWalletAddress
	}
	data, err := c.codec.Encode(abicodec.WalletInterface, function, args...)
	if err != nil {
		return nil, err
	}
	return c.SubmitTransaction(ctx, SubmitRequest{
		Title:       title,
		Description: description,
		Destination: c.wallet,
		Value:       new(big.Int),
		Data:        data,
	})
}

func (c *Client) SubmitAddMember(ctx context.Context, title, description string, owner common.Address) (Steps, error) {
	return c.submitSelfCall(ctx, title, description, "addMember", owner)
}

func (c *Client) SubmitRemoveMember(ctx context.Context, title, description string, owner common.Address) (Steps, error) {
	return c.submitSelfCall(ctx, title, description, "removeMember", owner)
}

func (c *Client) SubmitReplaceMember(ctx context.Context, title, description string, owner, newOwner common.Address) (Steps, error) {
	return c.submitSelfCall(ctx, title, description, "replaceMember", owner, newOwner)
}

// SubmitChangeMember adds and removes several owners in one proposal.
func (c *Client) SubmitChangeMember(ctx context.Context, title, description string, additional, removal []common.Address) (Steps, error) {
	if additional == nil {
		additional = []common.Address{}
	}
	if removal == nil {
		removal = []common.Address{}
	}
	return c.submitSelfCall(ctx, title, description, "changeMember", additional, removal)
}

func (c *Client) SubmitChangeRequirement(ctx context.Context, title, description string, required uint64) (Steps, error) {
	return c.submitSelfCall(ctx, title, description, "changeRequirement", new(big.Int).SetUint64(required))
}

func (c *Client) SubmitChangeMetadata(ctx context.Context, title, description, walletName, walletDescription string) (Steps, error) {
	return c.submitSelfCall(ctx, title, description, "changeMetadata", walletName, walletDescription)
}

// SubmitNativeTransfer proposes sending amount of the native currency to
// to. The call carries no calldata.
func (c *Client) SubmitNativeTransfer(ctx context.Context, title, description string, to common.Address, amount *big.Int) (Steps, error) {
	return c.SubmitTransaction(ctx, SubmitRequest{
		Title:       title,
		Description: description,
		Destination: to,
		Value:       amount,
	})
}

// SubmitTokenTransfer proposes a token transfer from the wallet's balance
// of token.
func (c *Client) SubmitTokenTransfer(ctx context.Context, title, description string, token, to common.Address, amount *big.Int) (Steps, error) {
	return c.submitTokenCall(ctx, title, description, token, "transfer", to, amount)
}

func (c *Client) SubmitTokenApprove(ctx context.Context, title, description string, token, spender common.Address, amount *big.Int) (Steps, error) {
	return c.submitTokenCall(ctx, title, description, token, "approve", spender, amount)
}

func (c *Client) submitTokenCall(ctx context.Context, title, description string, token common.Address, function string, account common.Address, amount *big.Int) (Steps, error) {
	if amount == nil {
		amount = new(big.Int)
	}
	data, err := c.codec.Encode(abicodec.TokenInterface, function, account, amount)
	if err != nil {
		return nil, err
	}
	return c.SubmitTransaction(ctx, SubmitRequest{
		Title:       title,
		Description: description,
		Destination: token,
		Value:       new(big.Int),
		Data:        data,
	})
}
