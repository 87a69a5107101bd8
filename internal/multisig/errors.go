package multisig

import "errors"

// Precondition errors are returned before anything is sent to the chain.
var (
	ErrNoSigner           = errors.New("no signer")
	ErrNoProvider         = errors.New("no provider")
	ErrUnsupportedNetwork = errors.New("unsupported network")
	ErrNoWalletAddress    = errors.New("no wallet address attached")
)

// Confirmation failures end a step sequence that already delivered its
// SENT step.
var (
	ErrFailedSubmitTransaction  = errors.New("failed to submit transaction")
	ErrFailedConfirmTransaction = errors.New("failed to confirm transaction")
	ErrFailedRevokeTransaction  = errors.New("failed to revoke confirmation")
)
