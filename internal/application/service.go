package application

import (
	"context"
	"errors"
	"math/big"

	"msigwallet/internal/domain"
	"msigwallet/internal/multisig"

	"github.com/ethereum/go-ethereum/common"
)

var ErrJournalDisabled = errors.New("activity journal is not configured")

// ProposalDetail is a proposal together with what it moves and whether it
// has collected enough approvals.
type ProposalDetail struct {
	domain.Proposal
	Summary        domain.ProposalSummary `json:"summary"`
	MinimumReached bool                   `json:"minimum_reached"`
}

// WalletService serves wallet reads and recorded writes for any wallet
// address on the configured chain.
type WalletService struct {
	client   *multisig.Client
	recorder *Recorder
	journal  ActivityReader
	tokens   []common.Address
}

func NewWalletService(client *multisig.Client, recorder *Recorder, journal ActivityReader) *WalletService {
	if recorder == nil {
		recorder = NewRecorder(nil)
	}
	return &WalletService{client: client, recorder: recorder, journal: journal}
}

// SetTreasuryTokens sets the tokens Balances reads when the caller names none.
func (s *WalletService) SetTreasuryTokens(tokens []common.Address) {
	s.tokens = tokens
}

func (s *WalletService) CanWrite() bool {
	return s.client.HasSigner()
}

func (s *WalletService) ChainID(ctx context.Context) (uint64, error) {
	return s.client.ChainID(ctx)
}

func (s *WalletService) Members(ctx context.Context, wallet common.Address) ([]common.Address, error) {
	return s.client.Attach(wallet).Members(ctx)
}

func (s *WalletService) Required(ctx context.Context, wallet common.Address) (uint64, error) {
	return s.client.Attach(wallet).Required(ctx)
}

func (s *WalletService) IsOwner(ctx context.Context, wallet, account common.Address) (bool, error) {
	return s.client.Attach(wallet).IsOwner(ctx, account)
}

func (s *WalletService) ListProposals(ctx context.Context, wallet common.Address, page multisig.Page) (domain.ProposalPage, error) {
	return s.client.Attach(wallet).ListProposals(ctx, page)
}

func (s *WalletService) Proposal(ctx context.Context, wallet common.Address, id *big.Int) (ProposalDetail, error) {
	client := s.client.Attach(wallet)
	proposal, err := client.Proposal(ctx, id)
	if err != nil {
		return ProposalDetail{}, err
	}
	return ProposalDetail{
		Proposal:       proposal,
		Summary:        client.Summarize(proposal.Transaction),
		MinimumReached: multisig.MinimumReached(proposal.Transaction, proposal.MinApprovals),
	}, nil
}

func (s *WalletService) Balances(ctx context.Context, wallet common.Address, tokens []common.Address) (domain.Treasury, error) {
	if len(tokens) == 0 {
		tokens = s.tokens
	}
	return s.client.Attach(wallet).Balances(ctx, tokens)
}

func (s *WalletService) Confirmations(ctx context.Context, wallet common.Address, id *big.Int) ([]common.Address, error) {
	return s.client.Attach(wallet).Confirmations(ctx, id)
}

func (s *WalletService) Submit(ctx context.Context, wallet common.Address, req multisig.SubmitRequest) (multisig.Steps, error) {
	client := s.client.Attach(wallet)
	steps, err := client.SubmitTransaction(ctx, req)
	return s.track(ctx, client, domain.OperationSubmit, steps, err)
}

func (s *WalletService) Confirm(ctx context.Context, wallet common.Address, id *big.Int) (multisig.Steps, error) {
	client := s.client.Attach(wallet)
	steps, err := client.ConfirmTransaction(ctx, id)
	return s.track(ctx, client, domain.OperationConfirm, steps, err)
}

func (s *WalletService) Revoke(ctx context.Context, wallet common.Address, id *big.Int) (multisig.Steps, error) {
	client := s.client.Attach(wallet)
	steps, err := client.RevokeConfirmation(ctx, id)
	return s.track(ctx, client, domain.OperationRevoke, steps, err)
}

func (s *WalletService) Activities(ctx context.Context, filter ActivityFilter) ([]domain.Activity, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	return s.journal.QueryActivities(ctx, filter)
}

func (s *WalletService) track(ctx context.Context, client *multisig.Client, op domain.Operation, steps multisig.Steps, err error) (multisig.Steps, error) {
	if err != nil {
		return nil, err
	}
	// Best effort: journal rows carry chain id 0 if this lookup fails.
	chainID, _ := client.ChainID(ctx)
	wallet, _ := client.Wallet()
	return s.recorder.Track(ctx, ActivityMeta{ChainID: chainID, Wallet: wallet, Operation: op}, steps), nil
}
