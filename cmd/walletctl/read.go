package main

import (
	"fmt"
	"math/big"
	"strings"

	"msigwallet/internal/domain"
	"msigwallet/internal/multisig"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

func (a *app) membersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members",
		Short: "List the wallet owners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			members, err := client.Members(cmd.Context())
			if err != nil {
				return err
			}
			for _, member := range members {
				fmt.Fprintln(cmd.OutOrStdout(), member.Hex())
			}
			return nil
		},
	}
}

func (a *app) requiredCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "required",
		Short: "Show the approval threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			required, err := client.Required(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), required)
			return nil
		},
	}
}

func (a *app) proposalsCmd() *cobra.Command {
	var (
		limit  uint64
		skip   uint64
		status string
	)
	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "List proposals, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit > multisig.MaxPageLimit {
				return fmt.Errorf("invalid limit %d, want 0 to %d", limit, multisig.MaxPageLimit)
			}
			page := multisig.Page{Limit: limit, Skip: skip}
			if status != "" {
				parsed, ok := domain.ParseProposalStatus(status)
				if !ok {
					return fmt.Errorf("invalid status %q, want active or executed", status)
				}
				page.Status = parsed
			}
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			result, err := client.ListProposals(cmd.Context(), page)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "total: %d\n", result.TotalCount)
			for _, proposal := range result.Items {
				fmt.Fprintf(out, "#%s\t%s\t%d/%d\t%s\n",
					proposal.ID, proposal.Status, len(proposal.Approval), proposal.MinApprovals, proposal.Title)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&limit, "limit", 10, "page size, 0 lists everything")
	cmd.Flags().Uint64Var(&skip, "skip", 0, "number of newest proposals to skip")
	cmd.Flags().StringVar(&status, "status", "", "only show active or executed proposals")
	return cmd
}

func (a *app) proposalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proposal <id>",
		Short: "Show one proposal with its decoded call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAmountArg("transaction id", args[0])
			if err != nil {
				return err
			}
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			proposal, err := client.Proposal(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), struct {
				domain.Proposal
				Summary        domain.ProposalSummary `json:"summary"`
				MinimumReached bool                   `json:"minimum_reached"`
			}{
				Proposal:       proposal,
				Summary:        client.Summarize(proposal.Transaction),
				MinimumReached: multisig.MinimumReached(proposal.Transaction, proposal.MinApprovals),
			})
		},
	}
}

func (a *app) balancesCmd() *cobra.Command {
	var tokens []string
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show the native balance and non-zero token holdings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var selected []common.Address
			for _, raw := range tokens {
				token, err := parseAddressArg("token", raw)
				if err != nil {
					return err
				}
				selected = append(selected, token)
			}
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			if len(selected) == 0 {
				selected = a.treasury
			}
			treasury, err := client.Balances(cmd.Context(), selected)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), treasury)
		},
	}
	cmd.Flags().StringSliceVar(&tokens, "token", nil, "token address, repeatable (default $TREASURY_TOKENS)")
	return cmd
}

func (a *app) decodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <calldata>",
		Short: "Decode wallet or token calldata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := args[0]
			if !strings.HasPrefix(raw, "0x") {
				raw = "0x" + raw
			}
			data, err := hexutil.Decode(raw)
			if err != nil {
				return fmt.Errorf("invalid calldata: %w", err)
			}
			codec, err := a.loadCodec()
			if err != nil {
				return err
			}
			decoded, ok := codec.Decode(data)
			if !ok {
				return fmt.Errorf("calldata matches no known function (selector %s)", selectorOf(data))
			}
			fmt.Fprintln(cmd.OutOrStdout(), decoded.String())
			return nil
		},
	}
}

func selectorOf(data []byte) string {
	if len(data) < 4 {
		return "none"
	}
	return hexutil.Encode(data[:4])
}

// idArg is shared by confirm and revoke.
func idArg(args []string) (*big.Int, error) {
	return parseAmountArg("transaction id", args[0])
}
