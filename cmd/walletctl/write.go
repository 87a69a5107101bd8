package main

import (
	"context"
	"fmt"
	"strconv"

	"msigwallet/internal/multisig"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

type proposalText struct {
	title       string
	description string
}

func (p *proposalText) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.title, "title", "", "proposal title")
	cmd.Flags().StringVar(&p.description, "description", "", "proposal description")
}

// writeCmd builds a command that starts one write operation and prints
// its steps until the receipt arrives or --timeout expires.
func (a *app) writeCmd(use, short string, args cobra.PositionalArgs, start func(ctx context.Context, client *multisig.Client, args []string) (multisig.Steps, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
			defer cancel()
			client, err := a.connect(ctx)
			if err != nil {
				return err
			}
			steps, err := start(ctx, client, args)
			if err != nil {
				return err
			}
			return printSteps(cmd.OutOrStdout(), steps)
		},
	}
}

func (a *app) submitCmd() *cobra.Command {
	var (
		text  proposalText
		to    string
		value string
		data  string
	)
	cmd := a.writeCmd("submit", "Propose an arbitrary call from the wallet", cobra.NoArgs,
		func(ctx context.Context, client *multisig.Client, args []string) (multisig.Steps, error) {
			destination, err := parseAddressArg("destination", to)
			if err != nil {
				return nil, err
			}
			amount, err := parseAmountArg("value", value)
			if err != nil {
				return nil, err
			}
			var calldata []byte
			if data != "" {
				if calldata, err = hexutil.Decode(data); err != nil {
					return nil, fmt.Errorf("invalid data: %w", err)
				}
			}
			return client.SubmitTransaction(ctx, multisig.SubmitRequest{
				Title:       text.title,
				Description: text.description,
				Destination: destination,
				Value:       amount,
				Data:        calldata,
			})
		})
	text.bind(cmd)
	cmd.Flags().StringVar(&to, "to", "", "destination address")
	cmd.Flags().StringVar(&value, "value", "0", "native value in wei")
	cmd.Flags().StringVar(&data, "data", "", "hex calldata")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (a *app) confirmCmd() *cobra.Command {
	return a.writeCmd("confirm <id>", "Approve a proposal", cobra.ExactArgs(1),
		func(ctx context.Context, client *multisig.Client, args []string) (multisig.Steps, error) {
			id, err := idArg(args)
			if err != nil {
				return nil, err
			}
			return client.ConfirmTransaction(ctx, id)
		})
}

func (a *app) revokeCmd() *cobra.Command {
	return a.writeCmd("revoke <id>", "Withdraw an approval", cobra.ExactArgs(1),
		func(ctx context.Context, client *multisig.Client, args []string) (multisig.Steps, error) {
			id, err := idArg(args)
			if err != nil {
				return nil, err
			}
			return client.RevokeConfirmation(ctx, id)
		})
}

func (a *app) addMemberCmd() *cobra.Command {
	var text proposalText
	cmd := a.writeCmd("add-member <address>", "Propose adding an owner", cobra.ExactArgs(1),
		func(ctx context.Context, client *multisig.Client, args []string) (multisig.Steps, error) {
			owner, err := parseAddressArg("owner", args[0])
			if err != nil {
				return nil, err
			}
			return client.SubmitAddMember(ctx, text.title, text.description, owner)
		})
	text.bind(cmd)
	return cmd
}

func (a *app) removeMemberCmd() *cobra.Command {
	var text proposalText
	cmd := a.writeCmd("remove-member <address>", "Propose removing an owner", cobra.ExactArgs(1),
		func(ctx context.Context, client *multisig.Client, args []string) (multisig.Steps, error) {
			owner, err := parseAddressArg("owner", args[0])
			if err != nil {
				return nil, err
			}
			return client.SubmitRemoveMember(ctx, text.title, text.description, owner)
		})
	text.bind(cmd)
	return cmd
}

func (a *app) replaceMemberCmd() *cobra.Command {
	var text proposalText
	cmd := a.writeCmd("replace-member <old> <new>", "Propose swapping one owner for another", cobra.ExactArgs(2),
		func(ctx context.Context, client *multisig.Client, args []string) (multisig.Steps, error) {
			owner, err := parseAddressArg("owner", args[0])
			if err != nil {
				return nil, err
			}
			newOwner, err := parseAddressArg("new owner", args[1])
			if err != nil {
				return nil, err
			}
			return client.SubmitReplaceMember(ctx, text.title, text.description, owner, newOwner)
		})
	text.bind(cmd)
	return cmd
}

func (a *app) changeRequirementCmd() *cobra.Command {
	var text proposalText
	cmd := a.writeCmd("change-requirement <n>", "Propose a new approval threshold", cobra.ExactArgs(1),
		func(ctx context.Context, client *multisig.Client, args []string) (multisig.Steps, error) {
			required, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || required == 0 {
				return nil, fmt.Errorf("invalid requirement %q", args[0])
			}
			return client.SubmitChangeRequirement(ctx, text.title, text.description, required)
		})
	text.bind(cmd)
	return cmd
}

func (a *app) changeMetadataCmd() *cobra.Command {
	var text proposalText
	cmd := a.writeCmd("change-metadata <name> <description>", "Propose new wallet metadata", cobra.ExactArgs(2),
		func(ctx context.Context, client *multisig.Client, args []string) (multisig.Steps, error) {
			return client.SubmitChangeMetadata(ctx, text.title, text.description, args[0], args[1])
		})
	text.bind(cmd)
	return cmd
}

func (a *app) transferCmd() *cobra.Command {
	var text proposalText
	cmd := a.writeCmd("transfer <to> <amount>", "Propose a native currency transfer", cobra.ExactArgs(2),
		func(ctx context.Context, client *multisig.Client, args []string) (multisig.Steps, error) {
			to, err := parseAddressArg("recipient", args[0])
			if err != nil {
				return nil, err
			}
			amount, err := parseAmountArg("amount", args[1])
			if err != nil {
				return nil, err
			}
			return client.SubmitNativeTransfer(ctx, text.title, text.description, to, amount)
		})
	text.bind(cmd)
	return cmd
}

func (a *app) tokenTransferCmd() *cobra.Command {
	var text proposalText
	cmd := a.writeCmd("token-transfer <token> <to> <amount>", "Propose a token transfer", cobra.ExactArgs(3),
		func(ctx context.Context, client *multisig.Client, args []string) (multisig.Steps, error) {
			token, err := parseAddressArg("token", args[0])
			if err != nil {
				return nil, err
			}
			to, err := parseAddressArg("recipient", args[1])
			if err != nil {
				return nil, err
			}
			amount, err := parseAmountArg("amount", args[2])
			if err != nil {
				return nil, err
			}
			return client.SubmitTokenTransfer(ctx, text.title, text.description, token, to, amount)
		})
	text.bind(cmd)
	return cmd
}

func (a *app) tokenApproveCmd() *cobra.Command {
	var text proposalText
	cmd := a.writeCmd("token-approve <token> <spender> <amount>", "Propose a token allowance", cobra.ExactArgs(3),
		func(ctx context.Context, client *multisig.Client, args []string) (multisig.Steps, error) {
			token, err := parseAddressArg("token", args[0])
			if err != nil {
				return nil, err
			}
			spender, err := parseAddressArg("spender", args[1])
			if err != nil {
				return nil, err
			}
			amount, err := parseAmountArg("amount", args[2])
			if err != nil {
				return nil, err
			}
			return client.SubmitTokenApprove(ctx, text.title, text.description, token, spender, amount)
		})
	text.bind(cmd)
	return cmd
}
