package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"time"

	"msigwallet/internal/abicodec"
	"msigwallet/internal/config"
	"msigwallet/internal/infrastructure/ethrpc"
	"msigwallet/internal/infrastructure/logging"
	"msigwallet/internal/multisig"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

const (
	rpcFlag     = "rpc"
	walletFlag  = "wallet"
	keyFlag     = "key"
	timeoutFlag = "timeout"
)

// app holds what subcommands share. The chain connection is opened lazily
// so offline commands such as decode work without RPC_URL.
type app struct {
	rpcURL  string
	wallet  string
	key     string
	timeout time.Duration

	codec    *abicodec.Codec
	rpc      *ethrpc.Client
	client   *multisig.Client
	treasury []common.Address
}

func main() {
	a := &app{}
	if err := a.rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "walletctl",
		Short:        "Inspect and drive a multisig wallet",
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	cmd.PersistentFlags().StringVar(&a.rpcURL, rpcFlag, "", "JSON-RPC endpoint (default $RPC_URL)")
	cmd.PersistentFlags().StringVarP(&a.wallet, walletFlag, "w", "", "wallet address (default $WALLET_ADDRESS)")
	cmd.PersistentFlags().StringVar(&a.key, keyFlag, "", "hex private key used to sign (default $SIGNER_KEY)")
	cmd.PersistentFlags().DurationVar(&a.timeout, timeoutFlag, 5*time.Minute, "give up waiting for a receipt after this long")

	cmd.AddCommand(
		a.membersCmd(),
		a.requiredCmd(),
		a.proposalsCmd(),
		a.proposalCmd(),
		a.balancesCmd(),
		a.decodeCmd(),
		a.submitCmd(),
		a.confirmCmd(),
		a.revokeCmd(),
		a.addMemberCmd(),
		a.removeMemberCmd(),
		a.replaceMemberCmd(),
		a.changeRequirementCmd(),
		a.changeMetadataCmd(),
		a.transferCmd(),
		a.tokenTransferCmd(),
		a.tokenApproveCmd(),
	)
	return cmd
}

func (a *app) loadCodec() (*abicodec.Codec, error) {
	if a.codec != nil {
		return a.codec, nil
	}
	codec, err := abicodec.New()
	if err != nil {
		return nil, err
	}
	a.codec = codec
	return codec, nil
}

// connect dials the node and builds a client attached to the configured
// wallet. Flags override the environment.
func (a *app) connect(ctx context.Context) (*multisig.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	cfg, err := config.LoadFromEnvWith(config.EnvMap{
		"RPC_URL":        a.rpcURL,
		"WALLET_ADDRESS": a.wallet,
		"SIGNER_KEY":     a.key,
	})
	if err != nil {
		return nil, err
	}
	logger, _ := logging.New(logging.Config{Level: cfg.Log.Level}, os.Stderr)
	slog.SetDefault(logger)

	codec, err := a.loadCodec()
	if err != nil {
		return nil, err
	}
	rpcClient, err := ethrpc.Dial(ctx, ethrpc.Config{
		URL:          cfg.RPCURL,
		Codec:        codec,
		PollInterval: cfg.ReceiptPollInterval,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	a.rpc = rpcClient

	clientCfg := multisig.Config{
		Provider: rpcClient,
		Codec:    codec,
		Networks: multisig.NetworksFromIDs(cfg.SupportedChainIDs),
		Logger:   logger,
	}
	if cfg.WalletAddress != "" {
		clientCfg.Wallet = common.HexToAddress(cfg.WalletAddress)
	}
	if cfg.SignerKey != "" {
		signer, err := rpcClient.NewSigner(cfg.SignerKey)
		if err != nil {
			return nil, err
		}
		clientCfg.Signer = signer
	}
	client, err := multisig.NewClient(clientCfg)
	if err != nil {
		return nil, err
	}
	for _, token := range cfg.TreasuryTokens {
		a.treasury = append(a.treasury, common.HexToAddress(token))
	}
	a.client = client
	return client, nil
}

func (a *app) close() {
	if a.rpc != nil {
		a.rpc.Close()
		a.rpc = nil
	}
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// printSteps reports each step as it arrives and returns the terminal error.
func printSteps(w io.Writer, steps multisig.Steps) error {
	for step, err := range steps {
		if err != nil {
			return err
		}
		switch {
		case step.TransactionID != nil:
			fmt.Fprintf(w, "%s transaction_id=%s\n", step.Kind, step.TransactionID)
		default:
			fmt.Fprintf(w, "%s tx_hash=%s\n", step.Kind, step.TxHash.Hex())
		}
	}
	return nil
}

func parseAddressArg(name, raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid %s address %q", name, raw)
	}
	return common.HexToAddress(raw), nil
}

func parseAmountArg(name, raw string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	return value, nil
}
