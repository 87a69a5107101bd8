package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"msigwallet/internal/abicodec"
	"msigwallet/internal/application"
	"msigwallet/internal/config"
	"msigwallet/internal/infrastructure/ethrpc"
	"msigwallet/internal/infrastructure/journal"
	"msigwallet/internal/infrastructure/kafka"
	"msigwallet/internal/infrastructure/logging"
	"msigwallet/internal/infrastructure/telemetry"
	"msigwallet/internal/interfaces/httpapi"
	"msigwallet/internal/multisig"

	"github.com/ethereum/go-ethereum/common"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	logCloser, err := logging.Init(logging.Config(cfg.Log))
	if err != nil {
		slog.Error("logger init error", "err", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.InitTracer(ctx, "msigwallet-walletd", version, cfg.OtelEndpoint)
	if err != nil {
		slog.Warn("tracing init error", "err", err)
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				slog.Warn("tracing shutdown error", "err", err)
			}
		}()
	}

	codec, err := abicodec.New()
	if err != nil {
		slog.Error("abi codec error", "err", err)
		os.Exit(1)
	}

	rpcClient, err := ethrpc.Dial(ctx, ethrpc.Config{
		URL:          cfg.RPCURL,
		Codec:        codec,
		PollInterval: cfg.ReceiptPollInterval,
	})
	if err != nil {
		slog.Error("rpc error", "err", err)
		os.Exit(1)
	}
	defer rpcClient.Close()

	clientCfg := multisig.Config{
		Provider: rpcClient,
		Codec:    codec,
		Networks: multisig.NetworksFromIDs(cfg.SupportedChainIDs),
	}
	if cfg.WalletAddress != "" {
		clientCfg.Wallet = common.HexToAddress(cfg.WalletAddress)
	}
	if cfg.SignerKey != "" {
		signer, err := rpcClient.NewSigner(cfg.SignerKey)
		if err != nil {
			slog.Error("signer error", "err", err)
			os.Exit(1)
		}
		clientCfg.Signer = signer
		slog.Info("signer loaded", "address", signer.Address().Hex())
	} else {
		slog.Warn("no SIGNER_KEY configured, write endpoints are disabled")
	}
	client, err := multisig.NewClient(clientCfg)
	if err != nil {
		slog.Error("multisig client error", "err", err)
		os.Exit(1)
	}

	store, err := journal.Open(cfg, slog.Default())
	if err != nil {
		slog.Error("journal error", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	metrics := httpapi.NewMetrics()
	// With brokers configured the journal is filled by the activity
	// consumer; otherwise steps are written to it directly.
	sinks := []application.ActivitySink{metrics}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		})
		if err != nil {
			slog.Error("kafka error", "err", err)
			os.Exit(1)
		}
		defer producer.Close()
		sinks = append(sinks, producer)
	} else {
		sinks = append(sinks, store)
	}

	recorder := application.NewRecorder(slog.Default(), sinks...)
	service := application.NewWalletService(client, recorder, store)
	treasuryTokens := make([]common.Address, 0, len(cfg.TreasuryTokens))
	for _, token := range cfg.TreasuryTokens {
		treasuryTokens = append(treasuryTokens, common.HexToAddress(token))
	}
	service.SetTreasuryTokens(treasuryTokens)

	server, err := httpapi.NewServer(service, store, rpcClient, metrics, httpapi.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}, slog.Default())
	if err != nil {
		slog.Error("http server error", "err", err)
		os.Exit(1)
	}

	if chainID, err := client.ChainID(ctx); err != nil {
		slog.Warn("chain check failed", "err", err)
	} else {
		slog.Info("connected", "chain_id", chainID, "kafka", len(cfg.KafkaBrokers) > 0)
	}

	if err := server.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
		slog.Error("http server stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("walletd stopped")
}
