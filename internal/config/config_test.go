package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(EnvMap{"RPC_URL": "http://127.0.0.1:8545"})
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8545", cfg.RPCURL)
	require.Equal(t, 2*time.Second, cfg.ReceiptPollInterval)
	require.Equal(t, 30*time.Second, cfg.CacheTTL)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, "msigwallet-activity", cfg.KafkaTopic)
	require.Nil(t, cfg.KafkaBrokers)
	require.Nil(t, cfg.SupportedChainIDs)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, 100, cfg.Log.MaxSizeMB)

	driver, dsn := cfg.JournalDriver()
	require.Equal(t, "sqlite", driver)
	require.Equal(t, "msigwallet.db", dsn)
}

func TestLoadRequiresRPCURL(t *testing.T) {
	_, err := Load(EnvMap{})
	require.ErrorContains(t, err, "RPC_URL")

	_, err = Load(nil)
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(EnvMap{
		"RPC_URL":               "ws://node:8546",
		"WALLET_ADDRESS":        "0x000000000000000000000000000000000000BEEF",
		"SIGNER_KEY":            "0xabcdef",
		"SUPPORTED_CHAIN_IDS":   "2151, 2019",
		"TREASURY_TOKENS":       "0x0000000000000000000000000000000000070c3e",
		"RECEIPT_POLL_INTERVAL": "500ms",
		"JOURNAL_DSN":           "user:pw@tcp(db:3306)/wallet?parseTime=true",
		"KAFKA_BROKERS":         "k1:9092,k2:9092",
		"LOG_LEVEL":             "DEBUG",
	})
	require.NoError(t, err)
	require.Equal(t, "abcdef", cfg.SignerKey)
	require.Equal(t, []uint64{2151, 2019}, cfg.SupportedChainIDs)
	require.Equal(t, []string{"0x0000000000000000000000000000000000070c3e"}, cfg.TreasuryTokens)
	require.Equal(t, 500*time.Millisecond, cfg.ReceiptPollInterval)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "debug", cfg.Log.Level)

	driver, dsn := cfg.JournalDriver()
	require.Equal(t, "mysql", driver)
	require.Equal(t, "user:pw@tcp(db:3306)/wallet?parseTime=true", dsn)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]EnvMap{
		"wallet":   {"RPC_URL": "x", "WALLET_ADDRESS": "0x1234"},
		"chains":   {"RPC_URL": "x", "SUPPORTED_CHAIN_IDS": "1,abc"},
		"interval": {"RPC_URL": "x", "RECEIPT_POLL_INTERVAL": "soon"},
		"negative": {"RPC_URL": "x", "CACHE_TTL": "-1s"},
		"log size": {"RPC_URL": "x", "LOG_MAX_SIZE_MB": "big"},
		"brokers":  {"RPC_URL": "x", "KAFKA_BROKERS": " , "},
		"tokens":   {"RPC_URL": "x", "TREASURY_TOKENS": "0xabc"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(env)
			require.Error(t, err)
		})
	}
}

func TestOverlayPrefersNonEmptyOverrides(t *testing.T) {
	base := EnvMap{"RPC_URL": "http://env:8545", "WALLET_ADDRESS": "0x000000000000000000000000000000000000beef"}
	cfg, err := Load(Overlay(EnvMap{"RPC_URL": "http://flag:8545", "WALLET_ADDRESS": ""}, base))
	require.NoError(t, err)
	require.Equal(t, "http://flag:8545", cfg.RPCURL)
	require.Equal(t, "0x000000000000000000000000000000000000beef", cfg.WalletAddress)

	_, err = Load(Overlay(nil, nil))
	require.Error(t, err)
}
