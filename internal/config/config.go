package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	RPCURL              string
	WalletAddress       string
	SignerKey           string
	SupportedChainIDs   []uint64
	TreasuryTokens      []string
	ReceiptPollInterval time.Duration
	HTTPAddr            string
	JournalDSN          string
	RedisAddr           string
	CacheTTL            time.Duration
	KafkaBrokers        []string
	KafkaTopic          string
	KafkaGroupID        string
	OtelEndpoint        string
	Log                 LogConfig
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type EnvSource interface {
	Lookup(key string) (string, bool)
}

type EnvMap map[string]string

func (e EnvMap) Lookup(key string) (string, bool) {
	value, ok := e[key]
	return value, ok
}

func FromEnviron() EnvSource {
	env := make(EnvMap)
	for _, entry := range os.Environ() {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		env[parts[0]] = parts[1]
	}
	return env
}

func Load(source EnvSource) (Config, error) {
	if source == nil {
		return Config{}, errors.New("env source is required")
	}

	rpcURL, ok := source.Lookup("RPC_URL")
	if !ok || strings.TrimSpace(rpcURL) == "" {
		return Config{}, errors.New("RPC_URL is required")
	}

	walletAddress := lookupTrimmed(source, "WALLET_ADDRESS")
	if walletAddress != "" && !isHexAddress(walletAddress) {
		return Config{}, fmt.Errorf("invalid WALLET_ADDRESS: %q", walletAddress)
	}
	signerKey := strings.TrimPrefix(lookupTrimmed(source, "SIGNER_KEY"), "0x")

	chainIDs, err := parseUintList(source, "SUPPORTED_CHAIN_IDS")
	if err != nil {
		return Config{}, err
	}
	treasuryTokens, err := parseList(source, "TREASURY_TOKENS")
	if err != nil {
		return Config{}, err
	}
	for _, token := range treasuryTokens {
		if !isHexAddress(token) {
			return Config{}, fmt.Errorf("invalid TREASURY_TOKENS entry: %q", token)
		}
	}
	pollInterval, err := parseDurationEnv(source, "RECEIPT_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := parseDurationEnv(source, "CACHE_TTL", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	httpAddr := ":8080"
	if raw := lookupTrimmed(source, "HTTP_ADDR"); raw != "" {
		httpAddr = raw
	}

	journalDSN := lookupTrimmed(source, "JOURNAL_DSN")
	if journalDSN == "" {
		journalDSN = "sqlite:msigwallet.db"
	}

	redisAddr := lookupTrimmed(source, "REDIS_ADDR")
	kafkaBrokers, err := parseList(source, "KAFKA_BROKERS")
	if err != nil {
		return Config{}, err
	}
	kafkaTopic := lookupTrimmed(source, "KAFKA_TOPIC")
	if kafkaTopic == "" {
		kafkaTopic = "msigwallet-activity"
	}
	kafkaGroupID := lookupTrimmed(source, "KAFKA_GROUP_ID")
	if kafkaGroupID == "" {
		kafkaGroupID = "msigwallet-activity"
	}

	logCfg, err := loadLogConfig(source)
	if err != nil {
		return Config{}, err
	}

	return Config{
		RPCURL:              strings.TrimSpace(rpcURL),
		WalletAddress:       walletAddress,
		SignerKey:           signerKey,
		SupportedChainIDs:   chainIDs,
		TreasuryTokens:      treasuryTokens,
		ReceiptPollInterval: pollInterval,
		HTTPAddr:            httpAddr,
		JournalDSN:          journalDSN,
		RedisAddr:           redisAddr,
		CacheTTL:            cacheTTL,
		KafkaBrokers:        kafkaBrokers,
		KafkaTopic:          kafkaTopic,
		KafkaGroupID:        kafkaGroupID,
		OtelEndpoint:        lookupTrimmed(source, "OTEL_EXPORTER_OTLP_ENDPOINT"),
		Log:                 logCfg,
	}, nil
}

// JournalDriver splits JournalDSN into a database/sql driver name and its
// data source. A "sqlite:" prefix selects the embedded journal.
func (c Config) JournalDriver() (driver, dsn string) {
	if path, ok := strings.CutPrefix(c.JournalDSN, "sqlite:"); ok {
		return "sqlite", path
	}
	return "mysql", c.JournalDSN
}

func loadLogConfig(source EnvSource) (LogConfig, error) {
	cfg := LogConfig{
		Level: strings.ToLower(lookupTrimmed(source, "LOG_LEVEL")),
		File:  lookupTrimmed(source, "LOG_FILE"),
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	maxSize, err := parseUintEnv(source, "LOG_MAX_SIZE_MB", 100)
	if err != nil {
		return LogConfig{}, err
	}
	maxBackups, err := parseUintEnv(source, "LOG_MAX_BACKUPS", 5)
	if err != nil {
		return LogConfig{}, err
	}
	maxAge, err := parseUintEnv(source, "LOG_MAX_AGE_DAYS", 7)
	if err != nil {
		return LogConfig{}, err
	}
	cfg.MaxSizeMB = int(maxSize)
	cfg.MaxBackups = int(maxBackups)
	cfg.MaxAgeDays = int(maxAge)
	return cfg, nil
}

func lookupTrimmed(source EnvSource, key string) string {
	raw, _ := source.Lookup(key)
	return strings.TrimSpace(raw)
}

func isHexAddress(value string) bool {
	trimmed, ok := strings.CutPrefix(value, "0x")
	if !ok || len(trimmed) != 40 {
		return false
	}
	for _, r := range trimmed {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

func parseUintEnv(source EnvSource, key string, defaultValue uint64) (uint64, error) {
	raw, ok := source.Lookup(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func parseDurationEnv(source EnvSource, key string, defaultValue time.Duration) (time.Duration, error) {
	raw, ok := source.Lookup(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return duration, nil
}

// parseList returns nil when key is unset; kafka is optional.
func parseList(source EnvSource, key string) ([]string, error) {
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var values []string
	for _, item := range strings.Split(raw, ",") {
		value := strings.TrimSpace(item)
		if value == "" {
			continue
		}
		values = append(values, value)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("invalid %s: no entries", key)
	}
	return values, nil
}

func parseUintList(source EnvSource, key string) ([]uint64, error) {
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	items := strings.Split(raw, ",")
	values := make([]uint64, 0, len(items))
	for _, item := range items {
		value := strings.TrimSpace(item)
		if value == "" {
			continue
		}
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		values = append(values, parsed)
	}
	return values, nil
}
