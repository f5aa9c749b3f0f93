package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"safeboxAdapter/internal/chain"
	"safeboxAdapter/internal/config"
	"safeboxAdapter/internal/oracle"
	"safeboxAdapter/internal/safebox"
)

func main() {
	root := &cobra.Command{
		Use:          "safebox",
		Short:        "SafeBox vault adapter",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that an address is a SafeBox vault",
		RunE:  runValidate,
	}
	addVaultFlags(validateCmd)
	root.AddCommand(validateCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Show input tokens, exit quote and share price",
		RunE:  runQuote,
	}
	addVaultFlags(quoteCmd)
	quoteCmd.Flags().String("shares", "", "vault shares to quote for exit (base units)")
	quoteCmd.Flags().String("denominator", "", "token to price one share in")
	quoteCmd.Flags().String("oracle", "", "price oracle contract")
	root.AddCommand(quoteCmd)

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the calls needed to enter or exit a vault",
		RunE:  runPlan,
	}
	addVaultFlags(planCmd)
	planCmd.Flags().String("op", "enter", "operation (enter, exit)")
	planCmd.Flags().String("amount", "", "deposit amount or shares to withdraw (base units)")
	root.AddCommand(planCmd)

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Snapshot vault state to JSONL and Postgres",
		RunE:  runScan,
	}
	scanCmd.Flags().String("rpc", "", "RPC URL")
	scanCmd.Flags().StringSlice("vault", nil, "vault addresses (comma-separated)")
	scanCmd.Flags().String("native-vault", config.DefaultNativeVault, "native-asset SafeBox")
	scanCmd.Flags().String("native-wrapper", config.DefaultNativeWrapper, "wrapped native-asset token")
	scanCmd.Flags().String("out", "./data/snapshots.jsonl", "output snapshots JSONL")
	scanCmd.Flags().String("errors", "./data/scan_errors.jsonl", "scan errors JSONL")
	scanCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	scanCmd.Flags().Int("batch-size", 100, "snapshots per write")
	scanCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(scanCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addVaultFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().String("vault", "", "SafeBox vault address")
	cmd.Flags().String("native-vault", config.DefaultNativeVault, "native-asset SafeBox")
	cmd.Flags().String("native-wrapper", config.DefaultNativeWrapper, "wrapped native-asset token")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// session bundles what the single-vault commands share.
type session struct {
	cfg     config.Config
	logger  *zap.Logger
	chain   *chain.Client
	adapter *safebox.Adapter
	vault   common.Address
	params  []byte
}

func (s *session) Close() {
	if s.chain != nil {
		s.chain.Close()
	}
	_ = s.logger.Sync()
}

func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	vault, err := config.ParseAddress(cfg.Vault)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	adapterCfg, err := adapterConfig(cfg.NativeVault, cfg.NativeWrapper)
	if err != nil {
		return nil, err
	}
	params, err := safebox.EncodeParams(vault)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	var priceOracle oracle.Oracle
	if cfg.Oracle != "" {
		oracleAddr, err := config.ParseAddress(cfg.Oracle)
		if err != nil {
			chainClient.Close()
			return nil, fmt.Errorf("oracle: %w", err)
		}
		priceOracle = oracle.NewChainOracle(chainClient, oracleAddr)
	}

	return &session{
		cfg:     cfg,
		logger:  logger,
		chain:   chainClient,
		adapter: safebox.NewAdapter(adapterCfg, chainClient, priceOracle, logger),
		vault:   vault,
		params:  params,
	}, nil
}

func adapterConfig(nativeVault, nativeWrapper string) (safebox.Config, error) {
	vault, err := config.ParseAddress(nativeVault)
	if err != nil {
		return safebox.Config{}, fmt.Errorf("native vault: %w", err)
	}
	wrapper, err := config.ParseAddress(nativeWrapper)
	if err != nil {
		return safebox.Config{}, fmt.Errorf("native wrapper: %w", err)
	}
	return safebox.Config{NativeVault: vault, NativeWrapper: wrapper}, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func printJSON(w io.Writer, value interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
