package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"safeboxAdapter/internal/chain"
	"safeboxAdapter/internal/config"
	"safeboxAdapter/internal/model"
	"safeboxAdapter/internal/safebox"
	"safeboxAdapter/internal/storage"
	"safeboxAdapter/internal/storage/postgres"
)

func runScan(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadScan(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if len(cfg.Vaults) == 0 {
		return fmt.Errorf("at least one vault is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch size must be > 0")
	}

	vaults, err := config.ParseAddresses(cfg.Vaults)
	if err != nil {
		return fmt.Errorf("vaults: %w", err)
	}
	adapterCfg, err := adapterConfig(cfg.NativeVault, cfg.NativeWrapper)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}
	blockNumber, err := chainClient.LatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("latest block: %w", err)
	}

	sinks := storage.Multi{storage.NewJsonlStorage(cfg.Out)}
	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, store)
	}

	errWriter, err := newJSONLWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	adapter := safebox.NewAdapter(adapterCfg, chainClient, nil, logger)

	logger.Info("scan start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("chain_id", chainID),
		zap.Uint64("block", blockNumber),
		zap.Int("vaults", len(vaults)),
		zap.String("out", cfg.Out),
		zap.Bool("postgres", store != nil),
	)

	batch := make([]model.VaultSnapshot, 0, cfg.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := sinks.PutSnapshots(ctx, batch); err != nil {
			return fmt.Errorf("write snapshots: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	var valid, invalid, failed int
	for _, vault := range vaults {
		if err := ctx.Err(); err != nil {
			return err
		}

		snapshot, err := snapshotVault(ctx, adapter, vault, chainID, blockNumber)
		if err != nil {
			failed++
			writeScanError(errWriter, model.ScanError{
				ChainID:     chainID,
				BlockNumber: blockNumber,
				Vault:       vault.Hex(),
				Error:       err.Error(),
			})
			logger.Warn("vault scan failed", zap.String("vault", vault.Hex()), zap.Error(err))
			continue
		}
		if snapshot.Valid {
			valid++
		} else {
			invalid++
		}

		if store != nil && snapshot.Valid {
			logRateDrift(ctx, logger, store, snapshot)
		}

		batch = append(batch, snapshot)
		if len(batch) >= cfg.BatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	logger.Info("scan complete",
		zap.Int("total", len(vaults)),
		zap.Int("valid", valid),
		zap.Int("invalid", invalid),
		zap.Int("failed", failed),
	)

	return nil
}

// snapshotVault reads one vault. Invalid targets still produce a snapshot with Valid false.
func snapshotVault(ctx context.Context, adapter *safebox.Adapter, vault common.Address, chainID, blockNumber uint64) (model.VaultSnapshot, error) {
	classified := adapter.Classify(vault)
	snapshot := model.VaultSnapshot{
		ChainID:     chainID,
		BlockNumber: blockNumber,
		Vault:       vault.Hex(),
		Kind:        classified.Kind.String(),
		ObservedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}

	params, err := safebox.EncodeParams(vault)
	if err != nil {
		return model.VaultSnapshot{}, fmt.Errorf("encode params: %w", err)
	}
	if !adapter.IsValidTarget(ctx, params) {
		return snapshot, nil
	}
	snapshot.Valid = true

	rateToken, err := adapter.RateToken(ctx, vault)
	if err != nil {
		return model.VaultSnapshot{}, err
	}
	snapshot.RateToken = rateToken.Hex()

	inputToken, err := adapter.AssetToken(ctx, classified)
	if err != nil {
		return model.VaultSnapshot{}, err
	}
	snapshot.InputToken = inputToken.Hex()

	rate, err := adapter.ExchangeRate(ctx, vault)
	if err != nil {
		return model.VaultSnapshot{}, err
	}
	snapshot.ExchangeRate = rate.String()

	return snapshot, nil
}

func logRateDrift(ctx context.Context, logger *zap.Logger, store *postgres.Store, snapshot model.VaultSnapshot) {
	prevRate, prevBlock, ok, err := store.LatestExchangeRate(ctx, snapshot.ChainID, snapshot.Vault)
	if err != nil {
		logger.Warn("previous rate lookup failed", zap.String("vault", snapshot.Vault), zap.Error(err))
		return
	}
	if !ok || prevRate == snapshot.ExchangeRate {
		return
	}
	logger.Info("exchange rate moved",
		zap.String("vault", snapshot.Vault),
		zap.String("previous", prevRate),
		zap.Uint64("previous_block", prevBlock),
		zap.String("current", snapshot.ExchangeRate),
	)
}

type jsonlWriter struct {
	file   *os.File
	writer *bufio.Writer
}

func newJSONLWriter(path string, appendMode bool) (*jsonlWriter, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &jsonlWriter{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (w *jsonlWriter) Write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

func (w *jsonlWriter) Close() error {
	if w == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

func writeScanError(writer *jsonlWriter, errRecord model.ScanError) {
	if writer == nil {
		return
	}
	_ = writer.Write(errRecord)
}
