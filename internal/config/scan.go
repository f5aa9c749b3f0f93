package config

import (
	"github.com/spf13/pflag"
)

// ScanConfig holds configuration for the scan command.
type ScanConfig struct {
	RPCURL        string
	NativeVault   string
	NativeWrapper string
	Vaults        []string
	Out           string
	Errors        string
	PGDSN         string
	BatchSize     int
	LogLevel      string
}

// LoadScan merges config file, environment variables, and flags into ScanConfig.
func LoadScan(cfgFile string, flags *pflag.FlagSet) (ScanConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"native-vault":   DefaultNativeVault,
		"native-wrapper": DefaultNativeWrapper,
		"out":            "./data/snapshots.jsonl",
		"errors":         "./data/scan_errors.jsonl",
		"batch-size":     100,
		"log-level":      "info",
	})
	if err != nil {
		return ScanConfig{}, err
	}

	cfg := ScanConfig{
		RPCURL:        v.GetString("rpc"),
		NativeVault:   v.GetString("native-vault"),
		NativeWrapper: v.GetString("native-wrapper"),
		Vaults:        getStringSlice(v, "vault"),
		Out:           v.GetString("out"),
		Errors:        v.GetString("errors"),
		PGDSN:         v.GetString("pg-dsn"),
		BatchSize:     v.GetInt("batch-size"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}
