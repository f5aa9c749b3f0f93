package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// DefaultNativeVault is the mainnet SafeBoxETH.
	DefaultNativeVault = "0xeEa3311250FE4c3268F8E684f7C87A82fF183Ec1"
	// DefaultNativeWrapper is mainnet WETH.
	DefaultNativeWrapper = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
)

// Config holds values shared by the single-vault commands.
type Config struct {
	RPCURL        string
	NativeVault   string
	NativeWrapper string
	Oracle        string
	Vault         string
	Op            string
	Amount        string
	Shares        string
	Denominator   string
	LogLevel      string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"native-vault":   DefaultNativeVault,
		"native-wrapper": DefaultNativeWrapper,
		"op":             "enter",
		"log-level":      "info",
	})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:        v.GetString("rpc"),
		NativeVault:   v.GetString("native-vault"),
		NativeWrapper: v.GetString("native-wrapper"),
		Oracle:        v.GetString("oracle"),
		Vault:         v.GetString("vault"),
		Op:            strings.ToLower(strings.TrimSpace(v.GetString("op"))),
		Amount:        v.GetString("amount"),
		Shares:        v.GetString("shares"),
		Denominator:   v.GetString("denominator"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("SAFEBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
