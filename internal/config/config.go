package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL     string
	PrivateKey string

	PoolManager     string
	PositionManager string
	SwapRouter      string
	StateView       string

	Currency0   string
	Currency1   string
	Fee         uint32
	TickSpacing int32
	Hooks       string
	Decimals0   uint8
	Decimals1   uint8

	Out          string
	PgDSN        string
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RANGEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("fee", uint32(3000))
	v.SetDefault("tick-spacing", int32(60))
	v.SetDefault("decimals0", uint8(18))
	v.SetDefault("decimals1", uint8(18))
	v.SetDefault("out", "./data/plans.jsonl")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:          v.GetString("rpc"),
		PrivateKey:      v.GetString("private-key"),
		PoolManager:     v.GetString("pool-manager"),
		PositionManager: v.GetString("position-manager"),
		SwapRouter:      v.GetString("swap-router"),
		StateView:       v.GetString("state-view"),
		Currency0:       v.GetString("currency0"),
		Currency1:       v.GetString("currency1"),
		Fee:             v.GetUint32("fee"),
		TickSpacing:     v.GetInt32("tick-spacing"),
		Hooks:           v.GetString("hooks"),
		Decimals0:       uint8(v.GetUint("decimals0")),
		Decimals1:       uint8(v.GetUint("decimals1")),
		Out:             v.GetString("out"),
		PgDSN:           v.GetString("pg-dsn"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		LogLevel:        v.GetString("log-level"),
	}

	return cfg, nil
}
