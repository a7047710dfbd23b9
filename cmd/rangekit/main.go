package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rangekit/internal/config"
	"rangekit/internal/model"
)

func main() {
	root := &cobra.Command{
		Use:          "rangekit",
		Short:        "Concentrated-liquidity range toolkit",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(newConvertCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newInitPoolCmd())
	root.AddCommand(newMintCmd())
	root.AddCommand(newSwapCmd())
	root.AddCommand(newApproveCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(cfgFile, cmd.Flags())
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

func poolKeyFromConfig(cfg config.Config) (model.PoolKey, error) {
	if cfg.Currency0 == "" || cfg.Currency1 == "" {
		return model.PoolKey{}, fmt.Errorf("currency0 and currency1 are required")
	}
	return model.PoolKey{
		Currency0:   cfg.Currency0,
		Currency1:   cfg.Currency1,
		Fee:         cfg.Fee,
		TickSpacing: cfg.TickSpacing,
		Hooks:       cfg.Hooks,
	}, nil
}
