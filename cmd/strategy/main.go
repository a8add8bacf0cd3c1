package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/wyfcoding/optionstrategy/internal/strategy/application"
	"github.com/wyfcoding/optionstrategy/internal/strategy/domain"
	"github.com/wyfcoding/optionstrategy/pkg/config"
	"github.com/wyfcoding/optionstrategy/pkg/logger"
)

const BootstrapName = "strategy"

var configPath string

var rootCmd = &cobra.Command{
	Use:   BootstrapName,
	Short: "Option strategy valuation and risk service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Calculate one strategy and print the result as JSON",
	Example: "strategy calculate --strategy iron_condor --symbol SPY --expiration 2026-11-20 " +
		"--strikes 430,440,460,470 --underlying 450",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return calculateOnce(cmd, cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c",
		config.GetEnv("APP_CONFIG", "configs/strategy.toml"), "path to the TOML config file")

	f := calculateCmd.Flags()
	f.String("strategy", "", "bull_call, bear_put, bear_call, bull_put, iron_condor or butterfly")
	f.String("symbol", "", "underlying symbol")
	f.String("expiration", "", "expiration date (YYYY-MM-DD)")
	f.StringSlice("strikes", nil, "ascending strikes, comma separated")
	f.Int("contracts", 1, "number of contracts")
	f.String("underlying", "", "underlying price override")
	_ = calculateCmd.MarkFlagRequired("strategy")
	_ = calculateCmd.MarkFlagRequired("symbol")
	_ = calculateCmd.MarkFlagRequired("expiration")
	_ = calculateCmd.MarkFlagRequired("strikes")

	rootCmd.AddCommand(calculateCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logger); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

func calculateOnce(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	strategy, _ := f.GetString("strategy")
	symbol, _ := f.GetString("symbol")
	expiration, _ := f.GetString("expiration")
	rawStrikes, _ := f.GetStringSlice("strikes")
	contracts, _ := f.GetInt("contracts")
	underlying, _ := f.GetString("underlying")

	exp, err := domain.ParseDate(expiration)
	if err != nil {
		return err
	}
	strikes := make([]decimal.Decimal, 0, len(rawStrikes))
	for _, s := range rawStrikes {
		k, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("invalid strike %q: %w", s, err)
		}
		strikes = append(strikes, k)
	}
	command := application.CalculateStrategyCommand{
		Strategy:   strategy,
		Symbol:     symbol,
		Expiration: exp,
		Strikes:    strikes,
		Contracts:  contracts,
	}
	if underlying != "" {
		price, err := decimal.NewFromString(underlying)
		if err != nil {
			return fmt.Errorf("invalid underlying price %q: %w", underlying, err)
		}
		command.UnderlyingPrice = &price
	}

	appCtx, cleanup, err := initService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := appCtx.Calculator.Calculate(context.Background(), command)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
