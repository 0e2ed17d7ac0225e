package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"property-dapp-backend/bootstrap"
	"property-dapp-backend/internal/config"
	"property-dapp-backend/internal/pkg/logging"

	"github.com/spf13/cobra"
)

type containerKey struct{}

var rootCmd = &cobra.Command{
	Use:           "propertyctl",
	Short:         "List and act on property listings from the command line",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logging.Setup(opts.LogLevel, "development")
		c, err := bootstrap.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		cmd.SetContext(context.WithValue(cmd.Context(), containerKey{}, c))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if c, ok := containerFrom(cmd); ok {
			c.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(listCmd, getCmd, lookupCmd, createCmd, buyCmd, rateCmd, deleteCmd)
}

func containerFrom(cmd *cobra.Command) (*bootstrap.Container, bool) {
	c, ok := cmd.Context().Value(containerKey{}).(*bootstrap.Container)
	return c, ok
}

func mustContainer(cmd *cobra.Command) (*bootstrap.Container, error) {
	c, ok := containerFrom(cmd)
	if !ok {
		return nil, errors.New("failed to get container from context")
	}
	return c, nil
}

// withWallet connects the configured wallet and returns its address as the sender.
func withWallet(cmd *cobra.Command) (*bootstrap.Container, string, error) {
	c, err := mustContainer(cmd)
	if err != nil {
		return nil, "", err
	}
	if c.Wallet == nil {
		return nil, "", errors.New("WALLET_MNEMONIC is required for this command")
	}
	if _, err := c.Wallet.Connect(cmd.Context()); err != nil {
		return nil, "", err
	}
	return c, c.Wallet.Address(), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
