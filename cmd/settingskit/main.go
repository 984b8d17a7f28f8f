package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	serviceName string
	accessGroup string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:          "settingskit",
	Short:        "Typed preferences and Keychain-backed credentials",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.settingskit/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serviceName, "service", "", "keychain service (overrides config)")
	rootCmd.PersistentFlags().StringVar(&accessGroup, "access-group", "", "keychain access group (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
