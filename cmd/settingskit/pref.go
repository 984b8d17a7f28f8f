package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/benaskins/settingskit/internal/preference"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func openPreferences() (*preference.FileStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return preference.OpenFileStore(cfg.PreferencesPath)
}

// parseScalar reads a command-line value as YAML so "10" and "true" are
// stored as a number and a boolean.
func parseScalar(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil || v == nil {
		return s
	}
	return v
}

var prefCmd = &cobra.Command{
	Use:   "pref",
	Short: "Manage plain preferences",
}

var prefGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openPreferences()
		if err != nil {
			return err
		}
		def, _ := cmd.Flags().GetString("default")
		v, ok := store.Get(args[0])
		if !ok {
			if !cmd.Flags().Changed("default") {
				return fmt.Errorf("preference %q not set", args[0])
			}
			fmt.Println(def)
			return nil
		}
		fmt.Println(v)
		return nil
	},
}

var prefSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a preference",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openPreferences()
		if err != nil {
			return err
		}
		return store.Set(args[0], parseScalar(args[1]))
	},
}

var prefRemoveCmd = &cobra.Command{
	Use:     "rm <key>",
	Short:   "Remove a preference",
	Aliases: []string{"delete"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openPreferences()
		if err != nil {
			return err
		}
		return store.Remove(args[0])
	},
}

var prefListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List preferences",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openPreferences()
		if err != nil {
			return err
		}
		printPreferences(store)
		return nil
	},
}

var prefWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print preferences whenever the file changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openPreferences()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(os.Stderr, "Watching %s (Ctrl-C to stop)\n", store.Path())
		printPreferences(store)
		return store.Watch(ctx, func() {
			fmt.Println()
			printPreferences(store)
		})
	},
}

func printPreferences(store preference.Store) {
	keys := store.Keys()
	if len(keys) == 0 {
		fmt.Println("No preferences set")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE")
	for _, k := range keys {
		v, _ := store.Get(k)
		fmt.Fprintf(w, "%s\t%v\n", k, v)
	}
	w.Flush()
}

func init() {
	prefGetCmd.Flags().String("default", "", "value to print when the key is not set")

	prefCmd.AddCommand(prefGetCmd)
	prefCmd.AddCommand(prefSetCmd)
	prefCmd.AddCommand(prefRemoveCmd)
	prefCmd.AddCommand(prefListCmd)
	prefCmd.AddCommand(prefWatchCmd)
	rootCmd.AddCommand(prefCmd)
}
