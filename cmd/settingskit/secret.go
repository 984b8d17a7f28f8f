package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/benaskins/settingskit/internal/credential"
	"github.com/benaskins/settingskit/internal/keychain"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// secretRecord is the record the CLI stores. Its JSON shape matches the
// items written by preference.SecureSetting[string].
type secretRecord struct {
	Name   string                 `json:"account"`
	Value  string                 `json:"value"`
	Policy keychain.Accessibility `json:"-"`
}

func (r secretRecord) Account() string { return r.Name }

func (r secretRecord) Accessibility() keychain.Accessibility { return r.Policy }

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage secrets in the secure item store",
}

var secretSetCmd = &cobra.Command{
	Use:   "set <account> [value]",
	Short: "Store a secret",
	Long:  "Store a secret. If value is omitted, reads from stdin (useful for piping).",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		policyName, _ := cmd.Flags().GetString("accessible")
		policy, err := keychain.ParseAccessibility(policyName)
		if err != nil {
			return err
		}

		var value string
		if len(args) == 2 {
			value = args[1]
		} else {
			value, err = readSecretValue()
			if err != nil {
				return err
			}
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		rec := secretRecord{Name: args[0], Value: value, Policy: policy}
		if err := s.repo.Store(rec); err != nil {
			return err
		}
		fmt.Printf("Secret %q stored (%s)\n", args[0], policy.Name())
		return nil
	},
}

func readSecretValue() (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Print("Enter secret value: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		fmt.Println()
		return string(b), nil
	}
	b, err := os.ReadFile("/dev/stdin")
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

var secretGetCmd = &cobra.Command{
	Use:   "get <account>",
	Short: "Retrieve a secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reveal, _ := cmd.Flags().GetBool("reveal")

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		rec, found, err := credential.Retrieve[secretRecord](s.repo, args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("secret %q not found", args[0])
		}
		if reveal {
			fmt.Println(rec.Value)
		} else {
			fmt.Println(maskValue(rec.Value))
		}
		return nil
	},
}

var secretListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all accounts in the scope",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		accounts, err := s.repo.RetrieveAccounts()
		if err != nil {
			return err
		}

		if len(accounts) == 0 {
			fmt.Println("No secrets stored")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ACCOUNT")
		for _, a := range accounts {
			fmt.Fprintln(w, a)
		}
		w.Flush()
		return nil
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:     "delete <account>",
	Short:   "Remove a secret",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.repo.DeleteAccount(args[0]); err != nil {
			return err
		}
		fmt.Printf("Secret %q deleted\n", args[0])
		return nil
	},
}

var secretClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every secret in the scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return errors.New("refusing to clear without --yes")
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		err = s.repo.ClearAll()
		var clearErr *credential.ClearError
		if errors.As(err, &clearErr) {
			for _, f := range clearErr.Failed {
				fmt.Fprintf(os.Stderr, "failed to delete %q: %v\n", f.Account, f.Err)
			}
		}
		if err != nil {
			return err
		}
		fmt.Printf("Cleared service %q\n", s.repo.DefaultScope().Service)
		return nil
	},
}

func init() {
	secretSetCmd.Flags().String("accessible", "when-unlocked", "when the secret may be read (e.g. after-first-unlock, when-unlocked-this-device-only)")
	secretGetCmd.Flags().Bool("reveal", false, "print the value unmasked")
	secretClearCmd.Flags().Bool("yes", false, "confirm removal of every secret in the scope")

	secretCmd.AddCommand(secretSetCmd)
	secretCmd.AddCommand(secretGetCmd)
	secretCmd.AddCommand(secretListCmd)
	secretCmd.AddCommand(secretDeleteCmd)
	secretCmd.AddCommand(secretClearCmd)
	rootCmd.AddCommand(secretCmd)
}
