package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/benaskins/settingskit/internal/keychain"
	"github.com/spf13/cobra"
)

// runRotationCommand executes a rotation script and captures its stdout.
// The script must output the new secret value to stdout (and only the value).
func runRotationCommand(command string) (string, error) {
	cmd := exec.Command("/bin/sh", "-c", command)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("exit code %d: %s", exitErr.ExitCode(), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	value := strings.TrimRight(string(output), "\n")
	if value == "" {
		return "", errors.New("rotation command printed nothing")
	}
	return value, nil
}

var secretRotateCmd = &cobra.Command{
	Use:   "rotate <account>",
	Short: "Replace a secret with the output of a command",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		command, _ := cmd.Flags().GetString("command")
		if command == "" {
			return errors.New("--command is required")
		}
		policyName, _ := cmd.Flags().GetString("accessible")
		policy, err := keychain.ParseAccessibility(policyName)
		if err != nil {
			return err
		}

		value, err := runRotationCommand(command)
		if err != nil {
			return fmt.Errorf("rotation command failed: %w", err)
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.repo.Store(secretRecord{Name: args[0], Value: value, Policy: policy}); err != nil {
			return fmt.Errorf("storing rotated secret: %w", err)
		}
		slog.Debug("secret rotated", "account", args[0])
		fmt.Printf("Secret %q rotated\n", args[0])
		return nil
	},
}

func init() {
	secretRotateCmd.Flags().String("command", "", "shell command that prints the new value")
	secretRotateCmd.Flags().String("accessible", "when-unlocked", "when the secret may be read")
	secretCmd.AddCommand(secretRotateCmd)
}
