package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	eterrors "github.com/otherjamesbrown/entitime/pkg/errors"
)

// NewAuthCommand creates the 'auth' command group.
func NewAuthCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the extraction API key",
		Long: `Manage the Private AI extraction API key.

The key is encrypted at rest with AES-256-GCM; the encryption key lives in
the system keyring. For CI, set ENTITIME_API_KEY directly and skip storage.

Examples:
  entitime auth set-key      Prompt for and store the API key
  entitime auth show         Show the stored key (masked)
  entitime auth clear        Remove the stored key`,
	}

	cmd.AddCommand(newAuthSetKeyCommand(deps))
	cmd.AddCommand(newAuthShowCommand(deps))
	cmd.AddCommand(newAuthClearCommand(deps))

	return cmd
}

// newAuthSetKeyCommand creates the 'auth set-key' subcommand.
func newAuthSetKeyCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "set-key",
		Short: "Store the extraction API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := readAPIKey(cmd)
			if err != nil {
				return err
			}

			store, err := deps.NewCredentialStore()
			if err != nil {
				return err
			}

			if err := store.SetAPIKey(key); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "API key stored (encryption key: %s)\n", store.KeyDescription())
			return nil
		},
	}
}

// newAuthShowCommand creates the 'auth show' subcommand.
func newAuthShowCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored API key (masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.NewCredentialStore()
			if err != nil {
				return err
			}

			key, err := store.APIKey()
			if eterrors.IsNoCredentials(err) {
				return fmt.Errorf("no API key stored; run 'entitime auth set-key'")
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "API key:     %s\n", maskKey(key))
			if updated, err := store.LastUpdated(); err == nil && !updated.IsZero() {
				fmt.Fprintf(out, "Updated:     %s\n", updated.Format("2006-01-02 15:04:05 UTC"))
			}
			fmt.Fprintf(out, "Storage:     %s\n", store.KeyDescription())
			return nil
		},
	}
}

// newAuthClearCommand creates the 'auth clear' subcommand.
func newAuthClearCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.NewCredentialStore()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Stored credentials removed")
			return nil
		},
	}
}

// readAPIKey reads the API key from the terminal without echo, or from
// stdin when not attached to a terminal (piped input).
func readAPIKey(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())

	if term.IsTerminal(fd) {
		fmt.Fprint(cmd.OutOrStdout(), "API key: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		key := strings.TrimSpace(string(raw))
		if key == "" {
			return "", fmt.Errorf("API key is empty: %w", eterrors.ErrInvalidInput)
		}
		return key, nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		return "", fmt.Errorf("reading API key from stdin: %w", eterrors.ErrEmptyInput)
	}
	key := strings.TrimSpace(scanner.Text())
	if key == "" {
		return "", fmt.Errorf("API key is empty: %w", eterrors.ErrInvalidInput)
	}
	return key, nil
}
