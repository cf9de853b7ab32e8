package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"energystats/pkg/auth"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authIdentity string

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage vendor API keys",
	Long: `Manage vendor API keys stored in the system keychain.

Keys are looked up in this order:
  - Configuration file and environment variables
  - System keychain (service "energystats")
  - Encrypted file in the user config directory (energystats/credentials.enc)

Without a keychain, as on most servers, keys are written to the encrypted
file. Its passphrase is read from ENERGYSTATS_PASSPHRASE or generated into
energystats/.passphrase on first use.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set <octopus|myenergi>",
	Short: "Store an API key in the system keychain",
	Example: `  # Prompt for the Octopus API key and remember the account number
  energystats auth set octopus --identity A-1234ABCD

  # Store the myenergi key for a hub
  energystats auth set myenergi --identity 12345678`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthSet,
}

var authDeleteCmd = &cobra.Command{
	Use:   "delete <octopus|myenergi>",
	Short: "Remove a stored API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthDelete,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which API keys are available",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authDeleteCmd)
	authCmd.AddCommand(authStatusCmd)
	authSetCmd.Flags().StringVar(&authIdentity, "identity", "", "Octopus account number or myenergi hub serial number")
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	vendor, err := auth.ParseVendor(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	auth.ShowAPIKeyGuide(out, vendor)
	fmt.Fprintf(out, "%s API key: ", vendor)
	key, err := readSecret(cmd.InOrStdin(), out)
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	if key == "" {
		return fmt.Errorf("no API key entered")
	}

	if err := newCredentialManager().Store(&auth.Credential{
		Vendor:   vendor,
		APIKey:   key,
		Identity: authIdentity,
	}); err != nil {
		return err
	}
	fmt.Fprintf(out, "Stored %s API key\n", vendor)
	return nil
}

func runAuthDelete(cmd *cobra.Command, args []string) error {
	vendor, err := auth.ParseVendor(args[0])
	if err != nil {
		return err
	}
	if err := newCredentialManager().Delete(vendor); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s API key\n", vendor)
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	manager := newCredentialManager()
	out := cmd.OutOrStdout()
	for _, vendor := range auth.Vendors {
		cred, err := manager.Retrieve(vendor)
		if err != nil {
			fmt.Fprintf(out, "%-9s not configured\n", vendor)
			continue
		}
		masked := auth.SanitizeCredential(cred)
		fmt.Fprintf(out, "%-9s %s %s\n", vendor, masked.APIKey, masked.Identity)
	}
	return nil
}

// readSecret reads a line without echo when in is a terminal
func readSecret(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
