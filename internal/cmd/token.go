package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/trainsphere/consolekit/internal/token"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Inspect session tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var tokenInspectJSON bool

// tokenInspectCmd decodes a token and prints its claims
var tokenInspectCmd = &cobra.Command{
	Use:   "inspect [token]",
	Short: "Decode a session token and show its claims",
	Long: `Decode a session token and show its identity claims and workspaces.

With no argument the stored credentials are inspected. The signature is
not verified; the platform verifies tokens server-side.

Examples:
  consolekit token inspect
  consolekit token inspect eyJhbGciOi...
  consolekit token inspect --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw string
		if len(args) == 1 {
			raw = args[0]
		} else {
			env, err := newEnv()
			if err != nil {
				return err
			}
			stored, ok, err := env.creds.Load()
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no stored credentials; pass a token or login first")
			}
			raw = stored.Token
		}

		decoded, err := token.Decode(raw)
		if err != nil {
			return err
		}

		if tokenInspectJSON {
			data, err := json.MarshalIndent(decoded, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal token info: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Subject:    %s\n", decoded.Subject)
		fmt.Printf("User:       %s <%s>\n", decoded.DisplayName(), decoded.Email)
		if decoded.Division != "" {
			fmt.Printf("Division:   %s\n", decoded.Division)
		}
		if decoded.Department != "" {
			fmt.Printf("Department: %s\n", decoded.Department)
		}
		fmt.Printf("Issued:     %s\n", decoded.IssuedAt.Format(time.RFC3339))
		fmt.Printf("Expires:    %s", decoded.ExpiresAt.Format(time.RFC3339))
		if !decoded.ValidAt(time.Now()) {
			fmt.Print("  (expired)")
		}
		fmt.Println()

		fmt.Printf("Workspaces: %d\n", len(decoded.Workspaces))
		for _, ws := range decoded.Workspaces {
			fmt.Printf("  %s", ws.ID)
			if roles := ws.Roles[token.SimulatorModule]; len(roles) > 0 {
				fmt.Printf("  roles=%v", roles)
			}
			if len(ws.SimulatorPermissions()) == 0 {
				fmt.Print("  (no simulator permissions)")
			}
			fmt.Println()
		}

		return nil
	},
}

func init() {
	tokenInspectCmd.Flags().BoolVar(&tokenInspectJSON, "json", false, "output claims as JSON")

	tokenCmd.AddCommand(tokenInspectCmd)
	rootCmd.AddCommand(tokenCmd)
}
