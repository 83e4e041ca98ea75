package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/trainsphere/consolekit/internal/permission"
)

var permsCmd = &cobra.Command{
	Use:   "perms",
	Short: "Inspect effective permissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// permsListCmd prints the flattened permission flags for the session
var permsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List effective permission flags for the current workspace",
	Long: `List the flattened permission flags derived from the stored token's
selected workspace. Only granted flags appear; anything absent is denied.

Examples:
  consolekit perms list
  consolekit perms list --capability training`,
	RunE: func(cmd *cobra.Command, args []string) error {
		capability, _ := cmd.Flags().GetString("capability")

		env, err := newEnv()
		if err != nil {
			return err
		}
		restored, err := env.restoreSession()
		if err != nil {
			return err
		}
		if !restored {
			return fmt.Errorf("not logged in; run 'consolekit auth login'")
		}

		user := env.session.CurrentUser()

		if capability != "" {
			fmt.Printf("Capability %q in workspace %s:\n", capability, user.WorkspaceID)
			fmt.Printf("  read:   %v\n", permission.Granted(user.Permissions, capability))
			fmt.Printf("  create: %v\n", permission.HasCreatePermission(user.Permissions, capability))
			fmt.Printf("  update: %v\n", permission.HasUpdatePermission(user.Permissions, capability))
			fmt.Printf("  delete: %v\n", permission.HasDeletePermission(user.Permissions, capability))
			return nil
		}

		if len(user.Permissions) == 0 {
			fmt.Printf("No permissions granted in workspace %s.\n", user.WorkspaceID)
			return nil
		}

		keys := make([]string, 0, len(user.Permissions))
		for key := range user.Permissions {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Printf("Permissions in workspace %s:\n", user.WorkspaceID)
		for _, key := range keys {
			fmt.Printf("  %s\n", key)
		}

		return nil
	},
}

func init() {
	permsListCmd.Flags().String("capability", "", "show the full grant set for one capability")

	permsCmd.AddCommand(permsListCmd)
	rootCmd.AddCommand(permsCmd)
}
