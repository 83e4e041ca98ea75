package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trainsphere/consolekit/internal/apperr"
	"github.com/trainsphere/consolekit/internal/platform"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication and the stored session",
	Long: `Manage authentication against the training platform.

The auth command provides subcommands for registering, logging in, logging
out, refreshing the session token, and checking current status.

Credentials are stored in ~/.consolekit/auth.json.

Subcommands:
  register  Register a new user account
  login     Login with email and password
  logout    Logout and remove credentials
  status    Show current authentication status
  refresh   Obtain a fresh session token

Examples:
  consolekit auth login --email user@example.com --password mypass
  consolekit auth status
  consolekit auth refresh
  consolekit auth logout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// authLoginCmd handles user login
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to the platform",
	Long: `Login to the training platform with your email and password.

The returned session token is validated, a workspace is selected from its
claims, and the token is saved locally for later commands.

Examples:
  consolekit auth login --email user@example.com --password mypass
  consolekit auth login --email user@example.com --password mypass --workspace WS1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		if email == "" {
			return fmt.Errorf("--email is required")
		}
		if password == "" {
			return fmt.Errorf("--password is required")
		}

		env, err := newEnv()
		if err != nil {
			return err
		}

		fmt.Printf("Logging in as: %s\n", email)

		resp, err := env.client.Login(cmd.Context(), email, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		if err := env.session.SetToken(resp.Token, env.cfg.WorkspaceID); err != nil {
			return fmt.Errorf("server returned an unusable token: %w", err)
		}
		if err := env.persistSession(); err != nil {
			return fmt.Errorf("failed to save credentials: %w", err)
		}

		user := env.session.CurrentUser()
		fmt.Println("Login successful!")
		fmt.Printf("  User:      %s (%s)\n", user.Name, user.Role)
		fmt.Printf("  Workspace: %s\n", user.WorkspaceID)

		return nil
	},
}

// authRegisterCmd handles account registration
var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new user account",
	Long: `Register a new user account on the training platform.

On success you are logged in immediately and the session token is saved.

Examples:
  consolekit auth register --name "Pat Lee" --email pat@example.com --password mypass`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		role, _ := cmd.Flags().GetString("role")

		if name == "" {
			return fmt.Errorf("--name is required")
		}
		if email == "" {
			return fmt.Errorf("--email is required")
		}
		if password == "" {
			return fmt.Errorf("--password is required")
		}

		env, err := newEnv()
		if err != nil {
			return err
		}

		resp, err := env.client.Register(cmd.Context(), platform.RegisterRequest{
			Name:     name,
			Email:    email,
			Password: password,
			Role:     role,
		})
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}

		fmt.Printf("Account created for: %s\n", email)

		if err := env.session.SetToken(resp.Token, env.cfg.WorkspaceID); err != nil {
			// Account exists; the user can still login once the token
			// problem is sorted out server-side.
			return fmt.Errorf("server returned an unusable token: %w", err)
		}
		if err := env.persistSession(); err != nil {
			return fmt.Errorf("failed to save credentials: %w", err)
		}

		fmt.Println("Logged in.")
		return nil
	},
}

// authLogoutCmd handles user logout
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout and remove credentials",
	Long: `Logout and remove stored authentication credentials.

You will need to login again to use platform features.

Examples:
  consolekit auth logout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}

		restored, err := env.restoreSession()
		if err == nil && !restored {
			fmt.Println("Not logged in.")
			return nil
		}

		env.session.Logout()
		if err := env.creds.Clear(); err != nil {
			return fmt.Errorf("failed to remove credentials: %w", err)
		}

		fmt.Println("Logged out successfully.")
		fmt.Println()
		fmt.Println("Use 'consolekit auth login' to login again.")

		return nil
	},
}

// authStatusCmd shows the current session state
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current authentication status",
	Long: `Show the current authentication status: the signed-in user, the
selected workspace, and when the session token expires.

Examples:
  consolekit auth status`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}

		restored, err := env.restoreSession()
		if err != nil {
			if apperr.HasCode(err, apperr.CodeTokenMalformed) {
				fmt.Println("Status: stored token is malformed; run 'consolekit auth login'")
				return nil
			}
			return err
		}
		if !restored {
			fmt.Println("Status: not logged in")
			return nil
		}

		user := env.session.CurrentUser()
		fmt.Println("Status: logged in")
		fmt.Printf("  User:      %s <%s>\n", user.Name, user.Email)
		fmt.Printf("  Role:      %s\n", user.Role)
		fmt.Printf("  Workspace: %s\n", user.WorkspaceID)
		if !env.session.IsAuthenticated() {
			fmt.Println("  Token:     expired (run 'consolekit auth refresh')")
		}

		return nil
	},
}

// authRefreshCmd forces a token refresh
var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Obtain a fresh session token",
	Long: `Obtain a fresh session token from the platform and save it.

Network failures are retried a few times before giving up; token or
workspace problems fail immediately.

Examples:
  consolekit auth refresh`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}

		if _, err := env.restoreSession(); err != nil {
			return err
		}

		if _, err := env.session.RefreshWithRetry(cmd.Context()); err != nil {
			return fmt.Errorf("refresh failed: %w", err)
		}
		if err := env.persistSession(); err != nil {
			return fmt.Errorf("failed to save credentials: %w", err)
		}

		user := env.session.CurrentUser()
		fmt.Println("Session refreshed.")
		fmt.Printf("  User:      %s\n", user.Name)
		fmt.Printf("  Workspace: %s\n", user.WorkspaceID)

		return nil
	},
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authRegisterCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRefreshCmd)

	authLoginCmd.Flags().String("email", "", "Email address (required)")
	authLoginCmd.Flags().String("password", "", "Password (required)")

	authRegisterCmd.Flags().String("name", "", "Full name (required)")
	authRegisterCmd.Flags().String("email", "", "Email address (required)")
	authRegisterCmd.Flags().String("password", "", "Password (required)")
	authRegisterCmd.Flags().String("role", "trainee", "Requested platform role")

	rootCmd.AddCommand(authCmd)
}
