package exitcode

import (
	"os"
	"strings"

	"github.com/trainsphere/consolekit/internal/apperr"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// AuthError indicates an authentication or authorization failure
	AuthError = 3

	// NetworkError indicates a network connectivity issue
	NetworkError = 4

	// ConfigError indicates invalid or unreadable configuration
	ConfigError = 5

	// Interrupted indicates the user cancelled the operation
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code.
// Coded errors map directly; anything else falls back to message matching.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	switch apperr.CodeOf(err) {
	case apperr.CodeTokenMalformed,
		apperr.CodeNoWorkspace,
		apperr.CodeNoValidWorkspace,
		apperr.CodeSessionExpired,
		apperr.CodeInvalidCredentials,
		apperr.CodeUnauthorizedRequest:
		return AuthError
	case apperr.CodeRefreshNetwork:
		return NetworkError
	case apperr.CodeConfigInvalid, apperr.CodeCredentialStore:
		return ConfigError
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "authentication") || strings.Contains(errMsg, "unauthorized") {
		return AuthError
	}
	if strings.Contains(errMsg, "token") || strings.Contains(errMsg, "credential") {
		return AuthError
	}

	if strings.Contains(errMsg, "network") || strings.Contains(errMsg, "connection") {
		return NetworkError
	}
	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}

	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "missing argument") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case ConfigError:
		return "Configuration error"
	default:
		return "Unknown error"
	}
}
