package main

import "os"

// Exit codes for different error types. These let scripts distinguish
// between failure modes without parsing stderr.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitGeneral indicates a general error.
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or usage error.
	ExitUsage = 2

	// ExitResolveFailed indicates dependency resolution failed.
	ExitResolveFailed = 3

	// ExitLockInvalid indicates a lock-file failed to parse.
	ExitLockInvalid = 4

	// ExitNetwork indicates a registry transport failure.
	ExitNetwork = 5

	// ExitBuildFailed indicates the dependency build orchestrator failed.
	ExitBuildFailed = 6

	// ExitCancelled indicates the operation was cancelled by a signal.
	ExitCancelled = 130
)

// exitWithCode exits with the specified exit code.
func exitWithCode(code int) {
	os.Exit(code)
}
