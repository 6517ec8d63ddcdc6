// Package main provides the rumor CLI: the guest list HTTP server and
// client commands that talk to it.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mesh-intelligence/rumor/pkg/types"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rumor:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps request errors to exitUserError and everything else to
// exitSysError.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, types.ErrValidation), errors.Is(err, types.ErrNotFound), errors.Is(err, errUsage):
		return exitUserError
	default:
		return exitSysError
	}
}
