package main

import "os"

// Exit codes for different outcomes.
// These enable scripts to distinguish between failure modes.
const (
	// ExitSuccess indicates the file matched a published checksum
	ExitSuccess = 0

	// ExitMismatch indicates no computed digest matched any claimed value
	ExitMismatch = 1

	// ExitError indicates the check could not be completed:
	// bad arguments, unreadable file, or no usable algorithm
	ExitError = 2
)

// exitWithCode exits with the specified exit code
func exitWithCode(code int) {
	os.Exit(code)
}
