// Package cli translates command-line flags into the application's
// internal configuration and owns process-level concerns: validating
// user input, usage output, and exit codes.
package cli
