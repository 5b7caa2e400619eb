// Package cli provides shared plumbing for the repfit commands:
// interactive prompts, spinner feedback, output formatting and the typed
// errors cmd maps to semantic exit codes.
package cli
