// Package cli provides common utilities for the taf command-line tool.
//
// This package includes:
//   - Output formatting (text, YAML, JSON)
//   - Human-readable byte and duration formatting
//   - Lipgloss styles for terminal summaries
//
// Example usage:
//
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatYAML,
//	    File:   outputPath,
//	})
package cli
