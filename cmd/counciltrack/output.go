package main

import (
	"fmt"
	"os"
)

// ANSI escapes for terminal output. Helpers write to stderr so piped stdout
// stays machine-readable (triage listings, config values).
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

// line prints one glyph-prefixed message to stderr.
func line(color, glyph, format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(color, glyph+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { line(colorGreen, "✓", format, args...) }

func printError(format string, args ...any) { line(colorRed, "✗", format, args...) }

func printWarning(format string, args ...any) { line(colorYellow, "!", format, args...) }

func printStep(format string, args ...any) { line(colorCyan, "»", format, args...) }

// printStatus prints an aligned "label: value" row for status and triage
// listings.
func printStatus(label, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s %s\n",
		colorize(colorBold, fmt.Sprintf("%-20s", label+":")),
		fmt.Sprintf(format, args...))
}
