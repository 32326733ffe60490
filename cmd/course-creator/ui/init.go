// Package ui provides terminal interface components for the course-creator CLI.
package ui

import (
	"os"

	"github.com/fatih/color"
)

var (
	verboseFlag bool

	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgHiWhite, color.Bold)
)

// InitUI initializes the UI with color and verbose settings.
func InitUI(noColor, verbose bool) {
	verboseFlag = verbose

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

// Verbose reports whether verbose output was requested.
func Verbose() bool {
	return verboseFlag
}
