package cmd

import (
	"github.com/fatih/color"

	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/scoring"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

func colorTrustLevel(level string) string {
	switch level {
	case scoring.TrustHigh:
		return colorSuccess(level)
	case scoring.TrustMedium:
		return colorWarn(level)
	default:
		return colorError(level)
	}
}
