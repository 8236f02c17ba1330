package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"fixme-backend/internal/diagnosis"
)

func printEnvelope(w io.Writer, env diagnosis.Envelope) {
	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	_, _ = bold.Fprintln(w, env.DetectedIssue)
	_, _ = severityColor(env.Severity).Fprintln(w, env.Severity)
	fmt.Fprintln(w)
	fmt.Fprintln(w, env.Description)
	fmt.Fprintln(w)

	_, _ = bold.Fprint(w, "Estimated cost: ")
	fmt.Fprintf(w, "$%s - $%s\n", formatAmount(env.EstimatedPrice.Low), formatAmount(env.EstimatedPrice.High))
	printAccuracyBar(w, env.Accuracy)

	_, _ = dim.Fprintf(w, "request %s  images %d  %s\n", env.RequestID, env.ImagesAnalyzedCount, env.AnalysisTimestamp)
	if env.ErrorMessage != "" {
		_, _ = color.New(color.FgRed).Fprintf(w, "error: %s\n", env.ErrorMessage)
	}
}

func severityColor(severity string) *color.Color {
	s := strings.ToLower(severity)
	switch {
	case strings.HasPrefix(s, "high"):
		return color.New(color.FgRed, color.Bold)
	case strings.HasPrefix(s, "medium"):
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func printAccuracyBar(w io.Writer, accuracy int) {
	const barWidth = 24
	filled := accuracy * barWidth / 100
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	var barColor *color.Color
	switch {
	case accuracy >= 70:
		barColor = color.New(color.FgGreen)
	case accuracy >= 30:
		barColor = color.New(color.FgYellow)
	default:
		barColor = color.New(color.FgRed)
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	fmt.Fprintf(w, "Accuracy: %d%% ", accuracy)
	_, _ = barColor.Fprint(w, bar)
	fmt.Fprintln(w)
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
