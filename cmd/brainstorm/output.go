package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/kalambet/brainstorm/internal/board"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
	colorPink   = "\033[95m"
	colorBold   = "\033[1m"
)

var swatches = map[board.Color]string{
	board.ColorYellow: colorYellow,
	board.ColorBlue:   colorBlue,
	board.ColorGreen:  colorGreen,
	board.ColorPink:   colorPink,
	board.ColorPurple: colorPurple,
}

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// noteLine is the one-line listing of a note used by board show.
func noteLine(n board.Note) string {
	content := strings.Join(strings.Fields(n.Content), " ")
	if len(content) > 60 {
		content = content[:60] + "..."
	}
	line := fmt.Sprintf("%s  %s  (%.0f,%.0f) %.0fx%.0f  %s",
		colorize(colorCyan, shortID(n.ID)),
		colorize(swatches[n.Color], "■"),
		n.Position.X, n.Position.Y,
		n.Size.Width, n.Size.Height,
		content,
	)
	if n.ImageURL != "" {
		line += colorize(colorBold, " [image]")
	}
	if n.Link != "" {
		line += " → " + n.Link
	}
	return line
}
