package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Formatter styles one kind of CLI text. Without color it falls back to a
// plain-text prefix and suffix.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

// Sprint formats like fmt.Sprint.
func (f Formatter) Sprint(a ...interface{}) string {
	return f.render(fmt.Sprint(a...))
}

// Sprintf formats like fmt.Sprintf.
func (f Formatter) Sprintf(format string, a ...interface{}) string {
	return f.render(fmt.Sprintf(format, a...))
}

func (f Formatter) render(text string) string {
	if f.color == nil {
		return text
	}
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// EnsureNewline appends a newline if s does not already end with one.
func EnsureNewline(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}

// Bullets renders items one per line as "    - item", each styled with f.
func Bullets(items []string, f Formatter) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("    - ")
		b.WriteString(f.Sprint(item))
		b.WriteString("\n")
	}
	return b.String()
}

// Field renders an aligned "label: value" line for status output.
func Field(label string, value string) string {
	return fmt.Sprintf("  %-14s %s\n", label+":", value)
}

// noColor honors NO_COLOR (https://no-color.org/) and fatih/color's own
// terminal detection.
func noColor() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}

var (
	// Code is a runnable command. `backticks` without color.
	Code = Formatter{color.New(color.FgYellow), "`", "`"}

	// Path is a file, directory or object key.
	Path = Formatter{color.New(color.FgYellow), "", ""}

	// Flag is a CLI flag such as --dry-run.
	Flag = Formatter{color.New(color.FgYellow), "", ""}

	Success = Formatter{color.New(color.FgGreen), "", ""}
	Error   = Formatter{color.New(color.FgRed), "", ""}
	Warning = Formatter{color.New(color.FgYellow), "", ""}

	// Info marks hints and arrows.
	Info = Formatter{color.New(color.FgCyan), "", ""}

	// Highlight is a user-supplied value: a user id, a bucket name. 'quoted' without color.
	Highlight = Formatter{color.New(color.FgCyan), "'", "'"}

	// Plain applies no styling.
	Plain = Formatter{}

	// Muted is secondary detail. (parenthesized) without color.
	Muted = Formatter{color.New(color.FgHiBlack), "(", ")"}
)
