package utils

import (
	"fmt"

	"github.com/QB2027/WebFileBrowser/internal/ui"
)

// FormatPaths renders paths as an indented bullet list.
func FormatPaths(paths []string) string {
	return "\n" + ui.Bullets(paths, ui.Path)
}

// Plural returns "1 file", "2 files".
func Plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
