package ui

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestFormatterWithColor(t *testing.T) {
	original := color.NoColor
	defer func() { color.NoColor = original }()
	color.NoColor = false

	result := Code.Sprint("wfb publish")
	if strings.Contains(result, "`") {
		t.Errorf("Code.Sprint should not add backticks when color is enabled, got: %s", result)
	}
	if !strings.Contains(result, "\x1b[") {
		t.Errorf("Code.Sprint should contain ANSI escape codes when color is enabled, got: %s", result)
	}
}

func TestFormatterWithNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name      string
		formatter Formatter
		input     string
		want      string
	}{
		{"Code", Code, "wfb keys list", "`wfb keys list`"},
		{"Path", Path, ".wfb/config.toml", ".wfb/config.toml"},
		{"Flag", Flag, "--dry-run", "--dry-run"},
		{"Success", Success, "✓", "✓"},
		{"Error", Error, "✗", "✗"},
		{"Highlight", Highlight, "alice", "'alice'"},
		{"Muted", Muted, "3 of 5", "(3 of 5)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.formatter.Sprint(tt.input); got != tt.want {
				t.Errorf("%s.Sprint(%q) = %q, want %q", tt.name, tt.input, got, tt.want)
			}
		})
	}
}

func TestSprintf(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if got := Code.Sprintf("wfb manifest %s", "build"); got != "`wfb manifest build`" {
		t.Errorf("Code.Sprintf() = %q", got)
	}
}

func TestBulletsAndField(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	got := Bullets([]string{"bob", "carol"}, Highlight)
	want := "    - 'bob'\n    - 'carol'\n"
	if got != want {
		t.Errorf("Bullets() = %q, want %q", got, want)
	}
	if Bullets(nil, Path) != "" {
		t.Errorf("Bullets(nil) should be empty")
	}

	if got := Field("Bucket", "class-files"); got != "  Bucket:        class-files\n" {
		t.Errorf("Field() = %q", got)
	}
}

func TestEnsureNewline(t *testing.T) {
	for in, want := range map[string]string{"": "\n", "a": "a\n", "a\n": "a\n"} {
		if got := EnsureNewline(in); got != want {
			t.Errorf("EnsureNewline(%q) = %q, want %q", in, got, want)
		}
	}
}
