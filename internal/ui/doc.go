// Package ui provides semantic text formatting for CLI output.
//
// Pick the formatter by what the text is:
//
//	ui.Code.Sprint("wfb publish")
//	ui.Path.Sprint("files.json.enc")
//	ui.Highlight.Sprint("alice")
//	ui.Error.Sprint("✗")
//
// Color is dropped when NO_COLOR is set or the output is not a terminal.
// Code, Highlight and Muted then fall back to backticks, quotes and
// parentheses; the rest print unchanged.
package ui
