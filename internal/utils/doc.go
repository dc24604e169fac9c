// Package utils holds small helpers shared by the workflows and commands.
//
// Filesystem:
//   - FindProjectRoot: walks up to the nearest .wfb directory
//   - WriteFileAtomic: temp file plus rename
//
// Input and terminal:
//   - ReadInput, ReadStdin: read a file or piped data
//   - ReadPassphrase, ReadPassphraseFromTTY: hidden prompts for passwords
//
// Formatting:
//   - FormatPaths, Plural
package utils
