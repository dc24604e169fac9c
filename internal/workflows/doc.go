// Package workflows implements each wfb command independent of the CLI.
//
// The cmd package parses flags, calls one workflow and renders its result.
// Workflows do the rest: locate the project, load and validate config,
// run the operation and append an audit entry.
//
//   - Init: create .wfb/ with config.toml and an empty registry
//   - BuildManifest: list the bucket or scan a directory into a tree
//   - EncryptManifest: seal the tree under the configured key source
//   - DistributeKey: wrap the key for every registered recipient
//   - Publish: build, encrypt, distribute and optionally upload in one run
//   - DecryptManifest: recover the tree with a private key or the password
//   - GenerateKeys, AddRecipient, RemoveRecipient: manage the registry
//   - Status, Log: report project state and history
//
// Errors are sentinels from internal/errors, matched with errors.Is.
// Per-recipient failures are not errors: DistributeKey and Publish return
// them in the result, and the caller decides the exit status from Outcome.
package workflows
