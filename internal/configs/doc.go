// Package configs reads the project configuration and resolves user paths.
//
// A project is any directory containing .wfb/. Its config.toml holds the
// encryption parameters at top level and one table per concern:
//
//	encryption_iterations = 100000
//	encryption_salt_length = 16
//	encryption_iv_length = 16
//
//	[bucket]      name, region, endpoint, prefix, url_expiry_seconds, upload
//	[source]      kind (bucket or local), root, exclude_dirs, exclude_files
//	[encryption]  mode, encoding, key_source (random, env or password)
//	[recipients]  registry, workers
//	[output]      manifest, encrypted, wrapped_keys
//
// Missing keys take their defaults and unknown keys are rejected. After the
// file is read, WFB_* environment variables override individual settings,
// for example WFB_ENCRYPTION_ITERATIONS or WFB_BUCKET_NAME.
//
// User-level state lives outside the project: generated private keys go to
// $XDG_DATA_HOME/wfb/keys.
package configs
