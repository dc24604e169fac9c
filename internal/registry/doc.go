// Package registry reads and edits the file that lists manifest recipients.
//
// Every user has an explicit key family and an encoded public key:
//
//	{"alice": {"family": "rsa", "public_key": "-----BEGIN PUBLIC KEY-----..."}}
//
// The same shape is accepted as YAML, and as TOML using [users.<id>] tables.
// Problems with the file itself are reported as ErrRegistryInvalid. A bad key
// or an unknown family only affects that user at distribution time.
package registry
