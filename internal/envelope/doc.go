// Package envelope encrypts a manifest under a single 256-bit key.
//
// A blob is IV || ciphertext, optionally prefixed by a KDF salt, and is
// stored either as base64 text or raw bytes. Three AES-256 modes are
// supported:
//
//   - gcm: authenticated, 16-byte nonce (default)
//   - cfb: streaming, no padding
//   - cbc: PKCS#7 padded, padding checked on decrypt
//
// Keys come from GenerateKey, DecodeKey, or DeriveKey (PBKDF2-HMAC-SHA256).
// Nothing in this package reads configuration or the environment.
package envelope
