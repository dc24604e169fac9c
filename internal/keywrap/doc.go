// Package keywrap encrypts a 32-byte symmetric key for a single recipient.
//
// Three schemes are supported, selected by the recipient's declared Family:
//
//   - rsa: RSA-OAEP, SHA-256 hash and MGF1, no label, keys of 2048 bits or more
//   - ecies: secp256k1 ECDH, HKDF-SHA256, AES-256-GCM with a 16-byte nonce,
//     laid out as ephemeral pubkey || nonce || tag || ciphertext
//   - sealedbox: Curve25519 anonymous box, compatible with crypto_box_seal
//
// Wrap returns base64 text. Errors wrap ErrInvalidPublicKey or
// ErrInvalidPrivateKey when a key fails to parse, and ErrWrapFailed or
// ErrUnwrapFailed when the operation itself fails.
package keywrap
