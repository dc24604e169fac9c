package errors

import (
	"errors"
	"fmt"
)

// Kind roots. Every specific error below wraps exactly one of these, so callers
// can match either the precise condition or its severity class.
var (
	// ErrConfiguration indicates missing or malformed settings. Always fatal for the run.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidKey indicates a key failed to parse or has the wrong family or size.
	ErrInvalidKey = errors.New("invalid key")

	// ErrDecryption indicates a ciphertext failed authentication, padding, or framing checks.
	ErrDecryption = errors.New("decryption error")

	// ErrWrap indicates a recipient's key-wrap operation failed.
	ErrWrap = errors.New("wrap error")

	// ErrUnwrap indicates a wrapped key could not be recovered.
	ErrUnwrap = errors.New("unwrap error")
)

// Project state errors indicate issues with project configuration or initialization.
var (
	// ErrProjectNotInitialized indicates the project has no .wfb directory.
	ErrProjectNotInitialized = errors.New("project has not been initialized")

	// ErrProjectAlreadyInitialized indicates the project already has a .wfb directory.
	ErrProjectAlreadyInitialized = errors.New("project has already been initialized")

	// ErrInvalidProjectConfig indicates the project configuration is malformed or corrupt.
	ErrInvalidProjectConfig = fmt.Errorf("%w: project configuration is invalid", ErrConfiguration)

	// ErrMissingSetting indicates a required setting has no value.
	ErrMissingSetting = fmt.Errorf("%w: required setting is missing", ErrConfiguration)

	// ErrMissingCredentials indicates bucket credentials were named but not present.
	ErrMissingCredentials = fmt.Errorf("%w: bucket credentials are missing", ErrConfiguration)

	// ErrRegistryInvalid indicates the user registry file is missing or malformed.
	ErrRegistryInvalid = fmt.Errorf("%w: user registry is invalid", ErrConfiguration)
)

// Cryptographic errors indicate failures during encryption, decryption, or key handling.
var (
	// ErrInvalidKeyLength indicates the symmetric key is not 32 bytes.
	ErrInvalidKeyLength = fmt.Errorf("%w: symmetric key must be 32 bytes", ErrInvalidKey)

	// ErrInvalidKeyEncoding indicates an encoded symmetric key could not be decoded.
	ErrInvalidKeyEncoding = fmt.Errorf("%w: symmetric key encoding is invalid", ErrInvalidKey)

	// ErrInvalidPublicKey indicates a recipient public key is malformed or too weak.
	ErrInvalidPublicKey = fmt.Errorf("%w: invalid or unsupported public key", ErrInvalidKey)

	// ErrInvalidPrivateKey indicates the private key is malformed or unsupported.
	ErrInvalidPrivateKey = fmt.Errorf("%w: invalid or unsupported private key", ErrInvalidKey)

	// ErrPassphraseRequired indicates an encrypted private key was supplied without a passphrase.
	ErrPassphraseRequired = fmt.Errorf("%w: private key is passphrase protected", ErrInvalidKey)

	// ErrUnknownKeyFamily indicates a key family tag outside rsa, ecies, sealedbox.
	ErrUnknownKeyFamily = fmt.Errorf("%w: unknown key family", ErrInvalidKey)

	// ErrDecryptionFailed indicates a cipher blob could not be authenticated or unpadded.
	ErrDecryptionFailed = fmt.Errorf("%w: failed to decrypt blob", ErrDecryption)

	// ErrMalformedBlob indicates a cipher blob is too short or badly encoded.
	ErrMalformedBlob = fmt.Errorf("%w: malformed cipher blob", ErrDecryption)

	// ErrWrapFailed indicates the asymmetric encryption of the key failed.
	ErrWrapFailed = fmt.Errorf("%w: failed to wrap symmetric key", ErrWrap)

	// ErrUnwrapFailed indicates the asymmetric decryption of the key failed.
	ErrUnwrapFailed = fmt.Errorf("%w: failed to unwrap symmetric key", ErrUnwrap)
)

// Distribution errors indicate issues with recipients as a whole.
var (
	// ErrNoRecipients indicates the registry contains no users.
	ErrNoRecipients = fmt.Errorf("%w: no recipients configured", ErrConfiguration)

	// ErrUserNotFound indicates the specified user is not in the registry or key file.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists indicates the user is already present in the registry.
	ErrUserExists = errors.New("user already exists")

	// ErrPartialDistribution indicates some, but not all, recipients received the key.
	ErrPartialDistribution = errors.New("key was not distributed to every recipient")

	// ErrDistributionFailed indicates no recipient received the key.
	ErrDistributionFailed = errors.New("key was not distributed to any recipient")
)

// Bucket errors indicate issues talking to object storage.
var (
	// ErrBucketNotFound indicates the configured bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrBucketAccessDenied indicates the credentials were rejected.
	ErrBucketAccessDenied = errors.New("bucket access denied")
)

// File errors indicate issues with file discovery or access.
var (
	// ErrNoFilesFound indicates no files matched the provided patterns.
	ErrNoFilesFound = errors.New("no matching files found")

	// ErrFileNotFound indicates a specific file could not be located.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidDateFormat indicates a date filter could not be parsed.
	ErrInvalidDateFormat = errors.New("invalid date format")
)

// Kind identifies the severity class of an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindInvalidKey
	KindDecryption
	KindWrap
	KindUnwrap
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInvalidKey:
		return "invalid key"
	case KindDecryption:
		return "decryption"
	case KindWrap:
		return "wrap"
	case KindUnwrap:
		return "unwrap"
	default:
		return "unknown"
	}
}

// KindOf reports which kind root err wraps.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrInvalidKey):
		return KindInvalidKey
	case errors.Is(err, ErrDecryption):
		return KindDecryption
	case errors.Is(err, ErrWrap):
		return KindWrap
	case errors.Is(err, ErrUnwrap):
		return KindUnwrap
	default:
		return KindUnknown
	}
}
