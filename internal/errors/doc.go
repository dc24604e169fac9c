// Package errors provides typed error values for wfb.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Kinds
//
// Every specific error wraps one kind root:
//
//   - ErrConfiguration: missing or malformed settings, aborts the run
//   - ErrInvalidKey: a key fails to parse or has the wrong size or family
//   - ErrDecryption: a blob fails authentication or padding checks
//   - ErrWrap / ErrUnwrap: a single recipient's asymmetric operation failed
//
// # Usage
//
// Match the precise condition or the kind:
//
//	if errors.Is(err, kerrors.ErrInvalidKeyLength) { ... }
//	if kerrors.KindOf(err) == kerrors.KindConfiguration { ... }
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("%w: recipient %s", kerrors.ErrInvalidPublicKey, user)
package errors
