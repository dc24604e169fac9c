// Package distribute wraps one symmetric key for many recipients.
//
// Each recipient is handled in isolation. A malformed key, an unknown
// family or a failing wrap is logged with the recipient's name and
// recorded in Result.Failures; the other recipients are unaffected. There
// are no retries: running the distribution again is the retry.
//
// Recipients can be wrapped concurrently with Options.Workers. The
// symmetric key is only read, and every result is independent.
package distribute
