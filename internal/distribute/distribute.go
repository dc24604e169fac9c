package distribute

import (
	"context"
	"fmt"
	"sort"
	"sync"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	"github.com/QB2027/WebFileBrowser/internal/keywrap"
	logger "github.com/QB2027/WebFileBrowser/internal/logging"
)

// Failure records why one recipient did not receive the key.
type Failure struct {
	User string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("recipient %s: %v", f.User, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Outcome summarizes how many recipients were served.
type Outcome int

const (
	// OutcomeAll means every recipient received the key.
	OutcomeAll Outcome = iota
	// OutcomePartial means at least one recipient succeeded and one failed.
	OutcomePartial
	// OutcomeNone means no recipient received the key.
	OutcomeNone
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAll:
		return "all"
	case OutcomePartial:
		return "partial"
	default:
		return "none"
	}
}

// Result holds the wrapped keys of successful recipients and the failures of
// the rest. A user appears in exactly one of the two.
type Result struct {
	Wrapped  map[string]string
	Failures []Failure
}

// Outcome reports whether all, some, or none of the recipients succeeded.
func (r *Result) Outcome() Outcome {
	switch {
	case len(r.Failures) == 0:
		return OutcomeAll
	case len(r.Wrapped) == 0:
		return OutcomeNone
	default:
		return OutcomePartial
	}
}

// Err returns nil, ErrPartialDistribution or ErrDistributionFailed.
func (r *Result) Err() error {
	switch r.Outcome() {
	case OutcomeAll:
		return nil
	case OutcomePartial:
		return fmt.Errorf("%w: %d of %d failed", kerrors.ErrPartialDistribution, len(r.Failures), len(r.Failures)+len(r.Wrapped))
	default:
		return kerrors.ErrDistributionFailed
	}
}

// FailedUsers returns the users that did not receive the key, sorted.
func (r *Result) FailedUsers() []string {
	users := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		users = append(users, f.User)
	}
	return users
}

// Options configures a distribution run.
type Options struct {
	// Workers is the number of recipients wrapped concurrently. Values below 1 mean 1.
	Workers int

	Logger logger.Logger
}

// Distribute wraps key once per recipient.
//
// Per-recipient problems (bad key text, unknown family, a failing or panicking
// wrapper, cancellation) are recorded as Failures and never returned as the
// error. The error is reserved for problems with the run itself.
//
// Returns ErrInvalidKeyLength if key is not 32 bytes.
// Returns ErrNoRecipients if recipients is empty.
func Distribute(ctx context.Context, key []byte, recipients map[string]keywrap.PublicKey, opts Options) (*Result, error) {
	if len(key) != keywrap.WrappedKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", kerrors.ErrInvalidKeyLength, len(key), keywrap.WrappedKeySize)
	}
	if len(recipients) == 0 {
		return nil, kerrors.ErrNoRecipients
	}

	users := make([]string, 0, len(recipients))
	for user := range recipients {
		users = append(users, user)
	}
	sort.Strings(users)

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(users) {
		workers = len(users)
	}
	opts.Logger.Debugf("Distributing key to %d recipients with %d workers", len(users), workers)

	type outcome struct {
		user    string
		wrapped string
		err     error
	}

	jobs := make(chan string)
	results := make(chan outcome, len(users))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for user := range jobs {
				wrapped, err := wrapOne(ctx, user, recipients[user], key)
				results <- outcome{user: user, wrapped: wrapped, err: err}
			}
		}()
	}

	for _, user := range users {
		jobs <- user
	}
	close(jobs)
	wg.Wait()
	close(results)

	result := &Result{Wrapped: make(map[string]string, len(users))}
	for o := range results {
		if o.err != nil {
			opts.Logger.Errorf("Failed to wrap key for %s: %v", o.user, o.err)
			result.Failures = append(result.Failures, Failure{User: o.user, Err: o.err})
			continue
		}
		opts.Logger.Debugf("Wrapped key for %s", o.user)
		result.Wrapped[o.user] = o.wrapped
	}

	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].User < result.Failures[j].User
	})

	opts.Logger.Infof("Key distributed to %d of %d recipients", len(result.Wrapped), len(users))
	return result, nil
}

// wrapOne isolates a single recipient, including from panics in the wrapper.
func wrapOne(ctx context.Context, user string, pub keywrap.PublicKey, key []byte) (wrapped string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", kerrors.ErrWrapFailed, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrWrapFailed, err)
	}
	if user == "" {
		return "", fmt.Errorf("%w: empty user identifier", kerrors.ErrInvalidPublicKey)
	}
	return wrap(pub, key)
}

// wrap is swapped out in tests.
var wrap = keywrap.Wrap
