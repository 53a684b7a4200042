package scraper

import (
	"fmt"
	"strings"
	"time"
)

// ProtocolShapeError means an expected form, field or link is gone:
// the banking site changed its surface and the scraper needs to be
// adapted. It is fatal and never retried.
type ProtocolShapeError struct {
	Surface string
	Err     error
}

func (e *ProtocolShapeError) Error() string {
	return fmt.Sprintf("unable to find %s - the banking site may have changed, or the login went wrong", e.Surface)
}

func (e *ProtocolShapeError) Unwrap() error {
	return e.Err
}

// AuthTimeoutError means the out-of-band app confirmation was not
// approved within the polling budget.
type AuthTimeoutError struct {
	Attempts int
	Interval time.Duration
}

func (e *AuthTimeoutError) Error() string {
	return fmt.Sprintf("login confirmation was not approved within %d polls of %s each", e.Attempts, e.Interval)
}

// InvalidChallengeCodeError means the one-time code was rejected by
// the site. The whole login must be restarted by the caller; the code
// is never re-requested automatically.
type InvalidChallengeCodeError struct{}

func (e *InvalidChallengeCodeError) Error() string {
	return "the one-time code was rejected, restart the login to try again"
}

// SelectionFormNotFoundError means no form on the current document
// carries the account selection control.
type SelectionFormNotFoundError struct {
	Control string
}

func (e *SelectionFormNotFoundError) Error() string {
	return fmt.Sprintf("unable to find the transaction selection form (no form with a %q control)", e.Control)
}

// NoMatchingAccountError means the account query matched none of the
// listed accounts.
type NoMatchingAccountError struct {
	Query string
}

func (e *NoMatchingAccountError) Error() string {
	return fmt.Sprintf("no account matches %q", e.Query)
}

// AmbiguousAccountError means the account query matched more than one
// account. The caller must supply a more specific query; the scraper
// never guesses.
type AmbiguousAccountError struct {
	Query  string
	Labels []string
}

func (e *AmbiguousAccountError) Error() string {
	return fmt.Sprintf("query %q matches more than one account: %s", e.Query, strings.Join(e.Labels, ", "))
}

// RangeControlNotFoundError means the period selection control could
// not be located under any of its known names.
type RangeControlNotFoundError struct {
	Controls []string
}

func (e *RangeControlNotFoundError) Error() string {
	return fmt.Sprintf("unable to find the search period control (tried %s)", strings.Join(e.Controls, ", "))
}
