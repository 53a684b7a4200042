// Package scraper drives a browser session through the DKB online
// banking site: login including the second factor, credit card
// selection, date-bounded export retrieval and session teardown. The
// site exposes no API, so everything here navigates the HTML surface
// the way a human would; any structural mismatch is surfaced as a
// typed, fatal error rather than retried.
package scraper

import (
	"context"
	"fmt"
	"time"

	"fjacquet/dkb-qif/internal/navigator"
	"fjacquet/dkb-qif/internal/session"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// DefaultBaseURL is the entry point of the non-JS banking frontend.
const DefaultBaseURL = "https://banking.dkb.de/dkb/-"

const (
	// entry URL query, the non-JS variant of the site is the only one
	// that serves plain HTML forms
	entryQuery = "?$javascript=disabled"

	fieldUsername = "j_username"
	fieldPassword = "j_password"

	// link only present on the landing page while authenticated
	logoutLinkFragment = "logout"
)

// clientFingerprint holds the browser metadata fields the login form
// requires. The values are protocol requirements, not meaningful.
var clientFingerprint = map[string]string{
	"browserName":    "Firefox",
	"browserVersion": "40",
	"screenWidth":    "1000",
	"screenHeight":   "800",
	"osName":         "Windows",
}

// Credentials identifies the banking user. The secret is retrieved
// lazily, only once the login form is actually in front of us, and is
// never logged or persisted.
type Credentials struct {
	UserID string
	Secret func() (string, error)
}

// Options configures a Scraper. Navigator is required; everything
// else has working defaults.
type Options struct {
	Navigator navigator.Browser

	// Store enables the persisted-session fast path and session
	// persistence on Close. Optional.
	Store *session.Store

	// CodeSource supplies the one-time code for the challenge branch
	// of the login. It is invoked exactly once per challenge.
	// Required only for accounts configured for that second factor.
	CodeSource func() (string, error)

	BaseURL      string
	PollURL      string
	PollInterval time.Duration
	PollAttempts int
}

// Scraper owns the navigation cursor. Its methods must be called
// serially; there is no internal locking.
type Scraper struct {
	nav          navigator.Browser
	store        *session.Store
	codeSource   func() (string, error)
	baseURL      string
	pollURL      string
	pollInterval time.Duration
	pollAttempts int
}

// New creates a Scraper from the given options.
func New(opts Options) (*Scraper, error) {
	if opts.Navigator == nil {
		return nil, fmt.Errorf("scraper requires a navigator")
	}
	s := &Scraper{
		nav:          opts.Navigator,
		store:        opts.Store,
		codeSource:   opts.CodeSource,
		baseURL:      opts.BaseURL,
		pollURL:      opts.PollURL,
		pollInterval: opts.PollInterval,
		pollAttempts: opts.PollAttempts,
	}
	if s.baseURL == "" {
		s.baseURL = DefaultBaseURL
	}
	if s.pollURL == "" {
		s.pollURL = s.baseURL + pollPath
	}
	if s.pollInterval == 0 {
		s.pollInterval = defaultPollInterval
	}
	if s.pollAttempts == 0 {
		s.pollAttempts = defaultPollAttempts
	}
	return s, nil
}

func (s *Scraper) entryURL() string {
	return s.baseURL + entryQuery
}

// loginState enumerates the steps of the login protocol. The branch
// after the password step is chosen by the site per account
// configuration, so both second factors are modeled.
type loginState int

const (
	stateUnauthenticated loginState = iota
	statePersistedSessionCheck
	statePasswordSubmitted
	stateAppConfirmPending
	stateChallengeIssued
	stateAuthenticated
)

// Login authenticates the session. It first tries to resume a
// persisted session, then performs the password step and whichever
// second factor the site presents. All failures are fatal; a failed
// login must be restarted from scratch by the caller.
func (s *Scraper) Login(ctx context.Context, creds Credentials) error {
	state := stateUnauthenticated
	var postPassword *navigator.Document

	for {
		switch state {
		case stateUnauthenticated:
			state = statePersistedSessionCheck

		case statePersistedSessionCheck:
			if s.resumeSession(ctx) {
				log.Info("Resumed persisted session")
				state = stateAuthenticated
				continue
			}
			doc, err := s.submitPassword(ctx, creds)
			if err != nil {
				return err
			}
			postPassword = doc
			state = statePasswordSubmitted

		case statePasswordSubmitted:
			if postPassword.Contains(appConfirmMarker) {
				log.Info("Waiting for login confirmation in the banking app")
				state = stateAppConfirmPending
			} else {
				state = stateChallengeIssued
			}

		case stateAppConfirmPending:
			if err := s.confirmViaApp(ctx); err != nil {
				return err
			}
			state = stateAuthenticated

		case stateChallengeIssued:
			if err := s.confirmViaChallenge(ctx, postPassword); err != nil {
				return err
			}
			state = stateAuthenticated

		case stateAuthenticated:
			log.Info("Login successful")
			return nil
		}
	}
}

// resumeSession tries the persisted-session fast path. Any failure
// here degrades silently to a full login; this is the only swallowed
// failure in the whole flow.
func (s *Scraper) resumeSession(ctx context.Context) bool {
	if s.store == nil {
		return false
	}
	cookies, err := s.store.Load()
	if err != nil {
		log.WithError(err).Debug("No usable persisted session")
		return false
	}
	s.nav.SetCookies(cookies)

	ok, err := s.IsLoggedIn(ctx)
	if err != nil {
		log.WithError(err).Debug("Persisted session probe failed")
		return false
	}
	if !ok {
		log.Debug("Persisted session has expired")
	}
	return ok
}

func (s *Scraper) submitPassword(ctx context.Context, creds Credentials) (*navigator.Document, error) {
	log.WithField("user", creds.UserID).Info("Starting login")

	doc, err := s.nav.Open(ctx, s.entryURL())
	if err != nil {
		return nil, err
	}

	// the login form is identified structurally, not by position
	form, ok := doc.FindForm(func(f *navigator.Form) bool {
		return f.Has(fieldUsername) && f.Has(fieldPassword)
	})
	if !ok {
		return nil, &ProtocolShapeError{Surface: "the login form"}
	}

	secret, err := creds.Secret()
	if err != nil {
		return nil, fmt.Errorf("unable to obtain login secret: %w", err)
	}

	form.Set(fieldUsername, creds.UserID)
	form.Set(fieldPassword, secret)
	for name, value := range clientFingerprint {
		form.Set(name, value)
	}

	return s.nav.Submit(ctx, form)
}

// IsLoggedIn probes the session by loading the landing page and
// looking for a link that only exists while authenticated. "Not
// logged in" is a regular false, never an error; only transport
// failures propagate. Safe to call at any time.
func (s *Scraper) IsLoggedIn(ctx context.Context) (bool, error) {
	doc, err := s.nav.Open(ctx, s.entryURL())
	if err != nil {
		return false, err
	}
	_, ok := doc.LinkMatching(logoutLinkFragment)
	return ok, nil
}

// Close finalizes the session. With a store configured the session is
// persisted for the next run; without one it is terminated
// server-side via the logout link.
func (s *Scraper) Close(ctx context.Context) error {
	if s.store != nil {
		return s.store.Save(s.nav.Cookies())
	}
	if _, err := s.nav.FollowLink(ctx, logoutLinkFragment); err != nil {
		log.WithError(err).Warn("Failed to log out cleanly")
	}
	return nil
}
