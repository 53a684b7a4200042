package scraper

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"time"

	"fjacquet/dkb-qif/internal/navigator"
)

const (
	// response body marker selecting the app-confirmation branch
	appConfirmMarker = "LoginWithBoundDevice"

	// poll endpoint relative to the base URL; while the confirmation
	// is outstanding its response carries the waiting marker
	pollPath      = "/ajax/LoginWithBoundDevice/poll"
	waitingMarker = "WAITING"

	// form submitted unchanged to finalize server-side state once the
	// app confirmation went through
	confirmFormName = "confirmForm"

	fieldTAN = "tan"

	defaultPollInterval = 2 * time.Second
	defaultPollAttempts = 30
)

// startCodePattern extracts the human-readable start code displayed
// alongside a chip-TAN challenge.
var startCodePattern = regexp.MustCompile(`Startcode[^0-9]{0,20}(\d{4,})`)

// confirmViaApp polls the confirmation endpoint until the user has
// approved the login in the banking app, then submits the
// confirmation form without touching any of its fields.
//
// The poll is a bounded busy-wait: it ends when the waiting marker
// disappears or the attempt budget runs out, nothing else. Exceeding
// the budget is fatal; the login is never silently retried.
func (s *Scraper) confirmViaApp(ctx context.Context) error {
	confirmed := false
	for attempt := 1; attempt <= s.pollAttempts; attempt++ {
		body, err := s.nav.Fetch(ctx, s.pollURL)
		if err != nil {
			return fmt.Errorf("confirmation poll failed: %w", err)
		}
		if !bytes.Contains(body, []byte(waitingMarker)) {
			confirmed = true
			break
		}
		log.WithField("attempt", attempt).Debug("Confirmation still pending")
		if attempt < s.pollAttempts {
			time.Sleep(s.pollInterval)
		}
	}
	if !confirmed {
		return &AuthTimeoutError{Attempts: s.pollAttempts, Interval: s.pollInterval}
	}

	doc, err := s.nav.Open(ctx, s.entryURL())
	if err != nil {
		return err
	}
	form, ok := doc.FormByName(confirmFormName)
	if !ok {
		return &ProtocolShapeError{Surface: "the login confirmation form"}
	}
	_, err = s.nav.Submit(ctx, form)
	return err
}

// confirmViaChallenge handles the chip-TAN branch: locate the code
// input, surface the displayed start code, obtain the code from the
// caller and submit it. A code input that survives the submission
// means the code was rejected.
func (s *Scraper) confirmViaChallenge(ctx context.Context, doc *navigator.Document) error {
	form, ok := findChallengeForm(doc)
	if !ok {
		// some account configurations interpose an empty form before
		// the challenge; advance past it once, never more
		if len(doc.Forms) == 0 {
			return &ProtocolShapeError{Surface: "the one-time code form"}
		}
		next, err := s.nav.Submit(ctx, doc.Forms[0])
		if err != nil {
			return err
		}
		doc = next
		form, ok = findChallengeForm(doc)
		if !ok {
			return &ProtocolShapeError{Surface: "the one-time code form"}
		}
	}

	if groups := startCodePattern.FindSubmatch(doc.Body); groups != nil {
		// informational only, the code generator needs it
		log.WithField("startcode", string(groups[1])).Info("Challenge issued")
	}

	if s.codeSource == nil {
		return fmt.Errorf("this account requires a one-time code but no code source is configured")
	}
	code, err := s.codeSource()
	if err != nil {
		return fmt.Errorf("unable to obtain one-time code: %w", err)
	}

	form.Set(fieldTAN, code)
	result, err := s.nav.Submit(ctx, form)
	if err != nil {
		return err
	}
	if _, rejected := findChallengeForm(result); rejected {
		return &InvalidChallengeCodeError{}
	}

	// confirmation navigation step: land on the authenticated start page
	_, err = s.nav.Open(ctx, s.entryURL())
	return err
}

func findChallengeForm(doc *navigator.Document) (*navigator.Form, bool) {
	return doc.FindForm(func(f *navigator.Form) bool {
		return f.Has(fieldTAN)
	})
}
