package scraper

import (
	"context"
	"regexp"
	"strings"
	"time"

	"fjacquet/dkb-qif/internal/dateutils"
	"fjacquet/dkb-qif/internal/navigator"
)

const (
	// landing page link into the credit card transactions section
	overviewLinkFragment = "paymentTransaction"

	// multi-select listing all cards and accounts
	fieldAccountSelect = "slAllAccounts"

	// period radio; the site has renamed this control across versions
	fieldPeriodPrimary   = "searchPeriod"
	fieldPeriodSecondary = "searchPeriodRadio"

	fieldFromDate = "postingDate"
	fieldToDate   = "toPostingDate"

	// hidden control without which the submit is not treated as a
	// search action
	fieldEvent  = "$event"
	eventSearch = "search"

	csvLinkFragment = "csv"
)

// dated-period radio choice ("Alle Umsätze vom ... bis ...")
var periodChoicePattern = regexp.MustCompile(`(?i)alle ums.*tze`)

// OpenTransactionsOverview navigates from the landing page to the
// credit card transactions section.
func (s *Scraper) OpenTransactionsOverview(ctx context.Context) error {
	log.Info("Navigating to credit card transactions")
	if _, err := s.nav.FollowLink(ctx, overviewLinkFragment); err != nil {
		return &ProtocolShapeError{Surface: "the credit card transactions link", Err: err}
	}
	return nil
}

// SelectTransactions selects the card matching the given query and
// submits a search for all transactions between from and to. The
// query is matched as a substring against every account label
// (typically the last 4 digits of the card number); zero or multiple
// matches are fatal.
func (s *Scraper) SelectTransactions(ctx context.Context, query string, from, to time.Time) error {
	log.WithFields(map[string]interface{}{
		"query": query,
		"from":  dateutils.FormatGermanDate(from),
		"to":    dateutils.FormatGermanDate(to),
	}).Info("Selecting transactions")

	form, err := s.selectionForm()
	if err != nil {
		return err
	}

	value, err := matchAccount(form, query)
	if err != nil {
		return err
	}
	form.Set(fieldAccountSelect, value)
	if _, err := s.nav.Submit(ctx, form); err != nil {
		return err
	}

	// The document served after the account submit differs between
	// credit and debit cards, so the form is always re-discovered
	// fresh; the old reference is stale now.
	form, err = s.selectionForm()
	if err != nil {
		return err
	}

	if err := selectDatedPeriod(form); err != nil {
		return err
	}
	form.Set(fieldFromDate, dateutils.FormatGermanDate(from))
	form.Set(fieldToDate, dateutils.FormatGermanDate(to))
	form.Set(fieldEvent, eventSearch)

	_, err = s.nav.Submit(ctx, form)
	return err
}

// ExportCSV follows the export link of the current result view and
// returns the raw export body.
func (s *Scraper) ExportCSV(ctx context.Context) ([]byte, error) {
	log.Info("Requesting CSV export")
	doc, err := s.nav.FollowLink(ctx, csvLinkFragment)
	if err != nil {
		return nil, &ProtocolShapeError{Surface: "the CSV export link", Err: err}
	}
	return doc.Body, nil
}

// ReturnToSelection navigates back to the result view after an
// export. Required before selecting another card in the same run,
// otherwise form discovery would operate on the export document.
func (s *Scraper) ReturnToSelection() error {
	_, err := s.nav.Back()
	return err
}

// selectionForm scans all forms of the current document for the one
// carrying the account selection control.
func (s *Scraper) selectionForm() (*navigator.Form, error) {
	doc := s.nav.Document()
	if doc == nil {
		return nil, &SelectionFormNotFoundError{Control: fieldAccountSelect}
	}
	form, ok := doc.FindForm(func(f *navigator.Form) bool {
		return f.Has(fieldAccountSelect)
	})
	if !ok {
		return nil, &SelectionFormNotFoundError{Control: fieldAccountSelect}
	}
	return form, nil
}

// matchAccount resolves the account query against the option labels
// of the selection control. It inspects the form only; navigation
// state is left untouched on failure.
func matchAccount(form *navigator.Form, query string) (string, error) {
	var matches []navigator.Option
	for _, opt := range form.Options(fieldAccountSelect) {
		if strings.Contains(opt.Label, query) {
			matches = append(matches, opt)
		}
	}

	switch len(matches) {
	case 1:
		log.WithField("account", matches[0].Label).Debug("Matched account")
		return matches[0].Value, nil
	case 0:
		return "", &NoMatchingAccountError{Query: query}
	default:
		labels := make([]string, len(matches))
		for i, opt := range matches {
			labels[i] = opt.Label
		}
		return "", &AmbiguousAccountError{Query: query, Labels: labels}
	}
}

// selectDatedPeriod checks the dated-range choice of the period
// radio, trying both control names the site has used.
func selectDatedPeriod(form *navigator.Form) error {
	for _, name := range []string{fieldPeriodPrimary, fieldPeriodSecondary} {
		if !form.Has(name) {
			continue
		}
		for _, opt := range form.Options(name) {
			if periodChoicePattern.MatchString(opt.Label) {
				form.Set(name, opt.Value)
				return nil
			}
		}
		// control exists but the expected choice is missing
		return &RangeControlNotFoundError{Controls: []string{name}}
	}
	return &RangeControlNotFoundError{Controls: []string{fieldPeriodPrimary, fieldPeriodSecondary}}
}
