// Package navigator provides the browser-session capability the
// scraper is written against: fetch a page, inspect its forms and
// links, mutate form fields and submit them. The site is navigated
// through exactly one cursor (the current document); callers must not
// interleave navigation calls from multiple goroutines.
//
// Two backends implement the capability: a live one speaking HTTP via
// resty (see client.go) and a fixture-backed one for offline tests
// (see fixture.go).
package navigator

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Browser is the navigation capability consumed by the scraper.
type Browser interface {
	// Open fetches the given URL and makes it the current document.
	Open(ctx context.Context, pageURL string) (*Document, error)

	// Submit sends the given form (with whatever field values it
	// carries at this point) and makes the response the current
	// document.
	Submit(ctx context.Context, form *Form) (*Document, error)

	// FollowLink follows the first link of the current document whose
	// href contains the given fragment and makes the response the
	// current document.
	FollowLink(ctx context.Context, urlFragment string) (*Document, error)

	// Fetch retrieves the given URL without moving the cursor. It is
	// used for side requests such as the login confirmation poll.
	Fetch(ctx context.Context, pageURL string) ([]byte, error)

	// Document returns the current document, or nil before the first
	// Open.
	Document() *Document

	// Back restores the previous document as the cursor without
	// re-fetching it.
	Back() (*Document, error)

	// Cookies returns the session cookies for persistence.
	Cookies() []*http.Cookie

	// SetCookies restores previously persisted session cookies.
	SetCookies(cookies []*http.Cookie)
}

// Option is a single choice of a select or radio control.
type Option struct {
	Value string
	Label string
}

// Form is the mutable field model of a single HTML form. Field values
// live in Values; Selects additionally records the available choices
// of select controls so callers can match on their labels.
type Form struct {
	Name    string
	ID      string
	Action  string
	Method  string
	Values  url.Values
	Selects map[string][]Option
}

// Set sets a field value, creating the field if the document did not
// declare it. That covers hidden controls the site expects to be
// injected client-side.
func (f *Form) Set(name, value string) {
	f.Values.Set(name, value)
}

// Get returns the current value of a field, or "" if unset.
func (f *Form) Get(name string) string {
	return f.Values.Get(name)
}

// Has reports whether the form declares a field with the given name.
func (f *Form) Has(name string) bool {
	_, ok := f.Values[name]
	return ok
}

// Options returns the choices of the named select control.
func (f *Form) Options(name string) []Option {
	return f.Selects[name]
}

// Link is a single anchor of a document.
type Link struct {
	Text string
	Href string
}

// Document is a parsed page plus its raw body. Non-HTML responses
// (such as the CSV export) still produce a Document; their Forms and
// Links are simply empty.
type Document struct {
	URL   *url.URL
	Body  []byte
	Forms []*Form
	Links []Link
}

// Contains reports whether the raw response body contains the given
// literal marker. Branch decisions during login are made on markers,
// not on parsed structure.
func (d *Document) Contains(marker string) bool {
	return bytes.Contains(d.Body, []byte(marker))
}

// FindForm returns the first form satisfying the predicate.
func (d *Document) FindForm(pred func(*Form) bool) (*Form, bool) {
	for _, form := range d.Forms {
		if pred(form) {
			return form, true
		}
	}
	return nil, false
}

// FormByName returns the form with the given name attribute.
func (d *Document) FormByName(name string) (*Form, bool) {
	return d.FindForm(func(f *Form) bool { return f.Name == name })
}

// LinkMatching returns the first link whose href contains the given
// fragment.
func (d *Document) LinkMatching(urlFragment string) (Link, bool) {
	for _, link := range d.Links {
		if strings.Contains(link.Href, urlFragment) {
			return link, true
		}
	}
	return Link{}, false
}

// ParseDocument parses a response body into a Document. Parsing never
// fails on malformed markup; goquery degrades to whatever structure it
// can recover, which is what a browser would do too.
func ParseDocument(pageURL *url.URL, body []byte) *Document {
	doc := &Document{URL: pageURL, Body: body}

	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		log.WithError(err).Debug("response body is not parseable HTML")
		return doc
	}

	parsed.Find("form").Each(func(_ int, sel *goquery.Selection) {
		doc.Forms = append(doc.Forms, parseForm(pageURL, sel))
	})
	parsed.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := sel.AttrOr("href", "")
		doc.Links = append(doc.Links, Link{
			Text: strings.TrimSpace(sel.Text()),
			Href: resolveURL(pageURL, href),
		})
	})
	return doc
}

func parseForm(pageURL *url.URL, sel *goquery.Selection) *Form {
	form := &Form{
		Name:    sel.AttrOr("name", ""),
		ID:      sel.AttrOr("id", ""),
		Action:  resolveURL(pageURL, sel.AttrOr("action", "")),
		Method:  strings.ToUpper(sel.AttrOr("method", "GET")),
		Values:  url.Values{},
		Selects: map[string][]Option{},
	}

	submitSeen := false
	sel.Find("input[name]").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		value := input.AttrOr("value", "")
		switch input.AttrOr("type", "text") {
		case "radio", "checkbox":
			_, checked := input.Attr("checked")
			label := strings.TrimSpace(input.Parent().Text())
			form.Selects[name] = append(form.Selects[name], Option{Value: value, Label: label})
			if checked {
				form.Values.Set(name, value)
			} else if !form.Has(name) {
				// declare the field so Has() sees the control
				form.Values[name] = []string{}
			}
		case "submit", "image":
			// a browser sends only the pressed button; with no notion of
			// pressing, the first one acts as the default
			if !submitSeen {
				form.Values.Set(name, value)
				submitSeen = true
			}
		case "button", "reset":
			// never part of a submission
		default:
			form.Values.Set(name, value)
		}
	})

	sel.Find("select[name]").Each(func(_ int, control *goquery.Selection) {
		name := control.AttrOr("name", "")
		var options []Option
		control.Find("option").Each(func(_ int, opt *goquery.Selection) {
			value := opt.AttrOr("value", "")
			option := Option{Value: value, Label: strings.TrimSpace(opt.Text())}
			options = append(options, option)
			if _, selected := opt.Attr("selected"); selected || !form.Has(name) {
				form.Values.Set(name, value)
			}
		})
		form.Selects[name] = options
	})

	sel.Find("textarea[name]").Each(func(_ int, area *goquery.Selection) {
		form.Values.Set(area.AttrOr("name", ""), area.Text())
	})

	return form
}

func resolveURL(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
