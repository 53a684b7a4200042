package navigator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Fixture is the offline Browser backend used by tests. Pages are
// registered per URL as a queue of bodies; every request to that URL
// consumes one body until a single one remains, which is then served
// repeatedly. Submitted form values are recorded for assertions.
type Fixture struct {
	pages       map[string][][]byte
	cookies     []*http.Cookie
	current     *Document
	history     []*Document
	Submissions []url.Values
}

var _ Browser = (*Fixture)(nil)

// NewFixture creates an empty fixture-backed navigator.
func NewFixture() *Fixture {
	return &Fixture{pages: map[string][][]byte{}}
}

// AddPage registers one or more response bodies for a URL.
func (f *Fixture) AddPage(pageURL string, bodies ...string) {
	for _, body := range bodies {
		f.pages[pageURL] = append(f.pages[pageURL], []byte(body))
	}
}

func (f *Fixture) serve(pageURL string) ([]byte, error) {
	queue := f.pages[pageURL]
	if len(queue) == 0 {
		return nil, fmt.Errorf("no fixture page registered for %s", pageURL)
	}
	body := queue[0]
	if len(queue) > 1 {
		f.pages[pageURL] = queue[1:]
	}
	return body, nil
}

func (f *Fixture) open(pageURL string) (*Document, error) {
	body, err := f.serve(pageURL)
	if err != nil {
		return nil, err
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	doc := ParseDocument(parsed, body)
	if f.current != nil {
		f.history = append(f.history, f.current)
	}
	f.current = doc
	return doc, nil
}

func (f *Fixture) Open(_ context.Context, pageURL string) (*Document, error) {
	return f.open(pageURL)
}

func (f *Fixture) Submit(_ context.Context, form *Form) (*Document, error) {
	recorded := url.Values{}
	for key, values := range form.Values {
		recorded[key] = append([]string(nil), values...)
	}
	f.Submissions = append(f.Submissions, recorded)
	return f.open(form.Action)
}

func (f *Fixture) FollowLink(_ context.Context, urlFragment string) (*Document, error) {
	if f.current == nil {
		return nil, fmt.Errorf("no current document to follow a link from")
	}
	link, ok := f.current.LinkMatching(urlFragment)
	if !ok {
		return nil, fmt.Errorf("no link matching %q on %s", urlFragment, f.current.URL)
	}
	return f.open(link.Href)
}

func (f *Fixture) Fetch(_ context.Context, pageURL string) ([]byte, error) {
	return f.serve(pageURL)
}

func (f *Fixture) Document() *Document {
	return f.current
}

func (f *Fixture) Back() (*Document, error) {
	if len(f.history) == 0 {
		return nil, fmt.Errorf("no previous document to go back to")
	}
	f.current = f.history[len(f.history)-1]
	f.history = f.history[:len(f.history)-1]
	return f.current, nil
}

func (f *Fixture) Cookies() []*http.Cookie {
	return f.cookies
}

func (f *Fixture) SetCookies(cookies []*http.Cookie) {
	f.cookies = cookies
}

// LastSubmission returns the most recently submitted form values.
func (f *Fixture) LastSubmission() url.Values {
	if len(f.Submissions) == 0 {
		return nil
	}
	return f.Submissions[len(f.Submissions)-1]
}
