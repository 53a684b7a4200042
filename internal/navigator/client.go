package navigator

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Client is the live Browser backend. It keeps one cookie-bearing
// HTTP session and a history stack of visited documents.
type Client struct {
	base    *url.URL
	http    *resty.Client
	jar     http.CookieJar
	current *Document
	history []*Document
}

var _ Browser = (*Client)(nil)

// NewClient creates a live navigator rooted at the given base URL.
func NewClient(baseURL string) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(base.Hostname()))
	client.SetTimeout(time.Second * 30)

	return &Client{
		base: base,
		http: client,
		jar:  jar,
	}, nil
}

func (c *Client) Open(ctx context.Context, pageURL string) (*Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}

	doc := ParseDocument(res.RawResponse.Request.URL, res.Body())
	c.push(doc)
	return doc, nil
}

func (c *Client) Submit(ctx context.Context, form *Form) (*Document, error) {
	req := c.http.R().SetContext(ctx)

	var res *resty.Response
	var err error
	if form.Method == http.MethodPost {
		res, err = req.SetFormDataFromValues(form.Values).Post(form.Action)
	} else {
		res, err = req.SetQueryParamsFromValues(form.Values).Get(form.Action)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to submit form to %s: %w", form.Action, err)
	}

	doc := ParseDocument(res.RawResponse.Request.URL, res.Body())
	c.push(doc)
	return doc, nil
}

func (c *Client) FollowLink(ctx context.Context, urlFragment string) (*Document, error) {
	if c.current == nil {
		return nil, fmt.Errorf("no current document to follow a link from")
	}
	link, ok := c.current.LinkMatching(urlFragment)
	if !ok {
		return nil, fmt.Errorf("no link matching %q on %s", urlFragment, c.current.URL)
	}
	log.WithField("href", link.Href).Debug("Following link")
	return c.Open(ctx, link.Href)
}

func (c *Client) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	return res.Body(), nil
}

func (c *Client) Document() *Document {
	return c.current
}

func (c *Client) Back() (*Document, error) {
	if len(c.history) == 0 {
		return nil, fmt.Errorf("no previous document to go back to")
	}
	c.current = c.history[len(c.history)-1]
	c.history = c.history[:len(c.history)-1]
	return c.current, nil
}

func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.base)
}

func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.jar.SetCookies(c.base, cookies)
}

func (c *Client) push(doc *Document) {
	if c.current != nil {
		c.history = append(c.history, c.current)
	}
	c.current = doc
}
