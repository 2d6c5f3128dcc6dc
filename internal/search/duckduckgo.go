// Package search provides the external lookup sources used by the
// resource resolver: DuckDuckGo web search, YouTube video search and a
// caching decorator for either.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/randalmurphal/cognigen/internal/resources"
	"github.com/randalmurphal/cognigen/internal/textclean"
	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
)

// DefaultDuckDuckGoURL is the HTML search endpoint.
const DefaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

const (
	ddgRedirectPrefix = "//duckduckgo.com/l/?uddg="
	maxBodyBytes      = 1 << 20
	userAgent         = "Mozilla/5.0 (compatible; cognigen/1.0)"
)

// DuckDuckGo searches the web through DuckDuckGo's HTML interface.
// It needs no API key. Requests are rate limited per instance.
type DuckDuckGo struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// DuckDuckGoOption configures a DuckDuckGo source.
type DuckDuckGoOption func(*DuckDuckGo)

// WithEndpoint overrides the search endpoint.
func WithEndpoint(u string) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		if u != "" {
			d.endpoint = u
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		if hc != nil {
			d.httpClient = hc
		}
	}
}

// WithRateLimit allows perSecond requests with the given burst. A
// non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		if perSecond <= 0 {
			d.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		d.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// NewDuckDuckGo creates a DuckDuckGo source limited to one request per
// second by default.
func NewDuckDuckGo(opts ...DuckDuckGoOption) *DuckDuckGo {
	d := &DuckDuckGo{
		endpoint:   DefaultDuckDuckGoURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Search returns up to maxResults web results for query.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]resources.Item, error) {
	query = strings.TrimSpace(query)
	if query == "" || maxResults <= 0 {
		return nil, nil
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	u, err := url.Parse(d.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &fgerrors.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status, Endpoint: d.endpoint}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return parseDuckDuckGo(string(body), maxResults)
}

// parseDuckDuckGo extracts result links from the HTML results page.
func parseDuckDuckGo(page string, maxResults int) ([]resources.Item, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	var out []resources.Item
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(out) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "result") && !hasClass(n, "result--ad") {
			if it, ok := resultItem(n); ok {
				out = append(out, it)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

func resultItem(n *html.Node) (resources.Item, bool) {
	it := resources.Item{Source: resources.SourceWeb}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			switch {
			case hasClass(n, "result__a"):
				it.URL = resolveRedirect(attr(n, "href"))
				it.Title = textclean.CleanWhitespace(textContent(n))
			case hasClass(n, "result__snippet"):
				it.Description = textclean.Truncate(textclean.CleanWhitespace(textContent(n)), textclean.DefaultMaxChars)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return it, it.URL != "" && it.Title != ""
}

// resolveRedirect unwraps DuckDuckGo's click-tracking redirect.
func resolveRedirect(href string) string {
	href = strings.TrimSpace(href)
	rest, ok := strings.CutPrefix(href, ddgRedirectPrefix)
	if !ok {
		if strings.HasPrefix(href, "https:"+ddgRedirectPrefix) {
			rest = strings.TrimPrefix(href, "https:"+ddgRedirectPrefix)
		} else {
			return href
		}
	}
	if i := strings.IndexByte(rest, '&'); i >= 0 {
		rest = rest[:i]
	}
	decoded, err := url.QueryUnescape(rest)
	if err != nil {
		return href
	}
	return decoded
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
