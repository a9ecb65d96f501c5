// Package source locates and downloads the published workbooks.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/couchcryptid/covid19-data-etl/internal/domain"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// maxWorkbookBytes caps a single download.
const maxWorkbookBytes = 32 << 20

// Anchor text patterns of the two workbook links on the prefecture page.
var (
	InspectionsLinkPattern = regexp.MustCompile(`^新型コロナウイルス感染症検査件数.+エクセル`)
	CasesLinkPattern       = regexp.MustCompile(`^栃木県における新型コロナウイルス感染症の発生状況一覧.+エクセル`)
)

// Client fetches the index page, follows its workbook links and downloads
// them.
type Client struct {
	pageURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a source client for the given index page.
func NewClient(pageURL, userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		pageURL:   pageURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch downloads both workbooks. Any failure is a *domain.RetrievalError.
func (c *Client) Fetch(ctx context.Context) (domain.SourceFiles, error) {
	base, err := url.Parse(c.pageURL)
	if err != nil {
		return domain.SourceFiles{}, &domain.RetrievalError{URL: c.pageURL, Reason: "invalid page URL", Err: err}
	}

	page, contentType, err := c.get(ctx, c.pageURL)
	if err != nil {
		return domain.SourceFiles{}, err
	}

	links, err := findLinks(page, contentType)
	if err != nil {
		return domain.SourceFiles{}, &domain.RetrievalError{URL: c.pageURL, Reason: "parse page", Err: err}
	}

	inspectionsURL, err := resolve(base, links, InspectionsLinkPattern)
	if err != nil {
		return domain.SourceFiles{}, err
	}
	casesURL, err := resolve(base, links, CasesLinkPattern)
	if err != nil {
		return domain.SourceFiles{}, err
	}

	c.logger.Info("source workbooks located", "inspections", inspectionsURL, "cases", casesURL)

	var files domain.SourceFiles
	if files.Inspections, _, err = c.get(ctx, inspectionsURL); err != nil {
		return domain.SourceFiles{}, err
	}
	if files.Cases, _, err = c.get(ctx, casesURL); err != nil {
		return domain.SourceFiles{}, err
	}
	return files, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", &domain.RetrievalError{URL: target, Reason: "create request", Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &domain.RetrievalError{URL: target, Reason: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &domain.RetrievalError{URL: target, Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWorkbookBytes+1))
	if err != nil {
		return nil, "", &domain.RetrievalError{URL: target, Reason: "read body", Err: err}
	}
	if len(body) > maxWorkbookBytes {
		return nil, "", &domain.RetrievalError{URL: target, Reason: "response exceeds size limit"}
	}

	c.logger.Debug("downloaded", "url", target, "bytes", len(body), "duration", time.Since(start))
	return body, resp.Header.Get("Content-Type"), nil
}

// link is an anchor's href and its visible text.
type link struct {
	href string
	text string
}

// findLinks parses an HTML page, decoding legacy charsets (the prefecture
// site has served Shift_JIS), and returns every anchor with an href.
func findLinks(page []byte, contentType string) ([]link, error) {
	r, err := charset.NewReader(bytes.NewReader(page), contentType)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attr(n, "href"); href != "" {
				links = append(links, link{href: href, text: textContent(n)})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

// resolve returns the absolute URL of the first link whose text matches.
func resolve(base *url.URL, links []link, pattern *regexp.Regexp) (string, error) {
	for _, l := range links {
		if !pattern.MatchString(l.text) {
			continue
		}
		ref, err := url.Parse(l.href)
		if err != nil {
			return "", &domain.RetrievalError{URL: base.String(), Reason: fmt.Sprintf("invalid href %q", l.href), Err: err}
		}
		return base.ResolveReference(ref).String(), nil
	}
	return "", &domain.RetrievalError{URL: base.String(), Reason: fmt.Sprintf("no link matching %q", pattern.String())}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimSpace(sb.String())
}
