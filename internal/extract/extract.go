// Package extract fetches web pages and reduces them to readable plain text.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const (
	UserAgent      = "Mozilla/5.0 (compatible; SummarizBot/1.0)"
	MinTextChars   = 100
	maxPageBytes   = 8 << 20
	DefaultTimeout = 15 * time.Second
)

var (
	ErrInvalidURL   = errors.New("invalid url")
	ErrFetchTimeout = errors.New("request timed out")
	ErrFetchFailed  = errors.New("failed to fetch url")
	ErrNoContent    = errors.New("no meaningful text found on this page (may be paywalled or JavaScript-rendered)")
)

// Page is the cleaned content of one URL. Markdown is set only when the
// readability pass found an article; it keeps headings and lists that Text
// flattens.
type Page struct {
	URL      string
	Title    string
	Text     string
	Markdown string
}

// Content returns the richest representation available for summarization.
func (p *Page) Content() string {
	if p.Markdown != "" {
		return p.Markdown
	}
	return p.Text
}

type Extractor struct {
	httpClient *http.Client
}

func New(timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Extractor{httpClient: &http.Client{Timeout: timeout}}
}

func (e *Extractor) Extract(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	body, err := e.fetch(ctx, u.String())
	if err != nil {
		return nil, err
	}

	page := &Page{URL: u.String()}
	page.Title, page.Text, page.Markdown = readableText(body, u)
	if len(page.Text) < MinTextChars {
		page.Markdown = ""
		title, text, err := strippedText(body)
		if err != nil {
			return nil, fmt.Errorf("parse html: %w", err)
		}
		if len(text) > len(page.Text) {
			page.Text = text
		}
		if page.Title == "" {
			page.Title = title
		}
	}
	if len(page.Text) < MinTextChars {
		return nil, ErrNoContent
	}
	return page, nil
}

func (e *Extractor) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, ErrFetchTimeout
		}
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return body, nil
}

// readableText runs the readability heuristics to isolate the main article.
func readableText(body []byte, u *url.URL) (title, text, markdown string) {
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return "", "", ""
	}
	md, err := htmltomarkdown.ConvertString(article.Content)
	if err != nil {
		md = ""
	}
	return strings.TrimSpace(article.Title), collapse(article.TextContent), strings.TrimSpace(md)
}

// strippedText drops page chrome and returns all remaining visible text.
func strippedText(body []byte) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find("script, style, noscript, nav, header, footer").Remove()

	var parts []string
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.Text())
	})
	if len(parts) == 0 {
		parts = append(parts, doc.Text())
	}
	return title, collapse(strings.Join(parts, " ")), nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
