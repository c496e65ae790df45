// Package clipper imports recipes from web pages.
package clipper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/bradenpan/whisk-ai-prototype/internal/recipe"
)

const (
	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 15 * time.Second
	// DefaultMaxPageBytes caps how much of a response body is read.
	DefaultMaxPageBytes = 4 << 20
)

// noise is removed from fetched pages before the text is sent to the model.
const noise = "script, style, nav, footer, iframe, ads, .ads, #ads"

var (
	ErrInvalidURL         = errors.New("invalid recipe url")
	ErrEmptyPage          = errors.New("page has no readable text")
	ErrForbiddenHost      = errors.New("recipe url points to a private or local address")
	ErrPageTooLarge       = errors.New("page is too large")
	ErrUnsupportedContent = errors.New("page is not html")
)

// cgnat is the carrier-grade NAT range, which netip does not report as private.
var cgnat = netip.MustParsePrefix("100.64.0.0/10")

// Extractor turns cleaned page text into a recipe.
type Extractor interface {
	ExtractRecipe(ctx context.Context, pageText, sourceURL string, servings int) (*recipe.Recipe, error)
}

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	extractor    Extractor
	httpClient   *http.Client
	allowPrivate bool
	maxPageBytes int64
	logger       *zap.Logger
}

type Option func(*Clipper)

// WithHTTPClient replaces the default client, including its address guard.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Clipper) { c.httpClient = client }
}

// WithPrivateNetworks lets the clipper fetch loopback and private addresses.
func WithPrivateNetworks(allow bool) Option {
	return func(c *Clipper) { c.allowPrivate = allow }
}

func WithMaxPageBytes(n int64) Option {
	return func(c *Clipper) {
		if n > 0 {
			c.maxPageBytes = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Clipper) { c.logger = logger }
}

// NewClipper creates a new Clipper instance.
func NewClipper(extractor Extractor, opts ...Option) *Clipper {
	c := &Clipper{
		extractor:    extractor,
		maxPageBytes: DefaultMaxPageBytes,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = newHTTPClient(c.allowPrivate)
	}
	c.logger = c.logger.Named("clipper")
	return c
}

// ClipURL fetches the page at rawURL and extracts a recipe sized for servings.
func (c *Clipper) ClipURL(ctx context.Context, rawURL string, servings int) (*recipe.Recipe, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if !c.allowPrivate && isLocalHost(u.Hostname()) {
		return nil, fmt.Errorf("%w: %s", ErrForbiddenHost, u.Hostname())
	}

	content, err := c.fetchAndCleanHTML(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}
	if content == "" {
		return nil, ErrEmptyPage
	}

	r, err := c.extractor.ExtractRecipe(ctx, content, u.String(), servings)
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}

	c.logger.Info("clipped recipe", zap.String("url", u.String()), zap.String("title", r.Title))
	return r, nil
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "whisk-recipe-clipper/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || (mediaType != "text/html" && mediaType != "application/xhtml+xml") {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedContent, ct)
		}
	}
	if resp.ContentLength > c.maxPageBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrPageTooLarge, resp.ContentLength)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxPageBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(body)) > c.maxPageBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrPageTooLarge, c.maxPageBytes)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find(noise).Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	return collapseSpace(doc.Find("body").Text()), nil
}

// collapseSpace trims each line and drops blank ones.
func collapseSpace(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func newHTTPClient(allowPrivate bool) *http.Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !allowPrivate {
		// The guard runs on the resolved address, so a public name that
		// resolves to a private address is refused too. A proxy would hide
		// the real target from it.
		dialer.Control = publicOnly
		transport.Proxy = nil
	}
	transport.DialContext = dialer.DialContext
	return &http.Client{Timeout: DefaultTimeout, Transport: transport}
}

func publicOnly(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, host)
	}
	if !isPublic(ip) {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, ip)
	}
	return nil
}

func isPublic(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsGlobalUnicast() && !ip.IsPrivate() && !cgnat.Contains(ip)
}

// isLocalHost reports hostnames that are refused before any lookup.
func isLocalHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	if ip, err := netip.ParseAddr(host); err == nil {
		return !isPublic(ip)
	}
	return false
}
