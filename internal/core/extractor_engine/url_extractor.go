package extractor_engine

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/orgmind-ai/orgmind/internal/core/errs"
)

const scrapeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var whitespaceRe = regexp.MustCompile(`\s+`)

// newScrapeClient builds the outbound HTTP client for URL ingestion.
// insecureTLS tolerates self-signed endpoints on tenant-supplied URLs and
// must be enabled explicitly in config.
func newScrapeClient(timeout time.Duration, insecureTLS bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// ExtractURL fetches the page and strips script, style and navigation
// markup before collapsing the remaining text to single-spaced UTF-8.
func (e *DocExtractor) ExtractURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrScrapeFailed, err)
	}
	req.Header.Set("User-Agent", scrapeUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Warn("url fetch failed", zap.String("url", url), zap.Error(err))
		return "", fmt.Errorf("%w: %v", errs.ErrScrapeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: unexpected status %d", errs.ErrScrapeFailed, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrScrapeFailed, err)
	}

	doc.Find("script, style, nav, header, footer").Remove()

	text := doc.Find("body").Text()
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	return text, nil
}
