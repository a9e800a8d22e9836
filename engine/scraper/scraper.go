// Package scraper fetches supplementary repair content from product
// pages: customer repair stories and installation videos. Extraction
// is regex-based and tolerant; a page with no recognisable content
// yields empty results, not errors.
package scraper

import (
	"context"
	"html"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PartPalAI/partpal-mvp/engine/domain"
	"github.com/PartPalAI/partpal-mvp/pkg/fn"
	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// AdditionalInfo is what a product page contributes beyond the catalog.
type AdditionalInfo struct {
	RepairStories []domain.RepairStory `json:"repair_stories"`
	VideoURL      string               `json:"video_url,omitempty"`
}

var (
	storyBlockRe = regexp.MustCompile(`(?is)<div[^>]*class="[^"]*(?:repair|story|fix|solution)[^"]*"[^>]*>(.*?)</div>`)
	headingRe    = regexp.MustCompile(`(?is)<h[2-4][^>]*>(.*?)</h[2-4]>`)
	paragraphRe  = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
	iframeRe     = regexp.MustCompile(`(?i)<iframe[^>]+src="([^"]*(?:youtube\.com|vimeo\.com)[^"]*)"`)
	videoSrcRe   = regexp.MustCompile(`(?i)<(?:video|source)[^>]+src="([^"]+)"`)
	tagRe        = regexp.MustCompile(`(?s)<[^>]*>`)
)

// PartPageScraper fetches and parses product pages.
type PartPageScraper struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New creates a scraper with a polite request rate.
func New(logger *slog.Logger) *PartPageScraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &PartPageScraper{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
		logger:     logger,
	}
}

// AdditionalInfo fetches a product page and extracts repair stories
// and the first embedded video URL.
func (s *PartPageScraper) AdditionalInfo(ctx context.Context, productURL string) (AdditionalInfo, error) {
	page, err := s.fetch(ctx, productURL)
	if err != nil {
		return AdditionalInfo{}, err
	}
	return AdditionalInfo{
		RepairStories: ExtractRepairStories(page),
		VideoURL:      ExtractVideoURL(page),
	}, nil
}

// fetchRetry keeps retries short enough that a dead page does not
// stall a whole enrichment run.
var fetchRetry = fn.RetryOpts{
	MaxAttempts: 3,
	InitialWait: 200 * time.Millisecond,
	MaxWait:     2 * time.Second,
	Jitter:      true,
}

func (s *PartPageScraper) fetch(ctx context.Context, pageURL string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return fn.Retry(ctx, fetchRetry, func(ctx context.Context) fn.Result[string] {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return fn.Errf[string]("scraper: build request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fn.Errf[string]("scraper: fetch %s: %w", pageURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fn.Errf[string]("scraper: fetch %s: status %d", pageURL, resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fn.Errf[string]("scraper: read %s: %w", pageURL, err)
		}
		return fn.Ok(string(body))
	}).Unwrap()
}

// ExtractRepairStories pulls story blocks out of page HTML. A block
// needs a heading or a paragraph to count; blocks with neither are
// skipped.
func ExtractRepairStories(page string) []domain.RepairStory {
	var stories []domain.RepairStory
	for _, block := range storyBlockRe.FindAllStringSubmatch(page, -1) {
		inner := block[1]
		title := "Repair Story"
		if m := headingRe.FindStringSubmatch(inner); m != nil {
			title = stripTags(m[1])
		}
		solution := ""
		if m := paragraphRe.FindStringSubmatch(inner); m != nil {
			solution = stripTags(m[1])
		}
		if title == "Repair Story" && solution == "" {
			continue
		}
		stories = append(stories, domain.RepairStory{Title: title, Solution: solution})
	}
	return stories
}

// ExtractVideoURL finds the first embedded video: a YouTube or Vimeo
// iframe wins, then any video or source element.
func ExtractVideoURL(page string) string {
	if m := iframeRe.FindStringSubmatch(page); m != nil {
		return m[1]
	}
	if m := videoSrcRe.FindStringSubmatch(page); m != nil {
		return m[1]
	}
	return ""
}

func stripTags(s string) string {
	plain := html.UnescapeString(tagRe.ReplaceAllString(s, " "))
	return strings.Join(strings.Fields(plain), " ")
}
