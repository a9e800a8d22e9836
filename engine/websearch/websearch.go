// Package websearch queries the Bing Web Search API for repair guides
// and community repair stories. Calls go through a rate limiter and a
// circuit breaker; when the API is down or the breaker is open,
// callers get empty results rather than errors bubbling to users.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PartPalAI/partpal-mvp/pkg/fn"
	"github.com/PartPalAI/partpal-mvp/pkg/resilience"
	"golang.org/x/time/rate"
)

const (
	// DefaultEndpoint is the Bing Web Search API endpoint.
	DefaultEndpoint = "https://api.bing.microsoft.com/v7.0/search"
	// DefaultMaxResults caps how many hits a search returns.
	DefaultMaxResults = 5

	keyHeader = "Ocp-Apim-Subscription-Key"
)

// Result is one web search hit.
type Result struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
}

// Story is a community repair story found via web search.
type Story struct {
	Title    string `json:"title"`
	Solution string `json:"solution"`
	Source   string `json:"source"`
}

// bingResponse mirrors the parts of the API response we read.
type bingResponse struct {
	WebPages struct {
		Value []bingPage `json:"value"`
	} `json:"webPages"`
}

type bingPage struct {
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Client calls the search API.
type Client struct {
	endpoint   string
	key        string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *resilience.Breaker
	logger     *slog.Logger
}

// New creates a client. An empty endpoint falls back to
// DefaultEndpoint.
func New(endpoint, key string, logger *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint:   endpoint,
		key:        key,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		breaker:    resilience.NewBreaker(resilience.DefaultBreakerOpts),
		logger:     logger,
	}
}

// SearchRepairInfo finds repair guides for a query. The query is
// enhanced with repair keywords before hitting the API.
func (c *Client) SearchRepairInfo(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	resp, err := c.search(ctx, query+" repair guide fix solution", maxResults)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, maxResults)
	for _, item := range resp.WebPages.Value {
		if len(results) >= maxResults {
			break
		}
		results = append(results, Result{
			Title:       item.Name,
			Description: item.Snippet,
			URL:         item.URL,
			Source:      "Bing Web Search",
		})
	}
	c.logger.Info("web search", "query", query, "results", len(results))
	return results, nil
}

// SearchRepairStories finds community repair stories: only hits whose
// URL looks like a forum or discussion thread are kept.
func (c *Client) SearchRepairStories(ctx context.Context, query string) ([]Story, error) {
	resp, err := c.search(ctx, query+" repair story experience fix solution forum", 10)
	if err != nil {
		return nil, err
	}

	forum := fn.Filter(resp.WebPages.Value, func(item bingPage) bool { return forumLike(item.URL) })
	stories := fn.Map(forum, func(item bingPage) Story {
		return Story{
			Title:    item.Name,
			Solution: item.Snippet,
			Source:   "Bing Web Search",
		}
	})
	c.logger.Info("story search", "query", query, "stories", len(stories))
	return stories, nil
}

func (c *Client) search(ctx context.Context, query string, count int) (*bingResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var out *bingResponse
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		params := url.Values{
			"q":              {query},
			"count":          {strconv.Itoa(count)},
			"responseFilter": {"Webpages"},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return err
		}
		req.Header.Set(keyHeader, c.key)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("websearch: status %d", resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		var parsed bingResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("websearch: decode response: %w", err)
		}
		out = &parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func forumLike(pageURL string) bool {
	lower := strings.ToLower(pageURL)
	for _, kw := range []string{"forum", "community", "discussion"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
