// Package openalex harvests an author's works from the OpenAlex REST API.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	collyfetcher "github.com/JakeFAU/pubharvest/internal/fetcher/colly"
	"github.com/JakeFAU/pubharvest/internal/harvest"
	"github.com/JakeFAU/pubharvest/internal/metrics"
	"github.com/JakeFAU/pubharvest/internal/publication"
)

const (
	// BaseURL is the public OpenAlex API root.
	BaseURL = "https://api.openalex.org"

	// DefaultPageSize is the largest page OpenAlex serves.
	DefaultPageSize = 200

	// DefaultPageDelay is the pause between consecutive works pages.
	DefaultPageDelay = 300 * time.Millisecond

	// StartCursor asks for the first page of a cursor walk.
	StartCursor = "*"

	authorSearchLimit = 5
	authorIDPrefix    = "https://openalex.org/"
	sourceName        = "openalex"
)

// Fetcher performs one GET and returns the response whatever its status.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (collyfetcher.Response, error)
}

// Identity selects the author. ORCID is preferred; Query is a free-text search whose
// first ranked match is taken.
type Identity struct {
	ORCID string
	Query string
}

// Client talks to the OpenAlex API one request at a time.
type Client struct {
	fetcher   Fetcher
	baseURL   string
	mailto    string
	pageSize  int
	pageDelay time.Duration
	logger    *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithMailto joins the OpenAlex polite pool.
func WithMailto(email string) ClientOption {
	return func(c *Client) {
		c.mailto = email
	}
}

// WithPageSize overrides DefaultPageSize.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithPageDelay sets the fixed pause between one works response and the next
// request. Zero disables it.
func WithPageDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.pageDelay = d
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client over fetcher.
func NewClient(fetcher Fetcher, opts ...ClientOption) *Client {
	c := &Client{
		fetcher:   fetcher,
		baseURL:   BaseURL,
		pageSize:  DefaultPageSize,
		pageDelay: DefaultPageDelay,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newPageLimiter returns a burst-1 limiter whose token was spent at, so Wait
// returns d after that instant.
func newPageLimiter(d time.Duration, at time.Time) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	l := rate.NewLimiter(rate.Every(d), 1)
	l.AllowN(at, 1)
	return l
}

// ResolveAuthor maps id to an OpenAlex author ID such as "https://openalex.org/A123".
func (c *Client) ResolveAuthor(ctx context.Context, id Identity) (string, error) {
	q := url.Values{}
	var label string
	switch {
	case strings.TrimSpace(id.ORCID) != "":
		label = "ORCID " + id.ORCID
		q.Set("filter", "orcid:"+strings.TrimSpace(id.ORCID))
	case strings.TrimSpace(id.Query) != "":
		label = "query " + strconv.Quote(id.Query)
		q.Set("search", id.Query)
		q.Set("per-page", strconv.Itoa(authorSearchLimit))
	default:
		return "", fmt.Errorf("%w: neither ORCID nor query configured", harvest.ErrIdentityNotFound)
	}

	var page listResponse[Author]
	if err := c.getJSON(ctx, "author", c.endpoint("/authors", q), &page); err != nil {
		return "", err
	}
	if len(page.Results) == 0 || page.Results[0].ID == "" {
		return "", fmt.Errorf("%w: no OpenAlex author for %s", harvest.ErrIdentityNotFound, label)
	}
	author := page.Results[0]
	c.logger.Info("resolved author",
		zap.String("author_id", author.ID),
		zap.String("display_name", author.DisplayName),
		zap.Int("candidates", len(page.Results)),
	)
	return author.ID, nil
}

// Works walks the author's works newest first and returns at most maxItems records
// in source order. Any failed page aborts the walk and discards what was collected.
func (c *Client) Works(ctx context.Context, authorID string, maxItems int) ([]publication.Record, error) {
	if maxItems <= 0 {
		return []publication.Record{}, nil
	}
	key := strings.TrimPrefix(authorID, authorIDPrefix)
	items := make([]publication.Record, 0, min(maxItems, c.pageSize))
	cursor := StartCursor
	pages := 0
	var gate *rate.Limiter

	for cursor != "" && len(items) < maxItems {
		if gate != nil {
			if err := pace(ctx, gate); err != nil {
				return nil, err
			}
		}
		page, err := c.worksPage(ctx, key, cursor)
		if err != nil {
			return nil, fmt.Errorf("works page %d: %w", pages+1, err)
		}
		gate = newPageLimiter(c.pageDelay, time.Now())
		pages++
		if len(page.Results) == 0 {
			break
		}
		for _, w := range page.Results {
			if len(items) == maxItems {
				break
			}
			items = append(items, MapWork(w))
		}
		cursor = ""
		if page.Meta.NextCursor != nil {
			cursor = *page.Meta.NextCursor
		}
		c.logger.Debug("works page fetched",
			zap.Int("page", pages),
			zap.Int("results", len(page.Results)),
			zap.Int("accumulated", len(items)),
		)
	}
	c.logger.Info("works harvested", zap.Int("pages", pages), zap.Int("items", len(items)))
	return items, nil
}

func (c *Client) worksPage(ctx context.Context, authorKey, cursor string) (listResponse[Work], error) {
	q := url.Values{}
	q.Set("filter", "author.id:"+authorKey)
	q.Set("sort", "publication_year:desc")
	q.Set("per-page", strconv.Itoa(c.pageSize))
	q.Set("cursor", cursor)

	var page listResponse[Work]
	err := c.getJSON(ctx, "works", c.endpoint("/works", q), &page)
	return page, err
}

func pace(ctx context.Context, gate *rate.Limiter) error {
	start := time.Now()
	if err := gate.Wait(ctx); err != nil {
		return fmt.Errorf("politeness wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObservePolitenessDelay(waited)
	}
	return nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	if c.mailto != "" {
		q.Set("mailto", c.mailto)
	}
	return c.baseURL + path + "?" + q.Encode()
}

func (c *Client) getJSON(ctx context.Context, kind, rawURL string, out any) error {
	metrics.ObserveRequest(sourceName, kind)
	resp, err := c.fetcher.Get(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", harvest.ErrRemoteFetchFailed, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", harvest.ErrRemoteFetchFailed, kind, err)
	}
	return nil
}
