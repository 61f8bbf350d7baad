package woo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lysyi3m/category-comb/app/catalog"
)

const (
	DefaultCategoriesPath = "/wp-json/wc/v3/products/categories"
	DefaultPerPage        = 100
	MaxPages              = 10
)

var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %s: %s", e.Status, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

type Options struct {
	StoreURL       string
	CategoriesPath string
	ConsumerKey    string
	ConsumerSecret string
	PerPage        int
	UserAgent      string
	Timeout        time.Duration
}

// Client reads product categories from a WooCommerce-compatible REST API.
type Client struct {
	httpClient *http.Client
	opts       Options
}

func NewClient(httpClient *http.Client, opts Options) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.CategoriesPath == "" {
		opts.CategoriesPath = DefaultCategoriesPath
	}
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	opts.StoreURL = strings.TrimRight(opts.StoreURL, "/")

	return &Client{
		httpClient: httpClient,
		opts:       opts,
	}
}

// FetchCategories returns every raw category record the store lists, in the
// order the store returns them, following pagination.
func (c *Client) FetchCategories(ctx context.Context) ([]catalog.RawCategory, error) {
	var all []catalog.RawCategory

	for page := 1; page <= MaxPages; page++ {
		records, totalPages, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)

		if len(records) < c.opts.PerPage || page >= totalPages {
			break
		}
	}

	slog.Debug("Categories fetched", "store", c.opts.StoreURL, "count", len(all))

	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) ([]catalog.RawCategory, int, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, c.pageURL(page), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch categories: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(body))}
	}

	var records []catalog.RawCategory
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, 0, fmt.Errorf("failed to decode categories: %w", err)
	}

	totalPages, err := strconv.Atoi(resp.Header.Get("X-WP-TotalPages"))
	if err != nil {
		totalPages = 1
	}

	return records, totalPages, nil
}

func (c *Client) pageURL(page int) string {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(c.opts.PerPage))
	q.Set("page", strconv.Itoa(page))
	if c.opts.ConsumerKey != "" {
		q.Set("consumer_key", c.opts.ConsumerKey)
		q.Set("consumer_secret", c.opts.ConsumerSecret)
	}
	return c.opts.StoreURL + c.opts.CategoriesPath + "?" + q.Encode()
}
