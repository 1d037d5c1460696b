// Package catalog fetches book records from a Calibre content server and
// keeps the local snapshot in sync with it.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/icholy/digest"
	"go.uber.org/zap"

	"github.com/bookwhisperer/bookwhisperer/internal/config"
	"github.com/bookwhisperer/bookwhisperer/internal/models"
)

// Source lists the upstream catalog and fetches its entries. The HTTP
// client below implements it; the syncer depends only on this interface.
type Source interface {
	BookIDs(ctx context.Context) ([]string, error)
	FetchBooks(ctx context.Context, ids []string) []FetchOutcome
}

// FetchOutcome is the per-item result of a detail fetch. A failed item
// carries its error instead of being silently dropped, so callers can
// distinguish "omitted due to fetch failure" from "legitimately absent".
type FetchOutcome struct {
	ID   string
	Book *models.Book
	Err  error
}

// Client talks to the Calibre content server's AJAX API using HTTP
// digest authentication.
type Client struct {
	baseURL    string
	library    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a catalog client from Calibre credentials.
func NewClient(cfg *config.CalibreConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		library: cfg.Library,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &digest.Transport{
				Username: cfg.Username,
				Password: cfg.Password,
			},
		},
		logger: logger,
	}
}

// BookIDs returns every book ID in the library.
func (c *Client) BookIDs(ctx context.Context) ([]string, error) {
	params := url.Values{}
	params.Set("library_id", c.library)
	params.Set("pattern", "")
	params.Set("start", "0")
	params.Set("num", "10000")
	searchURL := fmt.Sprintf("%s/ajax/search?%s", c.baseURL, params.Encode())
	c.logger.Debug("listing catalog", zap.String("url", searchURL))

	var payload struct {
		BookIDs []json.Number `json:"book_ids"`
	}
	if err := c.getJSON(ctx, searchURL, &payload); err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}

	ids := make([]string, 0, len(payload.BookIDs))
	for _, id := range payload.BookIDs {
		ids = append(ids, id.String())
	}
	return ids, nil
}

// FetchBooks fetches the detail record for every id, one outcome per id
// in input order. A failed fetch never aborts the rest.
func (c *Client) FetchBooks(ctx context.Context, ids []string) []FetchOutcome {
	outcomes := make([]FetchOutcome, 0, len(ids))
	for _, id := range ids {
		book, err := c.fetchBook(ctx, id)
		if err != nil {
			c.logger.Warn("book fetch failed", zap.String("id", id), zap.Error(err))
			outcomes = append(outcomes, FetchOutcome{ID: id, Err: err})
			continue
		}
		outcomes = append(outcomes, FetchOutcome{ID: id, Book: book})
	}
	return outcomes
}

func (c *Client) fetchBook(ctx context.Context, id string) (*models.Book, error) {
	bookURL := fmt.Sprintf("%s/ajax/book/%s/%s", c.baseURL, url.PathEscape(id), url.PathEscape(c.library))

	var info struct {
		Title   string   `json:"title"`
		Authors []string `json:"authors"`
		Tags    []string `json:"tags"`
	}
	if err := c.getJSON(ctx, bookURL, &info); err != nil {
		return nil, err
	}

	title := info.Title
	if title == "" {
		title = fmt.Sprintf("Book %s", id)
	}
	return &models.Book{
		ID:     id,
		Title:  title,
		Author: strings.Join(info.Authors, ", "),
		Topic:  strings.Join(info.Tags, ", "),
	}, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
