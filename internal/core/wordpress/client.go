package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/markdave123-py/Fixpress/internal/core"
	"github.com/markdave123-py/Fixpress/internal/models"
)

const DefaultCategory = "Ayuda técnica"

// Client publishes articles through the WordPress REST API using an application password.
type Client struct {
	apiURL   string
	user     string
	password string
	category string
	http     *http.Client

	mu         sync.Mutex
	categoryID int64
}

// Post is the subset of a WordPress post the service reads back.
type Post struct {
	ID     int64  `json:"id"`
	Link   string `json:"link"`
	Status string `json:"status"`
	Title  struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
}

type category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewClient fails with a ConfigurationError when any credential is missing.
func NewClient(siteURL, user, appPassword, categoryName string, timeout time.Duration) (*Client, error) {
	if siteURL == "" || user == "" || appPassword == "" {
		return nil, &core.ConfigurationError{
			Component: "wordpress",
			Reason:    "WORDPRESS_URL, WORDPRESS_USER and WORDPRESS_APP_PASSWORD are required",
		}
	}
	if categoryName == "" {
		categoryName = DefaultCategory
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiURL:   strings.TrimRight(siteURL, "/") + "/wp-json/wp/v2",
		user:     user,
		password: appPassword,
		category: categoryName,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

// Publish creates a post, or updates req.PostID when it is set, so re-publishing
// a known article never creates a duplicate.
func (c *Client) Publish(ctx context.Context, req models.PublishRequest) (*models.PublishResult, error) {
	status := req.Status
	if status == "" {
		status = models.StatusDraft
	}

	catID, err := c.getOrCreateCategory(ctx)
	if err != nil {
		return nil, &core.PublishError{Title: req.Title, Err: err}
	}

	excerpt := Excerpt(req.Content.Introduction)
	body := map[string]any{
		"title":          req.Title,
		"content":        FormatHTML(req.Title, req.Content, req.AffiliateLinks),
		"excerpt":        excerpt,
		"status":         status,
		"categories":     []int64{catID},
		"comment_status": "open",
		"ping_status":    "open",
		"meta": map[string]string{
			"error_type":            req.Error,
			"device_model":          req.Model,
			"_yoast_wpseo_metadesc": excerpt,
		},
	}

	path := "/posts"
	if req.PostID > 0 {
		path = fmt.Sprintf("/posts/%d", req.PostID)
	}

	var post Post
	if err := c.do(ctx, http.MethodPost, path, body, &post); err != nil {
		return nil, &core.PublishError{Title: req.Title, Err: err}
	}

	msg := "Artículo guardado como borrador exitosamente"
	if status == models.StatusPublish {
		msg = "Artículo publicado exitosamente"
	}
	log.Printf("[INFO] wordpress post %d saved (%s): %s", post.ID, post.Status, req.Title)

	return &models.PublishResult{
		Success: true,
		PostID:  post.ID,
		URL:     post.Link,
		Status:  post.Status,
		Message: msg,
	}, nil
}

// GetPost fetches a post by id.
func (c *Client) GetPost(ctx context.Context, id int64) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d", id), nil, &post); err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return &post, nil
}

// Ping checks that the API answers with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	var cats []category
	return c.do(ctx, http.MethodGet, "/categories?per_page=1", nil, &cats)
}

// getOrCreateCategory resolves the configured category by case-insensitive name,
// creating it when missing. The id is cached for the client's lifetime.
func (c *Client) getOrCreateCategory(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.categoryID != 0 {
		return c.categoryID, nil
	}

	var cats []category
	if err := c.do(ctx, http.MethodGet, "/categories?per_page=100", nil, &cats); err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}
	for _, cat := range cats {
		if strings.EqualFold(cat.Name, c.category) {
			c.categoryID = cat.ID
			return cat.ID, nil
		}
	}

	var created category
	body := map[string]string{
		"name":        c.category,
		"description": "",
		"slug":        strings.ReplaceAll(strings.ToLower(c.category), " ", "-"),
	}
	if err := c.do(ctx, http.MethodPost, "/categories", body, &created); err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	log.Printf("[INFO] created wordpress category %q (%d)", c.category, created.ID)
	c.categoryID = created.ID
	return created.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
