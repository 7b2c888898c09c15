package searchconsole

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/api/option"
	sc "google.golang.org/api/searchconsole/v1"

	"github.com/markdave123-py/Fixpress/internal/core"
)

// ErrNotConfigured is returned by calls that have no mock fallback.
var ErrNotConfigured = errors.New("search console not configured")

const mockMessage = "Datos de ejemplo. Configura GOOGLE_CREDENTIALS_FILE para datos reales."

// Client reads search analytics for one property. A nil *Client is valid and
// means "not configured": page metrics degrade to mock data, the rest fail.
type Client struct {
	svc     *sc.Service
	siteURL string
	now     func() time.Time
}

type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type PageMetrics struct {
	Clicks      float64 `json:"clicks"`
	Impressions float64 `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
}

type PagePerformance struct {
	URL     string           `json:"url"`
	IsMock  bool             `json:"is_mock,omitempty"`
	Metrics PageMetrics      `json:"metrics"`
	Queries []*sc.ApiDataRow `json:"queries"`
	Period  Period           `json:"period"`
	Message string           `json:"message,omitempty"`
}

type SiteMetrics struct {
	Rows   []*sc.ApiDataRow `json:"data"`
	Period Period           `json:"period"`
}

type ArticleMetrics struct {
	URL     string      `json:"url"`
	Metrics PageMetrics `json:"metrics"`
	IsMock  bool        `json:"is_mock"`
}

type Summary struct {
	TotalClicks      float64 `json:"total_clicks"`
	TotalImpressions float64 `json:"total_impressions"`
	AvgCTR           float64 `json:"avg_ctr"`
	AvgPosition      float64 `json:"avg_position"`
}

type ArticlesPerformance struct {
	TotalArticles int              `json:"total_articles"`
	Articles      []ArticleMetrics `json:"articles"`
	Summary       Summary          `json:"summary"`
}

// New builds a client from a service-account credentials file. Extra options
// are appended after the credentials, which lets tests point it at a fake endpoint.
func New(ctx context.Context, credentialsFile, siteURL string, opts ...option.ClientOption) (*Client, error) {
	if siteURL == "" || (credentialsFile == "" && len(opts) == 0) {
		return nil, &core.ConfigurationError{Component: "search console", Reason: "GOOGLE_CREDENTIALS_FILE and SITE_URL are required"}
	}

	all := []option.ClientOption{option.WithScopes(sc.WebmastersReadonlyScope)}
	if credentialsFile != "" {
		all = append(all, option.WithCredentialsFile(credentialsFile))
	}
	all = append(all, opts...)

	svc, err := sc.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("search console service: %w", err)
	}
	return &Client{svc: svc, siteURL: siteURL, now: time.Now}, nil
}

// SiteMetrics returns up to 100 rows grouped by dimensions (default "query") over the last days.
func (c *Client) SiteMetrics(ctx context.Context, days int, dimensions []string) (*SiteMetrics, error) {
	if c == nil {
		return nil, ErrNotConfigured
	}
	if len(dimensions) == 0 {
		dimensions = []string{"query"}
	}
	period := c.period(days)

	resp, err := c.query(ctx, &sc.SearchAnalyticsQueryRequest{
		StartDate:  period.Start,
		EndDate:    period.End,
		Dimensions: dimensions,
		RowLimit:   100,
	})
	if err != nil {
		return nil, err
	}
	return &SiteMetrics{Rows: resp.Rows, Period: period}, nil
}

// TopQueries returns the most frequent queries of the last 30 days.
func (c *Client) TopQueries(ctx context.Context, limit int) ([]*sc.ApiDataRow, error) {
	if c == nil {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = 20
	}
	period := c.period(30)

	resp, err := c.query(ctx, &sc.SearchAnalyticsQueryRequest{
		StartDate:  period.Start,
		EndDate:    period.End,
		Dimensions: []string{"query"},
		RowLimit:   int64(limit),
	})
	if err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

// PagePerformance aggregates the query rows of one page. Without a configured
// client it returns zeroed mock data flagged IsMock.
func (c *Client) PagePerformance(ctx context.Context, pageURL string, days int) (*PagePerformance, error) {
	if c == nil {
		return mockPerformance(pageURL, time.Now()), nil
	}
	period := c.period(days)

	resp, err := c.query(ctx, &sc.SearchAnalyticsQueryRequest{
		StartDate:  period.Start,
		EndDate:    period.End,
		Dimensions: []string{"query"},
		DimensionFilterGroups: []*sc.ApiDimensionFilterGroup{{
			Filters: []*sc.ApiDimensionFilter{{Dimension: "page", Expression: pageURL}},
		}},
		RowLimit: 50,
	})
	if err != nil {
		return nil, err
	}

	var m PageMetrics
	var posSum float64
	for _, r := range resp.Rows {
		m.Clicks += r.Clicks
		m.Impressions += r.Impressions
		posSum += r.Position
	}
	if m.Impressions > 0 {
		m.CTR = round(m.Clicks/m.Impressions*100, 2)
	}
	if len(resp.Rows) > 0 {
		m.Position = round(posSum/float64(len(resp.Rows)), 1)
	}

	queries := resp.Rows
	if len(queries) > 10 {
		queries = queries[:10]
	}
	return &PagePerformance{URL: pageURL, Metrics: m, Queries: queries, Period: period}, nil
}

// ArticlesPerformance collects page metrics for each url, skipping failed lookups,
// and averages ctr and position over the pages that answered.
func (c *Client) ArticlesPerformance(ctx context.Context, urls []string) *ArticlesPerformance {
	res := &ArticlesPerformance{TotalArticles: len(urls), Articles: []ArticleMetrics{}}

	var ctrSum, posSum float64
	for _, u := range urls {
		p, err := c.PagePerformance(ctx, u, 30)
		if err != nil {
			continue
		}
		res.Articles = append(res.Articles, ArticleMetrics{URL: u, Metrics: p.Metrics, IsMock: p.IsMock})
		res.Summary.TotalClicks += p.Metrics.Clicks
		res.Summary.TotalImpressions += p.Metrics.Impressions
		ctrSum += p.Metrics.CTR
		posSum += p.Metrics.Position
	}

	if n := float64(len(res.Articles)); n > 0 {
		res.Summary.AvgCTR = round(ctrSum/n, 2)
		res.Summary.AvgPosition = round(posSum/n, 1)
	}
	return res
}

func (c *Client) query(ctx context.Context, req *sc.SearchAnalyticsQueryRequest) (*sc.SearchAnalyticsQueryResponse, error) {
	resp, err := c.svc.Searchanalytics.Query(c.siteURL, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search analytics query: %w", err)
	}
	return resp, nil
}

func (c *Client) period(days int) Period {
	if days <= 0 {
		days = 30
	}
	return periodEnding(c.now(), days)
}

func periodEnding(now time.Time, days int) Period {
	end := now.UTC()
	return Period{
		Start: end.AddDate(0, 0, -days).Format(time.DateOnly),
		End:   end.Format(time.DateOnly),
	}
}

func mockPerformance(pageURL string, now time.Time) *PagePerformance {
	return &PagePerformance{
		URL:     pageURL,
		IsMock:  true,
		Queries: []*sc.ApiDataRow{},
		Period:  periodEnding(now, 30),
		Message: mockMessage,
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
