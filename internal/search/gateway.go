package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/balitek/villabot/internal/config"
	"github.com/balitek/villabot/internal/metrics"
	"github.com/balitek/villabot/internal/tracing"
)

// Gateway is a total interface over external search providers: every
// call returns a Result, degraded on any failure, and never errors.
type Gateway interface {
	Web(ctx context.Context, query string) Result
	Places(ctx context.Context, query string) Result
	Scoped(ctx context.Context, domain, query string) Result
}

// SerpClient implements Gateway against a SerpAPI-compatible provider.
type SerpClient struct {
	baseURL  string
	apiKey   string
	country  string
	language string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewSerpClient builds a gateway with connect/read timeouts and a
// provider-wide QPS cap.
func NewSerpClient(cfg config.SearchConfig, logger *zap.Logger) *SerpClient {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
	}
	return &SerpClient{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		country:  cfg.Country,
		language: cfg.Language,
		http: &http.Client{
			Timeout:   cfg.ReadTimeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.MaxQPS), 1),
		logger:  logger,
	}
}

type serpResponse struct {
	OrganicResults []struct {
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
	AnswerBox *struct {
		Snippet string `json:"snippet"`
	} `json:"answer_box"`
	LocalResults []struct {
		Title   string  `json:"title"`
		Address string  `json:"address"`
		Phone   string  `json:"phone"`
		Website string  `json:"website"`
		Rating  float64 `json:"rating"`
		Reviews int     `json:"reviews"`
	} `json:"local_results"`
}

// Web runs a generic organic search: up to 5 ranked snippets plus an
// optional direct-answer snippet.
func (c *SerpClient) Web(ctx context.Context, query string) Result {
	resp, err := c.query(ctx, "google", query)
	if err != nil {
		return c.degrade(EngineWeb, "transport", err)
	}

	var snippets []string
	for _, res := range resp.OrganicResults {
		if res.Snippet == "" {
			continue
		}
		snippets = append(snippets, res.Snippet)
		if len(snippets) == 5 {
			break
		}
	}
	if resp.AnswerBox != nil && resp.AnswerBox.Snippet != "" {
		snippets = append(snippets, resp.AnswerBox.Snippet)
	}
	if len(snippets) == 0 {
		return c.degrade(EngineWeb, "empty", nil)
	}
	return Result{Engine: EngineWeb, Snippets: snippets}
}

// Places returns the single top-ranked place record.
func (c *SerpClient) Places(ctx context.Context, query string) Result {
	resp, err := c.query(ctx, "google_maps", query)
	if err != nil {
		return c.degrade(EnginePlaces, "transport", err)
	}
	if len(resp.LocalResults) == 0 {
		return c.degrade(EnginePlaces, "empty", nil)
	}
	top := resp.LocalResults[0]
	return Result{Engine: EnginePlaces, Place: &Place{
		Title:   top.Title,
		Address: top.Address,
		Phone:   top.Phone,
		Website: top.Website,
		Rating:  top.Rating,
		Reviews: top.Reviews,
	}}
}

// Scoped delegates to Web with the query constrained to one domain.
func (c *SerpClient) Scoped(ctx context.Context, domain, query string) Result {
	return c.Web(ctx, ScopedQuery(domain, query))
}

func (c *SerpClient) query(ctx context.Context, engine, q string) (*serpResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	ctx, span := tracing.StartSearchSpan(ctx, engine, q)
	defer span.End()

	start := time.Now()
	metrics.SearchRequests.WithLabelValues(engine).Inc()
	defer func() {
		metrics.SearchDuration.WithLabelValues(engine).Observe(time.Since(start).Seconds())
	}()

	params := url.Values{}
	params.Set("q", q)
	params.Set("api_key", c.apiKey)
	params.Set("engine", engine)
	params.Set("gl", c.country)
	params.Set("hl", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	tracing.InjectTraceparent(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search provider returned status %d", resp.StatusCode)
	}

	var out serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return &out, nil
}

func (c *SerpClient) degrade(engine Engine, reason string, err error) Result {
	if err != nil {
		c.logger.Warn("Search degraded",
			zap.String("engine", string(engine)),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}
	metrics.SearchDegraded.WithLabelValues(string(engine), reason).Inc()
	return Degraded(engine, reason)
}
