package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
	"github.com/themalagasywizard/IHUB-4.1/internal/metrics"
)

const (
	defaultBaseURL      = "https://api.themoviedb.org/3"
	defaultImageBaseURL = "https://image.tmdb.org/t/p"
	redisCacheKey       = "discovery:tmdb:"
	maxResponseBytes    = 2 * 1024 * 1024
)

type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	http         *http.Client
	redis        *redis.Client
	cacheTTL     time.Duration
	limiter      *rate.Limiter
	retry        RetryConfig
	logger       *slog.Logger
}

type Config struct {
	APIKey            string
	BaseURL           string
	ImageBaseURL      string
	Client            *http.Client
	Redis             *redis.Client
	CacheTTL          time.Duration
	RequestsPerSecond float64
	Retry             RetryConfig
	Logger            *slog.Logger
}

// StatusError is a non-2xx answer from the metadata API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb HTTP %d: %s", e.Code, e.Body)
}

func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	imageBaseURL := strings.TrimSpace(cfg.ImageBaseURL)
	if imageBaseURL == "" {
		imageBaseURL = defaultImageBaseURL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:       strings.TrimSpace(cfg.APIKey),
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: strings.TrimRight(imageBaseURL, "/"),
		http:         httpClient,
		redis:        cfg.Redis,
		cacheTTL:     cacheTTL,
		limiter:      limiter,
		retry:        retry,
		logger:       logger,
	}
}

func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// ImageURL builds an absolute artwork URL for a poster or profile path.
func (c *Client) ImageURL(path, size string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if size == "" {
		size = "w500"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.imageBaseURL + "/" + size + path
}

// getJSON fetches path with params into dest. Responses are cached in Redis
// keyed by path and parameters, never by the API key.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, dest any) error {
	if !c.Enabled() {
		return errors.New("tmdb api key is not configured")
	}
	cacheKey := redisCacheKey + path + "?" + canonicalQuery(params)

	if c.redis != nil {
		data, err := c.redis.Get(ctx, cacheKey).Bytes()
		if err == nil && json.Unmarshal(data, dest) == nil {
			metrics.CacheHitsTotal.WithLabelValues("tmdb").Inc()
			return nil
		}
		metrics.CacheMissesTotal.WithLabelValues("tmdb").Inc()
	}

	query := url.Values{}
	for key, values := range params {
		query[key] = append([]string(nil), values...)
	}
	query.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + query.Encode()

	startedAt := time.Now()
	var body []byte
	err := retryWithBackoff(ctx, c.retry, func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var err error
		body, err = c.fetch(ctx, reqURL)
		return err
	})
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startedAt).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, upstreamStatus(err)).Inc()
		return err
	}

	if err := json.Unmarshal(body, dest); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "decode_error").Inc()
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "ok").Inc()

	if c.redis != nil {
		_ = c.redis.Set(ctx, cacheKey, body, c.cacheTTL).Err()
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}

// listPage fetches a result listing. Failures are logged and become an
// empty page with one total page.
func (c *Client) listPage(ctx context.Context, endpoint, path string, params url.Values, defaultKind domain.MediaKind) domain.Page {
	var response listResponse
	if err := c.getJSON(ctx, endpoint, path, params, &response); err != nil {
		c.logger.Warn("tmdb listing failed",
			slog.String("endpoint", endpoint),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return domain.EmptyPage()
	}
	items := make([]domain.MediaItem, 0, len(response.Results))
	for _, raw := range response.Results {
		items = append(items, raw.normalize(defaultKind))
	}
	totalPages := response.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}
	return domain.Page{Items: items, TotalPages: totalPages}
}

func canonicalQuery(params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if key == "api_key" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+strings.Join(params[key], ","))
	}
	return strings.Join(parts, "&")
}

func upstreamStatus(err error) string {
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		return fmt.Sprintf("http_%d", statusErr.Code)
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
