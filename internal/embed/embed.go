package embed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
	"github.com/themalagasywizard/IHUB-4.1/internal/metrics"
)

var ErrUnavailable = errors.New("no embed host could load the video")

const (
	DefaultPrimaryHost  = "https://vidsrc.to"
	DefaultFallbackHost = "https://vidsrc.me"
	DefaultTimeout      = 10 * time.Second
	maxAttempts         = 2
)

// Plan holds the embed URLs for one title, in the order they are tried.
type Plan struct {
	Kind        domain.MediaKind `json:"kind"`
	ID          string           `json:"id"`
	Season      int              `json:"season,omitempty"`
	Episode     int              `json:"episode,omitempty"`
	PrimaryURL  string           `json:"primaryUrl"`
	FallbackURL string           `json:"fallbackUrl"`
}

func (p Plan) URLs() []string {
	return []string{p.PrimaryURL, p.FallbackURL}
}

type Hosts struct {
	Primary  string
	Fallback string
}

func DefaultHosts() Hosts {
	return Hosts{Primary: DefaultPrimaryHost, Fallback: DefaultFallbackHost}
}

// NewPlan builds a plan against the default hosts.
func NewPlan(kind domain.MediaKind, id string, season, episode int) (Plan, error) {
	return DefaultHosts().Plan(kind, id, season, episode)
}

// Plan builds the embed URLs. Movies ignore season and episode; shows
// default to the first episode of the first season.
func (h Hosts) Plan(kind domain.MediaKind, id string, season, episode int) (Plan, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Plan{}, fmt.Errorf("%w: empty id", domain.ErrNotFound)
	}
	primary := strings.TrimRight(h.Primary, "/")
	fallback := strings.TrimRight(h.Fallback, "/")
	escaped := url.PathEscape(id)

	switch kind {
	case domain.KindMovie:
		return Plan{
			Kind:        kind,
			ID:          id,
			PrimaryURL:  primary + "/embed/movie/" + escaped,
			FallbackURL: fallback + "/embed/movie?" + url.Values{"tmdb": {id}}.Encode(),
		}, nil
	case domain.KindTV:
		if season < 1 {
			season = 1
		}
		if episode < 1 {
			episode = 1
		}
		query := url.Values{
			"tmdb":    {id},
			"season":  {fmt.Sprint(season)},
			"episode": {fmt.Sprint(episode)},
		}
		return Plan{
			Kind:        kind,
			ID:          id,
			Season:      season,
			Episode:     episode,
			PrimaryURL:  fmt.Sprintf("%s/embed/tv/%s/%d/%d", primary, escaped, season, episode),
			FallbackURL: fallback + "/embed/tv?" + query.Encode(),
		}, nil
	default:
		return Plan{}, domain.ErrInvalidKind
	}
}

// Resolution reports which URL of a plan answered.
type Resolution struct {
	Plan     Plan   `json:"plan"`
	URL      string `json:"url"`
	Host     string `json:"host"`
	Attempts int    `json:"attempts"`
}

// Prober checks that an embed host serves a page before the client loads it.
type Prober struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

func NewProber(client *http.Client, timeout time.Duration, logger *slog.Logger) *Prober {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{client: client, timeout: timeout, logger: logger}
}

// Resolve tries the primary URL and then the fallback, each bounded by the
// probe timeout. It returns ErrUnavailable when both fail.
func (p *Prober) Resolve(ctx context.Context, plan Plan) (Resolution, error) {
	roles := []string{"primary", "fallback"}
	var lastErr error
	for attempt, target := range plan.URLs()[:maxAttempts] {
		role := roles[attempt]
		err := p.probe(ctx, target)
		if err == nil {
			metrics.EmbedProbesTotal.WithLabelValues(role, "ok").Inc()
			return Resolution{Plan: plan, URL: target, Host: role, Attempts: attempt + 1}, nil
		}
		metrics.EmbedProbesTotal.WithLabelValues(role, "error").Inc()
		p.logger.Warn("embed probe failed",
			slog.String("host", role),
			slog.String("url", target),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return Resolution{Plan: plan, Attempts: maxAttempts}, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (p *Prober) probe(ctx context.Context, target string) error {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("embed HTTP %d", resp.StatusCode)
	}
	return nil
}
