package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"banketl/internal/etl"
)

// ── HTTP Fetcher ────────────────────────────────────────────
// Transport collaborator for web sources: GET a URL with a timeout.

// DefaultTimeout bounds a single fetch when the config does not set one.
const DefaultTimeout = 10 * time.Second

// Fetcher retrieves the raw body of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
}

var fetcher Fetcher = &HTTPFetcher{}

// SetFetcher replaces the transport used by web sources.
func SetFetcher(f Fetcher) { fetcher = f }

// HTTPFetcher fetches over net/http. Any non-2xx status, transport failure
// or timeout is reported as etl.ErrNetwork.
type HTTPFetcher struct {
	// Client overrides the default client; its Timeout is ignored in favour
	// of the per-call timeout.
	Client *http.Client
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := &http.Client{Timeout: timeout}
	if f.Client != nil {
		c := *f.Client
		c.Timeout = timeout
		client = &c
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", etl.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", "banketl/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http request: %v", etl.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: http %d: %s", etl.ErrNetwork, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", etl.ErrNetwork, err)
	}
	return data, nil
}

// timeoutFrom reads a timeout from source config. Accepts a duration, a
// duration string ("10s") or a number of seconds.
func timeoutFrom(cfg etl.SourceConfig) (time.Duration, error) {
	switch v := cfg["timeout"].(type) {
	case nil:
		return DefaultTimeout, nil
	case time.Duration:
		return v, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		if v == "" {
			return DefaultTimeout, nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout %q: %w", v, err)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("invalid timeout %v", v)
	}
}
