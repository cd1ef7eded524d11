// Package fetch retrieves one source's dataset over HTTP with bounded
// retries and exponential backoff.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/psyger-labs/ftpferry/internal/model"
)

// Fetcher performs retrying HTTP GETs. The retry loop keeps no state
// beyond the attempt counter and the last error. The zero value is usable:
// unset fields fall back to the shared defaults at fetch time.
type Fetcher struct {
	Client      *http.Client
	MaxAttempts int
	BaseBackoff time.Duration

	sleep func(time.Duration) // swapped out in tests
}

// New returns a fetcher with the given attempt bound and backoff base.
// Zero values fall back to the shared defaults.
func New(maxAttempts int, baseBackoff time.Duration) *Fetcher {
	if maxAttempts <= 0 {
		maxAttempts = model.DefaultFetchAttempts
	}
	if baseBackoff <= 0 {
		baseBackoff = model.DefaultFetchBackoff
	}
	return &Fetcher{
		Client:      &http.Client{Timeout: 2 * time.Minute},
		MaxAttempts: maxAttempts,
		BaseBackoff: baseBackoff,
		sleep:       time.Sleep,
	}
}

// Fetch downloads the dataset for spec, retrying failed attempts with a
// base×2^attempt delay. The final attempt's error is surfaced instead of
// retried; the first attempt that returns data wins. A cancelled context
// stops the loop before the next attempt: retrying a dead context cannot
// succeed.
func (f *Fetcher) Fetch(ctx context.Context, name string, spec model.SourceSpec) ([]byte, error) {
	target, err := buildURL(spec)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}

	attempts := f.MaxAttempts
	if attempts <= 0 {
		attempts = model.DefaultFetchAttempts
	}
	backoff := f.BaseBackoff
	if backoff <= 0 {
		backoff = model.DefaultFetchBackoff
	}
	sleep := f.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fetch %s: %w", name, err)
		}
		log.Printf("fetch: %s attempt %d/%d %s", name, attempt+1, attempts, target)

		data, err := f.get(ctx, target)
		if err == nil {
			log.Printf("fetch: %s got %d bytes", name, len(data))
			return data, nil
		}
		lastErr = err
		log.Printf("fetch: %s attempt %d failed: %v", name, attempt+1, err)

		if attempt == attempts-1 {
			break
		}
		sleep(backoff << attempt)
	}
	return nil, fmt.Errorf("fetch %s: %d attempts: %w", name, attempts, lastErr)
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// buildURL merges spec.Params into the URL's query string. Existing query
// parameters on the URL itself are kept unless a spec param shadows them.
func buildURL(spec model.SourceSpec) (string, error) {
	u, err := url.Parse(spec.URL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if len(spec.Params) > 0 {
		q := u.Query()
		for k, v := range spec.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
