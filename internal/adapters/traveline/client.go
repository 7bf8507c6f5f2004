package traveline

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tim2004timi/traveline-integration/internal/adapters/observability"
	"github.com/tim2004timi/traveline-integration/internal/domain"
)

var (
	ErrNotFound     = errors.New("traveline: not found")
	ErrUnauthorized = errors.New("traveline: unauthorized")
	ErrForbidden    = errors.New("traveline: forbidden")
)

// Config carries the partner endpoints and the token-cache policy. TokenTTL
// must stay below the upstream token lifetime (15 minutes) so a cache hit is
// never an expired token.
type Config struct {
	AuthURL      string
	BaseURL      string
	ClientID     string
	ClientSecret string
	TokenKey     string
	TokenTTL     time.Duration
	RPS          int
}

type Client struct {
	cfg   Config
	hc    *http.Client
	cache domain.Cache
	rl    *rate.Limiter
}

func New(cfg Config, cache domain.Cache) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client credentials are required")
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if cfg.TokenKey == "" {
		cfg.TokenKey = "traveline_access_token"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 14 * time.Minute
	}
	return &Client{
		cfg:   cfg,
		hc:    &http.Client{Timeout: 20 * time.Second},
		cache: cache,
		rl:    rate.NewLimiter(rate.Limit(cfg.RPS), cfg.RPS),
	}, nil
}

// GetProperty fetches the full property content document with a bearer token.
// A 401 drops the cached token before failing, so the next cycle starts with
// a fresh exchange instead of a stale credential.
func (c *Client) GetProperty(ctx context.Context, propertyID string) (map[string]any, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire token: %w", err)
	}

	u := fmt.Sprintf("%s/v1/properties/%s", c.cfg.BaseURL, propertyID)
	var out map[string]any
	if err := c.get(ctx, u, token, &out); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			_ = c.cache.Del(ctx, c.cfg.TokenKey)
		}
		return nil, err
	}
	return out, nil
}

// accessToken returns the cached token when present, otherwise exchanges
// client credentials and caches the result for TokenTTL.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	var token string
	if ok, _ := c.cache.Get(ctx, c.cfg.TokenKey, &token); ok && token != "" {
		return token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("traveline", "auth", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("token endpoint %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", errors.New("token endpoint returned empty access_token")
	}

	if err := c.cache.Set(ctx, c.cfg.TokenKey, body.AccessToken, int(c.cfg.TokenTTL.Seconds())); err != nil {
		// A dead cache costs an extra exchange next cycle, nothing more.
		return body.AccessToken, nil
	}
	return body.AccessToken, nil
}

// get performs a GET with client-side rate limiting, retries, and JSON decode
// into out. Retries on 429 and transient 5xx, honoring Retry-After when
// provided.
func (c *Client) get(ctx context.Context, url, token string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "traveline-integration/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("traveline", "property", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if
// absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms,
// 800ms...), with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
