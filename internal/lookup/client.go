// Package lookup proxies the external address-to-utility-provider service.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/utilityprofit/moveout-tracker/pkg/apperr"
)

const maxErrorBody = 4 << 10

// Provider is one utility provider suggested for an address.
type Provider struct {
	Name    string `json:"provider_name"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

// Result is the upstream response. It marshals back to the exact upstream body,
// so keys this type does not know about reach the client unchanged.
type Result struct {
	Electric *Provider `json:"electric,omitempty"`
	Gas      *Provider `json:"gas,omitempty"`
	Water    *Provider `json:"water,omitempty"`

	raw json.RawMessage
}

// MarshalJSON returns the upstream body.
func (r Result) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	type plain Result
	return json.Marshal(plain(r))
}

// parseResult keeps any JSON body. The typed view is filled per key where the
// value has the expected shape and left nil otherwise.
func parseResult(body []byte) (*Result, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		if !json.Valid(body) {
			return nil, fmt.Errorf("decode lookup response: %w", err)
		}
		keys = nil
	}
	r := Result{raw: json.RawMessage(body)}
	for name, dst := range map[string]**Provider{"electric": &r.Electric, "gas": &r.Gas, "water": &r.Water} {
		var p *Provider
		if v, ok := keys[name]; ok && json.Unmarshal(v, &p) == nil {
			*dst = p
		}
	}
	return &r, nil
}

// Cache stores raw lookup responses. Implemented by pkg/redis.Cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config holds the upstream location and credentials.
type Config struct {
	URL      string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client calls the lookup service.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	cache    Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewClient creates a lookup client. cache may be nil; caching is also off when cfg.CacheTTL is zero.
func NewClient(cfg Config, cache Cache, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cache = nil
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		cache:    cache,
		cacheTTL: cfg.CacheTTL,
		logger:   logger,
	}
}

// Configured reports whether both the URL and the API key are set.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// cacheKey normalizes an address so spacing and case differences share an entry.
func cacheKey(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}

// Lookup returns the providers for address. It fails with apperr.ErrNotConfigured when the
// URL or key is missing and with *apperr.UpstreamError on a non-2xx response.
func (c *Client) Lookup(ctx context.Context, address string) (*Result, error) {
	if !c.Configured() {
		return nil, apperr.ErrNotConfigured
	}
	key := cacheKey(address)
	if c.cache != nil {
		if b, ok, err := c.cache.Get(ctx, key); err != nil {
			c.logger.Warn("lookup cache read failed", zap.Error(err))
		} else if ok {
			if r, err := parseResult(b); err == nil {
				return r, nil
			}
		}
	}

	target := c.baseURL + "/lookup?address=" + url.QueryEscape(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("lookup upstream error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
			zap.String("url", target),
		)
		return nil, &apperr.UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read lookup response: %w", err)
	}
	r, err := parseResult(body)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body, c.cacheTTL); err != nil {
			c.logger.Warn("lookup cache write failed", zap.Error(err))
		}
	}
	return r, nil
}
