// Package places proxies address autocomplete requests to the Google Places
// API, caching successful responses per input.
package places

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

const (
	DefaultURL     = "https://maps.googleapis.com/maps/api/place/autocomplete/json"
	defaultTimeout = 5 * time.Second
	defaultTTL     = 10 * time.Minute
	sweepInterval  = time.Minute
)

var (
	ErrMissingInput = errors.New("Query parameter 'input' is required and must be a string.")
	ErrUpstream     = errors.New("Failed to fetch suggestions from Google Places API")
)

type Prediction struct {
	Description string `json:"description"`
	PlaceID     string `json:"place_id"`
}

// Response is the subset of the autocomplete payload the service inspects.
// The proxy itself forwards the upstream body unchanged.
type Response struct {
	Status      string       `json:"status"`
	Predictions []Prediction `json:"predictions"`
}

type cacheEntry struct {
	body    []byte
	expires time.Time
}

type Client struct {
	url    string
	apiKey string
	http   *fasthttp.Client
	ttl    time.Duration
	now    func() time.Time
	cache  sync.Map

	sweepMu   sync.Mutex
	lastSweep time.Time
}

// New returns a proxy for baseURL. A nil httpClient gets a pooled default.
func New(baseURL, apiKey string, httpClient *fasthttp.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			Name:                "proposal-generator",
			MaxConnsPerHost:     100,
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         defaultTimeout,
			WriteTimeout:        defaultTimeout,
		}
	}
	return &Client{url: baseURL, apiKey: apiKey, http: httpClient, ttl: defaultTTL, now: time.Now}
}

// Autocomplete returns the upstream JSON body for input, restricted to
// address results.
func (c *Client) Autocomplete(ctx context.Context, input string) ([]byte, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrMissingInput
	}

	if v, ok := c.cache.Load(input); ok {
		e := v.(cacheEntry)
		if c.now().Before(e.expires) {
			return e.body, nil
		}
		c.cache.Delete(input)
	}

	body, err := c.fetch(ctx, input)
	if err != nil {
		return nil, err
	}
	now := c.now()
	c.cache.Store(input, cacheEntry{body: body, expires: now.Add(c.ttl)})
	c.sweep(now)
	return body, nil
}

// sweep drops expired entries, at most once per sweepInterval.
func (c *Client) sweep(now time.Time) {
	c.sweepMu.Lock()
	defer c.sweepMu.Unlock()
	if now.Sub(c.lastSweep) < sweepInterval {
		return
	}
	c.lastSweep = now
	c.cache.Range(func(k, v any) bool {
		if !now.Before(v.(cacheEntry).expires) {
			c.cache.Delete(k)
		}
		return true
	})
}

// ParseSuggestions returns the prediction descriptions of an autocomplete
// response body.
func ParseSuggestions(body []byte) ([]string, error) {
	var r Response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	out := make([]string, 0, len(r.Predictions))
	for _, p := range r.Predictions {
		out = append(out, p.Description)
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, input string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodGet)
	args := req.URI().QueryArgs()
	args.Add("input", input)
	args.Add("key", c.apiKey)
	args.Add("types", "address")

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode())
	}

	body := append([]byte(nil), resp.Body()...)
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: invalid json body", ErrUpstream)
	}
	return body, nil
}
