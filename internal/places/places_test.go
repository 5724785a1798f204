package places

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func startUpstream(t *testing.T, handler fasthttp.RequestHandler) *fasthttp.Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, handler) }()
	t.Cleanup(func() { _ = ln.Close() })
	return &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
}

const body = `{"status":"OK","predictions":[{"description":"1 Main St, Ancaster","place_id":"p1"},{"description":"1 Main St, Hamilton","place_id":"p2"}]}`

func TestAutocomplete_ForwardsQueryAndBody(t *testing.T) {
	var gotInput, gotKey, gotTypes string
	hc := startUpstream(t, func(ctx *fasthttp.RequestCtx) {
		args := ctx.QueryArgs()
		gotInput = string(args.Peek("input"))
		gotKey = string(args.Peek("key"))
		gotTypes = string(args.Peek("types"))
		ctx.SetContentType("application/json")
		ctx.SetBodyString(body)
	})
	c := New("http://places.test/autocomplete", "secret", hc)

	got, err := c.Autocomplete(context.Background(), "1 Main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != body {
		t.Fatalf("body = %s", got)
	}
	if gotInput != "1 Main" || gotKey != "secret" || gotTypes != "address" {
		t.Fatalf("query = input:%q key:%q types:%q", gotInput, gotKey, gotTypes)
	}
}

func TestAutocomplete_CachesPerInput(t *testing.T) {
	var calls atomic.Int32
	hc := startUpstream(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetBodyString(body)
	})
	c := New("http://places.test/autocomplete", "k", hc)
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if _, err := c.Autocomplete(context.Background(), "1 Main"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls.Load())
	}

	now = now.Add(defaultTTL + time.Second)
	if _, err := c.Autocomplete(context.Background(), "1 Main"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected expired entry to refetch, got %d calls", calls.Load())
	}
}

func TestAutocomplete_UpstreamFailure(t *testing.T) {
	var calls atomic.Int32
	hc := startUpstream(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusForbidden)
	})
	c := New("http://places.test/autocomplete", "k", hc)

	for i := 0; i < 2; i++ {
		_, err := c.Autocomplete(context.Background(), "1 Main")
		if !errors.Is(err, ErrUpstream) {
			t.Fatalf("expected ErrUpstream, got %v", err)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("failures must not be cached, got %d calls", calls.Load())
	}
}

func TestAutocomplete_InvalidJSON(t *testing.T) {
	hc := startUpstream(t, func(ctx *fasthttp.RequestCtx) { ctx.SetBodyString("<html>") })
	c := New("http://places.test/autocomplete", "k", hc)
	if _, err := c.Autocomplete(context.Background(), "x"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestAutocomplete_MissingInput(t *testing.T) {
	c := New("", "k", nil)
	if _, err := c.Autocomplete(context.Background(), "  "); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func TestParseSuggestions(t *testing.T) {
	got, err := ParseSuggestions([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "1 Main St, Ancaster" {
		t.Fatalf("suggestions = %q", got)
	}

	if _, err := ParseSuggestions([]byte("<html>")); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func cacheSize(c *Client) int {
	n := 0
	c.cache.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

func TestAutocomplete_SweepsExpiredEntries(t *testing.T) {
	hc := startUpstream(t, func(ctx *fasthttp.RequestCtx) { ctx.SetBodyString(body) })
	c := New("http://places.test/autocomplete", "k", hc)
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for i := 0; i < 200; i++ {
		if _, err := c.Autocomplete(context.Background(), "1 Main "+strconv.Itoa(i)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if n := cacheSize(c); n != 200 {
		t.Fatalf("expected 200 cached inputs, got %d", n)
	}

	now = now.Add(24 * time.Hour)
	if _, err := c.Autocomplete(context.Background(), "2 High St"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := cacheSize(c); n != 1 {
		t.Fatalf("expected expired inputs to be dropped, %d entries remain", n)
	}
}
