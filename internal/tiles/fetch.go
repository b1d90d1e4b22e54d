package tiles

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// ErrNotFound is returned for tiles the server does not have.
var ErrNotFound = errors.New("tile not found")

// Source yields encoded tile images.
type Source interface {
	Tile(ctx context.Context, t Tile) ([]byte, error)
}

// Fetcher downloads tiles from an XYZ URL template. The template may use
// {s} (subdomain), {z}, {x}, {y} and {r} (retina suffix).
type Fetcher struct {
	template   string
	userAgent  string
	subdomains []string
	retina     bool
	timeout    time.Duration
	client     *fasthttp.Client
}

type FetcherOption func(*Fetcher)

// WithClient replaces the default HTTP client.
func WithClient(c *fasthttp.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout bounds a single download when ctx has no deadline.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.timeout = d }
}

// WithRetina requests @2x tiles.
func WithRetina(on bool) FetcherOption {
	return func(f *Fetcher) { f.retina = on }
}

func NewFetcher(template, userAgent string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		template:   template,
		userAgent:  userAgent,
		subdomains: []string{"a", "b", "c", "d"},
		timeout:    15 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &fasthttp.Client{
			Name:                userAgent,
			MaxConnsPerHost:     8,
			ReadTimeout:         f.timeout,
			WriteTimeout:        f.timeout,
			MaxIdleConnDuration: time.Minute,
		}
	}
	return f
}

// URL expands the template for t.
func (f *Fetcher) URL(t Tile) string {
	r := ""
	if f.retina {
		r = "@2x"
	}
	s := f.subdomains[(t.X+t.Y)%len(f.subdomains)]
	return strings.NewReplacer(
		"{s}", s,
		"{z}", strconv.Itoa(t.Z),
		"{x}", strconv.Itoa(t.X),
		"{y}", strconv.Itoa(t.Y),
		"{r}", r,
	).Replace(f.template)
}

// Tile downloads one tile.
func (f *Fetcher) Tile(ctx context.Context, t Tile) ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %s out of range", ErrNotFound, t)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	url := f.URL(t)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	if f.userAgent != "" {
		req.Header.SetUserAgent(f.userAgent)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(f.timeout)
	}
	if err := f.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	switch code := resp.StatusCode(); {
	case code == fasthttp.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	case code != fasthttp.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, code)
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("fetch %s: empty body", url)
	}
	return append([]byte(nil), body...), nil
}
