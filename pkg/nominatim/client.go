// Package nominatim queries the OSM Nominatim search API for administrative
// boundary polygons. Requests are rate limited and carry an explicit timeout;
// a timed-out lookup is a per-place failure, never an indefinite block.
package nominatim

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrNoBoundary is returned when the query matched nothing or the best match
// carries no polygonal geometry.
var ErrNoBoundary = eris.New("nominatim: no boundary found")

// Cache stores raw API responses keyed by query hash. Implemented by
// internal/store; nil disables caching.
type Cache interface {
	CachedResponse(ctx context.Context, key string) ([]byte, bool, error)
	StoreResponse(ctx context.Context, key string, body []byte) error
}

// Result is a resolved boundary lookup.
type Result struct {
	DisplayName string
	OSMType     string
	OSMID       int64
	Geometry    geom.T
}

// Client is a Nominatim API client.
type Client struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithCache attaches a response cache.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// New creates a Client. The public Nominatim instance requires an identifying
// User-Agent and at most one request per second.
func New(baseURL, userAgent string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		timeout:    30 * time.Second,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResult struct {
	DisplayName string          `json:"display_name"`
	OSMType     string          `json:"osm_type"`
	OSMID       int64           `json:"osm_id"`
	GeoJSON     json.RawMessage `json:"geojson"`
}

// Boundary geocodes a place name and returns its polygon boundary.
func (c *Client) Boundary(ctx context.Context, place string) (*Result, error) {
	body, err := c.search(ctx, place)
	if err != nil {
		return nil, err
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, eris.Wrap(err, "nominatim: parse response")
	}
	if len(results) == 0 {
		return nil, ErrNoBoundary
	}

	best := results[0]
	if len(best.GeoJSON) == 0 {
		return nil, ErrNoBoundary
	}

	var g geom.T
	if err := geojson.Unmarshal(best.GeoJSON, &g); err != nil {
		return nil, eris.Wrap(err, "nominatim: decode geometry")
	}
	switch g.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
	default:
		// Point or linestring results are not usable as boundaries.
		return nil, ErrNoBoundary
	}

	return &Result{
		DisplayName: best.DisplayName,
		OSMType:     best.OSMType,
		OSMID:       best.OSMID,
		Geometry:    g,
	}, nil
}

// search performs the HTTP query, consulting the cache first.
func (c *Client) search(ctx context.Context, place string) ([]byte, error) {
	key := cacheKey(place)
	if c.cache != nil {
		if body, ok, err := c.cache.CachedResponse(ctx, key); err == nil && ok {
			zap.L().Debug("nominatim cache hit", zap.String("place", place))
			return body, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit")
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{
		"q":               {place},
		"format":          {"jsonv2"},
		"polygon_geojson": {"1"},
		"limit":           {"1"},
	}
	reqURL := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("nominatim: returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: read body")
	}

	if c.cache != nil {
		if err := c.cache.StoreResponse(ctx, key, body); err != nil {
			zap.L().Warn("nominatim cache store failed", zap.Error(err))
		}
	}
	return body, nil
}

// cacheKey is the SHA-256 hex of the normalized query.
func cacheKey(place string) string {
	normalized := strings.ToLower(strings.TrimSpace(place))
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}
