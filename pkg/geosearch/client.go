// Package geosearch provides a client for the indicator geosearch service.
//
// A search runs in two stages: a geosearch call returns opaque search keys for
// matching indicators, then each key is resolved to its actual values with one
// simple-lookup call. Stage-2 calls run sequentially in the order the server
// returned the hits.
package geosearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/indicator-cli/pkg/tabular"
)

const (
	// DefaultBaseURL is the legacy service host.
	DefaultBaseURL = "http://ec2-13-229-144-6.ap-southeast-1.compute.amazonaws.com"
	// DefaultPort is the legacy service port.
	DefaultPort = "5000"
	// DefaultTimeout bounds each HTTP round trip.
	DefaultTimeout = 60 * time.Second
)

// Client queries the geosearch service.
type Client interface {
	// Settings resolves an endpoint against the configured host and port.
	Settings(ep Endpoint) Settings
	// SearchByDistance runs a radius search and resolves every hit.
	SearchByDistance(ctx context.Context, q DistanceQuery) (*ResultSet, error)
	// NationalIndicators fetches national indicators keyed by response tag.
	NationalIndicators(ctx context.Context, q NationalQuery) (*ResultSet, error)
	// NationalIndicatorsTable fetches national indicators as flat rows tagged
	// with folder_name.
	NationalIndicatorsTable(ctx context.Context, q NationalQuery) ([]tabular.Record, error)
	// ResolveKey fetches the actual values for one search key.
	ResolveKey(ctx context.Context, searchKey string) ([]tabular.Record, error)
	// IndicatorsForAsset lists the actual-model indicators attached to an asset.
	IndicatorsForAsset(ctx context.Context, asset string) ([]tabular.Record, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the service host (scheme included).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithPort overrides the service port. An empty port uses the one in the base
// URL, if any.
func WithPort(port string) Option {
	return func(c *httpClient) {
		c.port = port
	}
}

// WithHTTPClient sets a custom HTTP client. The client is used as is;
// WithTimeout does not apply to it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client. Zero
// disables it. Ignored when WithHTTPClient is given.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.timeout = d
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less means no cap.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
}

// WithLogger sets the logger. Defaults to zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(c *httpClient) {
		c.log = l
	}
}

type httpClient struct {
	baseURL string
	port    string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewClient creates a geosearch client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		port:    DefaultPort,
		timeout: DefaultTimeout,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	if c.log == nil {
		c.log = zap.L()
	}
	return c
}

func (c *httpClient) Settings(ep Endpoint) Settings {
	return Settings{BaseURL: c.baseURL, Port: c.port, Path: ep.Path()}
}

// postJSON sends payload to ep and returns the raw response body.
func (c *httpClient) postJSON(ctx context.Context, ep Endpoint, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrapf(err, "geosearch: marshal %s request", ep)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Settings(ep).URL(), bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "geosearch: create %s request", ep)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(ctx, ep, req)
}

func (c *httpClient) do(ctx context.Context, ep Endpoint, req *http.Request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrapf(err, "geosearch: %s rate limit", ep)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "geosearch: %s request", ep)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "geosearch: %s read body", ep)
	}

	c.log.Debug("geosearch: response",
		zap.String("endpoint", ep.Path()),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Endpoint: ep.Path(), StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

type resolveRequest struct {
	SearchKey string `json:"search_key"`
	// Sudo false restricts the lookup to actuals, excluding budget and
	// forecast variants.
	Sudo bool `json:"sudo"`
}

func (c *httpClient) ResolveKey(ctx context.Context, searchKey string) ([]tabular.Record, error) {
	ep := SimpleLookup()
	body, err := c.postJSON(ctx, ep, resolveRequest{SearchKey: searchKey, Sudo: false})
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, &DecodeError{Stage: StageResolve, Endpoint: ep.Path(), Body: string(body), Err: errors.New("response is not valid JSON")}
	}
	responses := gjson.GetBytes(body, responsesField)
	if !responses.IsArray() {
		return nil, &DecodeError{Stage: StageResolve, Endpoint: ep.Path(), Body: string(body), Err: errors.New("response has no responses array")}
	}

	out := []tabular.Record{}
	if err := json.Unmarshal([]byte(responses.Raw), &out); err != nil {
		return nil, &DecodeError{Stage: StageResolve, Endpoint: ep.Path(), Body: string(body), Err: err}
	}
	return out, nil
}
