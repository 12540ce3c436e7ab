package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/metrics"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/platform/config"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 32 << 20
)

var tracer = otel.Tracer("github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/gateway")

// Endpoint names an upstream source and where to reach it.
type Endpoint struct {
	Name string
	URL  string
}

// Client fetches both upstream datasets.
type Client struct {
	httpClient *http.Client
	countries  Endpoint
	rates      Endpoint
	timeout    time.Duration
	metrics    *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMetrics records fetch latencies.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New builds a Client for the configured sources.
func New(cfg config.Sources, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		countries:  Endpoint{Name: cfg.CountriesName, URL: cfg.CountriesURL},
		rates:      Endpoint{Name: cfg.RatesName, URL: cfg.RatesURL},
		timeout:    defaultTimeout,
	}
	if cfg.Timeout > 0 {
		c.timeout = cfg.Timeout
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves both datasets concurrently. The first failure cancels the
// other call and is returned as is.
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	g, ctx := errgroup.WithContext(ctx)
	snapshot := &Snapshot{}

	g.Go(func() error {
		countries, err := c.FetchCountries(ctx)
		if err != nil {
			return err
		}
		snapshot.Countries = countries
		return nil
	})
	g.Go(func() error {
		rates, err := c.FetchExchangeRates(ctx)
		if err != nil {
			return err
		}
		snapshot.Rates = rates
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// FetchCountries retrieves the full country list.
func (c *Client) FetchCountries(ctx context.Context) ([]RawCountry, error) {
	var countries []RawCountry
	if err := c.getJSON(ctx, c.countries, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}

// FetchExchangeRates retrieves the rate table from the response envelope.
func (c *Client) FetchExchangeRates(ctx context.Context) (RateTable, error) {
	var envelope ratesEnvelope
	if err := c.getJSON(ctx, c.rates, &envelope); err != nil {
		return nil, err
	}
	if envelope.Result == "error" {
		return nil, newSourceError(ErrorBadData, c.rates.Name, http.StatusOK, errors.New("source reported an error result"))
	}
	if envelope.Rates == nil {
		return nil, newSourceError(ErrorBadData, c.rates.Name, http.StatusOK, errors.New("response has no rates object"))
	}
	return envelope.Rates, nil
}

func (c *Client) getJSON(ctx context.Context, ep Endpoint, dst any) (err error) {
	ctx, span := tracer.Start(ctx, "gateway.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("source", ep.Name)),
	)
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.ObserveFetch(ep.Name, err, start)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(GetCategory(err)))
		}
		span.End()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.URL, nil)
	if err != nil {
		return newSourceError(ErrorInternal, ep.Name, 0, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newSourceError(classifyTransportError(err), ep.Name, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return newSourceError(ErrorBadStatus, ep.Name, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return newSourceError(classifyTransportError(err), ep.Name, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return newSourceError(ErrorBadData, ep.Name, resp.StatusCode, fmt.Errorf("decode body: %w", err))
	}
	return nil
}

func classifyTransportError(err error) ErrorCategory {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTimeout
	}
	return ErrorTransport
}
