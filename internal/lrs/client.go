package lrs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HASKI-RAK/laac-api/internal/models"
	"github.com/HASKI-RAK/laac-api/pkg/config"
	appErrors "github.com/HASKI-RAK/laac-api/pkg/errors"
	"github.com/HASKI-RAK/laac-api/pkg/middleware/requestid"
)

const (
	defaultMaxStatements = 10000
	defaultMaxRetries    = 3
	backoffBase          = 250 * time.Millisecond
	backoffMax           = 2 * time.Second
)

// Telemetry is the narrow sink the client reports into. The Prometheus
// implementation lives in the service layer.
type Telemetry interface {
	ObserveLRSRequest(instanceID string, duration time.Duration)
	RecordLRSError(category string)
}

// Options tunes a Client beyond the instance connection settings.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	Logger     *zap.Logger
	Telemetry  Telemetry
	// HTTPClient overrides the transport, used by tests.
	HTTPClient *http.Client
}

// Client fetches xAPI statements from one configured LRS instance.
type Client struct {
	instance   config.LRSInstance
	base       *url.URL
	http       *http.Client
	maxRetries int
	logger     *zap.Logger
	telemetry  Telemetry
}

// NewClient builds a client for the given instance.
func NewClient(instance config.LRSInstance, opts Options) (*Client, error) {
	base, err := url.Parse(instance.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse LRS endpoint %q: %w", instance.Endpoint, err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		instance:   instance,
		base:       base,
		http:       httpClient,
		maxRetries: maxRetries,
		logger:     logger,
		telemetry:  opts.Telemetry,
	}, nil
}

// InstanceID returns the configured instance identifier.
func (c *Client) InstanceID() string {
	return c.instance.ID
}

// QueryStatements fetches statements matching the query, following the
// more-link pagination until the result set is exhausted or maxStatements is
// reached. Page fetches are strictly sequential to preserve link ordering.
func (c *Client) QueryStatements(ctx context.Context, query *StatementQuery, maxStatements int) ([]models.Statement, error) {
	if maxStatements <= 0 {
		maxStatements = defaultMaxStatements
	}

	encoded, err := query.Encode()
	if err != nil {
		return nil, err
	}

	pageURL := c.instance.Endpoint + "/statements"
	if encoded != "" {
		pageURL += "?" + encoded
	}

	var statements []models.Statement
	for pageURL != "" && len(statements) < maxStatements {
		page, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		statements = append(statements, page.Statements...)

		if page.More == "" {
			break
		}
		pageURL, err = c.resolveMore(page.More)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrLRSUnknown.Code, appErrors.ErrLRSUnknown.Status, "invalid pagination link from LRS")
		}
	}

	if len(statements) > maxStatements {
		statements = statements[:maxStatements]
	}

	for i := range statements {
		statements[i].InstanceID = c.instance.ID
	}

	return statements, nil
}

// Aggregate runs the query with limit=0 and returns only the statement
// count.
func (c *Client) Aggregate(ctx context.Context, query *StatementQuery) (int, error) {
	statements, err := c.QueryStatements(ctx, query.WithLimit(0), 0)
	if err != nil {
		return 0, err
	}
	return len(statements), nil
}

// InstanceHealth probes the LRS about endpoint. An auth rejection still
// counts as healthy: it proves the store is reachable.
func (c *Client) InstanceHealth(ctx context.Context) models.InstanceHealth {
	health := models.InstanceHealth{InstanceID: c.instance.ID, CheckedAt: time.Now().UTC()}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.instance.Endpoint+"/about", nil)
	if err != nil {
		health.Error = err.Error()
		return health
	}
	c.setHeaders(ctx, req)

	start := time.Now()
	resp, err := c.http.Do(req)
	health.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		health.Error = classify(err, "about").Error()
		return health
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		health.Healthy = true
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		health.Healthy = true
	default:
		health.Error = fmt.Sprintf("about endpoint returned status %d", resp.StatusCode)
	}

	return health
}

// fetchPage retrieves a single statements page with bounded retries.
// Network errors, 5xx and 429 responses are retried with exponential
// backoff; other 4xx responses fail immediately.
func (c *Client) fetchPage(ctx context.Context, pageURL string) (*models.StatementResult, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		result, retryable, err := c.doFetch(ctx, pageURL)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable || attempt == c.maxRetries {
			break
		}

		delay := backoffBase << (attempt - 1)
		if delay > backoffMax {
			delay = backoffMax
		}
		c.logger.Warn("LRS page fetch failed, retrying",
			zap.String("instance", c.instance.ID),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, classify(ctx.Err(), "statements")
		case <-time.After(delay):
		}
	}

	if c.telemetry != nil {
		c.telemetry.RecordLRSError(appErrors.LRSCategory(lastErr))
	}
	return nil, lastErr
}

func (c *Client) doFetch(ctx context.Context, pageURL string) (*models.StatementResult, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrLRSUnknown.Code, appErrors.ErrLRSUnknown.Status, "build statements request")
	}
	c.setHeaders(ctx, req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.telemetry != nil {
		c.telemetry.ObserveLRSRequest(c.instance.ID, time.Since(start))
	}
	if err != nil {
		return nil, true, classify(err, "statements")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var result models.StatementResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrLRSUnknown.Code, appErrors.ErrLRSUnknown.Status, "decode statements response")
		}
		return &result, false, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, appErrors.Clone(appErrors.ErrLRSRateLimit, fmt.Sprintf("statements request rate limited (status %d)", resp.StatusCode))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, appErrors.Clone(appErrors.ErrLRSAuth, fmt.Sprintf("statements request rejected (status %d)", resp.StatusCode))
	case resp.StatusCode >= 500:
		return nil, true, appErrors.Clone(appErrors.ErrLRSServer, fmt.Sprintf("statements request failed (status %d)", resp.StatusCode))
	default:
		return nil, false, appErrors.Clone(appErrors.ErrLRSUnknown, fmt.Sprintf("statements request failed (status %d)", resp.StatusCode))
	}
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request) {
	version := c.instance.Version
	if version == "" {
		version = "1.0.3"
	}
	req.Header.Set("X-Experience-API-Version", version)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	corrID := requestid.FromContext(ctx)
	if corrID == "" {
		corrID = uuid.NewString()
	}
	req.Header.Set("X-Correlation-ID", corrID)

	switch {
	case c.instance.Token != "":
		req.Header.Set("Authorization", "Bearer "+c.instance.Token)
	case c.instance.Username != "":
		req.SetBasicAuth(c.instance.Username, c.instance.Password)
	}
	for key, value := range c.instance.Headers {
		req.Header.Set(key, value)
	}
}

// resolveMore turns a more link, usually a server-relative path, into an
// absolute URL against the configured endpoint.
func (c *Client) resolveMore(more string) (string, error) {
	ref, err := url.Parse(more)
	if err != nil {
		return "", err
	}
	return c.base.ResolveReference(ref).String(), nil
}

// classify maps transport failures onto the LRS error taxonomy.
func classify(err error, operation string) *appErrors.Error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.ErrLRSTimeout.Code, appErrors.ErrLRSTimeout.Status, fmt.Sprintf("LRS %s request timed out", operation))
	case errors.As(err, &netErr) && netErr.Timeout():
		return appErrors.Wrap(err, appErrors.ErrLRSTimeout.Code, appErrors.ErrLRSTimeout.Status, fmt.Sprintf("LRS %s request timed out", operation))
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return appErrors.Wrap(err, appErrors.ErrLRSConnection.Code, appErrors.ErrLRSConnection.Status, fmt.Sprintf("could not connect to LRS for %s request", operation))
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return appErrors.Wrap(err, appErrors.ErrLRSConnection.Code, appErrors.ErrLRSConnection.Status, fmt.Sprintf("LRS %s request failed in transport", operation))
	}

	return appErrors.Wrap(err, appErrors.ErrLRSUnknown.Code, appErrors.ErrLRSUnknown.Status, fmt.Sprintf("LRS %s request failed", operation))
}
