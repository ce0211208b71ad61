// Package convex is a client for the Convex HTTP function API.
package convex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Ironclad/ironclad/pkg/apperror"
	"github.com/Ironclad/ironclad/pkg/httpclient"
	"github.com/Ironclad/ironclad/pkg/logger"
	"github.com/Ironclad/ironclad/pkg/tracing"
)

const ServiceName = "convex"

// FunctionKind selects the endpoint a function is called through.
type FunctionKind string

const (
	KindQuery    FunctionKind = "query"
	KindMutation FunctionKind = "mutation"
	KindAction   FunctionKind = "action"
)

type Config struct {
	URL       string
	DeployKey string
	Timeout   time.Duration
	Retry     httpclient.Policy
	// RequestsPerSecond <= 0 disables outbound throttling.
	RequestsPerSecond float64
	Burst             int
	Transport         http.RoundTripper
}

// Client calls Convex queries, mutations and actions over HTTP.
type Client struct {
	baseURL   string
	deployKey string
	http      *httpclient.Client
	logger    logger.Logger
}

func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid convex url %q", cfg.URL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	hc := &http.Client{Timeout: timeout, Transport: cfg.Transport}
	return &Client{
		baseURL:   u.String(),
		deployKey: cfg.DeployKey,
		http: httpclient.New(ServiceName, cfg.Retry, log,
			httpclient.WithHTTPClient(hc),
			httpclient.WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
		),
		logger: log,
	}, nil
}

// Value is the "value" member of a successful function call.
type Value struct {
	raw gjson.Result
}

func (v Value) IsNull() bool {
	return !v.raw.Exists() || v.raw.Type == gjson.Null
}

// Decode unmarshals the value into out. A decode failure is reported as
// data corruption.
func (v Value) Decode(out interface{}) error {
	if v.IsNull() {
		return nil
	}
	if err := json.Unmarshal([]byte(v.raw.Raw), out); err != nil {
		return apperror.Decode(ServiceName, err)
	}
	return nil
}

func (v Value) Raw() string {
	return v.raw.Raw
}

func (c *Client) Query(ctx context.Context, path string, args interface{}) (Value, error) {
	return c.call(ctx, KindQuery, path, args)
}

func (c *Client) Mutation(ctx context.Context, path string, args interface{}) (Value, error) {
	return c.call(ctx, KindMutation, path, args)
}

func (c *Client) Action(ctx context.Context, path string, args interface{}) (Value, error) {
	return c.call(ctx, KindAction, path, args)
}

type request struct {
	Path   string      `json:"path"`
	Args   interface{} `json:"args"`
	Format string      `json:"format"`
}

func (c *Client) call(ctx context.Context, kind FunctionKind, path string, args interface{}) (Value, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "ConvexClient", string(kind))
	defer span.End()
	tracing.AddAttribute(ctx, "convex.path", path)

	if err := validatePath(path); err != nil {
		tracing.MarkSpanError(ctx, err)
		return Value{}, err
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	payload, err := json.Marshal(request{Path: path, Args: args, Format: "json"})
	if err != nil {
		appErr := apperror.InvalidInput(ServiceName, fmt.Sprintf("failed to encode args: %v", err))
		tracing.MarkSpanError(ctx, appErr)
		return Value{}, appErr
	}

	endpoint := fmt.Sprintf("%s/api/%s", c.baseURL, kind)
	resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.deployKey != "" {
			req.Header.Set("Authorization", "Convex "+c.deployKey)
		}
		return req, nil
	})
	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"path":  path,
			"kind":  string(kind),
			"error": err.Error(),
		}).Error("Convex call failed")
		tracing.MarkSpanError(ctx, err)
		return Value{}, err
	}

	if !gjson.ValidBytes(resp.Body) {
		err := apperror.New(apperror.KindDataCorrupted, ServiceName, fmt.Errorf("response is not valid JSON"))
		tracing.MarkSpanError(ctx, err)
		return Value{}, err
	}

	envelope := gjson.ParseBytes(resp.Body)
	switch status := envelope.Get("status").String(); status {
	case "success":
		return Value{raw: envelope.Get("value")}, nil
	case "error":
		msg := envelope.Get("errorMessage").String()
		appErr := functionError(path, msg)
		c.logger.WithFields(map[string]interface{}{
			"path":  path,
			"kind":  string(kind),
			"error": msg,
		}).Warn("Convex function returned an error")
		tracing.MarkSpanError(ctx, appErr)
		return Value{}, appErr
	default:
		err := apperror.InvalidResponse(ServiceName, fmt.Sprintf("unexpected status %q", status))
		tracing.MarkSpanError(ctx, err)
		return Value{}, err
	}
}

// functionError classifies an application error thrown inside a function.
// These are deterministic, so none of them is retried.
func functionError(path, msg string) *apperror.Error {
	lower := strings.ToLower(msg)
	var e *apperror.Error
	switch {
	case strings.Contains(lower, "not found"):
		e = apperror.New(apperror.KindNotFound, ServiceName, fmt.Errorf("%s: %s", path, msg))
	case strings.Contains(lower, "unauthenticated") || strings.Contains(lower, "not authenticated"):
		e = apperror.New(apperror.KindNotAuthenticated, ServiceName, fmt.Errorf("%s: %s", path, msg))
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "forbidden"):
		e = apperror.New(apperror.KindNotAuthorized, ServiceName, fmt.Errorf("%s: %s", path, msg))
	default:
		e = apperror.New(apperror.KindServerError, ServiceName, fmt.Errorf("%s: %s", path, msg))
	}
	e.Retryable = false
	return e
}

// validatePath requires the "module:function" form, e.g. "orders:list".
func validatePath(path string) error {
	module, fn, ok := strings.Cut(path, ":")
	if !ok || module == "" || fn == "" || strings.ContainsAny(path, " \t\n") {
		return apperror.InvalidInput(ServiceName, fmt.Sprintf("invalid function path %q", path))
	}
	return nil
}
