// Package apiclient wraps the school backend's REST surface: it authorises
// requests, unwraps the {success, data, message} envelope and turns every
// failure into a single *Error with a display-ready message.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-admin/internal/observability"
)

// TokenSource yields the bearer token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:5000/api".
	BaseURL string
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
	// StrictEnvelope validates every 2xx body against the envelope schema.
	StrictEnvelope bool
	// Tokens supplies the bearer token. Nil sends anonymous requests.
	Tokens TokenSource
	// HTTPClient is an optional custom client; its Transport is reused.
	HTTPClient *http.Client
	UserAgent  string
}

// Client issues envelope-aware requests against the backend.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenSource
	strict    bool
	userAgent string
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// Request describes one backend call. Body is sent as JSON; Form, when set,
// is sent as multipart and takes precedence.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	Form   *Multipart
}

// New creates a client from cfg.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("base URL is required")
	}
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", cfg.BaseURL)
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.HTTPClient != nil {
		httpClient = &http.Client{
			Transport:     cfg.HTTPClient.Transport,
			CheckRedirect: cfg.HTTPClient.CheckRedirect,
			Jar:           cfg.HTTPClient.Jar,
			Timeout:       cfg.Timeout,
		}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "gema-admin"
	}

	return &Client{
		baseURL:   base,
		http:      httpClient,
		tokens:    cfg.Tokens,
		strict:    cfg.StrictEnvelope,
		userAgent: userAgent,
		logger:    logger.With().Str("component", "api_client").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-admin/internal/apiclient"),
	}, nil
}

// Get issues a GET with query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) (Meta, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) (Meta, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) (Meta, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) (Meta, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out interface{}) (Meta, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, out)
}

// Upload issues a multipart POST.
func (c *Client) Upload(ctx context.Context, path string, form Multipart, out interface{}) (Meta, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Form: &form}, out)
}

// Do performs req and decodes the envelope data into out.
func (c *Client) Do(ctx context.Context, req Request, out interface{}) (Meta, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	resource := resourceLabel(req.Path)
	if CorrelationIDFromContext(ctx) == "" {
		ctx = ContextWithCorrelation(ctx, correlationID(ctx))
	}

	ctx, span := c.tracer.Start(ctx, "apiclient.request", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("api.path", req.Path),
		attribute.String("api.resource", resource),
	))
	defer span.End()

	start := time.Now()
	meta, status, err := c.do(ctx, method, req)

	observability.ClientLatency().WithLabelValues(method, resource).Observe(time.Since(start).Seconds())
	observability.ClientRequests().WithLabelValues(method, resource, statusLabel(status)).Inc()
	span.SetAttributes(attribute.Int("http.status_code", status))

	logEvent := c.logger.Debug()
	if err != nil {
		kind := "unknown"
		if apiErr, ok := AsError(err); ok {
			kind = string(apiErr.Kind)
		}
		observability.ClientErrors().WithLabelValues(kind).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		logEvent = c.logger.Warn().Err(err).Str("kind", kind)
	} else {
		span.SetStatus(codes.Ok, "ok")
	}
	logEvent.
		Str("method", method).
		Str("path", req.Path).
		Int("status", status).
		Dur("duration", time.Since(start)).
		Str("correlation_id", CorrelationIDFromContext(ctx)).
		Msg("backend request")

	if err != nil {
		return Meta{}, err
	}
	if out != nil {
		if decodeErr := meta.envelope.decodeData(out); decodeErr != nil {
			return Meta{}, &Error{Kind: KindApplication, Status: status, Message: "Invalid response from server", cause: decodeErr}
		}
	}
	return meta.Meta, nil
}

type decodedMeta struct {
	Meta
	envelope Envelope
}

func (c *Client) do(ctx context.Context, method string, req Request) (decodedMeta, int, error) {
	bodyReader, contentType, err := encodeBody(req)
	if err != nil {
		return decodedMeta{}, 0, &Error{Kind: KindValidation, Message: "Could not encode request", cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, joinPath(c.baseURL, req.Path, req.Query), bodyReader)
	if err != nil {
		return decodedMeta{}, 0, &Error{Kind: KindHTTP, Message: "Could not build request", cause: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	httpReq.Header.Set(CorrelationHeader, CorrelationIDFromContext(ctx))

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return decodedMeta{}, 0, &Error{Kind: KindSession, Message: err.Error(), cause: err}
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return decodedMeta{}, 0, classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decodedMeta{}, resp.StatusCode, classifyTransport(ctx, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodedMeta{}, resp.StatusCode, httpError(resp.StatusCode, body)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return decodedMeta{}, resp.StatusCode, nil
	}

	if c.strict {
		if err := validateEnvelope(body); err != nil {
			return decodedMeta{}, resp.StatusCode, &Error{Kind: KindApplication, Status: resp.StatusCode, Message: "Invalid response from server", cause: err}
		}
	}

	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return decodedMeta{}, resp.StatusCode, &Error{Kind: KindApplication, Status: resp.StatusCode, Message: "Invalid response from server", cause: err}
	}

	if !envelope.Success {
		message := strings.TrimSpace(envelope.Message)
		if message == "" {
			message = MessageRequestFailed
		}
		kind := KindApplication
		if looksLikeConflict(message) {
			kind = KindConflict
		}
		return decodedMeta{}, resp.StatusCode, &Error{Kind: kind, Status: resp.StatusCode, Message: message, Fields: envelope.fieldErrors()}
	}

	return decodedMeta{Meta: envelope.meta(), envelope: envelope}, resp.StatusCode, nil
}

func encodeBody(req Request) (io.Reader, string, error) {
	if req.Form != nil {
		body, contentType, err := req.Form.encode()
		if err != nil {
			return nil, "", err
		}
		return body, contentType, nil
	}
	if req.Body == nil {
		return nil, "", nil
	}
	payload, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(payload), "application/json", nil
}

// httpError builds the error of a non-2xx response, preferring the JSON
// message over the status text.
func httpError(status int, body []byte) *Error {
	apiErr := &Error{Kind: KindHTTP, Status: status}

	var envelope Envelope
	if len(body) > 0 && json.Unmarshal(body, &envelope) == nil {
		apiErr.Message = strings.TrimSpace(envelope.Message)
		apiErr.Fields = envelope.fieldErrors()
		if apiErr.Message == "" {
			var alt struct {
				Error string `json:"error"`
			}
			if json.Unmarshal(body, &alt) == nil {
				apiErr.Message = strings.TrimSpace(alt.Error)
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	if apiErr.Message == "" {
		apiErr.Message = MessageRequestFailed
	}

	switch {
	case status == http.StatusConflict || looksLikeConflict(apiErr.Message):
		apiErr.Kind = KindConflict
	case status == http.StatusUnprocessableEntity || (status == http.StatusBadRequest && len(apiErr.Fields) > 0):
		apiErr.Kind = KindValidation
	}
	return apiErr
}

func resourceLabel(path string) string {
	trimmed := strings.Trim(path, "/")
	if idx := strings.Index(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}

func statusLabel(status int) string {
	if status == 0 {
		return "none"
	}
	return strconv.Itoa(status)
}
