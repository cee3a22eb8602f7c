package aigateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 4 << 20

	AuthSchemeBearer = "bearer"
	AuthSchemeAPIKey = "api_key"
)

// Config holds gateway connection settings.
type Config struct {
	BaseURL       string
	APIKey        string
	AuthScheme    string
	Model         string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
}

// Client talks to the external AI gateway. It is safe for concurrent use by
// all workers of a pool.
type Client struct {
	baseURL    string
	apiKey     string
	authScheme string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a gateway client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	scheme := strings.ToLower(cfg.AuthScheme)
	if scheme == "" {
		scheme = AuthSchemeBearer
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		authScheme: scheme,
		model:      cfg.Model,
		timeout:    timeout,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger.With(zap.String("component", "ai_gateway")),
	}
}

// Model returns the model identifier recorded with predictions.
func (c *Client) Model() string {
	return c.model
}

// Classify suggests a category for the ticket text.
func (c *Client) Classify(ctx context.Context, text, title string) (*ClassifyResult, error) {
	var out ClassifyResult
	raw, err := c.post(ctx, EndpointClassify, textRequest{Text: text, Title: title}, &out)
	if err != nil {
		return nil, err
	}
	if out.Category == "" {
		return nil, &Error{Endpoint: EndpointClassify, Err: ErrMalformedResponse, Message: "missing category"}
	}
	out.Raw = raw
	return &out, nil
}

// PredictPriority suggests a priority for the ticket text.
func (c *Client) PredictPriority(ctx context.Context, text, title string) (*PriorityResult, error) {
	var out PriorityResult
	raw, err := c.post(ctx, EndpointPriority, textRequest{Text: text, Title: title}, &out)
	if err != nil {
		return nil, err
	}
	if out.Priority == "" {
		return nil, &Error{Endpoint: EndpointPriority, Err: ErrMalformedResponse, Message: "missing priority"}
	}
	out.Raw = raw
	return &out, nil
}

// Moderate checks text for toxic content.
func (c *Client) Moderate(ctx context.Context, text string) (*ModerationResult, error) {
	var out ModerationResult
	raw, err := c.post(ctx, EndpointModerate, textRequest{Text: text}, &out)
	if err != nil {
		return nil, err
	}
	out.Raw = raw
	return &out, nil
}

// Summarize produces a short summary of a ticket.
func (c *Client) Summarize(ctx context.Context, title, description string) (*SummaryResult, error) {
	var out SummaryResult
	raw, err := c.post(ctx, EndpointSummarize, summarizeRequest{Title: title, Description: description}, &out)
	if err != nil {
		return nil, err
	}
	out.Raw = raw
	return &out, nil
}

// Embed returns the embedding vector of text.
func (c *Client) Embed(ctx context.Context, text string) (*EmbeddingResult, error) {
	var out EmbeddingResult
	if _, err := c.post(ctx, EndpointEmbeddings, textRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, &Error{Endpoint: EndpointEmbeddings, Err: ErrMalformedResponse, Message: "empty embedding"}
	}
	if out.Model == "" {
		out.Model = c.model
	}
	return &out, nil
}

// OCR extracts text from the file at fileURL.
func (c *Client) OCR(ctx context.Context, fileURL, mimeType string) (*OCRResult, error) {
	var out OCRResult
	if _, err := c.post(ctx, EndpointOCR, ocrRequest{FileURL: fileURL, MimeType: mimeType}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// post sends body to endpoint, unwraps the {success, data} envelope into out
// and returns data as a generic map for prediction history.
func (c *Client) post(ctx context.Context, endpoint string, body, out any) (map[string]any, error) {
	if c.baseURL == "" {
		return nil, &Error{Endpoint: endpoint, Err: ErrNotConfigured}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Endpoint: endpoint, Err: ErrTimeout, Message: err.Error()}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Err: classifyTransportError(ctx, err), Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &Error{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: classifyTransportError(ctx, err), Message: err.Error()}
	}

	c.logger.Debug("ai gateway call",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		cause := ErrRejected
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			cause = ErrUnavailable
		}
		return nil, &Error{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: cause, Message: errorMessage(respBody)}
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, &Error{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: ErrMalformedResponse, Message: err.Error()}
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return nil, &Error{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: ErrUnsuccessful, Message: msg}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, &Error{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: ErrMalformedResponse, Message: "missing data"}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return nil, &Error{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: ErrMalformedResponse, Message: err.Error()}
	}

	var raw map[string]any
	if err := json.Unmarshal(env.Data, &raw); err != nil {
		return nil, &Error{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: ErrMalformedResponse, Message: err.Error()}
	}
	return raw, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey == "" {
		return
	}
	if c.authScheme == AuthSchemeAPIKey {
		req.Header.Set("X-API-Key", c.apiKey)
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrUnavailable
}

func errorMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Error != "" {
			return env.Error
		}
		if env.Message != "" {
			return env.Message
		}
	}
	const limit = 256
	if len(body) > limit {
		body = body[:limit]
	}
	return strings.TrimSpace(string(body))
}
