package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	analyzePath    = "/vision/v3.2/analyze"
	maxRetries     = 3
	initialDelay   = 1 * time.Second
	maxRetryAfter  = 10 * time.Second
	requestTimeout = 45 * time.Second
)

var DefaultFeatures = []string{"Categories", "Description", "Objects", "Tags"}

type AzureConfig struct {
	Endpoint   string
	APIKey     string
	Language   string
	Features   []string
	HTTPClient *http.Client
}

// AzureClient calls the Azure Computer Vision analyze endpoint.
type AzureClient struct {
	endpoint   string
	apiKey     string
	language   string
	features   []string
	httpClient *http.Client
	retryDelay time.Duration
}

func NewAzureClient(cfg AzureConfig) (*AzureClient, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint is required", ErrNotConfigured)
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrNotConfigured)
	}

	features := cfg.Features
	if len(features) == 0 {
		features = DefaultFeatures
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}

	return &AzureClient{
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		language:   cfg.Language,
		features:   features,
		httpClient: httpClient,
		retryDelay: initialDelay,
	}, nil
}

func (c *AzureClient) Name() string { return "Azure Vision AI" }

// AnalyzeURL is the request URL including the query parameters.
func (c *AzureClient) AnalyzeURL() string {
	q := url.Values{}
	q.Set("visualFeatures", strings.Join(c.features, ","))
	if c.language != "" {
		q.Set("language", c.language)
	}
	return c.endpoint + analyzePath + "?" + q.Encode()
}

// Analyze uploads the image and retries transient failures.
func (c *AzureClient) Analyze(ctx context.Context, image []byte) (*Analysis, error) {
	if len(image) == 0 {
		return nil, errors.New("image is empty")
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(c.retryDelay) * (1.5 * float64(attempt)))
			if ra := retryAfter(lastErr); ra > 0 {
				delay = ra
			}
			log.Printf("vision: retrying in %v after: %v", delay, lastErr)
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
		}

		analysis, err := c.analyzeOnce(ctx, image)
		if err == nil {
			return analysis, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

type retryAfterError struct {
	*APIError
	after time.Duration
}

func (e *retryAfterError) Unwrap() error { return e.APIError }

func (c *AzureClient) analyzeOnce(ctx context.Context, image []byte) (*Analysis, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.AnalyzeURL(), bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp.StatusCode, body)
		if d := parseRetryAfter(resp.Header.Get("Retry-After")); d > 0 {
			return nil, &retryAfterError{APIError: apiErr, after: d}
		}
		return nil, apiErr
	}

	var analysis Analysis
	if err := json.Unmarshal(body, &analysis); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &analysis, nil
}

func decodeAPIError(status int, body []byte) *APIError {
	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != nil {
			apiErr.Code, apiErr.Message = envelope.Error.Code, envelope.Error.Message
		} else {
			apiErr.Code, apiErr.Message = envelope.Code, envelope.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
	}
	return apiErr
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	// Transport failures only; a 2xx body that does not decode is final.
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

func retryAfter(err error) time.Duration {
	var ra *retryAfterError
	if errors.As(err, &ra) {
		return ra.after
	}
	return 0
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
