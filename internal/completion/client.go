package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-3.5-turbo"
	DefaultTimeout = 60 * time.Second

	imageSize      = "256x256"
	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
	maxErrorBody   = 64 << 10
)

// KeySource resolves the API key at call time, so a key stored after
// startup takes effect without a restart.
type KeySource interface {
	Get(ctx context.Context) (string, error)
}

// Config selects the provider endpoint and model.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client sends single request/response completions to an OpenAI-compatible API.
type Client struct {
	keys       KeySource
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	backoff    time.Duration
}

// New creates a Client. Zero fields in cfg fall back to the defaults.
func New(keys KeySource, cfg Config) *Client {
	c := &Client{
		keys:       keys,
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
		backoff:    initialBackoff,
	}
	if cfg.BaseURL != "" {
		c.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Model != "" {
		c.model = cfg.Model
	}
	if cfg.Timeout > 0 {
		c.timeout = cfg.Timeout
	}
	return c
}

// Complete sends prompt and returns the assistant text (KindText) or the
// generated image URL (KindImage).
func (c *Client) Complete(ctx context.Context, prompt string, kind Kind) (string, error) {
	key, err := c.keys.Get(ctx)
	if err != nil && !errors.Is(err, ErrMissingCredential) {
		return "", fmt.Errorf("reading credential: %w", err)
	}
	if strings.TrimSpace(key) == "" {
		return "", ErrMissingCredential
	}

	switch kind {
	case KindImage:
		return c.image(ctx, key, prompt)
	case KindText, "":
		return c.text(ctx, key, prompt)
	default:
		return "", fmt.Errorf("unsupported completion kind %q", kind)
	}
}

func (c *Client) text(ctx context.Context, key, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	raw, err := c.post(ctx, key, "/chat/completions", body)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &UpstreamError{Message: "decoding chat response", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &UpstreamError{Message: "response contained no choices"}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) image(ctx context.Context, key, prompt string) (string, error) {
	body, err := json.Marshal(imageRequest{Prompt: prompt, N: 1, Size: imageSize})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	raw, err := c.post(ctx, key, "/images/generations", body)
	if err != nil {
		return "", err
	}

	var resp imageResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &UpstreamError{Message: "decoding image response", Err: err}
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", &UpstreamError{Message: "response contained no image"}
	}
	return resp.Data[0].URL, nil
}

// post retries on HTTP 429 with exponential backoff.
func (c *Client) post(ctx context.Context, key, path string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := range maxRetries {
		raw, err := c.doPost(ctx, key, path, body)
		if err == nil {
			return raw, nil
		}

		var ue *UpstreamError
		if !errors.As(err, &ue) || ue.Status != http.StatusTooManyRequests {
			return nil, err
		}

		lastErr = err
		if attempt < maxRetries-1 {
			backoff := time.Duration(float64(c.backoff) * math.Pow(2, float64(attempt)))
			select {
			case <-ctx.Done():
				return nil, &UpstreamError{Message: "waiting to retry", Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}
	}
	return nil, lastErr
}

func (c *Client) doPost(ctx context.Context, key, path string, body []byte) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Message: "executing request", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: "reading response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: providerMessage(raw)}
	}
	return raw, nil
}

// providerMessage extracts the provider's error message, falling back to
// the raw body.
func providerMessage(raw []byte) string {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	if len(raw) > maxErrorBody {
		raw = raw[:maxErrorBody]
	}
	return strings.TrimSpace(string(raw))
}
