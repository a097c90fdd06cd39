// Package huggingface provides a client for the HuggingFace Inference API
// text-generation endpoint.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/resilience"
)

const defaultBaseURL = "https://api-inference.huggingface.co"

// Client generates text with a hosted model.
type Client interface {
	Generate(ctx context.Context, model string, req GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest is the body for POST /models/{model}.
type GenerateRequest struct {
	Inputs     string     `json:"inputs"`
	Parameters Parameters `json:"parameters"`
}

// Parameters are generation parameters.
type Parameters struct {
	MaxNewTokens   int      `json:"max_new_tokens,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	DoSample       bool     `json:"do_sample"`
	ReturnFullText bool     `json:"return_full_text"`
}

// GenerateResponse is the generated text.
type GenerateResponse struct {
	Model         string
	GeneratedText string
}

type generation struct {
	GeneratedText string `json:"generated_text"`
}

type apiError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a HuggingFace Inference API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Generate(ctx context.Context, model string, req GenerateRequest) (*GenerateResponse, error) {
	if model == "" {
		return nil, eris.New("huggingface: model is required")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "huggingface: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/models/"+model, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "huggingface: create request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "huggingface: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "huggingface: read response")
	}

	if resp.StatusCode != http.StatusOK {
		var ae apiError
		if json.Unmarshal(respBody, &ae) == nil && ae.Error != "" && resp.StatusCode == http.StatusServiceUnavailable {
			// Model is still loading.
			return nil, resilience.NewTransientError(
				eris.Errorf("huggingface: model loading (estimated %.0fs): %s", ae.EstimatedTime, ae.Error),
				resp.StatusCode)
		}
		return nil, resilience.StatusError("huggingface", resp.StatusCode, respBody)
	}

	text, err := parseGeneration(respBody)
	if err != nil {
		return nil, err
	}
	return &GenerateResponse{Model: model, GeneratedText: text}, nil
}

// parseGeneration accepts both the list form and the single-object form the
// API returns depending on the model.
func parseGeneration(body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", eris.New("huggingface: empty response")
	}

	if trimmed[0] == '[' {
		var list []generation
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return "", eris.Wrap(err, "huggingface: decode response")
		}
		if len(list) == 0 {
			return "", eris.New("huggingface: no generations returned")
		}
		return list[0].GeneratedText, nil
	}

	var single generation
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return "", eris.Wrap(err, "huggingface: decode response")
	}
	if single.GeneratedText == "" {
		return string(trimmed), nil
	}
	return single.GeneratedText, nil
}
