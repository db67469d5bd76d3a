// Package renderer talks to the long-running video render service. A render
// submission returns an opaque operation name immediately; the finished media
// is observed by polling the operation until it reports done.
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for render-service failures.
var (
	ErrRendererUnreachable = errors.New("renderer unreachable")
	ErrRendererError       = errors.New("renderer request error")
	ErrRendererTimeout     = errors.New("renderer timeout")
)

// Client is the interface for the render service.
type Client interface {
	// Submit starts a render operation for the given script and returns its
	// operation name. Rendering itself continues long after this call returns.
	Submit(ctx context.Context, script string, videoID uuid.UUID) (string, error)
	// Poll fetches the current state of an operation.
	Poll(ctx context.Context, operationName string) (PollResult, error)
	// Download fetches rendered media bytes from the URL an operation reported.
	Download(ctx context.Context, mediaURL string) ([]byte, error)
	Ready(ctx context.Context) error
}

// PollResult is the remote state of a render operation.
type PollResult struct {
	Done     bool
	Error    string
	MediaURL string
}

// HTTPClient implements Client over the render service's HTTP API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient creates a new render-service HTTP client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type submitRequest struct {
	Script  string `json:"script"`
	VideoID string `json:"video_id"`
}

type submitResponse struct {
	Name string `json:"name"`
}

type operationResponse struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
	MediaURL string `json:"media_url,omitempty"`
}

func (c *HTTPClient) Submit(ctx context.Context, script string, videoID uuid.UUID) (string, error) {
	body, err := json.Marshal(submitRequest{Script: script, VideoID: videoID.String()})
	if err != nil {
		return "", fmt.Errorf("encoding submit request: %w", err)
	}

	u := fmt.Sprintf("%s/v1/render", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("%w: status %d", ErrRendererError, resp.StatusCode)
	}

	var submitResp submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", fmt.Errorf("decoding submit response: %w", err)
	}
	if submitResp.Name == "" {
		return "", fmt.Errorf("%w: empty operation name", ErrRendererError)
	}

	return submitResp.Name, nil
}

func (c *HTTPClient) Poll(ctx context.Context, operationName string) (PollResult, error) {
	// Operation names are path-shaped tokens ("operations/<id>") issued by the
	// render service and used verbatim in the poll URL.
	u := fmt.Sprintf("%s/v1/%s", c.baseURL, operationName)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return PollResult{}, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return PollResult{}, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return PollResult{}, fmt.Errorf("%w: status %d", ErrRendererError, resp.StatusCode)
	}

	var opResp operationResponse
	if err := json.NewDecoder(resp.Body).Decode(&opResp); err != nil {
		return PollResult{}, fmt.Errorf("decoding operation response: %w", err)
	}

	return PollResult{Done: opResp.Done, Error: opResp.Error, MediaURL: opResp.MediaURL}, nil
}

func (c *HTTPClient) Download(ctx context.Context, mediaURL string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRendererError, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading media body: %w", err)
	}
	return data, nil
}

func (c *HTTPClient) Ready(ctx context.Context) error {
	u := fmt.Sprintf("%s/healthz", c.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRendererUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: renderer not ready (status %d)", ErrRendererUnreachable, resp.StatusCode)
	}

	return nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrRendererTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrRendererTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrRendererUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrRendererUnreachable, err)
}

var _ Client = (*HTTPClient)(nil)
