package annotations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 512

// StatusError is returned by Client when the service answers with a non-2xx
// status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("annotations: service returned %d: %s", e.Code, e.Body)
}

// Client is the HTTP Lister for the annotation service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client rooted at baseURL. A zero timeout means none.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// List posts one list request.
func (c *Client) List(ctx context.Context, req ListRequest) (ListResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return ListResponse{}, fmt.Errorf("encoding list request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/annotations/list", bytes.NewReader(body))
	if err != nil {
		return ListResponse{}, fmt.Errorf("building list request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ListResponse{}, fmt.Errorf("posting list request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return ListResponse{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var out ListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ListResponse{}, fmt.Errorf("decoding list response: %w", err)
	}
	return out, nil
}
