// Package rcsbiz provides a client for the RCS aggregator, the external
// sender behind the RCS channel.
package rcsbiz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kimsangwoo/bizmsg/internal/channel"
)

// Client represents an RCS aggregator client.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a new RCS Client instance.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

type sendResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Send delivers one built RCS request, one recipient per call.
func (c *Client) Send(ctx context.Context, req channel.Request) ([]channel.SendStatus, error) {
	payload, ok := req.Body.(channel.RCSPayload)
	if !ok {
		return nil, fmt.Errorf("unexpected payload type %T", req.Body)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/rcs/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rcs API error: %s", resp.Status)
	}

	var res sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return []channel.SendStatus{{
		Phone:   payload.To,
		Success: res.Success,
		Error:   res.Error,
	}}, nil
}
