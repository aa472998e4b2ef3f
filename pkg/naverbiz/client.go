// Package naverbiz provides a client for the Naver Talk partner API: the
// external sender behind the Naver Talk channel plus its template review
// endpoints.
package naverbiz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kimsangwoo/bizmsg/internal/channel"
	"github.com/kimsangwoo/bizmsg/internal/model"
)

// Client represents a Naver Talk partner API client.
type Client struct {
	baseURL    string
	partnerKey string
	client     *http.Client
}

// NewClient creates a new Naver Talk Client instance.
func NewClient(baseURL, partnerKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		partnerKey: partnerKey,
		client:     &http.Client{},
	}
}

type sendResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Send delivers one built Naver Talk request, one recipient per call.
func (c *Client) Send(ctx context.Context, req channel.Request) ([]channel.SendStatus, error) {
	payload, ok := req.Body.(channel.NaverPayload)
	if !ok {
		return nil, fmt.Errorf("unexpected payload type %T", req.Body)
	}

	var res sendResponse
	if err := c.post(ctx, "/v1/messages", payload, &res); err != nil {
		return nil, err
	}

	return []channel.SendStatus{{
		Phone:   payload.To,
		Success: res.Success,
		Error:   res.Error,
	}}, nil
}

type templateStatusResponse struct {
	Status       string `json:"status"` // UNDER_REVIEW, APPROVED, REJECTED
	RejectReason string `json:"reject_reason,omitempty"`
}

// SubmitInspection submits a template for Naver's review.
func (c *Client) SubmitInspection(ctx context.Context, t model.Template) error {
	return c.post(ctx, "/v1/templates/review", map[string]string{
		"template_code": t.Code,
		"name":          t.Name,
		"body":          t.Body,
	}, nil)
}

// CancelInspection withdraws a template from review.
func (c *Client) CancelInspection(ctx context.Context, t model.Template) error {
	return c.post(ctx, "/v1/templates/review/cancel", map[string]string{
		"template_code": t.Code,
	}, nil)
}

// InspectionStatus polls the current review decision for a template.
func (c *Client) InspectionStatus(ctx context.Context, t model.Template) (model.TemplateStatus, string, error) {
	url := fmt.Sprintf("%s/v1/templates/%s/status", c.baseURL, t.Code)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.partnerKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("naver API error: %s", resp.Status)
	}

	var res templateStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", "", fmt.Errorf("decode response: %w", err)
	}

	switch res.Status {
	case "APPROVED":
		return model.TemplateApproved, "", nil
	case "REJECTED":
		return model.TemplateRejected, res.RejectReason, nil
	default:
		return model.TemplatePendingInspection, "", nil
	}
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.partnerKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("naver API error: %s", resp.Status)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
