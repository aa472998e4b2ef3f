// Package kakaobiz provides a client for the Kakao Business message API:
// the external sender behind Alimtalk, Friendtalk and Brand Message, plus
// the template inspection endpoints.
package kakaobiz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kimsangwoo/bizmsg/internal/channel"
	"github.com/kimsangwoo/bizmsg/internal/model"
)

// Client represents a Kakao Business API client.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a new Kakao Business Client instance.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

var sendPaths = map[model.Channel]string{
	model.ChannelAlimtalk:   "/v2/alimtalk/send",
	model.ChannelFriendtalk: "/v2/friendtalk/send",
	model.ChannelBrand:      "/v2/brand/send",
}

type recipientStatus struct {
	To      string `json:"to"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type sendResponse struct {
	Results []recipientStatus `json:"results"`
}

// Send delivers one built Kakao request. The API accepts all recipients in
// a single call and reports a per-recipient result array.
func (c *Client) Send(ctx context.Context, req channel.Request) ([]channel.SendStatus, error) {
	path, ok := sendPaths[req.Channel]
	if !ok {
		return nil, fmt.Errorf("unsupported channel %s", req.Channel)
	}

	var res sendResponse
	if err := c.post(ctx, path, req.Body, &res); err != nil {
		return nil, err
	}

	statuses := make([]channel.SendStatus, 0, len(res.Results))
	for _, r := range res.Results {
		statuses = append(statuses, channel.SendStatus{
			Phone:   r.To,
			Success: r.Success,
			Error:   r.Error,
		})
	}

	return statuses, nil
}

type inspectionRequest struct {
	SenderKey    string `json:"sender_key"`
	TemplateCode string `json:"template_code"`
	Name         string `json:"name"`
	Body         string `json:"body"`
	Category     string `json:"category,omitempty"`
}

type inspectionStatusResponse struct {
	Status       string `json:"status"` // REQ, APR, REJ
	RejectReason string `json:"reject_reason,omitempty"`
}

// SubmitInspection submits a template for Kakao's review.
func (c *Client) SubmitInspection(ctx context.Context, t model.Template) error {
	req := inspectionRequest{
		SenderKey:    t.AccountID.String(),
		TemplateCode: t.Code,
		Name:         t.Name,
		Body:         t.Body,
		Category:     t.Category,
	}

	return c.post(ctx, "/v2/templates/inspection", req, nil)
}

// CancelInspection withdraws a template from review.
func (c *Client) CancelInspection(ctx context.Context, t model.Template) error {
	req := inspectionRequest{TemplateCode: t.Code}

	return c.post(ctx, "/v2/templates/inspection/cancel", req, nil)
}

// InspectionStatus polls the current review decision for a template.
func (c *Client) InspectionStatus(ctx context.Context, t model.Template) (model.TemplateStatus, string, error) {
	url := fmt.Sprintf("%s/v2/templates/%s/status", c.baseURL, t.Code)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("kakao API error: %s", resp.Status)
	}

	var res inspectionStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", "", fmt.Errorf("decode response: %w", err)
	}

	switch res.Status {
	case "APR":
		return model.TemplateApproved, "", nil
	case "REJ":
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
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kakao API error: %s", resp.Status)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
