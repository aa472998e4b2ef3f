package model

import (
	"time"

	"github.com/google/uuid"
)

// TemplateStatus is the lifecycle state of a message template.
type TemplateStatus string

const (
	TemplateRegistered        TemplateStatus = "registered"
	TemplatePendingInspection TemplateStatus = "pending_inspection"
	TemplateApproved          TemplateStatus = "approved"
	TemplateRejected          TemplateStatus = "rejected"
)

// ButtonType is the Kakao/Naver button kind code.
type ButtonType string

const (
	ButtonWebLink    ButtonType = "WL" // web link, mobile + optional PC URL
	ButtonAppLink    ButtonType = "AL" // app scheme link
	ButtonBotKeyword ButtonType = "BK" // sends the button name back as a keyword
	ButtonForward    ButtonType = "MD" // message forward
)

// Button is one template button. Ordering is significant: buttons render in
// list order.
type Button struct {
	Type       ButtonType `json:"type"`
	Name       string     `json:"name"`
	LinkMobile string     `json:"link_mobile,omitempty"`
	LinkPC     string     `json:"link_pc,omitempty"`
}

// Template represents a registered message template owned by an account.
// It is mutated only through lifecycle transitions.
type Template struct {
	ID           uuid.UUID      `json:"id"`
	AccountID    uuid.UUID      `json:"account_id"`
	Channel      Channel        `json:"channel"`
	Code         string         `json:"code"` // unique per account+channel
	Name         string         `json:"name"`
	Body         string         `json:"body"` // raw text with placeholders
	Buttons      []Button       `json:"buttons,omitempty"`
	ImageURL     string         `json:"image_url,omitempty"`
	Category     string         `json:"category,omitempty"` // channel-specific classification
	Status       TemplateStatus `json:"status"`
	RejectReason string         `json:"reject_reason,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Usable reports whether the template may be used to build a payload.
// Channels without provider inspection accept any registered template.
func (t Template) Usable() bool {
	if t.Channel.RequiresInspection() {
		return t.Status == TemplateApproved
	}

	return t.Status != TemplateRejected
}
