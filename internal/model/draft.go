package model

import "time"

// ImageRef is an opaque reference to an image already uploaded through the
// upload collaborator. The builder never uploads; it only carries the URL.
type ImageRef struct {
	URL         string `json:"url"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentType string `json:"content_type"`
}

// FallbackConfig enables the SMS backup path: when the primary channel fails
// for a recipient, the fallback body is sent to that recipient over SMS.
type FallbackConfig struct {
	Enabled bool   `json:"enabled"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}

// NaverOptions holds Naver Talk product-specific fields.
type NaverOptions struct {
	ProductCode     string    `json:"product_code"` // e.g. "INFORMATION", "BENEFIT"
	FeedEndDate     time.Time `json:"feed_end_date,omitempty"`
	FeedImageURL    string    `json:"feed_image_url,omitempty"`
	BlockCallNumber string    `json:"block_call_number,omitempty"`
	BlockMessageURL string    `json:"block_message_url,omitempty"`
}

// BrandOptions holds Kakao Brand Message fields.
type BrandOptions struct {
	MessageType string `json:"message_type"` // TEXT, IMAGE or WIDE
}

// NaverProductBenefit requires a feed image, a near feed end date and a
// contact block.
const NaverProductBenefit = "BENEFIT"

const (
	BrandMessageText  = "TEXT"
	BrandMessageImage = "IMAGE"
	BrandMessageWide  = "WIDE"
)

// Draft is the fully composed input of one dispatch batch: channel, profile,
// content, recipients and fallback configuration. It is immutable for the
// duration of one dispatch.
type Draft struct {
	Channel    Channel           `json:"channel"`
	ProfileID  string            `json:"profile_id"` // selected sender profile (calling number, sender key, partner key)
	Template   *Template         `json:"template,omitempty"`
	Body       string            `json:"body"` // free text; ignored when Template is set
	Subject    string            `json:"subject,omitempty"`
	Buttons    []Button          `json:"buttons,omitempty"`
	Images     []ImageRef        `json:"images,omitempty"`
	AdFlag     bool              `json:"ad_flag,omitempty"`
	CommonVars map[string]string `json:"common_vars,omitempty"`
	Recipients []Recipient       `json:"recipients"`
	Fallback   FallbackConfig    `json:"fallback"`
	Naver      *NaverOptions     `json:"naver,omitempty"`
	Brand      *BrandOptions     `json:"brand,omitempty"`
}

// Content returns the text to substitute and send: the template body when a
// template is attached, the free-text body otherwise.
func (d Draft) Content() string {
	if d.Template != nil {
		return d.Template.Body
	}

	return d.Body
}
