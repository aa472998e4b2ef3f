package channel

import (
	"time"
	"unicode/utf8"

	"github.com/kimsangwoo/bizmsg/internal/model"
)

const (
	maxSMSBodyBytes  = 2000
	maxSMSSubjectLen = 40
	maxSMSImages     = 3

	// smsTypeBoundary is the billed byte length above which a message is
	// sent as LMS instead of SMS.
	smsTypeBoundary = 90
)

// SMSPayload is the outbound request body for one SMS/LMS/MMS recipient.
type SMSPayload struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Type      string   `json:"type"` // SMS, LMS or MMS
	Subject   string   `json:"subject,omitempty"`
	Text      string   `json:"text"`
	ImageURLs []string `json:"image_urls,omitempty"`
}

type smsHandler struct{}

func (smsHandler) Channel() model.Channel { return model.ChannelSMS }

// DetermineSMSType picks SMS, LMS or MMS for a message: any image makes it
// MMS, short text is SMS, everything else LMS.
func DetermineSMSType(body string, imageCount int) string {
	if imageCount > 0 {
		return "MMS"
	}

	if eucKRLength(body) <= smsTypeBoundary {
		return "SMS"
	}

	return "LMS"
}

func (smsHandler) Validate(d *model.Draft, _ time.Time) []model.ValidationError {
	errs := validateBase(d)
	errs = append(errs, validateVariables(d)...)

	if n := eucKRLength(d.Content()); n > maxSMSBodyBytes {
		errs = append(errs, model.Violation(
			model.CodeBodyTooLong, "",
			"body is %d bytes, max %d", n, maxSMSBodyBytes,
		))
	}

	if n := utf8.RuneCountInString(d.Subject); n > maxSMSSubjectLen {
		errs = append(errs, model.Violation(
			model.CodeSubjectTooLong, "",
			"subject is %d characters, max %d", n, maxSMSSubjectLen,
		))
	}

	if len(d.Images) > maxSMSImages {
		errs = append(errs, model.Violation(
			model.CodeTooManyImages, "",
			"%d images, max %d", len(d.Images), maxSMSImages,
		))
	}

	for _, img := range d.Images {
		if img.SizeBytes > maxImageBytes {
			errs = append(errs, model.Violation(
				model.CodeImageTooLarge, img.URL,
				"image is %d bytes, max %d", img.SizeBytes, maxImageBytes,
			))
		}

		if img.ContentType != "image/jpeg" && img.ContentType != "image/png" {
			errs = append(errs, model.Violation(
				model.CodeUnsupportedImageType, img.URL,
				"image type %s, only JPEG/PNG allowed", img.ContentType,
			))
		}
	}

	return errs
}

// Build produces one request per recipient, each carrying its own resolved
// text.
func (smsHandler) Build(d *model.Draft, texts map[string]string) []Request {
	urls := make([]string, 0, len(d.Images))
	for _, img := range d.Images {
		urls = append(urls, img.URL)
	}

	reqs := make([]Request, 0, len(d.Recipients))
	for _, r := range d.Recipients {
		phone, err := model.NormalizePhone(r.Phone)
		if err != nil {
			continue // rejected during validation
		}

		text := texts[phone]
		reqs = append(reqs, Request{
			Channel:    model.ChannelSMS,
			ProfileID:  d.ProfileID,
			Recipients: []model.Recipient{r},
			Body: SMSPayload{
				From:      d.ProfileID,
				To:        phone,
				Type:      DetermineSMSType(text, len(urls)),
				Subject:   d.Subject,
				Text:      text,
				ImageURLs: urls,
			},
		})
	}

	return reqs
}
