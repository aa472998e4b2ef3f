package channel

import (
	"time"
	"unicode/utf8"

	"github.com/kimsangwoo/bizmsg/internal/model"
)

const (
	maxFriendtalkBodyLen = 1000
	maxFriendtalkImages  = 1

	// Ad messages may only go out between 08:00 inclusive and 20:00
	// exclusive, local time.
	adWindowStartHour = 8
	adWindowEndHour   = 20
)

// FriendtalkRecipient is one entry of the provider's recipients[] array.
type FriendtalkRecipient struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// FriendtalkPayload batches every recipient into a single provider request.
type FriendtalkPayload struct {
	SenderKey  string                `json:"sender_key"`
	AdFlag     bool                  `json:"ad_flag"`
	ImageURL   string                `json:"image_url,omitempty"`
	Recipients []FriendtalkRecipient `json:"recipients"`
	Buttons    []model.Button        `json:"buttons,omitempty"`
}

type friendtalkHandler struct{}

func (friendtalkHandler) Channel() model.Channel { return model.ChannelFriendtalk }

// InAdWindow reports whether t falls inside the permitted ad send window.
func InAdWindow(t time.Time) bool {
	h := t.Hour()
	return h >= adWindowStartHour && h < adWindowEndHour
}

func (friendtalkHandler) Validate(d *model.Draft, now time.Time) []model.ValidationError {
	errs := validateBase(d)
	errs = append(errs, validateVariables(d)...)

	if n := utf8.RuneCountInString(d.Content()); n > maxFriendtalkBodyLen {
		errs = append(errs, model.Violation(
			model.CodeBodyTooLong, "",
			"body is %d characters, max %d", n, maxFriendtalkBodyLen,
		))
	}

	if len(d.Images) > maxFriendtalkImages {
		errs = append(errs, model.Violation(
			model.CodeTooManyImages, "",
			"%d images, max %d", len(d.Images), maxFriendtalkImages,
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
				"image type %s, only JPG/PNG allowed", img.ContentType,
			))
		}
	}

	if d.AdFlag && !InAdWindow(now) {
		errs = append(errs, model.Violation(
			model.CodeOutsideAdWindow, "",
			"ad messages may only be sent between %02d:00 and %02d:00", adWindowStartHour, adWindowEndHour,
		))
	}

	errs = append(errs, ValidateButtons(d.Buttons)...)

	return errs
}

func (friendtalkHandler) Build(d *model.Draft, texts map[string]string) []Request {
	recipients := make([]FriendtalkRecipient, 0, len(d.Recipients))
	for _, r := range d.Recipients {
		phone, err := model.NormalizePhone(r.Phone)
		if err != nil {
			continue
		}

		recipients = append(recipients, FriendtalkRecipient{To: phone, Message: texts[phone]})
	}

	var imageURL string
	if len(d.Images) > 0 {
		imageURL = d.Images[0].URL
	}

	return []Request{{
		Channel:    model.ChannelFriendtalk,
		ProfileID:  d.ProfileID,
		Recipients: d.Recipients,
		Body: FriendtalkPayload{
			SenderKey:  d.ProfileID,
			AdFlag:     d.AdFlag,
			ImageURL:   imageURL,
			Recipients: recipients,
			Buttons:    d.Buttons,
		},
	}}
}
