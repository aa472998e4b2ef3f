package channel

import (
	"time"
	"unicode/utf8"

	"github.com/kimsangwoo/bizmsg/internal/model"
)

const maxBrandBodyLen = 1000

// BrandRecipient is one entry of the provider's recipients[] array.
type BrandRecipient struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// BrandPayload batches every recipient into a single provider request.
type BrandPayload struct {
	SenderKey    string           `json:"sender_key"`
	TemplateName string           `json:"template_name"`
	MessageType  string           `json:"message_type"`
	ImageURL     string           `json:"image_url,omitempty"`
	Recipients   []BrandRecipient `json:"recipients"`
	Buttons      []model.Button   `json:"buttons,omitempty"`
}

type brandHandler struct{}

func (brandHandler) Channel() model.Channel { return model.ChannelBrand }

func (brandHandler) Validate(d *model.Draft, _ time.Time) []model.ValidationError {
	errs := validateBase(d)
	errs = append(errs, validateVariables(d)...)

	if d.Template == nil || d.Template.Name == "" {
		errs = append(errs, model.Violation(
			model.CodeTemplateNameRequired, "",
			"brand message requires a named template",
		))
	} else if d.Template.Status != model.TemplateApproved {
		errs = append(errs, model.Violation(
			model.CodeTemplateNotApproved, d.Template.Code,
			"template %s is %s, not approved", d.Template.Code, d.Template.Status,
		))
	}

	msgType := model.BrandMessageText
	if d.Brand != nil {
		msgType = d.Brand.MessageType
	}

	if (msgType == model.BrandMessageImage || msgType == model.BrandMessageWide) && len(d.Images) == 0 {
		errs = append(errs, model.Violation(
			model.CodeImageRequired, "",
			"%s brand messages require an image", msgType,
		))
	}

	if n := utf8.RuneCountInString(d.Content()); n > maxBrandBodyLen {
		errs = append(errs, model.Violation(
			model.CodeBodyTooLong, "",
			"content is %d characters, max %d", n, maxBrandBodyLen,
		))
	}

	errs = append(errs, ValidateButtons(d.Buttons)...)

	return errs
}

func (brandHandler) Build(d *model.Draft, texts map[string]string) []Request {
	recipients := make([]BrandRecipient, 0, len(d.Recipients))
	for _, r := range d.Recipients {
		phone, err := model.NormalizePhone(r.Phone)
		if err != nil {
			continue
		}

		recipients = append(recipients, BrandRecipient{To: phone, Message: texts[phone]})
	}

	var name string
	if d.Template != nil {
		name = d.Template.Name
	}

	msgType := model.BrandMessageText
	if d.Brand != nil {
		msgType = d.Brand.MessageType
	}

	var imageURL string
	if len(d.Images) > 0 {
		imageURL = d.Images[0].URL
	}

	return []Request{{
		Channel:    model.ChannelBrand,
		ProfileID:  d.ProfileID,
		Recipients: d.Recipients,
		Body: BrandPayload{
			SenderKey:    d.ProfileID,
			TemplateName: name,
			MessageType:  msgType,
			ImageURL:     imageURL,
			Recipients:   recipients,
			Buttons:      d.Buttons,
		},
	}}
}
