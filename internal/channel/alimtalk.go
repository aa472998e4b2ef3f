package channel

import (
	"time"

	"github.com/kimsangwoo/bizmsg/internal/model"
)

// AlimtalkRecipient is one entry of the provider's recipients[] array.
type AlimtalkRecipient struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// AlimtalkPayload batches every recipient into a single provider request;
// Kakao fans out server-side.
type AlimtalkPayload struct {
	SenderKey    string              `json:"sender_key"`
	TemplateCode string              `json:"template_code"`
	Recipients   []AlimtalkRecipient `json:"recipients"`
	Buttons      []model.Button      `json:"buttons,omitempty"`
}

type alimtalkHandler struct{}

func (alimtalkHandler) Channel() model.Channel { return model.ChannelAlimtalk }

func (alimtalkHandler) Validate(d *model.Draft, _ time.Time) []model.ValidationError {
	errs := validateBase(d)
	errs = append(errs, validateVariables(d)...)

	if d.Template == nil {
		errs = append(errs, model.Violation(
			model.CodeTemplateRequired, "",
			"alimtalk requires an approved template",
		))
	} else if d.Template.Status != model.TemplateApproved {
		errs = append(errs, model.Violation(
			model.CodeTemplateNotApproved, d.Template.Code,
			"template %s is %s, not approved", d.Template.Code, d.Template.Status,
		))
	}

	// Body length is governed by the approved template; only presence and
	// button rules are re-checked client-side.
	errs = append(errs, ValidateButtons(d.Buttons)...)

	return errs
}

func (alimtalkHandler) Build(d *model.Draft, texts map[string]string) []Request {
	recipients := make([]AlimtalkRecipient, 0, len(d.Recipients))
	for _, r := range d.Recipients {
		phone, err := model.NormalizePhone(r.Phone)
		if err != nil {
			continue
		}

		recipients = append(recipients, AlimtalkRecipient{To: phone, Message: texts[phone]})
	}

	var code string
	if d.Template != nil {
		code = d.Template.Code
	}

	return []Request{{
		Channel:    model.ChannelAlimtalk,
		ProfileID:  d.ProfileID,
		Recipients: d.Recipients,
		Body: AlimtalkPayload{
			SenderKey:    d.ProfileID,
			TemplateCode: code,
			Recipients:   recipients,
			Buttons:      d.Buttons,
		},
	}}
}
