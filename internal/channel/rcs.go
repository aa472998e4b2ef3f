package channel

import (
	"time"
	"unicode/utf8"

	"github.com/kimsangwoo/bizmsg/internal/model"
)

const (
	maxRCSBodyLen    = 1300
	maxRCSSubjectLen = 30
)

// RCSPayload is the outbound request body for one RCS recipient.
type RCSPayload struct {
	From    string         `json:"from"`
	To      string         `json:"to"`
	Subject string         `json:"subject,omitempty"`
	Body    string         `json:"body"`
	Buttons []model.Button `json:"buttons,omitempty"`
}

type rcsHandler struct{}

func (rcsHandler) Channel() model.Channel { return model.ChannelRCS }

func (rcsHandler) Validate(d *model.Draft, _ time.Time) []model.ValidationError {
	errs := validateBase(d)
	errs = append(errs, validateVariables(d)...)

	if n := utf8.RuneCountInString(d.Content()); n > maxRCSBodyLen {
		errs = append(errs, model.Violation(
			model.CodeBodyTooLong, "",
			"body is %d characters, max %d", n, maxRCSBodyLen,
		))
	}

	if n := utf8.RuneCountInString(d.Subject); n > maxRCSSubjectLen {
		errs = append(errs, model.Violation(
			model.CodeSubjectTooLong, "",
			"subject is %d characters, max %d", n, maxRCSSubjectLen,
		))
	}

	errs = append(errs, ValidateButtons(d.Buttons)...)

	return errs
}

// Build produces one request per recipient.
func (rcsHandler) Build(d *model.Draft, texts map[string]string) []Request {
	reqs := make([]Request, 0, len(d.Recipients))
	for _, r := range d.Recipients {
		phone, err := model.NormalizePhone(r.Phone)
		if err != nil {
			continue
		}

		reqs = append(reqs, Request{
			Channel:    model.ChannelRCS,
			ProfileID:  d.ProfileID,
			Recipients: []model.Recipient{r},
			Body: RCSPayload{
				From:    d.ProfileID,
				To:      phone,
				Subject: d.Subject,
				Body:    texts[phone],
				Buttons: d.Buttons,
			},
		})
	}

	return reqs
}
