// Package channel implements the per-channel constraint validators and
// payload builders behind a single Handler contract, so the orchestrator
// never branches on channel identity.
package channel

import (
	"time"

	"github.com/kimsangwoo/bizmsg/internal/model"
	tmpl "github.com/kimsangwoo/bizmsg/internal/template"
)

// Request is one outbound provider call produced by a builder. Body holds
// the channel-specific payload; Recipients lists the recipients covered by
// this request (one for per-recipient channels, all for Kakao batch
// channels).
type Request struct {
	Channel    model.Channel
	ProfileID  string
	Recipients []model.Recipient
	Body       any
}

// SendStatus is the per-recipient outcome reported by an external sender.
type SendStatus struct {
	Phone   string
	Success bool
	Error   string
}

// Handler validates a draft against one channel's constraints and builds its
// outbound payloads. Implementations are pure: all inputs are explicit and
// no network calls happen here.
type Handler interface {
	Channel() model.Channel

	// Validate returns every rule violation for the draft, not just the
	// first. now is injected for time-of-day rules.
	Validate(d *model.Draft, now time.Time) []model.ValidationError

	// Build turns the draft plus resolved per-recipient text (keyed by
	// phone) into provider requests, per the channel's batching rule.
	Build(d *model.Draft, texts map[string]string) []Request
}

var handlers = map[model.Channel]Handler{
	model.ChannelSMS:        smsHandler{},
	model.ChannelAlimtalk:   alimtalkHandler{},
	model.ChannelFriendtalk: friendtalkHandler{},
	model.ChannelBrand:      brandHandler{},
	model.ChannelNaver:      naverHandler{},
	model.ChannelRCS:        rcsHandler{},
}

// For returns the handler for a channel.
func For(ch model.Channel) (Handler, bool) {
	h, ok := handlers[ch]
	return h, ok
}

// maxButtons is the shared button cap. Friendtalk has no documented cap for
// free buttons; the same cap is applied for consistency.
const maxButtons = 5

const maxButtonNameLen = 14

const maxImageBytes = 300 * 1024

// validateBase holds the batch-level rules shared by every channel: a
// selected profile, at least one recipient, valid and unique phone numbers.
func validateBase(d *model.Draft) []model.ValidationError {
	var errs []model.ValidationError

	if d.ProfileID == "" {
		errs = append(errs, model.Violation(
			model.CodeNoChannelProfile, "",
			"no sender profile selected for channel %s", d.Channel,
		))
	}

	if len(d.Recipients) == 0 {
		errs = append(errs, model.Violation(
			model.CodeEmptyRecipientList, "",
			"recipient list is empty",
		))
	}

	seen := make(map[string]struct{}, len(d.Recipients))
	for _, r := range d.Recipients {
		phone, err := model.NormalizePhone(r.Phone)
		if err != nil {
			errs = append(errs, model.Violation(
				model.CodeInvalidPhoneNumber, r.Phone,
				"invalid phone number %q", r.Phone,
			))
			continue
		}

		if _, dup := seen[phone]; dup {
			errs = append(errs, model.Violation(
				model.CodeDuplicateRecipient, r.Phone,
				"duplicate recipient %s", r.Phone,
			))
			continue
		}

		seen[phone] = struct{}{}
	}

	return errs
}

// validateVariables delegates to the resolver's pre-send variable checks.
func validateVariables(d *model.Draft) []model.ValidationError {
	return tmpl.ValidateVariables(d.Content(), d.Channel, d.CommonVars, d.Recipients)
}

// ValidateButtons checks the shared button rules: count cap, name presence
// and length, URL scheme for link buttons. The template service applies the
// same rules when a template is registered.
func ValidateButtons(buttons []model.Button) []model.ValidationError {
	var errs []model.ValidationError

	if len(buttons) > maxButtons {
		errs = append(errs, model.Violation(
			model.CodeTooManyButtons, "",
			"%d buttons, max %d", len(buttons), maxButtons,
		))
	}

	for _, b := range buttons {
		if n := len([]rune(b.Name)); n == 0 || n > maxButtonNameLen {
			errs = append(errs, model.Violation(
				model.CodeButtonNameTooLong, b.Name,
				"button name must be 1-%d characters", maxButtonNameLen,
			))
		}

		if b.Type == model.ButtonWebLink || b.Type == model.ButtonAppLink {
			if !validLinkURL(b.LinkMobile) {
				errs = append(errs, model.Violation(
					model.CodeInvalidButtonURL, b.Name,
					"button %q link must start with http:// or https://", b.Name,
				))
			}
		}
	}

	return errs
}

func validLinkURL(u string) bool {
	return len(u) >= 7 && (u[:7] == "http://" || (len(u) >= 8 && u[:8] == "https://"))
}

// eucKRLength approximates the billed byte length of text the way the
// carriers meter it: 1 byte per ASCII rune, 2 bytes otherwise.
func eucKRLength(text string) int {
	n := 0
	for _, r := range text {
		if r < 128 {
			n++
		} else {
			n += 2
		}
	}

	return n
}
