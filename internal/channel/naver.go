package channel

import (
	"time"

	"github.com/kimsangwoo/bizmsg/internal/model"
)

// maxFeedDisplayDays caps how far in the future a BENEFIT feed may stay
// visible.
const maxFeedDisplayDays = 14

// NaverPayload is the outbound request body for one Naver Talk recipient.
type NaverPayload struct {
	PartnerKey      string         `json:"partner_key"`
	To              string         `json:"to"`
	ProductCode     string         `json:"product_code"`
	Message         string         `json:"message"`
	FeedEndDate     string         `json:"feed_end_date,omitempty"` // YYYY-MM-DD
	FeedImageURL    string         `json:"feed_image_url,omitempty"`
	BlockCallNumber string         `json:"block_call_number,omitempty"`
	BlockMessageURL string         `json:"block_message_url,omitempty"`
	Buttons         []model.Button `json:"buttons,omitempty"`
}

type naverHandler struct{}

func (naverHandler) Channel() model.Channel { return model.ChannelNaver }

func (naverHandler) Validate(d *model.Draft, now time.Time) []model.ValidationError {
	errs := validateBase(d)

	// Naver blocks on any placeholder without a common value; the
	// per-channel asymmetry lives in RequiresCommonValues.
	errs = append(errs, validateVariables(d)...)

	if d.Template != nil && d.Template.Status != model.TemplateApproved {
		errs = append(errs, model.Violation(
			model.CodeTemplateNotApproved, d.Template.Code,
			"template %s is %s, not approved", d.Template.Code, d.Template.Status,
		))
	}

	if d.Naver != nil && d.Naver.ProductCode == model.NaverProductBenefit {
		if d.Naver.FeedEndDate.IsZero() {
			errs = append(errs, model.Violation(
				model.CodeFeedEndDateRequired, "",
				"BENEFIT messages require a feed display end date",
			))
		} else if d.Naver.FeedEndDate.After(now.AddDate(0, 0, maxFeedDisplayDays)) {
			errs = append(errs, model.Violation(
				model.CodeFeedEndDateTooFar, "",
				"feed display end date must be within %d days", maxFeedDisplayDays,
			))
		}

		if d.Naver.FeedImageURL == "" {
			errs = append(errs, model.Violation(
				model.CodeImageRequired, "",
				"BENEFIT messages require a feed image",
			))
		}

		if d.Naver.BlockCallNumber == "" && d.Naver.BlockMessageURL == "" {
			errs = append(errs, model.Violation(
				model.CodeBlockContactRequired, "",
				"BENEFIT messages require a block call number or block message URL",
			))
		}
	}

	errs = append(errs, ValidateButtons(d.Buttons)...)

	return errs
}

// Build produces one request per recipient; the Naver partner API has no
// server-side fan-out.
func (naverHandler) Build(d *model.Draft, texts map[string]string) []Request {
	var opts model.NaverOptions
	if d.Naver != nil {
		opts = *d.Naver
	}

	var feedEnd string
	if !opts.FeedEndDate.IsZero() {
		feedEnd = opts.FeedEndDate.Format("2006-01-02")
	}

	reqs := make([]Request, 0, len(d.Recipients))
	for _, r := range d.Recipients {
		phone, err := model.NormalizePhone(r.Phone)
		if err != nil {
			continue
		}

		reqs = append(reqs, Request{
			Channel:    model.ChannelNaver,
			ProfileID:  d.ProfileID,
			Recipients: []model.Recipient{r},
			Body: NaverPayload{
				PartnerKey:      d.ProfileID,
				To:              phone,
				ProductCode:     opts.ProductCode,
				Message:         texts[phone],
				FeedEndDate:     feedEnd,
				FeedImageURL:    opts.FeedImageURL,
				BlockCallNumber: opts.BlockCallNumber,
				BlockMessageURL: opts.BlockMessageURL,
				Buttons:         d.Buttons,
			},
		})
	}

	return reqs
}
