package channel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimsangwoo/bizmsg/internal/model"
)

func naverDraft() *model.Draft {
	return &model.Draft{
		Channel:   model.ChannelNaver,
		ProfileID: "partner-key-1",
		Body:      "#{상품명} 할인 안내",
		CommonVars: map[string]string{
			"상품명": "텀블러",
		},
		Recipients: []model.Recipient{
			{Phone: "010-1234-5678"},
		},
	}
}

func TestNaverHandler_Validate_BenefitRules(t *testing.T) {
	h := handlers[model.ChannelNaver]
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.Local)

	benefit := func() *model.Draft {
		d := naverDraft()
		d.Naver = &model.NaverOptions{
			ProductCode:     model.NaverProductBenefit,
			FeedEndDate:     now.AddDate(0, 0, 7),
			FeedImageURL:    "https://cdn.example.com/feed.jpg",
			BlockCallNumber: "0212340000",
		}

		return d
	}

	t.Run("valid benefit", func(t *testing.T) {
		assert.Empty(t, h.Validate(benefit(), now))
	})

	t.Run("missing feed end date", func(t *testing.T) {
		d := benefit()
		d.Naver.FeedEndDate = time.Time{}

		assert.True(t, hasCode(h.Validate(d, now), model.CodeFeedEndDateRequired))
	})

	t.Run("feed end date too far", func(t *testing.T) {
		d := benefit()
		d.Naver.FeedEndDate = now.AddDate(0, 0, 15)

		assert.True(t, hasCode(h.Validate(d, now), model.CodeFeedEndDateTooFar))
	})

	t.Run("feed end date at the cap", func(t *testing.T) {
		d := benefit()
		d.Naver.FeedEndDate = now.AddDate(0, 0, 14)

		assert.False(t, hasCode(h.Validate(d, now), model.CodeFeedEndDateTooFar))
	})

	t.Run("missing feed image", func(t *testing.T) {
		d := benefit()
		d.Naver.FeedImageURL = ""

		assert.True(t, hasCode(h.Validate(d, now), model.CodeImageRequired))
	})

	t.Run("missing block contact", func(t *testing.T) {
		d := benefit()
		d.Naver.BlockCallNumber = ""
		d.Naver.BlockMessageURL = ""

		assert.True(t, hasCode(h.Validate(d, now), model.CodeBlockContactRequired))
	})

	t.Run("block message url suffices", func(t *testing.T) {
		d := benefit()
		d.Naver.BlockCallNumber = ""
		d.Naver.BlockMessageURL = "https://example.com/block"

		assert.False(t, hasCode(h.Validate(d, now), model.CodeBlockContactRequired))
	})

	t.Run("information product skips benefit rules", func(t *testing.T) {
		d := naverDraft()
		d.Naver = &model.NaverOptions{ProductCode: "INFORMATION"}

		assert.Empty(t, h.Validate(d, now))
	})
}

func TestNaverHandler_Validate_MissingCommonValue(t *testing.T) {
	d := naverDraft()
	d.CommonVars = nil

	errs := handlers[model.ChannelNaver].Validate(d, time.Now())
	assert.True(t, hasCode(errs, model.CodeMissingVariableValue))
}

func TestNaverHandler_Build_OneRequestPerRecipient(t *testing.T) {
	d := naverDraft()
	d.Recipients = []model.Recipient{
		{Phone: "010-1111-2222"},
		{Phone: "010-3333-4444"},
	}
	d.Naver = &model.NaverOptions{
		ProductCode: model.NaverProductBenefit,
		FeedEndDate: time.Date(2025, 3, 17, 0, 0, 0, 0, time.Local),
	}

	texts := map[string]string{
		"01011112222": "텀블러 할인 안내",
		"01033334444": "텀블러 할인 안내",
	}

	reqs := handlers[model.ChannelNaver].Build(d, texts)
	require.Len(t, reqs, 2)

	payload, ok := reqs[0].Body.(NaverPayload)
	require.True(t, ok)
	assert.Equal(t, "partner-key-1", payload.PartnerKey)
	assert.Equal(t, "01011112222", payload.To)
	assert.Equal(t, "BENEFIT", payload.ProductCode)
	assert.Equal(t, "2025-03-17", payload.FeedEndDate)
}
