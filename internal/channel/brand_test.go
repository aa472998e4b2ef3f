package channel

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimsangwoo/bizmsg/internal/model"
)

func brandDraft() *model.Draft {
	return &model.Draft{
		Channel:   model.ChannelBrand,
		ProfileID: "sender-key-1",
		Template: &model.Template{
			Code:   "BRAND_SALE_01",
			Name:   "봄맞이 세일",
			Body:   "#{이름}님, 봄맞이 세일이 시작됩니다.",
			Status: model.TemplateApproved,
		},
		CommonVars: map[string]string{"이름": "고객"},
		Recipients: []model.Recipient{
			{Phone: "010-1234-5678"},
		},
	}
}

func TestBrandHandler_Validate(t *testing.T) {
	h := handlers[model.ChannelBrand]

	t.Run("valid text message", func(t *testing.T) {
		assert.Empty(t, h.Validate(brandDraft(), time.Now()))
	})

	t.Run("unnamed template", func(t *testing.T) {
		d := brandDraft()
		d.Template.Name = ""

		assert.True(t, hasCode(h.Validate(d, time.Now()), model.CodeTemplateNameRequired))
	})

	t.Run("unapproved template", func(t *testing.T) {
		d := brandDraft()
		d.Template.Status = model.TemplatePendingInspection

		assert.True(t, hasCode(h.Validate(d, time.Now()), model.CodeTemplateNotApproved))
	})

	t.Run("image type requires image", func(t *testing.T) {
		d := brandDraft()
		d.Brand = &model.BrandOptions{MessageType: model.BrandMessageImage}

		assert.True(t, hasCode(h.Validate(d, time.Now()), model.CodeImageRequired))
	})

	t.Run("wide type with image passes", func(t *testing.T) {
		d := brandDraft()
		d.Brand = &model.BrandOptions{MessageType: model.BrandMessageWide}
		d.Images = []model.ImageRef{{URL: "https://cdn.example.com/w.jpg", SizeBytes: 1024, ContentType: "image/jpeg"}}

		assert.False(t, hasCode(h.Validate(d, time.Now()), model.CodeImageRequired))
	})

	t.Run("content too long", func(t *testing.T) {
		d := brandDraft()
		d.Template.Body = strings.Repeat("가", 1001)

		assert.True(t, hasCode(h.Validate(d, time.Now()), model.CodeBodyTooLong))
	})
}

func TestBrandHandler_Build(t *testing.T) {
	d := brandDraft()
	d.Brand = &model.BrandOptions{MessageType: model.BrandMessageText}

	reqs := handlers[model.ChannelBrand].Build(d, map[string]string{"01012345678": "고객님, 봄맞이 세일이 시작됩니다."})
	require.Len(t, reqs, 1)

	payload, ok := reqs[0].Body.(BrandPayload)
	require.True(t, ok)
	assert.Equal(t, "봄맞이 세일", payload.TemplateName)
	assert.Equal(t, "TEXT", payload.MessageType)
	require.Len(t, payload.Recipients, 1)
	assert.Equal(t, "01012345678", payload.Recipients[0].To)
}
