package channel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimsangwoo/bizmsg/internal/model"
)

func alimtalkDraft(status model.TemplateStatus) *model.Draft {
	return &model.Draft{
		Channel:   model.ChannelAlimtalk,
		ProfileID: "sender-key-1",
		Template: &model.Template{
			Code:   "ORDER_DONE_01",
			Name:   "주문 완료 안내",
			Body:   "#{이름}님, 주문이 완료되었습니다.",
			Status: status,
		},
		CommonVars: map[string]string{"이름": "고객"},
		Recipients: []model.Recipient{
			{Phone: "010-1234-5678"},
		},
	}
}

func TestAlimtalkHandler_Validate_TemplateGate(t *testing.T) {
	h := handlers[model.ChannelAlimtalk]

	t.Run("approved passes", func(t *testing.T) {
		errs := h.Validate(alimtalkDraft(model.TemplateApproved), time.Now())
		assert.Empty(t, errs)
	})

	t.Run("missing template", func(t *testing.T) {
		d := alimtalkDraft(model.TemplateApproved)
		d.Template = nil
		d.Body = "자유 텍스트"

		errs := h.Validate(d, time.Now())
		assert.True(t, hasCode(errs, model.CodeTemplateRequired))
	})

	t.Run("registered blocks", func(t *testing.T) {
		errs := h.Validate(alimtalkDraft(model.TemplateRegistered), time.Now())
		assert.True(t, hasCode(errs, model.CodeTemplateNotApproved))
	})

	t.Run("pending blocks", func(t *testing.T) {
		errs := h.Validate(alimtalkDraft(model.TemplatePendingInspection), time.Now())
		assert.True(t, hasCode(errs, model.CodeTemplateNotApproved))
	})

	t.Run("rejected blocks", func(t *testing.T) {
		errs := h.Validate(alimtalkDraft(model.TemplateRejected), time.Now())
		assert.True(t, hasCode(errs, model.CodeTemplateNotApproved))
	})
}

func TestAlimtalkHandler_Validate_MissingCommonValue(t *testing.T) {
	d := alimtalkDraft(model.TemplateApproved)
	d.CommonVars = nil

	errs := handlers[model.ChannelAlimtalk].Validate(d, time.Now())
	assert.True(t, hasCode(errs, model.CodeMissingVariableValue))
}

func TestAlimtalkHandler_Build_SingleBatchedRequest(t *testing.T) {
	d := alimtalkDraft(model.TemplateApproved)
	d.Recipients = []model.Recipient{
		{Phone: "010-1111-2222"},
		{Phone: "010-3333-4444", Overrides: map[string]string{"이름": "철수"}},
	}

	texts := map[string]string{
		"01011112222": "고객님, 주문이 완료되었습니다.",
		"01033334444": "철수님, 주문이 완료되었습니다.",
	}

	reqs := handlers[model.ChannelAlimtalk].Build(d, texts)
	require.Len(t, reqs, 1)

	payload, ok := reqs[0].Body.(AlimtalkPayload)
	require.True(t, ok)
	assert.Equal(t, "ORDER_DONE_01", payload.TemplateCode)
	require.Len(t, payload.Recipients, 2)
	assert.Equal(t, "철수님, 주문이 완료되었습니다.", payload.Recipients[1].Message)
}
