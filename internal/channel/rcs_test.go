package channel

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimsangwoo/bizmsg/internal/model"
)

func rcsDraft() *model.Draft {
	return &model.Draft{
		Channel:   model.ChannelRCS,
		ProfileID: "0212340000",
		Body:      "{{이름}}님, 새 소식이 도착했습니다.",
		Recipients: []model.Recipient{
			{Phone: "010-1234-5678"},
		},
	}
}

func TestRCSHandler_Validate(t *testing.T) {
	h := handlers[model.ChannelRCS]

	t.Run("valid", func(t *testing.T) {
		assert.Empty(t, h.Validate(rcsDraft(), time.Now()))
	})

	t.Run("body too long", func(t *testing.T) {
		d := rcsDraft()
		d.Body = strings.Repeat("가", 1301)

		assert.True(t, hasCode(h.Validate(d, time.Now()), model.CodeBodyTooLong))
	})

	t.Run("subject too long", func(t *testing.T) {
		d := rcsDraft()
		d.Subject = strings.Repeat("가", 31)

		assert.True(t, hasCode(h.Validate(d, time.Now()), model.CodeSubjectTooLong))
	})

	t.Run("missing common value does not block", func(t *testing.T) {
		d := rcsDraft()
		d.CommonVars = nil

		assert.False(t, hasCode(h.Validate(d, time.Now()), model.CodeMissingVariableValue))
	})
}

func TestRCSHandler_Build_OneRequestPerRecipient(t *testing.T) {
	d := rcsDraft()
	d.Recipients = []model.Recipient{
		{Phone: "010-1111-2222"},
		{Phone: "010-3333-4444"},
	}

	texts := map[string]string{
		"01011112222": "고객님, 새 소식이 도착했습니다.",
		"01033334444": "철수님, 새 소식이 도착했습니다.",
	}

	reqs := handlers[model.ChannelRCS].Build(d, texts)
	require.Len(t, reqs, 2)

	payload, ok := reqs[1].Body.(RCSPayload)
	require.True(t, ok)
	assert.Equal(t, "01033334444", payload.To)
	assert.Equal(t, "철수님, 새 소식이 도착했습니다.", payload.Body)
}
