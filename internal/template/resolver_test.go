package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kimsangwoo/bizmsg/internal/model"
)

func TestResolve_OverridePrecedence(t *testing.T) {
	text := "#{이름}님 반갑습니다"
	common := map[string]string{"이름": "기본"}

	plain := model.Recipient{Phone: "01012345678"}
	overridden := model.Recipient{Phone: "01087654321", Overrides: map[string]string{"이름": "철수"}}

	assert.Equal(t, "기본님 반갑습니다", Resolve(text, model.ChannelAlimtalk, common, plain))
	assert.Equal(t, "철수님 반갑습니다", Resolve(text, model.ChannelAlimtalk, common, overridden))
}

func TestResolve_EmptyOverrideFallsThrough(t *testing.T) {
	common := map[string]string{"이름": "기본"}
	r := model.Recipient{Phone: "01012345678", Overrides: map[string]string{"이름": ""}}

	assert.Equal(t, "기본", Resolve("#{이름}", model.ChannelAlimtalk, common, r))
}

func TestResolve_MissingValueBecomesEmpty(t *testing.T) {
	got := Resolve("[#{쿠폰}] 안내", model.ChannelAlimtalk, nil, model.Recipient{Phone: "01012345678"})
	assert.Equal(t, "[] 안내", got)
}

func TestResolve_NoRescanOfSubstitutedValues(t *testing.T) {
	common := map[string]string{"a": "#{b}", "b": "nope"}
	got := Resolve("#{a}", model.ChannelAlimtalk, common, model.Recipient{Phone: "01012345678"})
	assert.Equal(t, "#{b}", got)
}

func TestResolve_BracketGrammar(t *testing.T) {
	common := map[string]string{"이름": "영희"}
	got := Resolve("#[이름]님 주문이 완료되었습니다", model.ChannelSMS, common, model.Recipient{Phone: "01012345678"})
	assert.Equal(t, "영희님 주문이 완료되었습니다", got)
}

func TestValidateVariables_MissingCommonValue(t *testing.T) {
	recipients := []model.Recipient{{Phone: "01012345678"}}

	tests := []struct {
		channel model.Channel
		text    string
		blocks  bool
	}{
		{model.ChannelAlimtalk, "#{이름}님", true},
		{model.ChannelBrand, "#{이름}님", true},
		{model.ChannelNaver, "#{이름}님", true},
		{model.ChannelSMS, "#[이름]님", false},
		{model.ChannelFriendtalk, "#[이름]님", false},
		{model.ChannelRCS, "{{이름}}님", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.channel), func(t *testing.T) {
			errs := ValidateVariables(tt.text, tt.channel, nil, recipients)
			if tt.blocks {
				assert.Len(t, errs, 1)
				assert.Equal(t, model.CodeMissingVariableValue, errs[0].Code)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestValidateVariables_ValueTooLong(t *testing.T) {
	long := strings.Repeat("가", MaxVariableValueLen+1)

	errs := ValidateVariables("#{이름}", model.ChannelAlimtalk, map[string]string{"이름": long}, nil)
	assert.Len(t, errs, 1)
	assert.Equal(t, model.CodeVariableValueTooLong, errs[0].Code)

	// exactly at the cap is fine
	ok := strings.Repeat("가", MaxVariableValueLen)
	assert.Empty(t, ValidateVariables("#{이름}", model.ChannelAlimtalk, map[string]string{"이름": ok}, nil))
}

func TestValidateVariables_OverrideTooLong(t *testing.T) {
	long := strings.Repeat("x", MaxVariableValueLen+1)
	recipients := []model.Recipient{{Phone: "01012345678", Overrides: map[string]string{"이름": long}}}

	errs := ValidateVariables("#[이름]", model.ChannelSMS, nil, recipients)
	assert.Len(t, errs, 1)
	assert.Equal(t, model.CodeVariableValueTooLong, errs[0].Code)
}

func TestValidateVariables_UnusedOverrideIgnored(t *testing.T) {
	long := strings.Repeat("x", MaxVariableValueLen+1)
	recipients := []model.Recipient{{Phone: "01012345678", Overrides: map[string]string{"메모": long}}}

	// the text never references 메모, so the oversized override is harmless
	assert.Empty(t, ValidateVariables("#[이름]", model.ChannelSMS, nil, recipients))
}
