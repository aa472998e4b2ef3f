package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "01012345678", "01012345678", false},
		{"hyphenated", "010-1234-5678", "01012345678", false},
		{"spaces and dots", "010 1234.5678", "01012345678", false},
		{"ten digits", "0111234567", "0111234567", false},
		{"too short", "010-123-456", "", true}, // 9 digits total
		{"too long", "010123456789", "", true},
		{"landline", "0212345678", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
