package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGeminiContents(t *testing.T) {
	tests := []struct {
		name       string
		messages   []Message
		wantRoles  []string
		wantTexts  []string
		wantSystem string
	}{
		{
			name:       "system message moves into config",
			messages:   []Message{{Role: RoleSystem, Content: "be terse"}, {Role: RoleUser, Content: "hi"}},
			wantRoles:  []string{"user"},
			wantTexts:  []string{"hi"},
			wantSystem: "be terse",
		},
		{
			name:      "assistant turn uses model role",
			messages:  []Message{{Role: RoleAssistant, Content: "<html></html>"}},
			wantRoles: []string{"model"},
			wantTexts: []string{"<html></html>"},
		},
		{
			name:      "user turn keeps user role",
			messages:  []Message{{Role: RoleUser, Content: "make it blue"}},
			wantRoles: []string{"user"},
			wantTexts: []string{"make it blue"},
		},
		{
			name:      "no system message leaves config nil",
			messages:  []Message{{Role: RoleUser, Content: "a"}, {Role: RoleAssistant, Content: "b"}, {Role: RoleUser, Content: "c"}},
			wantRoles: []string{"user", "model", "user"},
			wantTexts: []string{"a", "b", "c"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contents, config := toGeminiContents(tt.messages)

			require.Len(t, contents, len(tt.wantRoles))
			for i, c := range contents {
				assert.Equal(t, tt.wantRoles[i], c.Role)
				require.Len(t, c.Parts, 1)
				assert.Equal(t, tt.wantTexts[i], c.Parts[0].Text)
			}

			if tt.wantSystem == "" {
				assert.Nil(t, config)
				return
			}
			require.NotNil(t, config)
			require.NotNil(t, config.SystemInstruction)
			require.Len(t, config.SystemInstruction.Parts, 1)
			assert.Equal(t, tt.wantSystem, config.SystemInstruction.Parts[0].Text)
		})
	}
}

func TestWrapProviderError(t *testing.T) {
	quota := errors.New("Error 429, Message: RESOURCE_EXHAUSTED, Status: quota")
	err := wrapProviderError(quota)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.ErrorContains(t, err, "RESOURCE_EXHAUSTED")

	plain := errors.New("Error 500, Message: internal")
	assert.Same(t, plain, wrapProviderError(plain))
	assert.NotErrorIs(t, wrapProviderError(plain), ErrQuotaExceeded)
}
