package services

import (
	"testing"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/stretchr/testify/assert"
)

func TestFilterContent(t *testing.T) {
	f := NewContentFilter()
	tests := []struct {
		text   string
		ok     bool
		reason string
	}{
		{"Black leather wallet with two cards", true, ""},
		{"", true, ""},
		{"Left my bag at the class... near room 204", true, ""},
		{"Scammer took my phone", false, "inappropriate_language"},
		{"photos at www.example.com/wallet", false, "url_not_allowed"},
		{"HEEEEELP lost my keys", false, "spam_detected"},
		{"Glass case", true, ""},
	}
	for _, tt := range tests {
		ok, reason := f.FilterContent(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.reason, reason, tt.text)
	}
}

func TestCheckWrapsValidation(t *testing.T) {
	f := NewContentFilter()
	assert.NoError(t, f.Check("Blue umbrella", "folding, with a wooden handle"))

	err := f.Check("Blue umbrella", "details at https://example.com")
	assert.ErrorIs(t, err, matching.ErrValidation)
	assert.Contains(t, err.Error(), RejectionMessage("url_not_allowed"))
}
