package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var defaultKeywords = []string{
	"quarterly report", "earnings call", "insider transaction",
	"analyst rating", "dividend", "stock split", "rumor",
	"market update", "daily brief",
}

func TestNoiseFilter(t *testing.T) {
	f := NewNoiseFilter(defaultKeywords)

	tests := []struct {
		title string
		noisy bool
	}{
		{"Apple declares quarterly Dividend", true},
		{"AAPL EARNINGS CALL transcript", true},
		{"Morning Market Update: stocks drift", true},
		{"Apple shares plunge after weak iPhone demand", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.noisy, f.IsNoisy(tt.title), "title %q", tt.title)
	}

	kw, ok := f.Match("Analyst Rating changes for MSFT")
	assert.True(t, ok)
	assert.Equal(t, "analyst rating", kw)
}

func TestNoiseFilterIgnoresBlankKeywords(t *testing.T) {
	f := NewNoiseFilter([]string{"", "  "})
	assert.False(t, f.IsNoisy("anything at all"))
}

func TestCleanText(t *testing.T) {
	in := "Shares FELL 5%!  See https://example.com/x?y=1 and www.foo.com\tfor more"
	assert.Equal(t, "shares fell see and for more", CleanText(in))
	assert.Equal(t, "", CleanText("  123 !!! "))
}
