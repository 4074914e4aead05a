package enum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		arg  string
		want Mode
	}{
		{"push", ModePush},
		{"", ModePolling},
		{"polling", ModePolling},
		{"PUSH", ModePolling},
		{"push ", ModePolling},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseMode(tt.arg), "arg %q", tt.arg)
	}
}
