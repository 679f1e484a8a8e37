package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"yaml", FormatYAML},
		{"YML", FormatYAML},
		{"json", FormatJSON},
		{"table", FormatTable},
		{"", FormatTable},
		{"xml", FormatTable},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFormat(tt.in))
		})
	}
}

func TestFormatIsValid(t *testing.T) {
	for _, f := range ValidFormats() {
		assert.True(t, Format(f).IsValid(), f)
	}
	assert.False(t, Format("dir").IsValid())
}
