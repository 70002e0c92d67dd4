package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAngle(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		want  int
		valid bool
	}{
		{"plain", "266", 266, true},
		{"zero", "0", 0, true},
		{"trailing newline", "352\n", 352, true},
		{"surrounding spaces", "  6 ", 6, true},
		{"out of range stays parseable", "400", 400, true},
		{"empty", "", 0, false},
		{"whitespace", " \n", 0, false},
		{"negative", "-1", 0, false},
		{"non numeric", "north", 0, false},
		{"float", "12.5", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseAngle([]byte(tc.raw))
			assert.Equal(t, tc.valid, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatAngle(t *testing.T) {
	assert.Equal(t, "86", string(FormatAngle(86)))
	got, ok := ParseAngle(FormatAngle(359))
	assert.True(t, ok)
	assert.Equal(t, 359, got)
}
