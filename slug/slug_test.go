package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"simple title", "Hello World", "hello-world"},
		{"already a slug", "hello-world", "hello-world"},
		{"punctuation collapsed", "Go, MongoDB & Gin!", "go-mongodb-gin"},
		{"leading and trailing junk", "  --Hello--  ", "hello"},
		{"underscores", "snake_case_title", "snake-case-title"},
		{"digits kept", "Top 10 Posts of 2026", "top-10-posts-of-2026"},
		{"unicode letters kept", "Café au Lait", "café-au-lait"},
		{"empty", "", ""},
		{"only punctuation", "!!!", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Make(tc.input))
		})
	}
}

func TestMakeIdempotent(t *testing.T) {
	inputs := []string{
		"Hello World",
		"Go, MongoDB & Gin!",
		"Top 10 Posts of 2026",
		strings.Repeat("very long title ", 20),
	}
	for _, in := range inputs {
		once := Make(in)
		assert.Equal(t, once, Make(once), "Make should be idempotent for %q", in)
	}
}

func TestMakeLengthCap(t *testing.T) {
	long := strings.Repeat("abcde ", 40)
	s := Make(long)
	assert.LessOrEqual(t, len([]rune(s)), 80)
	assert.False(t, strings.HasSuffix(s, "-"))
}
