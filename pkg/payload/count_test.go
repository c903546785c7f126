package payload

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1234", 1234},
		{"1,234", 1234},
		{"1，234", 1234},
		{"1.2万", 12000},
		{"1.2w", 12000},
		{"3.5W", 35000},
		{"12万", 120000},
		{"-", 0},
		{"—", 0},
		{"点赞", 0},
		{"收藏", 0},
		{"", 0},
		{"  42  ", 42},
		{"3.9", 3},
		{"abc99x", 99},
		{"约1.5亿", 1},
		{"no digits here", 0},
		{"-5", 0},
	}
	for _, c := range cases {
		require.Equal(t, c.want, ParseCount(c.in), "input %q", c.in)
	}
}
