package validators

import "testing"

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "trims", input: "  vase  ", want: "vase"},
		{name: "collapses whitespace", input: "blue \t glazed   bowl", want: "blue glazed bowl"},
		{name: "caps runes", input: "terracotta", maxLen: 5, want: "terra"},
		{name: "multibyte safe", input: "céramique", maxLen: 3, want: "cér"},
		{name: "no cap", input: "mug", maxLen: 0, want: "mug"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeString(tc.input, tc.maxLen); got != tc.want {
				t.Fatalf("SanitizeString(%q, %d) = %q, want %q", tc.input, tc.maxLen, got, tc.want)
			}
		})
	}
}
