package mrkdwn

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "bold pair", in: "**hello**", want: "*hello*"},
		{name: "mixed text", in: "plain **bold** _italic_", want: "plain *bold* _italic_"},
		{name: "already mrkdwn", in: "*bold*", want: "*bold*"},
		{name: "unbalanced", in: "**dangling", want: "*dangling"},
		{name: "empty", in: "", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
