package posts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":            "hello-world",
		"  Spaces   everywhere ": "spaces-everywhere",
		"Crème brûlée!":          "creme-brulee",
		"Go 1.24 — what's new?":  "go-1-24-what-s-new",
		"---":                    "",
	}
	for input, want := range cases {
		require.Equal(t, want, Slugify(input), "input %q", input)
	}
}
