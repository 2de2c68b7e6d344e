package slug

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"math":              "math",
		"Linear Algebra":    "linear-algebra",
		"  linear-algebra ": "linear-algebra",
		"Ch. 3: Limits!":    "ch-3-limits",
		"":                  "",
		"   ":               "",
		"!!!":               "",
	}
	for in, want := range cases {
		require.Equal(t, want, Make(in), "input %q", in)
	}
}
