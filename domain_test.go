package droute

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in  string
		out string
	}{
		{"", "."},
		{".", "."},
		{"com", "com."},
		{"example.com", "example.com."},
		{"example.com.", "example.com."},
		{"HOST.COM", "host.com."},
		{"Sub.Example.Com.", "sub.example.com."},
		{"bad..name", "bad..name."},
		{"*.example.com", "*.example.com."},
	}
	for _, test := range tests {
		require.Equal(t, test.out, NormalizeDomain(test.in), "input %q", test.in)
	}
}
