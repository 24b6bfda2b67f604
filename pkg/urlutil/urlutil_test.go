package urlutil_test

import (
	"net/url"
	"testing"

	"github.com/rohmanhakim/record-finder/pkg/urlutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "trailing slash removed", input: "https://shop.example.com/items/", expected: "https://shop.example.com/items"},
		{name: "root slash kept", input: "https://shop.example.com/", expected: "https://shop.example.com/"},
		{name: "fragment and query removed", input: "https://shop.example.com/items?page=2#top", expected: "https://shop.example.com/items"},
		{name: "scheme and host lowercased", input: "HTTPS://Shop.Example.COM/Items", expected: "https://shop.example.com/Items"},
		{name: "default https port dropped", input: "https://shop.example.com:443/a", expected: "https://shop.example.com/a"},
		{name: "default http port dropped", input: "http://shop.example.com:80/a", expected: "http://shop.example.com/a"},
		{name: "custom port kept", input: "https://shop.example.com:8443/a", expected: "https://shop.example.com:8443/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.input)
			require.NoError(t, err)

			once := urlutil.Canonicalize(*u)
			twice := urlutil.Canonicalize(once)

			assert.Equal(t, tt.expected, once.String())
			assert.Equal(t, once.String(), twice.String())
		})
	}
}

func TestCanonicalize_DoesNotMutateInput(t *testing.T) {
	u, err := url.Parse("https://Shop.example.com/a/?q=1")
	require.NoError(t, err)

	_ = urlutil.Canonicalize(*u)

	assert.Equal(t, "https://Shop.example.com/a/?q=1", u.String())
}

func TestResolve(t *testing.T) {
	base, err := url.Parse("https://shop.example.com/catalog/list")
	require.NoError(t, err)

	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "relative path", raw: "item/1", expected: "https://shop.example.com/catalog/item/1"},
		{name: "root relative", raw: "/item/1/", expected: "https://shop.example.com/item/1"},
		{name: "absolute", raw: "https://cdn.example.com/a.png?v=3", expected: "https://cdn.example.com/a.png"},
		{name: "surrounding whitespace", raw: "  /item/2 ", expected: "https://shop.example.com/item/2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := urlutil.Resolve(base, tt.raw)
			require.NotNil(t, resolved)
			assert.Equal(t, tt.expected, resolved.String())
		})
	}
}

func TestResolve_Unusable(t *testing.T) {
	base, err := url.Parse("https://shop.example.com/")
	require.NoError(t, err)

	for _, raw := range []string{"", "   ", "#reviews", "javascript:void(0)", "JavaScript:alert(1)", "http://[::1"} {
		assert.Nil(t, urlutil.Resolve(base, raw), "raw %q", raw)
	}
}

func TestResolve_WithoutBase(t *testing.T) {
	resolved := urlutil.Resolve(nil, "item/1")

	require.NotNil(t, resolved)
	assert.Equal(t, "item/1", resolved.String())
}
