package feedpub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseDomain(t *testing.T) {
	testCases := []struct {
		raw      string
		expected string
	}{
		{"https://www.bbc.co.uk/news/science-123", "bbc.co.uk"},
		{"https://en.wikipedia.org/wiki/Octopus", "wikipedia.org"},
		{"http://Example.COM:8080/path", "example.com"},
		{"https://i.redd.it/abc.jpg", "redd.it"},
	}
	for _, tc := range testCases {
		d, err := BaseDomain(tc.raw)
		assert.NoError(t, err, tc.raw)
		assert.Equal(t, tc.expected, d, tc.raw)
	}

	_, err := BaseDomain("/just/a/path")
	assert.Error(t, err)
	_, err = BaseDomain("https://co.uk/")
	assert.Error(t, err)
}

func TestNormalizeURL(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("https://www.reddit.com/r/x/comments/1/", NormalizeURL("HTTPS://www.Reddit.com/r/x/comments/1/#top"))
	assert.Equal("https://example.com/a?b=2&c=1", NormalizeURL("https://example.com//a?c=1&b=2"))
	assert.Equal("https://example.com/", NormalizeURL("https://example.com:443/"))
}
