package ssrf

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPublicAddr(t *testing.T) {
	assert := assert.New(t)

	for _, s := range []string{"1.1.1.1", "151.101.1.140", "2606:4700:4700::1111", "::ffff:8.8.8.8"} {
		assert.True(IsPublicAddr(netip.MustParseAddr(s)), s)
	}
	for _, s := range []string{"127.0.0.1", "10.1.2.3", "192.168.0.10", "172.16.5.5", "169.254.169.254", "100.64.0.1", "0.0.0.0", "255.255.255.255", "::1", "fe80::1", "fc00::1", "2001:db8::1", "::ffff:127.0.0.1"} {
		assert.False(IsPublicAddr(netip.MustParseAddr(s)), s)
	}
}

func TestPublicOnlyControl(t *testing.T) {
	assert := assert.New(t)
	assert.NoError(PublicOnlyControl("tcp4", "1.1.1.1:443", nil))
	assert.NoError(PublicOnlyControl("tcp6", "[2606:4700:4700::1111]:80", nil))
	assert.Error(PublicOnlyControl("tcp4", "1.1.1.1:8080", nil))
	assert.Error(PublicOnlyControl("tcp4", "127.0.0.1:443", nil))
	assert.Error(PublicOnlyControl("udp4", "1.1.1.1:443", nil))
	assert.Error(PublicOnlyControl("tcp4", "example.com:443", nil))
}

func TestPublicOnlyTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := http.Client{Transport: PublicOnlyTransport()}
	_, err := c.Get(srv.URL)
	assert.Error(t, err)
}
