// Package ssrf restricts outbound HTTP connections to public internet addresses.
//
// Based on https://www.agwa.name/blog/post/preventing_server_side_request_forgery_in_golang
package ssrf

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"
)

// Reserved ranges not covered by the netip.Addr predicates
var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),       // Current network
	netip.MustParsePrefix("100.64.0.0/10"),   // RFC6598
	netip.MustParsePrefix("192.0.0.0/24"),    // RFC6890
	netip.MustParsePrefix("192.0.2.0/24"),    // Test, doc, examples
	netip.MustParsePrefix("192.88.99.0/24"),  // IPv6 to IPv4 relay
	netip.MustParsePrefix("198.18.0.0/15"),   // Benchmarking tests
	netip.MustParsePrefix("198.51.100.0/24"), // Test, doc, examples
	netip.MustParsePrefix("203.0.113.0/24"),  // Test, doc, examples
	netip.MustParsePrefix("240.0.0.0/4"),     // Reserved (includes broadcast)
	netip.MustParsePrefix("2001:db8::/32"),   // IPv6 documentation
}

func IsPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() || addr.IsUnspecified() || addr.IsLoopback() || addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() || addr.IsInterfaceLocalMulticast() || addr.IsMulticast() {
		return false
	}
	for _, p := range reservedPrefixes {
		if p.Contains(addr) {
			return false
		}
	}
	if addr.Is6() {
		// only global unicast (2000::/3)
		return addr.As16()[0]&0xe0 == 0x20
	}
	return true
}

// [net.Dialer] Control function which rejects non-public addresses, and ports other than 80 and 443.
func PublicOnlyControl(network string, address string, conn syscall.RawConn) error {
	if network != "tcp4" && network != "tcp6" {
		return fmt.Errorf("%s is not a safe network type", network)
	}
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%s is not a valid address/port pair: %w", address, err)
	}
	if !IsPublicAddr(ap.Addr()) {
		return fmt.Errorf("%s is not a public IP address", ap.Addr())
	}
	if ap.Port() != 80 && ap.Port() != 443 {
		return fmt.Errorf("%d is not a safe port number", ap.Port())
	}
	return nil
}

// [http.Transport] which only dials public addresses. Other fields are the standard library defaults.
func PublicOnlyTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   PublicOnlyControl,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
