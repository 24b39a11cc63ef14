// Package netx contains small helpers for deriving the network origin of
// a caller from proxy headers and transport peer addresses.
package netx

import (
	"net"
	"strings"
)

// ClientOrigin picks the most trustworthy client address available.
//
// Lookup order:
//  1. The first address of an X-Forwarded-For style value ("client, proxy1, ...").
//  2. The transport peer address with its port stripped ("10.0.0.1:5555",
//     "[::1]:5555").
//
// An empty string is returned when neither source yields an address.
func ClientOrigin(forwardedFor, peerAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return StripPort(peerAddr)
}

// StripPort removes a trailing ":port" from addr. Addresses without a port
// are returned unchanged.
func StripPort(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
