// Package netguard keeps enrichment lookups away from private/internal
// address space. WHOIS and DNS-backed stages must never probe hosts that
// resolve into RFC1918, loopback, or link-local ranges.
package netguard

import (
	"context"
	"net"
	"time"
)

var blockedCIDRs = func() []*net.IPNet {
	cidrs := []string{
		"127.0.0.0/8",    // loopback
		"10.0.0.0/8",     // RFC1918
		"172.16.0.0/12",  // RFC1918 / Docker bridge networks
		"192.168.0.0/16", // RFC1918
		"169.254.0.0/16", // link-local / cloud metadata
		"0.0.0.0/8",      // unspecified
		"::1/128",        // IPv6 loopback
		"fe80::/10",      // IPv6 link-local
		"fc00::/7",       // IPv6 unique local
	}
	var nets []*net.IPNet
	for _, c := range cidrs {
		_, ipNet, _ := net.ParseCIDR(c)
		nets = append(nets, ipNet)
	}
	return nets
}()

// IsBlocked returns true if the IP falls within a private/internal range.
func IsBlocked(ip net.IP) bool {
	for _, cidr := range blockedCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// HostIsInternal reports whether host is an IP literal in a blocked range,
// or a name that resolves only into blocked ranges. Resolution failures are
// treated as internal: an unresolvable host is not worth enriching.
func HostIsInternal(ctx context.Context, host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return IsBlocked(ip)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil || len(addrs) == 0 {
		return true
	}
	for _, a := range addrs {
		if !IsBlocked(a.IP) {
			return false
		}
	}
	return true
}
