package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

var countryHeaderHints = []string{"CF-IPCountry", "X-Country-Code", "X-IP-Country", "X-Appengine-Country"}

const clientInfoKey contextKey = "client_info"

type clientInfo struct {
	ip      string
	country string
}

// ParseTrustedProxies accepts CIDR ranges or bare addresses.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(entries))
	for _, raw := range entries {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// TrustProxies resolves the client address and CDN country once per request.
// X-Forwarded-For and the country headers are only read when the direct peer
// is one of trusted; otherwise the peer address is the client and no country
// hint is taken.
func TrustProxies(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := clientInfo{ip: remoteHost(r)}
			if isTrusted(trusted, info.ip) {
				if ip := forwardedClient(r.Header.Get("X-Forwarded-For"), trusted); ip != "" {
					info.ip = ip
				}
				info.country = headerCountry(r)
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientInfoKey, info)))
		})
	}
}

// ClientIP returns the address resolved by TrustProxies, or the remote host
// when the request did not pass through it.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if info, ok := r.Context().Value(clientInfoKey).(clientInfo); ok {
		return info.ip
	}
	return remoteHost(r)
}

// CountryHint returns the two-letter country a trusted CDN or proxy set.
func CountryHint(r *http.Request) string {
	if r == nil {
		return ""
	}
	if info, ok := r.Context().Value(clientInfoKey).(clientInfo); ok {
		return info.country
	}
	return ""
}

// forwardedClient walks X-Forwarded-For from the nearest hop and returns the
// first address that is not a trusted proxy.
func forwardedClient(xff string, trusted []netip.Prefix) string {
	if xff == "" {
		return ""
	}
	parts := strings.Split(xff, ",")
	last := ""
	for i := len(parts) - 1; i >= 0; i-- {
		ip := strings.TrimSpace(parts[i])
		if net.ParseIP(ip) == nil {
			break
		}
		last = ip
		if !isTrusted(trusted, ip) {
			return ip
		}
	}
	return last
}

// headerCountry ignores the "XX" and "T1" placeholders some CDNs emit.
func headerCountry(r *http.Request) string {
	for _, key := range countryHeaderHints {
		val := strings.ToUpper(strings.TrimSpace(r.Header.Get(key)))
		if len(val) != 2 || val == "XX" || val == "T1" {
			continue
		}
		return val
	}
	return ""
}

func isTrusted(trusted []netip.Prefix, ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return r.RemoteAddr
}
