package router

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/accountd/internal/pkg/config"
)

// trustedProxies decides whether forwarding headers may override the peer address.
type trustedProxies []netip.Prefix

func newTrustedProxies(cfg config.Config) trustedProxies {
	if cfg == nil {
		return nil
	}

	return lo.FilterMap(cfg.GetArray("app.server.trusted_proxies"), func(s string, _ int) (netip.Prefix, bool) {
		if !strings.Contains(s, "/") {
			addr, err := netip.ParseAddr(s)
			if err != nil {
				slog.Warn("ignoring invalid trusted proxy", "value", s)
				return netip.Prefix{}, false
			}
			return netip.PrefixFrom(addr, addr.BitLen()), true
		}

		p, err := netip.ParsePrefix(s)
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy", "value", s)
			return netip.Prefix{}, false
		}
		return p.Masked(), true
	})
}

func (t trustedProxies) contains(addr netip.Addr) bool {
	return lo.ContainsBy(t, func(p netip.Prefix) bool { return p.Contains(addr.Unmap()) })
}

func middlewareIP(trusted trustedProxies) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := trusted.clientIP(r); ip.IsValid() {
				r.RemoteAddr = ip.String()
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the peer address, or the first untrusted hop of
// X-Forwarded-For counted from the right when the peer is a trusted proxy.
func (t trustedProxies) clientIP(r *http.Request) netip.Addr {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	if !t.contains(peer) {
		return peer
	}

	if xrip, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xrip
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		if !t.contains(hop) {
			return hop
		}
	}

	return peer
}
