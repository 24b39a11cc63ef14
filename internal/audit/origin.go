package audit

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"github.com/mssola/useragent"
)

// Origin describes where a request came from.
type Origin struct {
	Address   string
	UserAgent string
}

type originKey struct{}

// WithOrigin stores o in ctx for later Record calls.
func WithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, originKey{}, o)
}

// OriginFrom returns the Origin stored by WithOrigin, or the zero value.
func OriginFrom(ctx context.Context) Origin {
	o, _ := ctx.Value(originKey{}).(Origin)
	return o
}

// MaskOrigin reduces an address to its leading part: "a.***.***.***" for
// IPv4 and "first-hextet:****" for IPv6. "ip:port" forms are accepted.
// Anything unparseable, including an empty origin, becomes "***".
func MaskOrigin(origin string) string {
	origin = strings.TrimSpace(origin)

	addr, err := netip.ParseAddr(origin)
	if err != nil {
		ap, perr := netip.ParseAddrPort(origin)
		if perr != nil {
			return "***"
		}
		addr = ap.Addr()
	}
	addr = addr.Unmap()

	if addr.Is4() {
		b := addr.As4()
		return fmt.Sprintf("%d.***.***.***", b[0])
	}
	b := addr.As16()
	return fmt.Sprintf("%x:****", uint16(b[0])<<8|uint16(b[1]))
}

// ClientIdentifier condenses a User-Agent header into "Browser/Version (OS)".
// Bots are prefixed with "bot:". Unknown agents are returned truncated.
func ClientIdentifier(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return ""
	}

	ua := useragent.New(userAgent)
	name, version := ua.Browser()
	if ua.Bot() {
		return "bot:" + name
	}
	if name == "" {
		return truncate(userAgent, 64)
	}

	id := name
	if version != "" {
		id += "/" + version
	}
	if os := ua.OS(); os != "" {
		id += " (" + os + ")"
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
