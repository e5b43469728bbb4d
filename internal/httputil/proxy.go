package httputil

import "strings"

// ProxyPrefix is one entry of the ordered §6 "Proxy list": a URL prefix
// some of which expect `?url=` escaping and some bare concatenation.
type ProxyPrefix struct {
	Name    string
	Prefix  string
	Escaped bool // true => target URL is query-escaped and appended as ?url=
}

// Rewrite produces the proxied URL for target through this proxy.
func (p ProxyPrefix) Rewrite(target string) string {
	if p.Escaped {
		return p.Prefix + "?url=" + urlEscape(target)
	}
	return p.Prefix + target
}

// urlEscape is a tiny, dependency-free query escaper sufficient for the
// proxy-rewrite use case (full URLs as a single query value).
func urlEscape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			const hex = "0123456789ABCDEF"
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xF])
		}
	}
	return b.String()
}

// DefaultProxyOrder is the §4.2 step 3 fallback order when the operator
// hasn't configured one: local-proxy[*] first, then the two well-known
// public CORS relays.
func DefaultProxyOrder(localProxies []string) []ProxyPrefix {
	out := make([]ProxyPrefix, 0, len(localProxies)+2)
	for i, p := range localProxies {
		out = append(out, ProxyPrefix{Name: sprintfLocal(i), Prefix: p, Escaped: false})
	}
	out = append(out,
		ProxyPrefix{Name: "researchverse", Prefix: "https://researchverse-cors.example.org/", Escaped: false},
		ProxyPrefix{Name: "corsproxy", Prefix: "https://corsproxy.io/", Escaped: true},
	)
	return out
}

func sprintfLocal(i int) string {
	const letters = "0123456789"
	if i < len(letters) {
		return "local-proxy[" + string(letters[i]) + "]"
	}
	return "local-proxy[n]"
}
