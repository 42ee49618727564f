// ABOUTME: URL normalization for feed entries prior to deduplication
// ABOUTME: Lower-cases scheme and host, strips tracking params and fragments

package aggregator

import (
	"net/url"
	"strings"
)

// trackingParams are query parameters stripped during normalization. Prefix
// match applies to "utm_".
var trackingParams = map[string]bool{
	"fbclid":      true,
	"gclid":       true,
	"ref":         true,
	"ref_src":     true,
	"mc_cid":      true,
	"mc_eid":      true,
	"igshid":      true,
	"spm":         true,
	"cmpid":       true,
	"ocid":        true,
	"smid":        true,
	"partner":     true,
	"ns_mchannel": true,
}

// NormalizeURL canonicalizes an article URL for dedup: scheme and host
// lower-cased, default port dropped, fragment dropped, tracking query params
// removed, trailing slash trimmed from non-root paths.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Host[:strings.LastIndex(u.Host, ":")]
	}

	if u.RawQuery != "" {
		q := u.Query()
		for param := range q {
			if trackingParams[param] || strings.HasPrefix(strings.ToLower(param), "utm_") {
				q.Del(param)
			}
		}
		u.RawQuery = q.Encode()
	}

	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String()
}

// Domain extracts the bare host from a URL, without a leading "www.".
func Domain(raw string) string {
	u, err := url.Parse(NormalizeURL(raw))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
