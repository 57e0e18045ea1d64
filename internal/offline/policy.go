package offline

import (
	"net/http"
	"net/url"
	"strings"
)

// Strategy is the caching decision for one intercepted request.
type Strategy int

const (
	// PassThrough forwards the request untouched and never caches.
	PassThrough Strategy = iota
	// NetworkFirst tries the network, caching successes, and falls back
	// to the cached copy when the network fails.
	NetworkFirst
	// CacheFirst serves the cached copy when present and only then goes
	// to the network.
	CacheFirst
)

func (s Strategy) String() string {
	switch s {
	case NetworkFirst:
		return "network_first"
	case CacheFirst:
		return "cache_first"
	default:
		return "pass_through"
	}
}

// Policy classifies intercepted requests into caching strategies. The
// split is by origin: third-party map-provider traffic is network-first
// (tiles and APIs go stale fast), everything first-party is cache-first
// so the app shell works offline.
type Policy struct {
	// ProviderHosts are third-party hosts treated as network-first.
	// Matching includes subdomains.
	ProviderHosts []string
}

// Classify returns the strategy for one request. destination is the
// browser's request destination hint ("document", "script", "image", ...).
func (p Policy) Classify(method, rawURL, destination string) Strategy {
	if method != http.MethodGet {
		return PassThrough
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return PassThrough
	}
	if p.isProviderHost(u.Hostname()) || destination == "script" {
		return NetworkFirst
	}
	return CacheFirst
}

func (p Policy) isProviderHost(host string) bool {
	for _, ph := range p.ProviderHosts {
		if host == ph || strings.HasSuffix(host, "."+ph) {
			return true
		}
	}
	return false
}
