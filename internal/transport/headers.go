package transport

import "net/http"

// Hop-by-hop headers that must not be forwarded.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

func stripHopByHop(h http.Header) {
	for _, key := range hopByHopHeaders {
		h.Del(key)
	}
}

func prepareUpstreamHeaders(caller http.Header, apiKey string) http.Header {
	h := make(http.Header)
	copyHeaders(h, caller)
	stripHopByHop(h)

	h.Del("Host")

	// Inject auth if API key provided and no existing auth
	if apiKey != "" && h.Get("Authorization") == "" {
		h.Set("Authorization", "Bearer "+apiKey)
	}

	// Remove accept-encoding: compressed bodies would defeat incremental
	// frame extraction
	h.Del("Accept-Encoding")

	h.Set("Content-Type", "application/json")
	h.Set("Accept", "text/event-stream")
	h.Set("Cache-Control", "no-cache")

	return h
}
