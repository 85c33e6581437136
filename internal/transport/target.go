package transport

import "net/url"

const streamPath = "/v1/stream"

func streamURL(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		u = &url.URL{Scheme: "http", Host: "localhost"}
	}
	u.Path = streamPath
	return u.String()
}
