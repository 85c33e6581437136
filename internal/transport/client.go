package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	// ErrTransportUnavailable: the upstream could not be reached or
	// answered with a non-success status before any chunk was delivered.
	ErrTransportUnavailable = errors.New("upstream transport unavailable")

	// ErrStreamUnsupported: the upstream answered, but not with a
	// readable event stream.
	ErrStreamUnsupported = errors.New("upstream response is not an event stream")
)

// StreamRequest is the structured body sent to the upstream stream
// endpoint. The account reference tells the producer which stream to
// start; everything past that boundary is the producer's concern.
type StreamRequest struct {
	AccountID string `json:"account_id"`
	Stream    bool   `json:"stream"`
}

// Client opens long-lived SSE streams against the configured upstream.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			// No timeout — streaming responses can be long-lived
			Timeout: 0,
			// Don't follow redirects
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Open starts one upstream stream and returns its body for incremental
// reads. callerHeaders, if any, are forwarded after sanitizing. The caller
// owns the returned body and must close it. Connection management beyond
// this single request (reconnect, backoff) is out of scope.
func (c *Client) Open(ctx context.Context, req StreamRequest, callerHeaders http.Header) (io.ReadCloser, error) {
	req.Stream = true
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal stream request: %w", err)
	}

	target := streamURL(c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create upstream request: %w", err)
	}
	httpReq.Header = prepareUpstreamHeaders(callerHeaders, c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		log.Error().Err(err).Str("url", target).Msg("upstream request failed")
		return nil, fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: upstream returned %s", ErrTransportUnavailable, resp.Status)
	}
	if !isEventStream(resp) {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: content-type %q", ErrStreamUnsupported, resp.Header.Get("Content-Type"))
	}
	return resp.Body, nil
}

func isEventStream(resp *http.Response) bool {
	return strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream")
}
