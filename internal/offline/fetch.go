package offline

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPFetcher forwards intercepted requests to an origin over HTTP.
// Relative request URLs are resolved against the origin base URL.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher creates a fetcher rooted at baseURL.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	target := req.URL
	if strings.HasPrefix(target, "/") {
		target = f.baseURL + target
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, target, nil)
	if err != nil {
		return nil, err
	}

	hresp, err := f.client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer hresp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(hresp.Body, 16<<20))
	if err != nil {
		return nil, err
	}

	header := make(map[string]string)
	for _, k := range []string{"Content-Type", "Content-Encoding", "Last-Modified"} {
		if v := hresp.Header.Get(k); v != "" {
			header[k] = v
		}
	}
	return &Response{Status: hresp.StatusCode, Header: header, Body: body, FromNet: true}, nil
}
