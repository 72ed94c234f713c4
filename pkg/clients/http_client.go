package clients

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	timeout     = time.Second * 15
	maxBodySize = 1 << 20
	userAgent   = "cryptocheckout/1.0"
)

var (
	ErrFailedCloseResponseBody = errors.New("failed close response body")
	ErrResponseTooLarge        = errors.Newf("response body exceeds %d bytes", maxBodySize)
)

type HTTPClientI interface {
	Do(req *http.Request) (*http.Response, error)
	Get(ctx context.Context, url string, headers http.Header) (statusCode int, respBody []byte, respHeaders http.Header, err error)
}

type HTTPClientAdapter struct {
	client *http.Client
}

func (h *HTTPClientAdapter) Do(req *http.Request) (*http.Response, error) {
	return h.client.Do(req)
}

// Get issues a JSON GET and reads at most maxBodySize bytes of the answer.
func (h *HTTPClientAdapter) Get(ctx context.Context, url string, headers http.Header) (statusCode int, respBody []byte, respHeaders http.Header, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, nil, nil, errors.Wrap(err, "build request")
	}

	if headers != nil {
		req.Header = headers.Clone()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	resp, err := h.client.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}

	defer func() {
		if e := resp.Body.Close(); e != nil {
			err = errors.CombineErrors(err, ErrFailedCloseResponseBody)
		}
	}()

	respBody, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return 0, nil, nil, errors.Wrap(err, "read response")
	}
	if len(respBody) > maxBodySize {
		return resp.StatusCode, nil, resp.Header, ErrResponseTooLarge
	}

	return resp.StatusCode, respBody, resp.Header, nil
}

// HTTPClient is the outbound client used by the rate providers.
type HTTPClient struct {
	client HTTPClientI
}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		client: &HTTPClientAdapter{
			client: &http.Client{Timeout: timeout},
		},
	}
}

func (h *HTTPClient) Get(ctx context.Context, url string, headers http.Header) (statusCode int, respBody []byte, respHeaders http.Header, err error) {
	return h.client.Get(ctx, url, headers)
}

func (h *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	return h.client.Do(req)
}

func (h *HTTPClient) SetClient(mock HTTPClientI) {
	h.client = mock
}
