package jetbrains

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	DefaultAPIBase = "https://data.services.jetbrains.com"

	maxBodyExcerpt = 512
)

// APIBaseFromEnv returns JBI_API_BASE without a trailing slash, or "" when unset.
func APIBaseFromEnv() string {
	return strings.TrimRight(strings.TrimSpace(os.Getenv("JBI_API_BASE")), "/")
}

// UserAgent is the User-Agent header value sent on every request.
func UserAgent(version string) string {
	return fmt.Sprintf("jbi/%s", version)
}

// Get issues a GET with the jbi user agent. The caller closes the body.
func Get(ctx context.Context, client *http.Client, url, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	return client.Do(req)
}

// MetadataClient returns a client whose whole request is bounded by timeout.
func MetadataClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// TransferClient returns a client for archive downloads. Connection setup and
// response headers are bounded; the body transfer itself is not, since IDE
// archives run to gigabytes.
func TransferClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   15 * time.Second,
			ResponseHeaderTimeout: 60 * time.Second,
		},
	}
}

// StatusError reads a short excerpt of a non-200 body for error messages.
func StatusError(resp *http.Response, url string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyExcerpt))
	excerpt := strings.TrimSpace(string(body))
	if excerpt == "" {
		return errors.Newf("status %d from %s", resp.StatusCode, url)
	}
	return errors.Newf("status %d from %s: %s", resp.StatusCode, url, excerpt)
}
