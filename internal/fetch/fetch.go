// Package fetch opens pipeline inputs and provides the shared HTTP client.
//
// An input source is either "-" for standard input, an http(s) URL, or a
// local path. Graph exports and embedding tables can be large, so every
// source is read through a size limit.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// MaxInputBytes bounds any single input.
const MaxInputBytes = 512 * 1024 * 1024

// RequestTimeout bounds one HTTP round trip, body included.
const RequestTimeout = 30 * time.Second

// UserAgent identifies outgoing requests.
const UserAgent = "kwcanon/0.1"

// limitedReadCloser fails once more than N bytes have been read.
type limitedReadCloser struct {
	io.ReadCloser
	N      int64
	source string
}

func (l *limitedReadCloser) Read(p []byte) (n int, err error) {
	if l.N <= 0 {
		return 0, fmt.Errorf("input %q exceeds size limit", l.source)
	}
	if int64(len(p)) > l.N {
		p = p[0:l.N]
	}
	n, err = l.ReadCloser.Read(p)
	l.N -= int64(n)
	return
}

// NewHTTPClient returns a client with dial, TLS and header timeouts derived
// from RequestTimeout.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: RequestTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: RequestTimeout / 6,
			}).DialContext,
			TLSHandshakeTimeout:   RequestTimeout / 6,
			ResponseHeaderTimeout: RequestTimeout / 2,
		},
	}
}

var httpClient = NewHTTPClient()

// Open returns a reader for source.
func Open(ctx context.Context, source string) (io.ReadCloser, error) {
	switch {
	case source == "-":
		return &limitedReadCloser{ReadCloser: os.Stdin, N: MaxInputBytes, source: "stdin"}, nil
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		return openURL(ctx, httpClient, source)
	default:
		return openFile(source)
	}
}

func openURL(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %q: %w", url, err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %q: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %q: status %d %s", url, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if size, err := strconv.ParseInt(cl, 10, 64); err == nil && size > MaxInputBytes {
			resp.Body.Close()
			return nil, fmt.Errorf("input %q too large (%d bytes > %d bytes limit)", url, size, MaxInputBytes)
		}
	}

	return &limitedReadCloser{ReadCloser: resp.Body, N: MaxInputBytes, source: url}, nil
}

func openFile(path string) (io.ReadCloser, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access %q: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%q is a directory", path)
	}
	if info.Size() > MaxInputBytes {
		return nil, fmt.Errorf("input %q too large (%d bytes > %d bytes limit)", path, info.Size(), MaxInputBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	return f, nil
}
