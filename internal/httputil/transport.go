// Package httputil implements the HTTP Transport component (§4.1): raw
// request execution, range requests, and the error
// taxonomy that the Fetch Orchestrator reacts to.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hydrofetch/hydrofetch"
)

// DefaultTimeout is the per-request deadline of §4.1.
const DefaultTimeout = 60 * time.Second

// Response is the uniform shape every Transport call returns.
type Response struct {
	Status  int
	Headers http.Header
	Body    io.ReadCloser
}

// Range is an inclusive byte range for a Range: bytes=start-end request.
type Range struct {
	Start, End int64
}

// Transport executes GET/HEAD requests with an optional byte range and
// classifies failures into the §7 transport taxonomy.
type Transport struct {
	Client  *http.Client
	Timeout time.Duration
}

// New returns a Transport with sensible defaults; a nil client gets a
// fresh *http.Client.
func New(client *http.Client) *Transport {
	if client == nil {
		client = &http.Client{}
	}
	return &Transport{Client: client, Timeout: DefaultTimeout}
}

// Get issues a GET, optionally with a byte range.
func (t *Transport) Get(ctx context.Context, url string, headers http.Header, rng *Range) (*Response, error) {
	return t.do(ctx, http.MethodGet, url, headers, rng)
}

// Head issues a HEAD request, primarily used as the §4.3 size probe.
func (t *Transport) Head(ctx context.Context, url string, headers http.Header) (*Response, error) {
	return t.do(ctx, http.MethodHead, url, headers, nil)
}

func (t *Transport) do(ctx context.Context, method, url string, headers http.Header, rng *Range) (*Response, error) {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		cancel()
		return nil, &hydrofetch.Error{Op: "httputil.Transport.do", Kind: hydrofetch.ErrTransportError, URL: url, Inner: err}
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if rng != nil {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", rng.Start, rng.End))
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		cancel()
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &hydrofetch.Error{Op: "httputil.Transport.do", Kind: hydrofetch.ErrTimeout, URL: url, Inner: err}
		}
		if ctx.Err() == context.Canceled {
			return nil, &hydrofetch.Error{Op: "httputil.Transport.do", Kind: hydrofetch.ErrCancelled, URL: url, Inner: err}
		}
		if ne, ok := err.(net.Error); ok {
			return nil, &hydrofetch.Error{Op: "httputil.Transport.do", Kind: hydrofetch.ErrTransportError, URL: url, Inner: ne}
		}
		return nil, &hydrofetch.Error{Op: "httputil.Transport.do", Kind: hydrofetch.ErrTransportError, URL: url, Inner: err}
	}

	body := &cancelBody{ReadCloser: resp.Body, cancel: cancel}

	switch {
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		body.Close()
		return nil, hydrofetch.EndOfResource
	case resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusPartialContent:
		return &Response{Status: resp.StatusCode, Headers: resp.Header, Body: body}, nil
	case resp.StatusCode == http.StatusNotFound:
		body.Close()
		return nil, &hydrofetch.Error{Op: "httputil.Transport.do", Kind: hydrofetch.ErrNotFound, URL: url,
			Message: "data for the requested timestamp may not yet be published, or has aged out of retention"}
	case resp.StatusCode == http.StatusForbidden:
		body.Close()
		return nil, &hydrofetch.Error{Op: "httputil.Transport.do", Kind: hydrofetch.ErrForbidden, URL: url}
	case resp.StatusCode == http.StatusTooManyRequests:
		body.Close()
		return nil, &hydrofetch.Error{Op: "httputil.Transport.do", Kind: hydrofetch.ErrRateLimited, URL: url}
	case resp.StatusCode >= 400:
		msg := readSnippet(resp.Body)
		body.Close()
		return nil, &hydrofetch.Error{Op: "httputil.Transport.do", Kind: hydrofetch.ErrTransportError, URL: url,
			Message: fmt.Sprintf("unexpected status %d (body starts: %q)", resp.StatusCode, msg)}
	default:
		return &Response{Status: resp.StatusCode, Headers: resp.Header, Body: body}, nil
	}
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return string(b)
}

// cancelBody releases the per-request context cancel func when the body
// is closed, so aborting the read (cancellation) frees the socket at the
// next yield point (§5 Cancellation).
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close()
}
