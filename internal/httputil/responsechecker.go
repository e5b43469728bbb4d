package httputil

import (
	"fmt"
	"io"
	"slices"
)

// CheckStatus reports whether status is in the acceptable set, returning
// an error built from the first "bytesRead" bytes of body when it is not.
//
// This mirrors the teacher's CheckResponse helper, generalized to work
// against an already-decoded *Response rather than an *http.Response.
func CheckStatus(status int, url string, body io.Reader, acceptable ...int) error {
	if slices.Contains(acceptable, status) {
		return nil
	}
	snippet, err := io.ReadAll(io.LimitReader(body, 256))
	if err == nil {
		return fmt.Errorf("unexpected status code: %d for %q (body starts: %q)", status, url, snippet)
	}
	return fmt.Errorf("unexpected status code: %d for %q", status, url)
}
