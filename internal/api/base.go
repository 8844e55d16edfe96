// Package api is the HTTP gateway: the single chokepoint for all backend
// calls. It applies the base URL, JSON encoding/decoding and uniform error
// surfacing; bearer-token attachment happens in the client's transport
// wrapper. Every failure crossing this boundary is an *errors.HTTPError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	oerr "github.com/opennow/opennow-go/internal/errors"
)

const maxErrorBody = 4096

// request describes one gateway call.
type request struct {
	Op     string // short operation name used in errors
	Method string
	Path   string
	Query  url.Values
	Body   any  // JSON-serialized when non-nil
	Force  bool // bypass the gateway response cache
}

// roundTrip performs the call and returns the raw response body for 2xx
// replies.
func roundTrip(ctx context.Context, hc *http.Client, baseURL string, r request) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	var payload io.Reader
	if r.Body != nil {
		buf, err := json.Marshal(r.Body)
		if err != nil {
			return nil, "", err
		}
		payload = bytes.NewReader(buf)
	}

	u := strings.TrimRight(baseURL, "/") + r.Path
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, r.Method, u, payload)
	if err != nil {
		return nil, "", err
	}
	if r.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if r.Force {
		httpReq.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, "", oerr.NewTransport(r.Op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, "", oerr.NewHTTP(r.Op, resp.StatusCode, string(b))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", oerr.NewTransport(r.Op, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// call issues the request and decodes a JSON response into out when out is
// non-nil. Non-JSON bodies are ignored unless the caller expects them via
// callRaw.
func call(ctx context.Context, hc *http.Client, baseURL string, r request, out any) error {
	body, ctype, err := roundTrip(ctx, hc, baseURL, r)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if !isJSON(ctype, body) {
		return nil
	}
	return json.Unmarshal(body, out)
}

// callRaw issues the request and returns the raw body bytes. Used by the
// list endpoints whose response shape varies.
func callRaw(ctx context.Context, hc *http.Client, baseURL string, r request) ([]byte, error) {
	body, _, err := roundTrip(ctx, hc, baseURL, r)
	return body, err
}

// isJSON checks the declared content type, falling back to sniffing the
// first byte when the server omits the header.
func isJSON(ctype string, body []byte) bool {
	if ctype != "" {
		if mt, _, err := mime.ParseMediaType(ctype); err == nil {
			if mt == "application/json" || strings.HasSuffix(mt, "+json") {
				return true
			}
			return false
		}
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
