package api

import (
	"context"
	"net/http"
)

// The two trigger endpoints kick off expensive server-side scans; callers
// throttle them behind the warmup cooldown.

// CollectDetails triggers detail collection for known places.
func CollectDetails(ctx context.Context, hc *http.Client, baseURL string) error {
	return call(ctx, hc, baseURL, request{
		Op:     "collect details",
		Method: http.MethodPost,
		Path:   "/collect_details/",
		Body:   struct{}{},
	}, nil)
}

// RefreshStatus triggers an open-status refresh for known places.
func RefreshStatus(ctx context.Context, hc *http.Client, baseURL string) error {
	return call(ctx, hc, baseURL, request{
		Op:     "refresh status",
		Method: http.MethodPost,
		Path:   "/refresh_status/",
		Body:   struct{}{},
	}, nil)
}

// FetchStatusLogs fetches the open-status log list. force bypasses the
// gateway response cache so a just-triggered refresh is observed.
func FetchStatusLogs(ctx context.Context, hc *http.Client, baseURL string, force bool) ([]map[string]any, error) {
	body, err := callRaw(ctx, hc, baseURL, request{
		Op:     "fetch status logs",
		Method: http.MethodGet,
		Path:   "/api/open_status_logs/",
		Force:  force,
	})
	if err != nil {
		return nil, err
	}
	return decodeRecords(body)
}
