package api

import "context"

// publishJSON publishes a lifecycle event without blocking the request path.
// Delivery is best-effort: a missing bus or a publish failure never fails
// the HTTP response.
func (a *API) publishJSON(ctx context.Context, subject string, payload map[string]any) {
	if a.bus == nil || subject == "" {
		return
	}
	_ = a.bus.Publish(ctx, subject, payload)
}
