// Package runid generates the per-invocation correlation id threaded
// through logging and device requests.
package runid

import "github.com/google/uuid"

// New returns a fresh v4 UUID string, suitable both as a zap.Logger
// "run_id" field and as the X-Request-ID header on every device call.
func New() string {
	return uuid.NewString()
}
