package reqctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type key int

const requestKey key = 0

// RequestContext identifies one acquisition request across retries and logs.
type RequestContext struct {
	RequestID    string
	Jurisdiction string
	Account      string
	StartTime    time.Time
}

// WithRequestContext attaches a fresh request id for the given parcel lookup.
func WithRequestContext(ctx context.Context, jurisdiction, account string) context.Context {
	return context.WithValue(ctx, requestKey, &RequestContext{
		RequestID:    generateID(),
		Jurisdiction: jurisdiction,
		Account:      account,
		StartTime:    time.Now(),
	})
}

func GetRequestContext(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(requestKey).(*RequestContext); ok {
		return rc
	}
	return &RequestContext{
		RequestID: "unknown",
		StartTime: time.Now(),
	}
}

// Logger returns the global logger enriched with the request fields.
func Logger(ctx context.Context, base zerolog.Logger) zerolog.Logger {
	rc := GetRequestContext(ctx)
	return base.With().
		Str("request_id", rc.RequestID).
		Str("jurisdiction", rc.Jurisdiction).
		Str("account", rc.Account).
		Logger()
}

// Elapsed is the time since the request started.
func (rc *RequestContext) Elapsed() time.Duration {
	return time.Since(rc.StartTime)
}

func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// RequestError wraps an error with request context
type RequestError struct {
	RequestID string
	Err       error
}

// Error implements the error interface
func (e *RequestError) Error() string {
	return fmt.Sprintf("[%s] %v", e.RequestID, e.Err)
}

// Unwrap returns the underlying error
func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError creates a new RequestError from context
func NewRequestError(ctx context.Context, err error) error {
	rc := GetRequestContext(ctx)
	return &RequestError{
		RequestID: rc.RequestID,
		Err:       err,
	}
}
