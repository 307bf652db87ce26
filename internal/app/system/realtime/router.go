// internal/app/system/realtime/router.go
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"github.com/dalemusser/stratacrm/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Reply codes.
const (
	CodeValidation   = "validation"
	CodeNotFound     = "not_found"
	CodeForbidden    = "forbidden"
	CodeInternal     = "internal"
	CodeBadRequest   = "bad_request"
	CodeUnknownEvent = "unknown_event"
	CodeTimeout      = "timeout"
	CodeRateLimited  = "rate_limited"
)

// ErrBadPayload wraps a message body that could not be decoded.
var ErrBadPayload = errors.New("bad payload")

// Message is an inbound event.
type Message struct {
	Event     string          `json:"event"`
	RequestID string          `json:"requestId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Reply is the body of every response. Done is always present.
// RetryAfter is set in seconds on rate_limited replies.
type Reply struct {
	Done       bool   `json:"done"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
	Code       string `json:"code,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// retryAfterer is implemented by errors that know when a rejected call
// may be retried.
type retryAfterer interface {
	RetryAfter() time.Duration
}

// Envelope is an outbound frame.
type Envelope struct {
	Event     string `json:"event"`
	RequestID string `json:"requestId,omitempty"`
	Data      any    `json:"data"`
}

// ResponseEvent names the reply event for an inbound event.
func ResponseEvent(event string) string {
	return event + "Response"
}

// HandlerFunc serves one event. The caller's tenant.Info is in ctx.
type HandlerFunc func(ctx context.Context, data json.RawMessage) (any, error)

// Classifier maps a handler error to a reply code.
type Classifier func(error) string

type route struct {
	fn      HandlerFunc
	timeout time.Duration
}

// Router maps event names to handlers.
type Router struct {
	routes   map[string]route
	classify Classifier
	log      *zap.Logger
}

// NewRouter creates an empty router. A nil classifier uses DefaultClassify.
func NewRouter(classify Classifier, log *zap.Logger) *Router {
	if classify == nil {
		classify = DefaultClassify
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{routes: make(map[string]route), classify: classify, log: log}
}

// Handle registers fn for event, bounded by timeout. A later registration
// for the same event replaces the earlier one.
func (rt *Router) Handle(event string, timeout time.Duration, fn HandlerFunc) {
	if timeout <= 0 {
		timeout = timeouts.Medium()
	}
	rt.routes[event] = route{fn: fn, timeout: timeout}
}

// Events lists the registered event names.
func (rt *Router) Events() []string {
	out := make([]string, 0, len(rt.routes))
	for name := range rt.routes {
		out = append(out, name)
	}
	return out
}

// Serve runs the handler for msg and converts the outcome into a Reply.
// A panicking handler yields an internal error reply.
func (rt *Router) Serve(ctx context.Context, info tenant.Info, msg Message) (rep Reply) {
	r, ok := rt.routes[msg.Event]
	if !ok {
		return Reply{Error: fmt.Sprintf("unknown event %q", msg.Event), Code: CodeUnknownEvent}
	}

	defer func() {
		if p := recover(); p != nil {
			rt.log.Error("event handler panicked",
				zap.String("event", msg.Event),
				zap.String("tenant", info.TenantID),
				zap.Any("panic", p),
				zap.Stack("stack"))
			rep = Reply{Error: "internal error", Code: CodeInternal}
		}
	}()

	ctx = tenant.WithInfo(ctx, info)
	ctx, cancel := timeouts.WithTimeout(ctx, r.timeout, rt.log, msg.Event)
	defer cancel()

	data, err := r.fn(ctx, msg.Data)
	if err != nil {
		code := rt.classify(err)
		fields := []zap.Field{
			zap.String("event", msg.Event),
			zap.String("tenant", info.TenantID),
			zap.String("code", code),
			zap.Error(err),
		}
		switch code {
		case CodeValidation, CodeNotFound, CodeBadRequest, CodeForbidden, CodeRateLimited:
			rt.log.Debug("event rejected", fields...)
		default:
			rt.log.Error("event failed", fields...)
		}
		rep = Reply{Error: err.Error(), Code: code}
		var ra retryAfterer
		if errors.As(err, &ra) {
			rep.RetryAfter = int(math.Ceil(ra.RetryAfter().Seconds()))
		}
		return rep
	}
	return Reply{Done: true, Data: data}
}

// DefaultClassify recognises decoding and deadline errors; everything
// else is internal.
func DefaultClassify(err error) string {
	switch {
	case errors.Is(err, ErrBadPayload):
		return CodeBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	default:
		return CodeInternal
	}
}

// Bind decodes data into a T. An absent body yields the zero value.
func Bind[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 || string(data) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return v, nil
}
