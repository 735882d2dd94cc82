package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/taskboard/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyClientIP  Key = "client_ip"
	KeyUserAgent Key = "user_agent"

	headerRequestID    = "X-Request-ID"
	maxRequestIDLength = 128
)

// Adapter converts fasthttp.RequestCtx into a stdlib context with a deadline
// and request metadata. fasthttp recycles RequestCtx, so use cases never see it.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach creates a context bounded by the adapter timeout, tags it with a
// request id (echoed back in the response) and client metadata.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := requestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set(headerRequestID, reqID)

	if ip := ctx.RemoteIP(); ip != nil && !ip.IsUnspecified() {
		stdCtx = context.WithValue(stdCtx, KeyClientIP, ip.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}

	return stdCtx, cancel
}

// requestID reuses a sane inbound X-Request-ID or mints a new one.
func requestID(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek(headerRequestID)))
	if header != "" && len(header) <= maxRequestIDLength && !strings.ContainsAny(header, "\r\n") {
		return header
	}
	return uuid.NewString()
}
