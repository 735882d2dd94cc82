package middleware

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
)

const identityKey = "auth.identity"

// Authenticator resolves a bearer credential to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (domain.Identity, error)
}

// BearerAuth rejects requests without a valid access token and stores the
// caller's identity on the request for downstream handlers.
func BearerAuth(auth Authenticator, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString, ok := extractToken(ctx)
			if !ok {
				unauthorized(ctx)
				return
			}

			identity, err := auth.Authenticate(ctx, tokenString)
			if err != nil {
				logger.Debug("bearer token rejected", zap.Error(err))
				unauthorized(ctx)
				return
			}

			ctx.SetUserValue(identityKey, identity)
			next(ctx)
		}
	}
}

// IdentityFrom returns the identity stored by BearerAuth.
func IdentityFrom(ctx *fasthttp.RequestCtx) (domain.Identity, bool) {
	identity, ok := ctx.UserValue(identityKey).(domain.Identity)
	if !ok || identity.UserID <= 0 {
		return domain.Identity{}, false
	}
	return identity, true
}

func extractToken(ctx *fasthttp.RequestCtx) (string, bool) {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(ctx *fasthttp.RequestCtx) {
	body, _ := json.Marshal(transport.NewError(string(domain.ErrCodeUnauthorized), domain.ErrUnauthorized.Message))
	ctx.Response.Header.Set(fasthttp.HeaderWWWAuthenticate, `Bearer realm="api"`)
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBody(body)
}
