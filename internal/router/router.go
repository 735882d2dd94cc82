package router

import (
	"encoding/json"
	"fmt"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler, logger *zap.Logger) *router.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := router.New()
	r.RedirectTrailingSlash = false

	if handlers.Health != nil {
		r.GET("/health", handlers.Health.Check)
	}

	api := r.Group("/api")

	// Public auth routes
	api.POST("/auth/register", handlers.Auth.Register)
	api.POST("/auth/token", handlers.Auth.Login)
	api.POST("/auth/token/refresh", handlers.Auth.Refresh)
	api.POST("/auth/logout", handlers.Auth.Logout)
	api.POST("/auth/password-reset", handlers.Auth.RequestPasswordReset)
	api.POST("/auth/password-reset/confirm/{uid}/{token}", handlers.Auth.ConfirmPasswordReset)

	// Protected routes
	api.GET("/profile", authMiddleware(handlers.Profile.GetProfile))
	api.PUT("/profile", authMiddleware(handlers.Profile.UpdateProfile))

	api.GET("/tasks", authMiddleware(handlers.Task.GetTasks))
	api.POST("/tasks", authMiddleware(handlers.Task.CreateTask))
	api.PUT("/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	api.DELETE("/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))

	r.NotFound = func(ctx *fasthttp.RequestCtx) {
		writeError(ctx, fasthttp.StatusNotFound, domain.ErrCodeNotFound, "Not Found")
	}
	r.MethodNotAllowed = func(ctx *fasthttp.RequestCtx) {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, domain.ErrCodeInvalid, "Method not allowed")
	}
	r.PanicHandler = func(ctx *fasthttp.RequestCtx, recovered interface{}) {
		logger.Error("panic while serving request",
			zap.String("path", string(ctx.Path())),
			zap.String("panic", fmt.Sprint(recovered)))
		writeError(ctx, fasthttp.StatusInternalServerError, domain.ErrCodeInternal, "internal server error")
	}

	return r
}

func writeError(ctx *fasthttp.RequestCtx, status int, code domain.ErrorCode, message string) {
	body, _ := json.Marshal(transport.NewError(string(code), message))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
