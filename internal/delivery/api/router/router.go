// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"credgate/config"
	"credgate/internal/delivery/api/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler *handler.AuthHandler
	Config      *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler *handler.AuthHandler
	config      *config.Config
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler: params.AuthHandler,
		config:      params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/", handler.Index)
	e.GET("/health", handler.HealthCheck)

	e.POST("/register", r.authHandler.Register)
	e.POST("/signin", r.authHandler.SignIn)

	// Enumerates every account, so it stays off unless configured.
	if r.config.HTTP.ExposeUserList {
		e.GET("/users", r.authHandler.ListUsers)
	}
}
