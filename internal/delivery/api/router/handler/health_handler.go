package handler

import (
	"net/http"

	"credgate/internal/delivery/api/response"

	"github.com/labstack/echo/v4"
)

// Index greets callers of the service root.
func Index(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"service": "credgate", "message": "Hello from credgate"})
}

// HealthCheck reports liveness.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}
