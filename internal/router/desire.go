package router

import (
	"github.com/deppfellow/greedy/internal/handler"
	"github.com/labstack/echo/v4"
)

// registerDesireRoutes mounts the desire CRUD endpoints on the /api group.
func registerDesireRoutes(api *echo.Group, h *handler.Handlers) {
	desires := api.Group("/desires")

	desires.GET("", h.Desire.List())
	desires.POST("", h.Desire.Create())
	desires.GET("/:id", h.Desire.Get())
	desires.PUT("/:id", h.Desire.Update())
	desires.DELETE("/:id", h.Desire.Delete())
}
