package handler

import (
	"github.com/deppfellow/greedy/internal/server"
	"github.com/deppfellow/greedy/internal/service"
	"github.com/deppfellow/greedy/static"
)

// Handlers groups all HTTP handlers so the router receives a single value.
type Handlers struct {
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
	Desire  *DesireHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s, static.FS),
		Desire:  NewDesireHandler(s, services.Desires),
	}
}
