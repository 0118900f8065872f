package handler

import (
	"net/http"

	"github.com/deppfellow/greedy/internal/model/desire"
	"github.com/deppfellow/greedy/internal/server"
	"github.com/deppfellow/greedy/internal/service"
	"github.com/labstack/echo/v4"
)

// DesireHandler serves the /api/desires resource.
type DesireHandler struct {
	Handler
	desires *service.DesireService
}

func NewDesireHandler(s *server.Server, desires *service.DesireService) *DesireHandler {
	return &DesireHandler{
		Handler: NewHandler(s),
		desires: desires,
	}
}

// ListPayload is the (empty) input of GET /api/desires.
type ListPayload struct{}

func (p *ListPayload) Validate() error {
	return nil
}

// MessageResponse confirms an operation that has no entity to return.
type MessageResponse struct {
	Message string `json:"message"`
}

func (h *DesireHandler) ListDesires(c echo.Context, _ *ListPayload) ([]desire.Desire, error) {
	return h.desires.List(c.Request().Context())
}

func (h *DesireHandler) GetDesire(c echo.Context, p *desire.IDPayload) (desire.Desire, error) {
	return h.desires.Get(c.Request().Context(), p.ID)
}

func (h *DesireHandler) CreateDesire(c echo.Context, p *desire.CreateDesirePayload) (desire.Desire, error) {
	return h.desires.Create(c.Request().Context(), p)
}

func (h *DesireHandler) UpdateDesire(c echo.Context, p *desire.UpdateDesirePayload) (desire.Desire, error) {
	return h.desires.Update(c.Request().Context(), p)
}

func (h *DesireHandler) DeleteDesire(c echo.Context, p *desire.IDPayload) (MessageResponse, error) {
	if err := h.desires.Delete(c.Request().Context(), p.ID); err != nil {
		return MessageResponse{}, err
	}
	return MessageResponse{Message: "desire deleted"}, nil
}

// List serves GET /api/desires.
func (h *DesireHandler) List() echo.HandlerFunc {
	return Handle(h.Handler, h.ListDesires, http.StatusOK, newPayload[ListPayload])
}

// Get serves GET /api/desires/:id.
func (h *DesireHandler) Get() echo.HandlerFunc {
	return Handle(h.Handler, h.GetDesire, http.StatusOK, newPayload[desire.IDPayload])
}

// Create serves POST /api/desires.
func (h *DesireHandler) Create() echo.HandlerFunc {
	return Handle(h.Handler, h.CreateDesire, http.StatusCreated, newPayload[desire.CreateDesirePayload])
}

// Update serves PUT /api/desires/:id.
func (h *DesireHandler) Update() echo.HandlerFunc {
	return Handle(h.Handler, h.UpdateDesire, http.StatusOK, newPayload[desire.UpdateDesirePayload])
}

// Delete serves DELETE /api/desires/:id.
func (h *DesireHandler) Delete() echo.HandlerFunc {
	return Handle(h.Handler, h.DeleteDesire, http.StatusOK, newPayload[desire.IDPayload])
}
