package insurance

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/httperr"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/insurance")

	g.GET("/my-insurance", h.GetMine, auth.RequireRole(auth.RolePatient))

	admin := g.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.GET("", h.List)
	admin.POST("", h.Create)
	admin.GET("/:id", h.Get)
	admin.PUT("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)
}

type createRequest struct {
	Provider        string `json:"insurance_provider"`
	PolicyNumber    string `json:"policy_number"`
	CoverageDetails string `json:"coverage_details"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid request body")
	}
	i, err := h.svc.Create(c.Request().Context(), CreateInput{
		Provider:        req.Provider,
		PolicyNumber:    req.PolicyNumber,
		CoverageDetails: req.CoverageDetails,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, i)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid insurance id")
	}
	i, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, i)
}

type updateRequest struct {
	Provider        *string `json:"insurance_provider"`
	PolicyNumber    *string `json:"policy_number"`
	CoverageDetails *string `json:"coverage_details"`
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid insurance id")
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid request body")
	}
	patch := Patch{Provider: req.Provider, PolicyNumber: req.PolicyNumber, CoverageDetails: req.CoverageDetails}
	if err := h.svc.Update(c.Request().Context(), id, patch); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid insurance id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetMine(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	i, err := h.svc.GetOwn(c.Request().Context(), identity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, i)
}
