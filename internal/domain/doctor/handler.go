package doctor

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

// RegisterPublicRoutes mounts the unauthenticated directory lookups
// used when booking an appointment.
func (h *Handler) RegisterPublicRoutes(public *echo.Group) {
	g := public.Group("/doctors")
	g.GET("", h.List)
	g.GET("/specializations", h.Specializations)
	g.GET("/specialization/:name", h.ListBySpecialization)
}

// RegisterRoutes mounts the admin and self-service routes under the
// authenticated API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/doctors")

	g.PUT("/me", h.UpdateMe, auth.RequireRole(auth.RoleDoctor))
	g.GET("/:id", h.Get, auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor))

	admin := g.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/roster", h.ListWithEmail)
	admin.POST("", h.Create)
	admin.PUT("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)
}

type createRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Specialization string `json:"specialization"`
	PhoneNumber    string `json:"phone_number"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid request body")
	}
	id, err := h.svc.Create(c.Request().Context(), CreateInput{
		Email:          req.Email,
		Password:       req.Password,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Specialization: req.Specialization,
		PhoneNumber:    req.PhoneNumber,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"doctor_id": id})
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListWithEmail(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListWithEmail(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid doctor id")
	}
	if !identity.OwnsDoctor(id) {
		return httperr.Forbidden("not allowed to view this doctor")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Specializations(c echo.Context) error {
	names, err := h.svc.Specializations(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"specializations": names})
}

func (h *Handler) ListBySpecialization(c echo.Context) error {
	items, err := h.svc.ListBySpecialization(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"doctors": items})
}

type updateRequest struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Specialization *string `json:"specialization"`
	PhoneNumber    *string `json:"phone_number"`
	Email          *string `json:"email"`
	Password       *string `json:"password"`
}

func (r updateRequest) patch() Patch {
	return Patch{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Specialization: r.Specialization,
		PhoneNumber:    r.PhoneNumber,
	}
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid doctor id")
	}
	return h.update(c, id)
}

func (h *Handler) UpdateMe(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	if identity.DoctorID == nil {
		return httperr.Forbidden("doctor credentials required")
	}
	return h.update(c, *identity.DoctorID)
}

func (h *Handler) update(c echo.Context, id uuid.UUID) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid request body")
	}
	if err := h.svc.Update(c.Request().Context(), identity, id, req.patch(), req.Email, req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid doctor id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
