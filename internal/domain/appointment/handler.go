package appointment

import (
	"net/http"
	"time"

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
	g := api.Group("/appointments")

	g.GET("", h.List, auth.RequireRole(auth.RoleAdmin))
	g.POST("", h.Create, auth.RequireRole(auth.RolePatient, auth.RoleAdmin))
	g.GET("/my", h.ListMine, auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
	g.GET("/my/history", h.ListMyHistory, auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
	g.PUT("/:id/status", h.UpdateStatus)
	g.DELETE("/:id", h.Delete, auth.RequireRole(auth.RoleAdmin))
}

type createRequest struct {
	DoctorID  uuid.UUID  `json:"doctor_id"`
	PatientID *uuid.UUID `json:"patient_id"`
	Date      time.Time  `json:"appointment_date"`
	Reason    string     `json:"reason_for_visit"`
}

// Create books for the calling patient, or creates for any pair when
// the caller is an admin.
func (h *Handler) Create(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid request body")
	}
	if req.DoctorID == uuid.Nil {
		return httperr.Validation("doctor_id is required")
	}

	var a *Appointment
	if identity.IsAdmin() {
		if req.PatientID == nil {
			return httperr.Validation("patient_id is required")
		}
		a, err = h.svc.Create(c.Request().Context(), *req.PatientID, req.DoctorID, req.Date, req.Reason)
	} else {
		a, err = h.svc.Book(c.Request().Context(), identity, req.DoctorID, req.Date, req.Reason)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAll(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListMine(c echo.Context) error {
	return h.listMine(c, false)
}

func (h *Handler) ListMyHistory(c echo.Context) error {
	return h.listMine(c, true)
}

func (h *Handler) listMine(c echo.Context, archived bool) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	switch identity.Role {
	case auth.RolePatient:
		if identity.PatientID == nil {
			return httperr.Forbidden("patient credentials required")
		}
		items, err := h.svc.ListForPatient(ctx, identity, *identity.PatientID, archived)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"appointments": items})
	case auth.RoleDoctor:
		if identity.DoctorID == nil {
			return httperr.Forbidden("doctor credentials required")
		}
		items, err := h.svc.ListForDoctor(ctx, identity, *identity.DoctorID, archived)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"appointments": items})
	}
	return httperr.Forbidden("patient or doctor credentials required")
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid appointment id")
	}
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid request body")
	}
	status, ok := ParseStatus(req.Status)
	if !ok {
		return httperr.Validation("unknown status %q", req.Status)
	}
	if err := h.svc.UpdateStatus(c.Request().Context(), identity, id, status); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid appointment id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
