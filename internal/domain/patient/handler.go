package patient

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/httperr"
	"github.com/clinic/clinic/pkg/pagination"
)

const dateLayout = "2006-01-02"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the patient registry under the authenticated
// API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/patients")

	me := g.Group("/me", auth.RequireRole(auth.RolePatient))
	me.GET("", h.GetMe)
	me.PUT("", h.UpdateMe)
	me.PUT("/insurance", h.LinkInsurance)

	admin := g.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.GET("", h.List)
	admin.POST("", h.Create)
	admin.GET("/:id", h.Get)
	admin.PUT("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)
}

type createRequest struct {
	Email                 string     `json:"email"`
	Password              string     `json:"password"`
	FirstName             string     `json:"first_name"`
	LastName              string     `json:"last_name"`
	DateOfBirth           string     `json:"date_of_birth"`
	PhoneNumber           string     `json:"phone_number"`
	Address               string     `json:"address"`
	EmergencyContactName  string     `json:"emergency_contact_name"`
	EmergencyContactPhone string     `json:"emergency_contact_phone"`
	InsuranceID           *uuid.UUID `json:"insurance_id"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid request body")
	}
	dob, err := time.Parse(dateLayout, req.DateOfBirth)
	if err != nil {
		return httperr.Validation("date_of_birth must be YYYY-MM-DD")
	}

	id, err := h.svc.Create(c.Request().Context(), CreateInput{
		Email:                 req.Email,
		Password:              req.Password,
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		DateOfBirth:           dob,
		PhoneNumber:           req.PhoneNumber,
		Address:               req.Address,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
		InsuranceID:           req.InsuranceID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"patient_id": id})
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
		return httperr.Validation("invalid patient id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

type updateRequest struct {
	FirstName             *string    `json:"first_name"`
	LastName              *string    `json:"last_name"`
	DateOfBirth           *string    `json:"date_of_birth"`
	PhoneNumber           *string    `json:"phone_number"`
	Address               *string    `json:"address"`
	EmergencyContactName  *string    `json:"emergency_contact_name"`
	EmergencyContactPhone *string    `json:"emergency_contact_phone"`
	InsuranceID           *uuid.UUID `json:"insurance_id"`
	Email                 *string    `json:"email"`
	Password              *string    `json:"password"`
}

func (r updateRequest) patch() (Patch, error) {
	p := Patch{
		FirstName:             r.FirstName,
		LastName:              r.LastName,
		PhoneNumber:           r.PhoneNumber,
		Address:               r.Address,
		EmergencyContactName:  r.EmergencyContactName,
		EmergencyContactPhone: r.EmergencyContactPhone,
		InsuranceID:           r.InsuranceID,
	}
	if r.DateOfBirth != nil {
		dob, err := time.Parse(dateLayout, *r.DateOfBirth)
		if err != nil {
			return Patch{}, httperr.Validation("date_of_birth must be YYYY-MM-DD")
		}
		p.DateOfBirth = &dob
	}
	return p, nil
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid patient id")
	}
	return h.update(c, id)
}

func (h *Handler) UpdateMe(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	if identity.PatientID == nil {
		return httperr.Forbidden("patient credentials required")
	}
	return h.update(c, *identity.PatientID)
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
	patch, err := req.patch()
	if err != nil {
		return err
	}
	if err := h.svc.Update(c.Request().Context(), identity, id, patch, req.Email, req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid patient id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetMe(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	profile, err := h.svc.GetOwnProfile(c.Request().Context(), identity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

type linkInsuranceRequest struct {
	InsuranceID uuid.UUID `json:"insurance_id"`
}

func (h *Handler) LinkInsurance(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	var req linkInsuranceRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid request body")
	}
	if req.InsuranceID == uuid.Nil {
		return httperr.Validation("insurance_id is required")
	}
	if err := h.svc.LinkInsurance(c.Request().Context(), identity, req.InsuranceID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
