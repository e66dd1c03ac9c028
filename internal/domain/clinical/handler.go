package clinical

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
	dg := api.Group("/diagnoses")
	dg.GET("", h.ListAllDiagnoses, auth.RequireRole(auth.RoleAdmin))
	dg.GET("/appointment/:id", h.ListDiagnosesByAppointment)
	dg.GET("/patient/:id", h.ListDiagnosesForPatient, auth.RequireRole(auth.RolePatient, auth.RoleAdmin))
	dg.POST("", h.AddDiagnosis, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	dg.PUT("/:id", h.UpdateDiagnosis, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	dg.DELETE("/:id", h.DeleteDiagnosis, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))

	pg := api.Group("/prescriptions")
	pg.GET("", h.ListAllPrescriptions, auth.RequireRole(auth.RoleAdmin))
	pg.GET("/appointment/:id", h.ListPrescriptionsByAppointment)
	pg.GET("/patient/:id", h.ListPrescriptionsForPatient, auth.RequireRole(auth.RolePatient, auth.RoleAdmin))
	pg.POST("", h.AddPrescription, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	pg.PUT("/:id", h.UpdatePrescription, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	pg.DELETE("/:id", h.DeletePrescription, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))

	api.POST("/appointments/:id/complete", h.CompleteConsultation, auth.RequireRole(auth.RoleDoctor))
}

type diagnosisRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Description   string    `json:"diagnosis_description"`
	Notes         string    `json:"notes"`
}

func (h *Handler) AddDiagnosis(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	var req diagnosisRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid request body")
	}
	if req.AppointmentID == uuid.Nil {
		return httperr.Validation("appointment_id is required")
	}
	d, err := h.svc.AddDiagnosis(c.Request().Context(), identity, req.AppointmentID,
		DiagnosisInput{Description: req.Description, Notes: req.Notes})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

type prescriptionRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Medication    string    `json:"medication_name"`
	Dosage        string    `json:"dosage"`
	Duration      string    `json:"duration"`
	Instructions  string    `json:"instructions"`
}

func (h *Handler) AddPrescription(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	var req prescriptionRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid request body")
	}
	if req.AppointmentID == uuid.Nil {
		return httperr.Validation("appointment_id is required")
	}
	p, err := h.svc.AddPrescription(c.Request().Context(), identity, req.AppointmentID, PrescriptionInput{
		Medication:   req.Medication,
		Dosage:       req.Dosage,
		Duration:     req.Duration,
		Instructions: req.Instructions,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListDiagnosesByAppointment(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid appointment id")
	}
	items, err := h.svc.ListDiagnosesByAppointment(c.Request().Context(), identity, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"diagnoses": items})
}

func (h *Handler) ListPrescriptionsByAppointment(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid appointment id")
	}
	items, err := h.svc.ListPrescriptionsByAppointment(c.Request().Context(), identity, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"prescriptions": items})
}

func (h *Handler) ListDiagnosesForPatient(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid patient id")
	}
	items, err := h.svc.ListDiagnosesForPatient(c.Request().Context(), identity, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"diagnoses": items})
}

func (h *Handler) ListPrescriptionsForPatient(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid patient id")
	}
	items, err := h.svc.ListPrescriptionsForPatient(c.Request().Context(), identity, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"prescriptions": items})
}

func (h *Handler) ListAllDiagnoses(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAllDiagnoses(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListAllPrescriptions(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAllPrescriptions(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type updateDiagnosisRequest struct {
	Description *string `json:"diagnosis_description"`
	Notes       *string `json:"notes"`
}

func (h *Handler) UpdateDiagnosis(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid diagnosis id")
	}
	var req updateDiagnosisRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid request body")
	}
	patch := DiagnosisPatch{Description: req.Description, Notes: req.Notes}
	if err := h.svc.UpdateDiagnosis(c.Request().Context(), identity, id, patch); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteDiagnosis(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid diagnosis id")
	}
	if err := h.svc.DeleteDiagnosis(c.Request().Context(), identity, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type updatePrescriptionRequest struct {
	Medication   *string `json:"medication_name"`
	Dosage       *string `json:"dosage"`
	Duration     *string `json:"duration"`
	Instructions *string `json:"instructions"`
}

func (h *Handler) UpdatePrescription(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid prescription id")
	}
	var req updatePrescriptionRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid request body")
	}
	patch := PrescriptionPatch{
		Medication:   req.Medication,
		Dosage:       req.Dosage,
		Duration:     req.Duration,
		Instructions: req.Instructions,
	}
	if err := h.svc.UpdatePrescription(c.Request().Context(), identity, id, patch); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeletePrescription(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid prescription id")
	}
	if err := h.svc.DeletePrescription(c.Request().Context(), identity, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type completeRequest struct {
	Diagnosis     diagnosisBody      `json:"diagnosis"`
	Prescriptions []prescriptionBody `json:"prescriptions"`
}

type diagnosisBody struct {
	Description string `json:"diagnosis_description"`
	Notes       string `json:"notes"`
}

type prescriptionBody struct {
	Medication   string `json:"medication_name"`
	Dosage       string `json:"dosage"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions"`
}

func (h *Handler) CompleteConsultation(c echo.Context) error {
	identity, err := auth.MustIdentity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid appointment id")
	}
	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid request body")
	}

	diag := DiagnosisInput{Description: req.Diagnosis.Description, Notes: req.Diagnosis.Notes}
	scripts := make([]PrescriptionInput, 0, len(req.Prescriptions))
	for _, p := range req.Prescriptions {
		scripts = append(scripts, PrescriptionInput{
			Medication:   p.Medication,
			Dosage:       p.Dosage,
			Duration:     p.Duration,
			Instructions: p.Instructions,
		})
	}
	if err := h.svc.CompleteConsultation(c.Request().Context(), identity, id, diag, scripts); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "Completed"})
}
