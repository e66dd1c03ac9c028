package appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/httperr"
)

func injectIdentity(identity auth.Identity) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.SetRequest(c.Request().WithContext(auth.WithIdentity(c.Request().Context(), identity)))
			return next(c)
		}
	}
}

func serve(svc *Service, identity auth.Identity, req *http.Request) *httptest.ResponseRecorder {
	e := echo.New()
	e.HTTPErrorHandler = httperr.ErrorHandler(zerolog.Nop())
	NewHandler(svc).RegisterRoutes(e.Group("/api", injectIdentity(identity)))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandlerBook(t *testing.T) {
	svc, repo := newTestService()
	pid := uuid.New()

	body := `{"doctor_id":"` + uuid.New().String() + `","appointment_date":"2025-06-02T10:00:00Z","reason_for_visit":"checkup"}`
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := serve(svc, patientIdentity(pid), req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var a Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.PatientID != pid {
		t.Errorf("booked for %v, want caller %v", a.PatientID, pid)
	}
	if _, ok := repo.appts[a.ID]; !ok {
		t.Error("appointment not stored")
	}
}

func TestHandlerAdminCreate_RequiresPatientID(t *testing.T) {
	svc, _ := newTestService()

	body := `{"doctor_id":"` + uuid.New().String() + `","appointment_date":"2025-06-02T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := serve(svc, admin(), req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerUpdateStatus_UnknownStatus(t *testing.T) {
	svc, _ := newTestService()
	a, _ := svc.Book(context.Background(), patientIdentity(uuid.New()), uuid.New(), when, "")

	req := httptest.NewRequest(http.MethodPut, "/api/appointments/"+a.ID.String()+"/status",
		strings.NewReader(`{"status":"Done"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := serve(svc, admin(), req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerListMine_Doctor(t *testing.T) {
	svc, _ := newTestService()
	did := uuid.New()
	if _, err := svc.Book(context.Background(), patientIdentity(uuid.New()), did, when, ""); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/appointments/my", nil)
	rec := serve(svc, doctorIdentity(did), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Appointments []*WithPatient `json:"appointments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Appointments) != 1 {
		t.Errorf("expected 1 appointment, got %d", len(resp.Appointments))
	}
}

func TestHandlerDelete_AdminOnly(t *testing.T) {
	svc, _ := newTestService()
	a, _ := svc.Book(context.Background(), patientIdentity(uuid.New()), uuid.New(), when, "")

	req := httptest.NewRequest(http.MethodDelete, "/api/appointments/"+a.ID.String(), nil)
	rec := serve(svc, doctorIdentity(uuid.New()), req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("doctor delete status = %d, want 403", rec.Code)
	}

	rec = serve(svc, admin(), httptest.NewRequest(http.MethodDelete, "/api/appointments/"+a.ID.String(), nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("admin delete status = %d, want 204", rec.Code)
	}
}
