package patient

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

// injectIdentity stands in for the bearer middleware in handler tests.
func injectIdentity(identity auth.Identity) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.SetRequest(c.Request().WithContext(auth.WithIdentity(c.Request().Context(), identity)))
			return next(c)
		}
	}
}

func newTestServer(identity auth.Identity) (*echo.Echo, *mockRepo) {
	svc, repo, _, _ := newTestService()
	e := echo.New()
	e.HTTPErrorHandler = httperr.ErrorHandler(zerolog.Nop())
	api := e.Group("/api", injectIdentity(identity))
	NewHandler(svc).RegisterRoutes(api)
	return e, repo
}

func TestHandlerCreate_Admin(t *testing.T) {
	e, repo := newTestServer(admin())

	body := `{"email":"jane@example.com","password":"s3cret-pass","first_name":"Jane","last_name":"Doe","date_of_birth":"1990-04-12"}`
	req := httptest.NewRequest(http.MethodPost, "/api/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id, err := uuid.Parse(resp["patient_id"])
	if err != nil {
		t.Fatalf("patient_id: %v", err)
	}
	if _, ok := repo.patients[id]; !ok {
		t.Error("created patient not stored")
	}
}

func TestHandlerCreate_BadDate(t *testing.T) {
	e, _ := newTestServer(admin())

	body := `{"email":"jane@example.com","password":"s3cret-pass","first_name":"Jane","last_name":"Doe","date_of_birth":"12/04/1990"}`
	req := httptest.NewRequest(http.MethodPost, "/api/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerAdminRoutes_ForbiddenForPatient(t *testing.T) {
	pid := uuid.New()
	e, _ := newTestServer(patientIdentity(pid))

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestHandlerGetMe(t *testing.T) {
	svc, repo, _, _ := newTestService()
	id, _ := svc.Create(context.Background(), validInput())

	e := echo.New()
	api := e.Group("/api", injectIdentity(patientIdentity(id)))
	NewHandler(svc).RegisterRoutes(api)

	req := httptest.NewRequest(http.MethodGet, "/api/patients/me", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var p Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.FirstName != repo.patients[id].FirstName {
		t.Errorf("profile name %q, want %q", p.FirstName, repo.patients[id].FirstName)
	}
}

func TestHandlerGet_InvalidID(t *testing.T) {
	e, _ := newTestServer(admin())

	req := httptest.NewRequest(http.MethodGet, "/api/patients/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerLinkInsurance(t *testing.T) {
	svc, repo, _, _ := newTestService()
	id, _ := svc.Create(context.Background(), validInput())

	e := echo.New()
	api := e.Group("/api", injectIdentity(patientIdentity(id)))
	NewHandler(svc).RegisterRoutes(api)

	insID := uuid.New()
	body := `{"insurance_id":"` + insID.String() + `"}`
	req := httptest.NewRequest(http.MethodPut, "/api/patients/me/insurance", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if repo.patients[id].InsuranceID == nil || *repo.patients[id].InsuranceID != insID {
		t.Error("insurance not linked")
	}
}
