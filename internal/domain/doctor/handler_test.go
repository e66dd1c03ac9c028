package doctor

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

func newUUID() uuid.UUID { return uuid.New() }

func injectIdentity(identity auth.Identity) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.SetRequest(c.Request().WithContext(auth.WithIdentity(c.Request().Context(), identity)))
			return next(c)
		}
	}
}

func newTestServer(identity auth.Identity) (*echo.Echo, *Service) {
	svc, _, _, _ := newTestService()
	e := echo.New()
	e.HTTPErrorHandler = httperr.ErrorHandler(zerolog.Nop())
	NewHandler(svc).RegisterPublicRoutes(e.Group("/api"))
	NewHandler(svc).RegisterRoutes(e.Group("/api", injectIdentity(identity)))
	return e, svc
}

func TestHandlerPublicList_NoAuthRequired(t *testing.T) {
	svc, _, _, _ := newTestService()
	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatal(err)
	}

	e := echo.New()
	NewHandler(svc).RegisterPublicRoutes(e.Group("/api"))

	req := httptest.NewRequest(http.MethodGet, "/api/doctors", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerSpecializations(t *testing.T) {
	svc, _, _, _ := newTestService()
	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatal(err)
	}

	e := echo.New()
	NewHandler(svc).RegisterPublicRoutes(e.Group("/api"))

	req := httptest.NewRequest(http.MethodGet, "/api/doctors/specializations", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Specializations []string `json:"specializations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Specializations) != 1 || resp.Specializations[0] != "Cardiology" {
		t.Errorf("unexpected specializations: %v", resp.Specializations)
	}
}

func TestHandlerCreate_AdminOnly(t *testing.T) {
	e, _ := newTestServer(doctorIdentity(newUUID()))

	body := `{"email":"new@example.com","password":"s3cret-pass","first_name":"A","last_name":"B","specialization":"Dermatology"}`
	req := httptest.NewRequest(http.MethodPost, "/api/doctors", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestHandlerGet_DoctorSelfOnly(t *testing.T) {
	svc, _, _, _ := newTestService()
	id, _ := svc.Create(context.Background(), validInput())

	e := echo.New()
	e.HTTPErrorHandler = httperr.ErrorHandler(zerolog.Nop())
	NewHandler(svc).RegisterRoutes(e.Group("/api", injectIdentity(doctorIdentity(id))))

	req := httptest.NewRequest(http.MethodGet, "/api/doctors/"+id.String(), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("self get status = %d, body %s", rec.Code, rec.Body.String())
	}

	other := newUUID()
	e2 := echo.New()
	e2.HTTPErrorHandler = httperr.ErrorHandler(zerolog.Nop())
	NewHandler(svc).RegisterRoutes(e2.Group("/api", injectIdentity(doctorIdentity(other))))

	rec = httptest.NewRecorder()
	e2.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/doctors/"+id.String(), nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("other-doctor get status = %d, want 403", rec.Code)
	}
}

type stubResolver struct {
	identity auth.Identity
}

func (s stubResolver) Resolve(ctx context.Context, token string) (auth.Identity, error) {
	if token != "good-token" {
		return auth.Identity{}, httperr.Auth("invalid or expired token")
	}
	return s.identity, nil
}

func TestHandlerComposedRouting_PublicListNotShadowed(t *testing.T) {
	svc, _, _, _ := newTestService()
	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatal(err)
	}

	// Both groups share the /api prefix, exactly as the server mounts
	// them. A second registration of the same method and path would
	// silently replace the first in the router, so the anonymous
	// listing must stay reachable alongside the admin surface.
	e := echo.New()
	e.HTTPErrorHandler = httperr.ErrorHandler(zerolog.Nop())
	h := NewHandler(svc)
	h.RegisterPublicRoutes(e.Group("/api"))
	h.RegisterRoutes(e.Group("/api", auth.Middleware(stubResolver{identity: admin()})))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/doctors", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous listing status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/doctors/roster", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous roster status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/doctors/roster", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good-token")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin roster status = %d, body %s", rec.Code, rec.Body.String())
	}
}
