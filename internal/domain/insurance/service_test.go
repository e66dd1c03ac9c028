package insurance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/httperr"
)

type mockRepo struct {
	records map[uuid.UUID]*Insurance
	// patientID -> insuranceID links; a linked record cannot be deleted
	links map[uuid.UUID]uuid.UUID
}

func newMockRepo() *mockRepo {
	return &mockRepo{records: make(map[uuid.UUID]*Insurance), links: make(map[uuid.UUID]uuid.UUID)}
}

func (m *mockRepo) Create(ctx context.Context, i *Insurance) error {
	i.ID = uuid.New()
	i.CreatedAt = time.Now()
	m.records[i.ID] = i
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Insurance, error) {
	i, ok := m.records[id]
	if !ok {
		return nil, httperr.NotFound("insurance record not found")
	}
	return i, nil
}

func (m *mockRepo) GetForPatient(ctx context.Context, patientID uuid.UUID) (*Insurance, error) {
	insID, ok := m.links[patientID]
	if !ok {
		return nil, httperr.NotFound("no insurance on file")
	}
	return m.records[insID], nil
}

func (m *mockRepo) List(ctx context.Context, limit, offset int) ([]*Insurance, int, error) {
	out := make([]*Insurance, 0, len(m.records))
	for _, i := range m.records {
		out = append(out, i)
	}
	return out, len(out), nil
}

func (m *mockRepo) Update(ctx context.Context, id uuid.UUID, patch Patch) error {
	i, ok := m.records[id]
	if !ok {
		return httperr.NotFound("insurance record not found")
	}
	if patch.Provider != nil {
		i.Provider = *patch.Provider
	}
	if patch.PolicyNumber != nil {
		i.PolicyNumber = *patch.PolicyNumber
	}
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.records[id]; !ok {
		return httperr.NotFound("insurance record not found")
	}
	for _, insID := range m.links {
		if insID == id {
			return httperr.Conflict("insurance record is in use by patients")
		}
	}
	delete(m.records, id)
	return nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo), repo
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.Create(context.Background(), CreateInput{PolicyNumber: "P-1"}); httperr.KindOf(err) != httperr.KindValidation {
		t.Errorf("expected validation error for missing provider, got %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateInput{Provider: "Acme Health"}); httperr.KindOf(err) != httperr.KindValidation {
		t.Errorf("expected validation error for missing policy number, got %v", err)
	}
}

func TestDelete_BlockedWhileReferenced(t *testing.T) {
	svc, repo := newTestService()
	i, err := svc.Create(context.Background(), CreateInput{Provider: "Acme Health", PolicyNumber: "P-1"})
	if err != nil {
		t.Fatal(err)
	}

	patientID := uuid.New()
	repo.links[patientID] = i.ID

	if err := svc.Delete(context.Background(), i.ID); httperr.KindOf(err) != httperr.KindConflict {
		t.Errorf("expected conflict while referenced, got %v", err)
	}

	delete(repo.links, patientID)
	if err := svc.Delete(context.Background(), i.ID); err != nil {
		t.Fatalf("delete after unlink: %v", err)
	}
	if err := svc.Delete(context.Background(), i.ID); httperr.KindOf(err) != httperr.KindNotFound {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestGetOwn_PatientOnly(t *testing.T) {
	svc, repo := newTestService()
	i, err := svc.Create(context.Background(), CreateInput{Provider: "Acme Health", PolicyNumber: "P-1"})
	if err != nil {
		t.Fatal(err)
	}
	patientID := uuid.New()
	repo.links[patientID] = i.ID

	adm := auth.Identity{UserID: uuid.New(), Role: auth.RoleAdmin}
	if _, err := svc.GetOwn(context.Background(), adm); httperr.KindOf(err) != httperr.KindForbidden {
		t.Errorf("expected forbidden for admin, got %v", err)
	}

	identity := auth.Identity{UserID: uuid.New(), Role: auth.RolePatient, PatientID: &patientID}
	got, err := svc.GetOwn(context.Background(), identity)
	if err != nil {
		t.Fatalf("get own: %v", err)
	}
	if got.ID != i.ID {
		t.Errorf("got %v, want %v", got.ID, i.ID)
	}

	unlinked := uuid.New()
	identity = auth.Identity{UserID: uuid.New(), Role: auth.RolePatient, PatientID: &unlinked}
	if _, err := svc.GetOwn(context.Background(), identity); httperr.KindOf(err) != httperr.KindNotFound {
		t.Errorf("expected not found for unlinked patient, got %v", err)
	}
}

func TestUpdate_EmptyPatchRejected(t *testing.T) {
	svc, _ := newTestService()
	i, err := svc.Create(context.Background(), CreateInput{Provider: "Acme Health", PolicyNumber: "P-1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Update(context.Background(), i.ID, Patch{}); httperr.KindOf(err) != httperr.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}
