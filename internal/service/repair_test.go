package service

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/model"
)

type mockRepairRepo struct {
	requests map[uuid.UUID]*model.RepairRequest
	locks    int
}

func newMockRepairRepo() *mockRepairRepo {
	return &mockRepairRepo{requests: make(map[uuid.UUID]*model.RepairRequest)}
}

func (m *mockRepairRepo) LockTechnician(_ context.Context, _ pgx.Tx, _ uuid.UUID) error {
	m.locks++
	return nil
}

func (m *mockRepairRepo) HasConflict(_ context.Context, _ pgx.Tx, techID uuid.UUID, from, to time.Time) (bool, error) {
	for _, rr := range m.requests {
		if rr.TechnicianID != techID || rr.Status == model.RepairRequestRejected {
			continue
		}
		if rr.AppointmentDate.After(from) && rr.AppointmentDate.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepairRepo) Create(_ context.Context, _ pgx.Tx, rr *model.RepairRequest) error {
	rr.ID = uuid.New()
	cp := *rr
	m.requests[rr.ID] = &cp
	return nil
}

func (m *mockRepairRepo) GetByID(_ context.Context, id uuid.UUID) (*model.RepairRequest, error) {
	rr, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *rr
	return &cp, nil
}

func (m *mockRepairRepo) filter(keep func(*model.RepairRequest) bool) []model.RepairRequest {
	var out []model.RepairRequest
	for _, rr := range m.requests {
		if keep(rr) {
			out = append(out, *rr)
		}
	}
	return out
}

func (m *mockRepairRepo) ListByCustomer(_ context.Context, id uuid.UUID) ([]model.RepairRequest, error) {
	return m.filter(func(rr *model.RepairRequest) bool { return rr.CustomerID == id }), nil
}

func (m *mockRepairRepo) ListByTechnician(_ context.Context, id uuid.UUID) ([]model.RepairRequest, error) {
	return m.filter(func(rr *model.RepairRequest) bool { return rr.TechnicianID == id }), nil
}

func (m *mockRepairRepo) List(_ context.Context) ([]model.RepairRequest, error) {
	return m.filter(func(*model.RepairRequest) bool { return true }), nil
}

func (m *mockRepairRepo) UpdateStatus(_ context.Context, _ pgx.Tx, id uuid.UUID, status model.RepairRequestStatus) error {
	rr, ok := m.requests[id]
	if !ok {
		return pgx.ErrNoRows
	}
	rr.Status = status
	return nil
}

func (m *mockRepairRepo) UpsertRepair(_ context.Context, _ pgx.Tx, r *model.Repair) error {
	r.UpdatedAt = time.Now()
	cp := *r
	m.requests[r.RequestID].Repair = &cp
	return nil
}

type repairFixture struct {
	repairs *mockRepairRepo
	staff   *mockStaffRepo
	svc     *RepairService
	tech    *model.Staff
	loc     *time.Location
}

func newRepairFixture(t *testing.T) *repairFixture {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Colombo")
	require.NoError(t, err)

	f := &repairFixture{repairs: newMockRepairRepo(), staff: newMockStaffRepo(), loc: loc}
	f.tech = f.staff.add("kamal", model.StaffTypeTechnician)
	f.svc = NewRepairService(mockTxm{}, f.repairs, f.staff, RepairRules{
		Location: loc, OpenHour: 9, CloseHour: 17, Slot: time.Hour,
	})
	f.svc.now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, loc) }
	return f
}

func (f *repairFixture) at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, f.loc)
}

func (f *repairFixture) submit(customer uuid.UUID, at time.Time) (*dto.RepairRequestResponse, error) {
	return f.svc.SubmitRequest(context.Background(), customer, dto.SubmitRepairRequest{
		TechnicianID: f.tech.ID, IssueDescription: "cracked screen", DeviceInfo: "Galaxy A15",
		AppointmentDate: &at,
	})
}

func TestRepairService_CheckAvailability_WorkingHours(t *testing.T) {
	f := newRepairFixture(t)

	resp, err := f.svc.CheckAvailability(context.Background(), f.tech.ID.String(), f.at(8, 59))
	require.NoError(t, err)
	assert.False(t, resp.Available)

	resp, err = f.svc.CheckAvailability(context.Background(), f.tech.ID.String(), f.at(17, 0))
	require.NoError(t, err)
	assert.False(t, resp.Available)

	resp, err = f.svc.CheckAvailability(context.Background(), f.tech.ID.String(), f.at(9, 0))
	require.NoError(t, err)
	assert.True(t, resp.Available)

	// 04:00 UTC is 09:30 in Colombo
	resp, err = f.svc.CheckAvailability(context.Background(), f.tech.ID.String(), time.Date(2026, 3, 2, 4, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, resp.Available)

	_, err = f.svc.CheckAvailability(context.Background(), "nope", f.at(10, 0))
	assert.ErrorIs(t, err, ErrInvalidTechnician)
	_, err = f.svc.CheckAvailability(context.Background(), uuid.NewString(), f.at(10, 0))
	assert.ErrorIs(t, err, ErrTechnicianNotFound)
}

func TestRepairService_SubmitRequest_Conflicts(t *testing.T) {
	f := newRepairFixture(t)
	customer := uuid.New()

	first, err := f.submit(customer, f.at(10, 0))
	require.NoError(t, err)
	assert.Equal(t, model.RepairRequestPending, first.Status)
	assert.Equal(t, 1, f.repairs.locks)

	_, err = f.submit(uuid.New(), f.at(10, 30))
	assert.ErrorIs(t, err, ErrTechnicianUnavailable)

	resp, err := f.svc.CheckAvailability(context.Background(), f.tech.ID.String(), f.at(10, 59))
	require.NoError(t, err)
	assert.False(t, resp.Available)

	// exactly one slot away is free
	_, err = f.submit(uuid.New(), f.at(11, 0))
	assert.NoError(t, err)
}

func TestRepairService_SubmitRequest_Validation(t *testing.T) {
	f := newRepairFixture(t)

	_, err := f.svc.SubmitRequest(context.Background(), uuid.New(), dto.SubmitRepairRequest{TechnicianID: f.tech.ID})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = f.submit(uuid.New(), f.at(18, 0))
	assert.ErrorIs(t, err, ErrOutsideWorkingHours)

	_, err = f.submit(uuid.New(), time.Date(2026, 2, 1, 10, 0, 0, 0, f.loc))
	assert.ErrorIs(t, err, ErrAppointmentInPast)
}

func TestRepairService_RespondAndUpdate(t *testing.T) {
	f := newRepairFixture(t)
	other := f.staff.add("sunil", model.StaffTypeTechnician)
	rr, err := f.submit(uuid.New(), f.at(10, 0))
	require.NoError(t, err)

	update := dto.UpdateRepairRequest{Status: string(model.RepairDiagnosticsCompleted), IdentifiedIssue: "broken LCD"}
	_, err = f.svc.UpdateRepair(context.Background(), rr.ID, f.tech.ID, model.StaffTypeTechnician, update)
	assert.ErrorIs(t, err, ErrRepairNotAccepted)

	err = f.svc.Respond(context.Background(), rr.ID, other.ID, model.StaffTypeTechnician, "accepted")
	assert.ErrorIs(t, err, ErrRepairForbidden)

	require.NoError(t, f.svc.Respond(context.Background(), rr.ID, f.tech.ID, model.StaffTypeTechnician, "accepted"))
	err = f.svc.Respond(context.Background(), rr.ID, uuid.New(), model.StaffTypeAdmin, "rejected")
	assert.ErrorIs(t, err, ErrRepairNotPending)

	repair, err := f.svc.UpdateRepair(context.Background(), rr.ID, f.tech.ID, model.StaffTypeTechnician, update)
	require.NoError(t, err)
	assert.Equal(t, model.RepairDiagnosticsCompleted, repair.Status)
	assert.Equal(t, "broken LCD", f.repairs.requests[rr.ID].Repair.IdentifiedIssue)

	assigned, err := f.svc.ListForStaff(context.Background(), other.ID, model.StaffTypeTechnician)
	require.NoError(t, err)
	assert.Empty(t, assigned)

	all, err := f.svc.ListForStaff(context.Background(), uuid.New(), model.StaffTypeAdmin)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRepairService_ListTechnicians(t *testing.T) {
	f := newRepairFixture(t)
	f.staff.add("admin", model.StaffTypeAdmin)

	techs, err := f.svc.ListTechnicians(context.Background())
	require.NoError(t, err)
	require.Len(t, techs, 1)
	assert.Equal(t, f.tech.ID, techs[0].ID)
}

func TestRepairService_ListForStaff(t *testing.T) {
	f := newRepairFixture(t)
	other := f.staff.add("nuwan", model.StaffTypeTechnician)
	admin := f.staff.add("ruwan", model.StaffTypeAdmin)
	alice, bob := uuid.New(), uuid.New()
	ctx := context.Background()

	_, err := f.submit(alice, f.at(10, 0))
	require.NoError(t, err)
	at := f.at(11, 0)
	_, err = f.svc.SubmitRequest(ctx, bob, dto.SubmitRepairRequest{
		TechnicianID: other.ID, IssueDescription: "battery drain", DeviceInfo: "iPhone 12",
		AppointmentDate: &at,
	})
	require.NoError(t, err)

	mine, err := f.svc.ListForStaff(ctx, other.ID, model.StaffTypeTechnician)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	all, err := f.svc.ListForStaff(ctx, admin.ID, model.StaffTypeAdmin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := f.svc.ListMyRequests(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, own, 1)
}
