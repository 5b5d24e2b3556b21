package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/model"
	"github.com/flicky/phone-store-api/internal/repository"
)

var (
	ErrInvalidTechnician     = errors.New("invalid technician id")
	ErrTechnicianNotFound    = errors.New("technician not found")
	ErrOutsideWorkingHours   = errors.New("appointment is outside working hours")
	ErrAppointmentInPast     = errors.New("appointment must be in the future")
	ErrTechnicianUnavailable = errors.New("technician is not available at this time")
	ErrRepairNotFound        = errors.New("repair request not found")
	ErrRepairForbidden       = errors.New("repair request is assigned to another technician")
	ErrRepairNotPending      = errors.New("repair request has already been answered")
	ErrRepairNotAccepted     = errors.New("repair request has not been accepted")
)

// RepairRules describes the bookable window. Hours are local to Location;
// OpenHour is inclusive and CloseHour exclusive.
type RepairRules struct {
	Location  *time.Location
	OpenHour  int
	CloseHour int
	Slot      time.Duration
}

type RepairService struct {
	txm     repository.Transactor
	repairs repository.RepairRepository
	staff   repository.StaffRepository
	rules   RepairRules
	now     func() time.Time
}

func NewRepairService(txm repository.Transactor, repairs repository.RepairRepository, staff repository.StaffRepository, rules RepairRules) *RepairService {
	if rules.Location == nil {
		rules.Location = time.UTC
	}
	return &RepairService{txm: txm, repairs: repairs, staff: staff, rules: rules, now: time.Now}
}

func (s *RepairService) ListTechnicians(ctx context.Context) ([]dto.TechnicianResponse, error) {
	techs, err := s.staff.ListActiveByType(ctx, model.StaffTypeTechnician)
	if err != nil {
		return nil, fmt.Errorf("list technicians: %w", err)
	}
	out := make([]dto.TechnicianResponse, 0, len(techs))
	for _, t := range techs {
		out = append(out, dto.TechnicianResponse{ID: t.ID, Name: t.Name})
	}
	return out, nil
}

func (s *RepairService) withinHours(at time.Time) bool {
	hour := at.In(s.rules.Location).Hour()
	return hour >= s.rules.OpenHour && hour < s.rules.CloseHour
}

func (s *RepairService) hoursMessage() string {
	return fmt.Sprintf("Appointments are available between %02d:00 and %02d:00", s.rules.OpenHour, s.rules.CloseHour)
}

func (s *RepairService) technician(ctx context.Context, id uuid.UUID) error {
	tech, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get technician: %w", err)
	}
	if tech == nil || !tech.Active || tech.StaffType != model.StaffTypeTechnician {
		return ErrTechnicianNotFound
	}
	return nil
}

// CheckAvailability rejects out-of-hours times without touching the
// database, then looks for a live booking within one slot either side.
func (s *RepairService) CheckAvailability(ctx context.Context, technicianID string, at time.Time) (*dto.AvailabilityResponse, error) {
	techID, err := uuid.Parse(strings.TrimSpace(technicianID))
	if err != nil {
		return nil, ErrInvalidTechnician
	}
	if !s.withinHours(at) {
		return &dto.AvailabilityResponse{Available: false, Message: s.hoursMessage()}, nil
	}
	if err := s.technician(ctx, techID); err != nil {
		return nil, err
	}

	busy, err := s.repairs.HasConflict(ctx, nil, techID, at.Add(-s.rules.Slot), at.Add(s.rules.Slot))
	if err != nil {
		return nil, err
	}
	if busy {
		return &dto.AvailabilityResponse{Available: false, Message: ErrTechnicianUnavailable.Error()}, nil
	}
	return &dto.AvailabilityResponse{Available: true, Message: "Technician is available"}, nil
}

// SubmitRequest books an appointment. The technician is locked for the
// duration of the transaction so two customers cannot take the same slot.
func (s *RepairService) SubmitRequest(ctx context.Context, customerID uuid.UUID, req dto.SubmitRepairRequest) (*dto.RepairRequestResponse, error) {
	rr := &model.RepairRequest{
		TechnicianID:     req.TechnicianID,
		CustomerID:       customerID,
		IssueDescription: strings.TrimSpace(req.IssueDescription),
		DeviceInfo:       strings.TrimSpace(req.DeviceInfo),
		Status:           model.RepairRequestPending,
	}
	if rr.TechnicianID == uuid.Nil || rr.IssueDescription == "" || rr.DeviceInfo == "" || req.AppointmentDate == nil {
		return nil, ErrMissingFields
	}
	rr.AppointmentDate = *req.AppointmentDate

	if !s.withinHours(rr.AppointmentDate) {
		return nil, ErrOutsideWorkingHours
	}
	if !rr.AppointmentDate.After(s.now()) {
		return nil, ErrAppointmentInPast
	}
	if err := s.technician(ctx, rr.TechnicianID); err != nil {
		return nil, err
	}

	err := s.txm.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.repairs.LockTechnician(ctx, tx, rr.TechnicianID); err != nil {
			return err
		}
		busy, err := s.repairs.HasConflict(ctx, tx, rr.TechnicianID,
			rr.AppointmentDate.Add(-s.rules.Slot), rr.AppointmentDate.Add(s.rules.Slot))
		if err != nil {
			return err
		}
		if busy {
			return ErrTechnicianUnavailable
		}
		return s.repairs.Create(ctx, tx, rr)
	})
	if err != nil {
		return nil, err
	}
	resp := toRepairRequestResponse(rr)
	return &resp, nil
}

func (s *RepairService) ListMyRequests(ctx context.Context, customerID uuid.UUID) ([]dto.RepairRequestResponse, error) {
	return s.list(s.repairs.ListByCustomer(ctx, customerID))
}

// ListForStaff shows technicians their own bookings and admins everything.
func (s *RepairService) ListForStaff(ctx context.Context, staffID uuid.UUID, role string) ([]dto.RepairRequestResponse, error) {
	if role == model.StaffTypeTechnician {
		return s.list(s.repairs.ListByTechnician(ctx, staffID))
	}
	return s.list(s.repairs.List(ctx))
}

func (s *RepairService) list(requests []model.RepairRequest, err error) ([]dto.RepairRequestResponse, error) {
	if err != nil {
		return nil, fmt.Errorf("list repair requests: %w", err)
	}
	out := make([]dto.RepairRequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, toRepairRequestResponse(&requests[i]))
	}
	return out, nil
}

func (s *RepairService) assigned(ctx context.Context, id, staffID uuid.UUID, role string) (*model.RepairRequest, error) {
	rr, err := s.repairs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get repair request: %w", err)
	}
	if rr == nil {
		return nil, ErrRepairNotFound
	}
	if role != model.StaffTypeAdmin && rr.TechnicianID != staffID {
		return nil, ErrRepairForbidden
	}
	return rr, nil
}

// Respond accepts or rejects a pending request.
func (s *RepairService) Respond(ctx context.Context, id, staffID uuid.UUID, role, status string) error {
	next := model.RepairRequestStatus(status)
	if next != model.RepairRequestAccepted && next != model.RepairRequestRejected {
		return ErrInvalidStatus
	}
	rr, err := s.assigned(ctx, id, staffID, role)
	if err != nil {
		return err
	}
	if rr.Status != model.RepairRequestPending {
		return ErrRepairNotPending
	}
	if err := s.repairs.UpdateStatus(ctx, nil, id, next); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRepairNotFound
		}
		return err
	}
	return nil
}

func (s *RepairService) UpdateRepair(ctx context.Context, id, staffID uuid.UUID, role string, req dto.UpdateRepairRequest) (*dto.RepairResponse, error) {
	status := model.RepairStatus(req.Status)
	switch status {
	case model.RepairDiagnosticsCompleted, model.RepairInProgress, model.RepairCompleted:
	default:
		return nil, ErrInvalidStatus
	}
	rr, err := s.assigned(ctx, id, staffID, role)
	if err != nil {
		return nil, err
	}
	if rr.Status != model.RepairRequestAccepted {
		return nil, ErrRepairNotAccepted
	}

	repair := &model.Repair{
		RequestID:        id,
		Status:           status,
		IdentifiedIssue:  strings.TrimSpace(req.IdentifiedIssue),
		IdentifiedDevice: strings.TrimSpace(req.IdentifiedDevice),
	}
	if err := s.repairs.UpsertRepair(ctx, nil, repair); err != nil {
		return nil, err
	}
	return toRepairResponse(repair), nil
}

func toRepairResponse(r *model.Repair) *dto.RepairResponse {
	return &dto.RepairResponse{
		Status:           r.Status,
		IdentifiedIssue:  r.IdentifiedIssue,
		IdentifiedDevice: r.IdentifiedDevice,
		UpdatedAt:        r.UpdatedAt,
	}
}

func toRepairRequestResponse(rr *model.RepairRequest) dto.RepairRequestResponse {
	resp := dto.RepairRequestResponse{
		ID:               rr.ID,
		TechnicianID:     rr.TechnicianID,
		TechnicianName:   rr.TechnicianName,
		CustomerID:       rr.CustomerID,
		AppointmentDate:  rr.AppointmentDate,
		IssueDescription: rr.IssueDescription,
		DeviceInfo:       rr.DeviceInfo,
		Status:           rr.Status,
	}
	if rr.Repair != nil {
		resp.Repair = toRepairResponse(rr.Repair)
	}
	return resp
}
