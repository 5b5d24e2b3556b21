package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/phone-store-api/internal/model"
)

type RepairRepository interface {
	// LockTechnician serialises bookings for one technician until tx ends.
	LockTechnician(ctx context.Context, tx pgx.Tx, technicianID uuid.UUID) error
	HasConflict(ctx context.Context, tx pgx.Tx, technicianID uuid.UUID, from, to time.Time) (bool, error)
	Create(ctx context.Context, tx pgx.Tx, req *model.RepairRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RepairRequest, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.RepairRequest, error)
	ListByTechnician(ctx context.Context, technicianID uuid.UUID) ([]model.RepairRequest, error)
	List(ctx context.Context) ([]model.RepairRequest, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.RepairRequestStatus) error
	UpsertRepair(ctx context.Context, tx pgx.Tx, repair *model.Repair) error
}

type pgRepairRepo struct{ pool *pgxpool.Pool }

func NewRepairRepository(pool *pgxpool.Pool) RepairRepository {
	return &pgRepairRepo{pool: pool}
}

func (r *pgRepairRepo) LockTechnician(ctx context.Context, tx pgx.Tx, technicianID uuid.UUID) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, technicianID.String())
	if err != nil {
		return fmt.Errorf("lock technician: %w", err)
	}
	return nil
}

// HasConflict reports whether the technician has a live request whose
// appointment lies in the open interval (from, to).
func (r *pgRepairRepo) HasConflict(ctx context.Context, tx pgx.Tx, technicianID uuid.UUID, from, to time.Time) (bool, error) {
	var exists bool
	err := on(r.pool, tx).QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM repair_requests
			WHERE technician_id = $1 AND status IN ('pending', 'accepted')
			  AND appointment_date > $2 AND appointment_date < $3)`,
		technicianID, from, to,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check repair conflict: %w", err)
	}
	return exists, nil
}

func (r *pgRepairRepo) Create(ctx context.Context, tx pgx.Tx, req *model.RepairRequest) error {
	req.ID = uuid.New()
	err := on(r.pool, tx).QueryRow(ctx,
		`INSERT INTO repair_requests (id, technician_id, customer_id, appointment_date, issue_description, device_info, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING created_at`,
		req.ID, req.TechnicianID, req.CustomerID, req.AppointmentDate, req.IssueDescription, req.DeviceInfo, req.Status,
	).Scan(&req.CreatedAt)
	if err != nil {
		return fmt.Errorf("create repair request: %w", err)
	}
	return nil
}

const repairSelect = `SELECT rr.id, rr.technician_id, s.name, rr.customer_id, rr.appointment_date,
		rr.issue_description, rr.device_info, rr.status, rr.created_at,
		rp.status, COALESCE(rp.identified_issue, ''), COALESCE(rp.identified_device, ''), rp.updated_at
	FROM repair_requests rr
	JOIN staff s ON s.id = rr.technician_id
	LEFT JOIN repairs rp ON rp.request_id = rr.id`

func scanRepairRequest(row pgx.Row) (*model.RepairRequest, error) {
	var (
		rr              model.RepairRequest
		repairStatus    *string
		issue, device   string
		repairUpdatedAt *time.Time
	)
	err := row.Scan(&rr.ID, &rr.TechnicianID, &rr.TechnicianName, &rr.CustomerID, &rr.AppointmentDate,
		&rr.IssueDescription, &rr.DeviceInfo, &rr.Status, &rr.CreatedAt,
		&repairStatus, &issue, &device, &repairUpdatedAt)
	if err != nil {
		return nil, err
	}
	if repairStatus != nil {
		rr.Repair = &model.Repair{
			RequestID:        rr.ID,
			Status:           model.RepairStatus(*repairStatus),
			IdentifiedIssue:  issue,
			IdentifiedDevice: device,
		}
		if repairUpdatedAt != nil {
			rr.Repair.UpdatedAt = *repairUpdatedAt
		}
	}
	return &rr, nil
}

func (r *pgRepairRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.RepairRequest, error) {
	rr, err := scanRepairRequest(r.pool.QueryRow(ctx, repairSelect+` WHERE rr.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get repair request: %w", err)
	}
	return rr, nil
}

func (r *pgRepairRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.RepairRequest, error) {
	return r.list(ctx, repairSelect+` WHERE rr.customer_id = $1 ORDER BY rr.appointment_date DESC`, customerID)
}

func (r *pgRepairRepo) ListByTechnician(ctx context.Context, technicianID uuid.UUID) ([]model.RepairRequest, error) {
	return r.list(ctx, repairSelect+` WHERE rr.technician_id = $1 ORDER BY rr.appointment_date`, technicianID)
}

func (r *pgRepairRepo) List(ctx context.Context) ([]model.RepairRequest, error) {
	return r.list(ctx, repairSelect+` ORDER BY rr.appointment_date DESC`)
}

func (r *pgRepairRepo) list(ctx context.Context, query string, args ...any) ([]model.RepairRequest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list repair requests: %w", err)
	}
	defer rows.Close()

	var out []model.RepairRequest
	for rows.Next() {
		rr, err := scanRepairRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repair request: %w", err)
		}
		out = append(out, *rr)
	}
	return out, rows.Err()
}

func (r *pgRepairRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.RepairRequestStatus) error {
	ct, err := on(r.pool, tx).Exec(ctx, `UPDATE repair_requests SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update repair request status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgRepairRepo) UpsertRepair(ctx context.Context, tx pgx.Tx, repair *model.Repair) error {
	err := on(r.pool, tx).QueryRow(ctx,
		`INSERT INTO repairs (request_id, status, identified_issue, identified_device, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (request_id) DO UPDATE SET
		   status = EXCLUDED.status,
		   identified_issue = COALESCE(NULLIF(EXCLUDED.identified_issue, ''), repairs.identified_issue),
		   identified_device = COALESCE(NULLIF(EXCLUDED.identified_device, ''), repairs.identified_device),
		   updated_at = NOW()
		 RETURNING identified_issue, identified_device, updated_at`,
		repair.RequestID, repair.Status, repair.IdentifiedIssue, repair.IdentifiedDevice,
	).Scan(&repair.IdentifiedIssue, &repair.IdentifiedDevice, &repair.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert repair: %w", err)
	}
	return nil
}
