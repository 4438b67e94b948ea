package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const apptColumns = `id, patient_id, doctor_id, date, start_time, reason, notes, doctor_notes, status, cancelled_by, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.Date,
		&a.StartTime,
		&a.Reason,
		&a.Notes,
		&a.DoctorNotes,
		&a.Status,
		&a.CancelledBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func (r *PgRepository) Create(ctx context.Context, appt *Appointment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, date, start_time, reason, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
	`, appt.ID, appt.PatientID, appt.DoctorID, appt.Date, appt.StartTime,
		appt.Reason, appt.Notes, appt.Status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSlotTaken
		}
		return err
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ActiveExists(ctx context.Context, doctorID uuid.UUID, date, start string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND date = $2 AND start_time = $3
			  AND status IN ('pending', 'confirmed')
		)
	`, doctorID, date, start).Scan(&exists)
	return exists, err
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, doctorNotes, cancelledBy *string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    doctor_notes = COALESCE($4, doctor_notes),
		    cancelled_by = COALESCE($5, cancelled_by),
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+apptColumns+`
	`, id, to, from, doctorNotes, cancelledBy)

	return scanAppointment(row)
}

const detailSelect = `
	SELECT a.id, a.patient_id, a.doctor_id, a.date, a.start_time, a.reason,
	       a.notes, a.doctor_notes, a.status, a.cancelled_by, a.created_at, a.updated_at,
	       p.name, p.phone, p.email,
	       d.name, COALESCE(dp.specialty, ''), d.phone
	FROM appointments a
	JOIN users p ON p.id = a.patient_id
	JOIN users d ON d.id = a.doctor_id
	LEFT JOIN doctor_profiles dp ON dp.user_id = a.doctor_id
`

func scanDetail(rows pgx.Rows) (*Detail, error) {
	var det Detail

	err := rows.Scan(
		&det.ID,
		&det.PatientID,
		&det.DoctorID,
		&det.Date,
		&det.StartTime,
		&det.Reason,
		&det.Notes,
		&det.DoctorNotes,
		&det.Status,
		&det.CancelledBy,
		&det.CreatedAt,
		&det.UpdatedAt,
		&det.PatientName,
		&det.PatientPhone,
		&det.PatientEmail,
		&det.DoctorName,
		&det.DoctorSpecialty,
		&det.DoctorPhone,
	)
	if err != nil {
		return nil, err
	}

	return &det, nil
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Detail, error) {
	return r.listDetails(ctx, detailSelect+` WHERE a.patient_id = $1 ORDER BY a.date DESC, a.start_time`, patientID)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Detail, error) {
	return r.listDetails(ctx, detailSelect+` WHERE a.doctor_id = $1 ORDER BY a.date DESC, a.start_time`, doctorID)
}

func (r *PgRepository) listDetails(ctx context.Context, query string, arg any) ([]Detail, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Detail
	for rows.Next() {
		det, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *det)
	}

	return result, rows.Err()
}

func (r *PgRepository) BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time
		FROM appointments
		WHERE doctor_id = $1 AND date = $2
		  AND status IN ('pending', 'confirmed')
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	taken := make(map[string]bool)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		taken[t] = true
	}

	return taken, rows.Err()
}
