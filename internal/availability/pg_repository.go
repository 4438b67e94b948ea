package availability

import (
	"context"
	"errors"
	"fmt"

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

func (r *PgRepository) Create(ctx context.Context, av *DoctorAvailability) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO doctor_availability (id, doctor_id, date, created_at)
		VALUES ($1, $2, $3, now())
	`, av.ID, av.DoctorID, av.Date)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyPublished
		}
		return fmt.Errorf("insert availability: %w", err)
	}

	for i, s := range av.Slots {
		_, err = tx.Exec(ctx, `
			INSERT INTO availability_slots (availability_id, ordinal, start_time, end_time, is_available)
			VALUES ($1, $2, $3, $4, $5)
		`, av.ID, i, s.StartTime, s.EndTime, s.IsAvailable)
		if err != nil {
			return fmt.Errorf("insert slot %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, date string) ([]DoctorAvailability, error) {
	query := `
		SELECT id, doctor_id, date, created_at
		FROM doctor_availability
		WHERE doctor_id = $1
	`
	args := []any{doctorID}
	if date != "" {
		query += ` AND date = $2`
		args = append(args, date)
	}
	query += ` ORDER BY date ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DoctorAvailability
	for rows.Next() {
		var av DoctorAvailability
		if err := rows.Scan(&av.ID, &av.DoctorID, &av.Date, &av.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, av)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		slots, err := r.slotsFor(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Slots = slots
	}

	return result, nil
}

func (r *PgRepository) GetByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string) (*DoctorAvailability, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, date, created_at
		FROM doctor_availability
		WHERE doctor_id = $1 AND date = $2
	`, doctorID, date)

	var av DoctorAvailability
	if err := row.Scan(&av.ID, &av.DoctorID, &av.Date, &av.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotPublished
		}
		return nil, err
	}

	slots, err := r.slotsFor(ctx, av.ID)
	if err != nil {
		return nil, err
	}
	av.Slots = slots

	return &av, nil
}

func (r *PgRepository) slotsFor(ctx context.Context, availabilityID uuid.UUID) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time, end_time, is_available
		FROM availability_slots
		WHERE availability_id = $1
		ORDER BY ordinal
	`, availabilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.StartTime, &s.EndTime, &s.IsAvailable); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}

	return slots, rows.Err()
}
