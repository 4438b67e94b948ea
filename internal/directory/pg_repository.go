package directory

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

func scanUser(row pgx.Row) (*User, error) {
	var u User

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &u, nil
}

func scanProfile(row pgx.Row) (*DoctorProfile, error) {
	var p DoctorProfile

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Specialty,
		&p.ExperienceYears,
		&p.Description,
		&p.ConsultationFee,
		&p.Rating,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanListing(row pgx.Row) (*DoctorListing, error) {
	var d DoctorListing

	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.FullName,
		&d.Specialty,
		&d.ExperienceYears,
		&d.Description,
		&d.ConsultationFee,
		&d.Rating,
		&d.Email,
		&d.Phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

func (r *PgRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *PgRepository) CreateProfile(ctx context.Context, profile *DoctorProfile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctor_profiles (id, user_id, specialty, experience_years, description, consultation_fee, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`, profile.ID, profile.UserID, profile.Specialty, profile.ExperienceYears,
		profile.Description, profile.ConsultationFee, profile.Rating)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrProfileExists
		}
		return err
	}
	return nil
}

func (r *PgRepository) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, specialty, experience_years, description, consultation_fee, rating, created_at
		FROM doctor_profiles
		WHERE user_id = $1
	`, userID)
	return scanProfile(row)
}

const listingSelect = `
	SELECT p.id, p.user_id, u.name, p.specialty, p.experience_years,
	       p.description, p.consultation_fee, p.rating, u.email, u.phone
	FROM doctor_profiles p
	JOIN users u ON u.id = p.user_id
`

func (r *PgRepository) ListDoctors(ctx context.Context, specialty string) ([]DoctorListing, error) {
	query := listingSelect
	args := []any{}
	if specialty != "" {
		query += ` WHERE p.specialty = $1`
		args = append(args, specialty)
	}
	query += ` ORDER BY u.name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DoctorListing
	for rows.Next() {
		d, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetDoctorByUserID(ctx context.Context, userID uuid.UUID) (*DoctorListing, error) {
	row := r.pool.QueryRow(ctx, listingSelect+` WHERE p.user_id = $1`, userID)
	return scanListing(row)
}
