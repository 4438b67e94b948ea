package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/availability"
	"github.com/careslot/careslot/internal/config"
	"github.com/careslot/careslot/internal/db"
	"github.com/careslot/careslot/internal/directory"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "seed").Logger()
	log.Info().Msg("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := db.ApplySchema(context.Background(), pool); err != nil {
		log.Fatal().Err(err).Msg("apply schema")
	}

	gofakeit.Seed(time.Now().UnixNano())

	doctorIDs, err := seedDoctors(context.Background(), pool, 20)
	if err != nil {
		log.Fatal().Err(err).Msg("seed doctors")
	}
	patientIDs, err := seedPatients(context.Background(), pool, 200)
	if err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedAvailability(context.Background(), pool, doctorIDs, 7); err != nil {
		log.Fatal().Err(err).Msg("seed availability")
	}

	// Dev tokens so the API can be exercised immediately.
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	doctorToken, err := tokens.Issue(doctorIDs[0], auth.RoleDoctor)
	if err != nil {
		log.Fatal().Err(err).Msg("issue doctor token")
	}
	patientToken, err := tokens.Issue(patientIDs[0], auth.RolePatient)
	if err != nil {
		log.Fatal().Err(err).Msg("issue patient token")
	}

	fmt.Printf("doctor:  id=%s token=%s\n", doctorIDs[0], doctorToken)
	fmt.Printf("patient: id=%s token=%s\n", patientIDs[0], patientToken)

	log.Info().Msg("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()

		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, name, email, phone, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'doctor', now(), now())
		`, id, gofakeit.Name(), gofakeit.Email(), gofakeit.Phone())
		if err != nil {
			return nil, err
		}

		spec := directory.Specialties[gofakeit.Number(0, len(directory.Specialties)-1)]
		_, err = tx.Exec(ctx, `
			INSERT INTO doctor_profiles (id, user_id, specialty, experience_years, description, consultation_fee, rating, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		`, uuid.New(), id, spec, gofakeit.Number(1, 30), gofakeit.Sentence(12),
			float64(gofakeit.Number(20, 200)), float64(gofakeit.Number(30, 50))/10)
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()

		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, name, email, phone, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'patient', now(), now())
		`, id, gofakeit.Name(), gofakeit.Email(), gofakeit.Phone())
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

// seedAvailability publishes the default grid for each doctor over the
// next `days` calendar days.
func seedAvailability(ctx context.Context, pool *pgxpool.Pool, doctorIDs []uuid.UUID, days int) error {
	slots := availability.DefaultDaySlots()

	for _, doctorID := range doctorIDs {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for d := 0; d < days; d++ {
			date := time.Now().AddDate(0, 0, d).Format("2006-01-02")
			avID := uuid.New()

			tag, err := tx.Exec(ctx, `
				INSERT INTO doctor_availability (id, doctor_id, date, created_at)
				VALUES ($1, $2, $3, now())
				ON CONFLICT (doctor_id, date) DO NOTHING
			`, avID, doctorID, date)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
			if tag.RowsAffected() == 0 {
				// Already published on a previous run.
				continue
			}

			for i, s := range slots {
				_, err := tx.Exec(ctx, `
					INSERT INTO availability_slots (availability_id, ordinal, start_time, end_time, is_available)
					VALUES ($1, $2, $3, $4, $5)
					ON CONFLICT DO NOTHING
				`, avID, i, s.StartTime, s.EndTime, s.IsAvailable)
				if err != nil {
					_ = tx.Rollback(ctx)
					return err
				}
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}

	return nil
}
