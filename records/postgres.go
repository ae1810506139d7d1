package records

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS workout_records (
    id BIGSERIAL PRIMARY KEY,
    date TIMESTAMPTZ NOT NULL,
    user_id TEXT NOT NULL,
    muscle_groups TEXT[] NOT NULL DEFAULT '{}',
    exercises TEXT[] NOT NULL DEFAULT '{}',
    status TEXT NOT NULL,
    skipped TEXT[] NOT NULL DEFAULT '{}',
    reasons TEXT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_workout_records_user ON workout_records(user_id);
`

type PostgresRecorder struct {
	pool *pgxpool.Pool
}

func NewPostgresRecorder(ctx context.Context, databaseURL string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PostgresRecorder{pool: pool}, nil
}

func (p *PostgresRecorder) Close() {
	p.pool.Close()
}

func (p *PostgresRecorder) Append(ctx context.Context, rec Record) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO workout_records (date, user_id, muscle_groups, exercises, status, skipped, reasons)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.Date, rec.UserID, nonNil(rec.MuscleGroups), nonNil(rec.Exercises),
		string(rec.Status), nonNil(rec.Skipped), nonNil(rec.Reasons),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (p *PostgresRecorder) All(ctx context.Context) ([]Record, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT date, user_id, muscle_groups, exercises, status, skipped, reasons
		 FROM workout_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var (
			rec    Record
			status string
		)
		err := row.Scan(&rec.Date, &rec.UserID, &rec.MuscleGroups, &rec.Exercises, &status, &rec.Skipped, &rec.Reasons)
		rec.Status = Status(status)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	return recs, nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
