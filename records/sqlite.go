package records

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteRecorder keeps list columns as JSON array text.
type SQLiteRecorder struct {
	conn *sql.DB
}

func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}
	db := &SQLiteRecorder{conn: conn}
	if _, err := conn.Exec(schemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

func (db *SQLiteRecorder) Close() error {
	return db.conn.Close()
}

func (db *SQLiteRecorder) Append(ctx context.Context, rec Record) error {
	lists := make([]string, 0, 4)
	for _, items := range [][]string{rec.MuscleGroups, rec.Exercises, rec.Skipped, rec.Reasons} {
		encoded, err := encodeList(items)
		if err != nil {
			return err
		}
		lists = append(lists, encoded)
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO workout_records (date, user_id, muscle_groups, exercises, status, skipped, reasons)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Date.UTC().Format(time.RFC3339),
		rec.UserID,
		lists[0],
		lists[1],
		string(rec.Status),
		lists[2],
		lists[3],
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (db *SQLiteRecorder) All(ctx context.Context) ([]Record, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT date, user_id, muscle_groups, exercises, status, skipped, reasons
		 FROM workout_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec                              Record
			date, muscles, exercises, status string
			skipped, reasons                 string
		)
		if err := rows.Scan(&date, &rec.UserID, &muscles, &exercises, &status, &skipped, &reasons); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Date, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("parse record date %q: %w", date, err)
		}
		rec.Status = Status(status)
		for _, col := range []struct {
			raw string
			dst *[]string
		}{
			{muscles, &rec.MuscleGroups},
			{exercises, &rec.Exercises},
			{skipped, &rec.Skipped},
			{reasons, &rec.Reasons},
		} {
			if *col.dst, err = decodeList(col.raw); err != nil {
				return nil, err
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func encodeList(items []string) (string, error) {
	if len(items) == 0 {
		return "[]", nil
	}
	s, err := sonic.MarshalString(items)
	if err != nil {
		return "", fmt.Errorf("encode list column: %w", err)
	}
	return s, nil
}

func decodeList(s string) ([]string, error) {
	if s == "" || s == "[]" {
		return nil, nil
	}
	var items []string
	if err := sonic.UnmarshalString(s, &items); err != nil {
		return nil, fmt.Errorf("decode list column %q: %w", s, err)
	}
	return items, nil
}
