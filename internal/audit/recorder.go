// Package audit keeps a trail of report exports.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ExportRecord describes one generated download.
type ExportRecord struct {
	ID         int64     `json:"id"`
	ActorID    string    `json:"actorId"`
	ActorEmail string    `json:"actorEmail"`
	Report     string    `json:"report"`
	Format     string    `json:"format"`
	Filename   string    `json:"filename"`
	Rows       int       `json:"rows"`
	At         time.Time `json:"at"`
}

// Recorder writes records into report_exports.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder returns a new Recorder.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Validate checks the required fields of rec.
func (rec ExportRecord) Validate() error {
	if rec.ActorID == "" {
		return errors.New("audit: actor required")
	}
	if rec.Report == "" || rec.Format == "" || rec.Filename == "" {
		return errors.New("audit: export requires report/format/filename")
	}
	if rec.Rows < 0 {
		return errors.New("audit: negative row count")
	}
	return nil
}

// Record persists the export entry.
func (r *Recorder) Record(ctx context.Context, rec ExportRecord) error {
	if r == nil || r.pool == nil {
		return errors.New("audit recorder not initialised")
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	var at any
	if !rec.At.IsZero() {
		at = rec.At
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO report_exports (actor_id, actor_email, report, format, filename, rows, exported_at)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))`,
		rec.ActorID, rec.ActorEmail, rec.Report, rec.Format, rec.Filename, rec.Rows, at)
	return err
}

// Recent returns the latest exports, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]ExportRecord, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("audit recorder not initialised")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, actor_id, actor_email, report, format, filename, rows, exported_at
FROM report_exports ORDER BY exported_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ExportRecord
	for rows.Next() {
		var rec ExportRecord
		if err := rows.Scan(&rec.ID, &rec.ActorID, &rec.ActorEmail, &rec.Report, &rec.Format, &rec.Filename, &rec.Rows, &rec.At); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
