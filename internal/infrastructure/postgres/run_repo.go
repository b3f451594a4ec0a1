package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seblum/octiv-booker/internal/domain/booking"
	"github.com/seblum/octiv-booker/internal/internaltypes"
)

// RunRepo keeps the history of booking runs.
type RunRepo struct{ pool *pgxpool.Pool }

func NewRunRepo(pool *pgxpool.Pool) *RunRepo { return &RunRepo{pool: pool} }

func (r *RunRepo) Save(ctx context.Context, run booking.Run) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO runs (id, account, started_at, finished_at, target_date, weekday, action,
			outcome, reason, class_name, time_slot, current_date_label, attempts, error, log_path)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		run.ID, run.Account, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.TargetDate,
		run.Weekday.String(), run.Action.String(), run.Result.Outcome.String(), string(run.Result.Reason),
		run.Result.ClassName, run.Result.TimeSlot, run.Result.Info.CurrentDate,
		run.Attempts, run.Error, run.LogPath,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, b := range run.Result.Info.Bookings {
		if _, err := tx.Exec(ctx,
			`INSERT INTO run_bookings (run_id, position, time_slot, class_name) VALUES ($1,$2,$3,$4)`,
			run.ID, i, b.Time, b.Class,
		); err != nil {
			return fmt.Errorf("insert run booking: %w", err)
		}
	}
	return tx.Commit(ctx)
}

const runColumns = `id::text, account, started_at, finished_at, target_date, weekday, action,
	outcome, reason, class_name, time_slot, current_date_label, attempts, error, log_path`

// List returns the most recent runs first.
func (r *RunRepo) List(ctx context.Context, limit int) ([]booking.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Get returns one run including its booking log.
func (r *RunRepo) Get(ctx context.Context, id string) (booking.Run, error) {
	run, err := scanRun(r.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE id::text=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.Run{}, internaltypes.ErrNotFound
		}
		return booking.Run{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT time_slot, class_name FROM run_bookings WHERE run_id::text=$1 ORDER BY position`, id)
	if err != nil {
		return booking.Run{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var a booking.Attempt
		if err := rows.Scan(&a.Time, &a.Class); err != nil {
			return booking.Run{}, err
		}
		run.Result.Info.Bookings = append(run.Result.Info.Bookings, a)
	}
	return run, rows.Err()
}

func scanRun(row pgx.Row) (booking.Run, error) {
	var (
		run                              booking.Run
		weekday, action, outcome, reason string
	)
	err := row.Scan(&run.ID, &run.Account, &run.StartedAt, &run.FinishedAt, &run.TargetDate,
		&weekday, &action, &outcome, &reason, &run.Result.ClassName, &run.Result.TimeSlot,
		&run.Result.Info.CurrentDate, &run.Attempts, &run.Error, &run.LogPath)
	if err != nil {
		return booking.Run{}, err
	}
	run.Weekday = parseWeekday(weekday)
	if action == booking.Cancel.String() {
		run.Action = booking.Cancel
	} else {
		run.Action = booking.Enter
	}
	if run.Result.Outcome, err = booking.ParseOutcome(outcome); err != nil {
		return booking.Run{}, err
	}
	run.Result.Reason = booking.Reason(reason)
	return run, nil
}

func parseWeekday(s string) time.Weekday {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d
		}
	}
	return time.Sunday
}
