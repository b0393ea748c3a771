package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"babytrack/backend/internal/records"
)

const (
	pgUniqueViolation = "23505"
	openSleepIndex    = "sleep_sessions_one_open_idx"
)

type dbQuerier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type kindTable struct {
	table       string
	ownerColumn string
	timeColumn  string
	columns     string
	scan        func(pgx.Row) (records.Event, error)
}

var kindTables = map[records.Kind]kindTable{
	records.KindFeed: {
		table:       "feeds",
		ownerColumn: "baby_id",
		timeColumn:  `"timestamp"`,
		columns:     `id, baby_id, type, amount_ml, duration_minutes, "timestamp", notes`,
		scan: func(row pgx.Row) (records.Event, error) {
			var feed records.Feed
			err := row.Scan(&feed.ID, &feed.BabyID, &feed.Type, &feed.AmountML, &feed.DurationMinutes, &feed.Timestamp, &feed.Notes)
			feed.Timestamp = feed.Timestamp.UTC()
			return feed, err
		},
	},
	records.KindNappy: {
		table:       "nappies",
		ownerColumn: "baby_id",
		timeColumn:  `"timestamp"`,
		columns:     `id, baby_id, type, "timestamp", notes`,
		scan: func(row pgx.Row) (records.Event, error) {
			var nappy records.Nappy
			err := row.Scan(&nappy.ID, &nappy.BabyID, &nappy.Type, &nappy.Timestamp, &nappy.Notes)
			nappy.Timestamp = nappy.Timestamp.UTC()
			return nappy, err
		},
	},
	records.KindSleep: {
		table:       "sleep_sessions",
		ownerColumn: "baby_id",
		timeColumn:  "start_time",
		columns:     sleepColumns,
		scan: func(row pgx.Row) (records.Event, error) {
			return scanSleepSession(row)
		},
	},
	records.KindHealth: {
		table:       "health_records",
		ownerColumn: "baby_id",
		timeColumn:  `"timestamp"`,
		columns:     `id, baby_id, type, value, details, "timestamp", notes`,
		scan: func(row pgx.Row) (records.Event, error) {
			var record records.HealthRecord
			var detailsRaw []byte
			err := row.Scan(&record.ID, &record.BabyID, &record.Type, &record.Value, &detailsRaw, &record.Timestamp, &record.Notes)
			record.Details = parseDetails(detailsRaw)
			record.Timestamp = record.Timestamp.UTC()
			return record, err
		},
	},
	records.KindGrowth: {
		table:       "growth_records",
		ownerColumn: "baby_id",
		timeColumn:  `"timestamp"`,
		columns:     `id, baby_id, weight_kg, height_cm, head_circumference_cm, "timestamp", notes`,
		scan: func(row pgx.Row) (records.Event, error) {
			var record records.GrowthRecord
			err := row.Scan(&record.ID, &record.BabyID, &record.WeightKg, &record.HeightCm, &record.HeadCircumferenceCm, &record.Timestamp, &record.Notes)
			record.Timestamp = record.Timestamp.UTC()
			return record, err
		},
	},
	records.KindContraction: {
		table:       "contractions",
		ownerColumn: "pregnancy_id",
		timeColumn:  "start_time",
		columns:     contractionColumns,
		scan: func(row pgx.Row) (records.Event, error) {
			return scanContraction(row)
		},
	},
	records.KindMovement: {
		table:       "fetal_movements",
		ownerColumn: "pregnancy_id",
		timeColumn:  `"timestamp"`,
		columns:     `id, pregnancy_id, "timestamp", duration_seconds, stimulus, notes`,
		scan: func(row pgx.Row) (records.Event, error) {
			var movement records.FetalMovement
			err := row.Scan(&movement.ID, &movement.PregnancyID, &movement.Timestamp, &movement.DurationSeconds, &movement.Stimulus, &movement.Notes)
			movement.Timestamp = movement.Timestamp.UTC()
			return movement, err
		},
	},
	records.KindMaternalHealth: {
		table:       "maternal_health",
		ownerColumn: "pregnancy_id",
		timeColumn:  `"timestamp"`,
		columns:     `id, pregnancy_id, type, "timestamp", value, details, notes`,
		scan: func(row pgx.Row) (records.Event, error) {
			var reading records.MaternalHealthReading
			var detailsRaw []byte
			err := row.Scan(&reading.ID, &reading.PregnancyID, &reading.Type, &reading.Timestamp, &reading.Value, &detailsRaw, &reading.Notes)
			reading.Details = parseDetails(detailsRaw)
			reading.Timestamp = reading.Timestamp.UTC()
			return reading, err
		},
	},
}

const (
	sleepColumns       = `id, baby_id, type, start_time, end_time, duration_minutes, location, notes`
	contractionColumns = `id, pregnancy_id, start_time, end_time, duration_seconds, intensity, notes`
)

func scanSleepSession(row pgx.Row) (records.SleepSession, error) {
	var session records.SleepSession
	err := row.Scan(&session.ID, &session.BabyID, &session.Type, &session.StartTime, &session.EndTime, &session.DurationMinutes, &session.Location, &session.Notes)
	session.StartTime = session.StartTime.UTC()
	if session.EndTime != nil {
		endUTC := session.EndTime.UTC()
		session.EndTime = &endUTC
	}
	return session, err
}

func scanContraction(row pgx.Row) (records.Contraction, error) {
	var contraction records.Contraction
	err := row.Scan(&contraction.ID, &contraction.PregnancyID, &contraction.StartTime, &contraction.EndTime, &contraction.DurationSeconds, &contraction.Intensity, &contraction.Notes)
	contraction.StartTime = contraction.StartTime.UTC()
	if contraction.EndTime != nil {
		endUTC := contraction.EndTime.UTC()
		contraction.EndTime = &endUTC
	}
	return contraction, err
}

// Postgres is the pgx-backed Store.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) Query(ctx context.Context, ownerID string, kind records.Kind, rng *TimeRange) ([]records.Event, error) {
	t, ok := kindTables[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, t.columns, t.table, t.ownerColumn)
	args := []any{ownerID}
	if rng != nil {
		query += fmt.Sprintf(` AND %s >= $2 AND %s <= $3`, t.timeColumn, t.timeColumn)
		args = append(args, rng.Start.UTC(), rng.End.UTC())
	}
	query += fmt.Sprintf(` ORDER BY %s DESC`, t.timeColumn)
	return collectEvents(ctx, p.pool, t, query, args...)
}

func (p *Postgres) MostRecent(ctx context.Context, ownerID string, kind records.Kind, n int) ([]records.Event, error) {
	t, ok := kindTables[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s DESC LIMIT $2`,
		t.columns, t.table, t.ownerColumn, t.timeColumn,
	)
	return collectEvents(ctx, p.pool, t, query, ownerID, n)
}

func collectEvents(ctx context.Context, q dbQuerier, t kindTable, query string, args ...any) ([]records.Event, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]records.Event, 0)
	for rows.Next() {
		event, err := t.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Postgres) OpenSleepSession(ctx context.Context, ownerID string) (*records.SleepSession, error) {
	session, err := scanSleepSession(p.pool.QueryRow(
		ctx,
		`SELECT `+sleepColumns+`
		 FROM sleep_sessions
		 WHERE baby_id = $1 AND end_time IS NULL
		 ORDER BY start_time DESC
		 LIMIT 1`,
		ownerID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (p *Postgres) CreateBaby(ctx context.Context, baby records.Baby) (records.Baby, error) {
	err := p.pool.QueryRow(
		ctx,
		`INSERT INTO babies (id, user_id, name, birth_date, gender, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 RETURNING created_at`,
		baby.ID,
		baby.UserID,
		baby.Name,
		baby.BirthDate.UTC(),
		baby.Gender,
	).Scan(&baby.CreatedAt)
	return baby, err
}

const babyColumns = `id, user_id, name, birth_date, gender, created_at`

func scanBaby(row pgx.Row) (records.Baby, error) {
	var baby records.Baby
	err := row.Scan(&baby.ID, &baby.UserID, &baby.Name, &baby.BirthDate, &baby.Gender, &baby.CreatedAt)
	return baby, err
}

func (p *Postgres) GetBaby(ctx context.Context, id string) (records.Baby, error) {
	baby, err := scanBaby(p.pool.QueryRow(ctx, `SELECT `+babyColumns+` FROM babies WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return records.Baby{}, ErrNotFound
	}
	return baby, err
}

func (p *Postgres) ListBabies(ctx context.Context) ([]records.Baby, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+babyColumns+` FROM babies ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	babies := make([]records.Baby, 0)
	for rows.Next() {
		baby, err := scanBaby(rows)
		if err != nil {
			return nil, err
		}
		babies = append(babies, baby)
	}
	return babies, rows.Err()
}

func (p *Postgres) CreatePregnancy(ctx context.Context, pregnancy records.Pregnancy) (records.Pregnancy, error) {
	err := p.pool.QueryRow(
		ctx,
		`INSERT INTO pregnancies (id, user_id, last_period_date, estimated_due_date, notes, is_active, baby_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 RETURNING created_at`,
		pregnancy.ID,
		pregnancy.UserID,
		pregnancy.LastPeriodDate.UTC(),
		pregnancy.EstimatedDueDate.UTC(),
		pregnancy.Notes,
		pregnancy.IsActive,
		pregnancy.BabyID,
	).Scan(&pregnancy.CreatedAt)
	return pregnancy, err
}

func (p *Postgres) GetPregnancy(ctx context.Context, id string) (records.Pregnancy, error) {
	var pregnancy records.Pregnancy
	err := p.pool.QueryRow(
		ctx,
		`SELECT id, user_id, last_period_date, estimated_due_date, notes, is_active, baby_id, created_at
		 FROM pregnancies WHERE id = $1`,
		id,
	).Scan(
		&pregnancy.ID,
		&pregnancy.UserID,
		&pregnancy.LastPeriodDate,
		&pregnancy.EstimatedDueDate,
		&pregnancy.Notes,
		&pregnancy.IsActive,
		&pregnancy.BabyID,
		&pregnancy.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return records.Pregnancy{}, ErrNotFound
	}
	return pregnancy, err
}

func (p *Postgres) Insert(ctx context.Context, event records.Event) error {
	err := insertEvent(ctx, p.pool, event)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == openSleepIndex {
		return ErrSleepInProgress
	}
	return err
}

func insertEvent(ctx context.Context, q dbQuerier, event records.Event) error {
	var err error
	switch e := event.(type) {
	case records.Feed:
		_, err = q.Exec(
			ctx,
			`INSERT INTO feeds (id, baby_id, type, amount_ml, duration_minutes, "timestamp", notes, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
			e.ID, e.BabyID, string(e.Type), e.AmountML, e.DurationMinutes, e.Timestamp.UTC(), e.Notes,
		)
	case records.Nappy:
		_, err = q.Exec(
			ctx,
			`INSERT INTO nappies (id, baby_id, type, "timestamp", notes, created_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())`,
			e.ID, e.BabyID, string(e.Type), e.Timestamp.UTC(), e.Notes,
		)
	case records.SleepSession:
		_, err = q.Exec(
			ctx,
			`INSERT INTO sleep_sessions (id, baby_id, type, start_time, end_time, duration_minutes, location, notes, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
			e.ID, e.BabyID, string(e.Type), e.StartTime.UTC(), utcOrNil(e.EndTime), e.DurationMinutes, e.Location, e.Notes,
		)
	case records.HealthRecord:
		_, err = q.Exec(
			ctx,
			`INSERT INTO health_records (id, baby_id, type, value, details, "timestamp", notes, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
			e.ID, e.BabyID, e.Type, e.Value, detailsParam(e.Details), e.Timestamp.UTC(), e.Notes,
		)
	case records.GrowthRecord:
		_, err = q.Exec(
			ctx,
			`INSERT INTO growth_records (id, baby_id, weight_kg, height_cm, head_circumference_cm, "timestamp", notes, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
			e.ID, e.BabyID, e.WeightKg, e.HeightCm, e.HeadCircumferenceCm, e.Timestamp.UTC(), e.Notes,
		)
	case records.Contraction:
		_, err = q.Exec(
			ctx,
			`INSERT INTO contractions (id, pregnancy_id, start_time, end_time, duration_seconds, intensity, notes, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
			e.ID, e.PregnancyID, e.StartTime.UTC(), utcOrNil(e.EndTime), e.DurationSeconds, e.Intensity, e.Notes,
		)
	case records.FetalMovement:
		_, err = q.Exec(
			ctx,
			`INSERT INTO fetal_movements (id, pregnancy_id, "timestamp", duration_seconds, stimulus, notes, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
			e.ID, e.PregnancyID, e.Timestamp.UTC(), e.DurationSeconds, e.Stimulus, e.Notes,
		)
	case records.MaternalHealthReading:
		_, err = q.Exec(
			ctx,
			`INSERT INTO maternal_health (id, pregnancy_id, type, "timestamp", value, details, notes, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
			e.ID, e.PregnancyID, string(e.Type), e.Timestamp.UTC(), e.Value, detailsParam(e.Details), e.Notes,
		)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedKind, event)
	}
	return err
}

func (p *Postgres) CloseSleepSession(ctx context.Context, babyID, sessionID string, end time.Time) (records.SleepSession, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return records.SleepSession{}, err
	}
	defer tx.Rollback(ctx)

	session, err := scanSleepSession(tx.QueryRow(
		ctx,
		`SELECT `+sleepColumns+` FROM sleep_sessions WHERE id = $1 AND baby_id = $2 FOR UPDATE`,
		sessionID,
		babyID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return records.SleepSession{}, ErrNotFound
	}
	if err != nil {
		return records.SleepSession{}, err
	}
	closed, err := session.Close(end)
	if err != nil {
		return records.SleepSession{}, err
	}
	if _, err := tx.Exec(
		ctx,
		`UPDATE sleep_sessions SET end_time = $2, duration_minutes = $3 WHERE id = $1`,
		closed.ID,
		*closed.EndTime,
		*closed.DurationMinutes,
	); err != nil {
		return records.SleepSession{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return records.SleepSession{}, err
	}
	return closed, nil
}

func (p *Postgres) CloseContraction(ctx context.Context, pregnancyID, contractionID string, end time.Time) (records.Contraction, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return records.Contraction{}, err
	}
	defer tx.Rollback(ctx)

	contraction, err := scanContraction(tx.QueryRow(
		ctx,
		`SELECT `+contractionColumns+` FROM contractions WHERE id = $1 AND pregnancy_id = $2 FOR UPDATE`,
		contractionID,
		pregnancyID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return records.Contraction{}, ErrNotFound
	}
	if err != nil {
		return records.Contraction{}, err
	}
	closed, err := contraction.Close(end)
	if err != nil {
		return records.Contraction{}, err
	}
	if _, err := tx.Exec(
		ctx,
		`UPDATE contractions SET end_time = $2, duration_seconds = $3 WHERE id = $1`,
		closed.ID,
		*closed.EndTime,
		*closed.DurationSeconds,
	); err != nil {
		return records.Contraction{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return records.Contraction{}, err
	}
	return closed, nil
}

func utcOrNil(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}

func detailsParam(details map[string]any) any {
	if len(details) == 0 {
		return nil
	}
	encoded, err := json.Marshal(details)
	if err != nil {
		return nil
	}
	return string(encoded)
}

func parseDetails(input []byte) map[string]any {
	if len(input) == 0 {
		return nil
	}
	var result map[string]any
	if err := json.Unmarshal(input, &result); err != nil {
		return nil
	}
	return result
}
