package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"feedbacksurvey/internal/model"
)

const responsesSchema = `
create table if not exists survey_responses (
  id           text primary key,
  session_id   text not null,
  channel      text not null,
  answers      jsonb not null,
  started_at   timestamptz,
  submitted_at timestamptz not null
);
create index if not exists survey_responses_submitted_at_idx
  on survey_responses (submitted_at desc);`

type pgResponseRepo struct {
	DB *sql.DB
}

// OpenPostgres opens a database/sql pool on the pgx driver and pings it
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresResponseRepo stores responses in survey_responses
func NewPostgresResponseRepo(db *sql.DB) ResponseRepo {
	return &pgResponseRepo{DB: db}
}

// EnsureResponseSchema creates the responses table if needed
func EnsureResponseSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, responsesSchema)
	return err
}

func (r *pgResponseRepo) Create(ctx context.Context, resp *model.Response) error {
	js, err := json.Marshal(resp.Answers)
	if err != nil {
		return err
	}
	var startedAt sql.NullTime
	if !resp.StartedAt.IsZero() {
		startedAt = sql.NullTime{Time: resp.StartedAt, Valid: true}
	}

	const q = `
insert into survey_responses (id, session_id, channel, answers, started_at, submitted_at)
values ($1,$2,$3,$4,$5,$6)`
	_, err = r.DB.ExecContext(ctx, q,
		resp.ID, resp.SessionID, resp.Channel, js, startedAt, resp.SubmittedAt,
	)
	return err
}

func (r *pgResponseRepo) GetByID(ctx context.Context, id string) (*model.Response, error) {
	const q = `
select id, session_id, channel, answers, started_at, submitted_at
from survey_responses
where id = $1`
	resp, err := scanResponse(r.DB.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return resp, err
}

func (r *pgResponseRepo) List(ctx context.Context, limit int) ([]*model.Response, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	const q = `
select id, session_id, channel, answers, started_at, submitted_at
from survey_responses
order by submitted_at desc
limit $1`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Response
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}

func (r *pgResponseRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, `select count(*) from survey_responses`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResponse(row rowScanner) (*model.Response, error) {
	var (
		resp      model.Response
		js        []byte
		startedAt sql.NullTime
	)
	if err := row.Scan(&resp.ID, &resp.SessionID, &resp.Channel, &js, &startedAt, &resp.SubmittedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(js, &resp.Answers); err != nil {
		return nil, fmt.Errorf("decode answers of %s: %w", resp.ID, err)
	}
	if startedAt.Valid {
		resp.StartedAt = startedAt.Time
	}
	return &resp, nil
}
