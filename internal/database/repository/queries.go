package repository

import (
	"context"
	"database/sql"
	"errors"
)

const queryColumns = `id, asked_at, image_name, image_sha256, question, label, score, answer, failed`

// QueryRepo handles question history.
type QueryRepo struct {
	db *sql.DB
}

func NewQueryRepo(db *sql.DB) *QueryRepo { return &QueryRepo{db: db} }

func (r *QueryRepo) Insert(ctx context.Context, q Query) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO queries(`+queryColumns+`)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, q.ID, q.AskedAt, q.ImageName, q.ImageSHA256, q.Question, q.Label, q.Score, q.Answer, q.Failed)
	return err
}

func (r *QueryRepo) Get(ctx context.Context, id string) (*Query, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+queryColumns+` FROM queries WHERE id = ?`, id)
	q, err := scanQuery(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

// List returns the most recent queries first. limit <= 0 means no limit.
func (r *QueryRepo) List(ctx context.Context, limit int) ([]Query, error) {
	return r.list(ctx, `SELECT `+queryColumns+` FROM queries ORDER BY asked_at DESC, rowid DESC LIMIT ?`, limitArg(limit))
}

// ListByImage returns the most recent queries about one image.
func (r *QueryRepo) ListByImage(ctx context.Context, sha string, limit int) ([]Query, error) {
	return r.list(ctx, `SELECT `+queryColumns+` FROM queries WHERE image_sha256 = ? ORDER BY asked_at DESC, rowid DESC LIMIT ?`, sha, limitArg(limit))
}

func (r *QueryRepo) DeleteAll(ctx context.Context, tx *sql.Tx) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM queries`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *QueryRepo) list(ctx context.Context, stmt string, args ...interface{}) ([]Query, error) {
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Query
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanQuery(s scanner) (Query, error) {
	var (
		q     Query
		label sql.NullString
		score sql.NullFloat64
	)
	if err := s.Scan(&q.ID, &q.AskedAt, &q.ImageName, &q.ImageSHA256, &q.Question, &label, &score, &q.Answer, &q.Failed); err != nil {
		return Query{}, err
	}
	if label.Valid {
		q.Label = &label.String
	}
	if score.Valid {
		q.Score = &score.Float64
	}
	return q, nil
}

// sqlite treats LIMIT -1 as unbounded.
func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
