package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abhisek/mockexam/internal/exam"
)

type attemptRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

// attemptDetail is the JSON payload of the detail column.
type attemptDetail struct {
	Problems []exam.Problem       `json:"problems"`
	Answers  map[string]string    `json:"answers"`
	Results  []exam.GradingResult `json:"results"`
}

func (r *attemptRepo) SaveAttempt(ctx context.Context, a *Attempt) error {
	if a.ID == "" {
		return errors.New("attempt ID is required")
	}
	if len(a.Results) != len(a.Problems) {
		return fmt.Errorf("attempt %s has %d results for %d problems", a.ID, len(a.Results), len(a.Problems))
	}

	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	detail, err := json.Marshal(attemptDetail{Problems: a.Problems, Answers: a.Answers, Results: a.Results})
	if err != nil {
		return fmt.Errorf("marshal attempt detail: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO attempts
		(id, sequence, started_at, finished_at, subject, difficulty, total, correct,
		 average_score, elapsed_seconds, forced, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, seqNum, a.StartedAt.UTC(), a.FinishedAt.UTC(), string(a.Subject), string(a.Difficulty),
		a.Summary.Total, a.Summary.Correct, a.Summary.AverageScore, a.Summary.ElapsedSeconds,
		a.Forced, string(detail),
	)
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	a.Sequence = seqNum
	return nil
}

const attemptColumns = `id, sequence, started_at, finished_at, subject, difficulty, total, correct,
	average_score, elapsed_seconds, forced`

func (r *attemptRepo) ListAttempts(ctx context.Context, opts QueryOpts) ([]Attempt, error) {
	where, args := opts.where("sequence", "finished_at")
	q := `SELECT ` + attemptColumns + ` FROM attempts` + where + ` ORDER BY sequence DESC`
	if opts.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		a, _, err := scanAttempt(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *attemptRepo) GetAttempt(ctx context.Context, id string) (*Attempt, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+attemptColumns+`, detail FROM attempts WHERE id = ?`, id)
	a, detail, err := scanAttempt(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var d attemptDetail
	if err := json.Unmarshal([]byte(detail), &d); err != nil {
		return nil, fmt.Errorf("decode attempt detail: %w", err)
	}
	a.Problems, a.Answers, a.Results = d.Problems, d.Answers, d.Results
	return a, nil
}

func scanAttempt(s scanner, withDetail bool) (*Attempt, string, error) {
	var (
		a          Attempt
		subj, diff string
		detail     string
	)
	dest := []any{&a.ID, &a.Sequence, &a.StartedAt, &a.FinishedAt, &subj, &diff,
		&a.Summary.Total, &a.Summary.Correct, &a.Summary.AverageScore, &a.Summary.ElapsedSeconds, &a.Forced}
	if withDetail {
		dest = append(dest, &detail)
	}
	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("scan attempt: %w", err)
	}
	a.Subject = exam.Subject(subj)
	a.Difficulty = exam.Difficulty(diff)
	return &a, detail, nil
}
