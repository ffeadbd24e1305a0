package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/mockexam/internal/exam"
)

type problemRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *problemRepo) SaveProblem(ctx context.Context, p exam.Problem) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	keywords, err := json.Marshal(nonNil(p.Keywords))
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT OR REPLACE INTO problems
		(id, sequence, created_at, subject, difficulty, question, answer, explanation, response_type, keywords)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, seqNum, time.Now().UTC(), string(p.Subject), string(p.Difficulty),
		p.Question, p.Answer, p.Explanation, string(p.Type), string(keywords),
	)
	if err != nil {
		return fmt.Errorf("save problem: %w", err)
	}
	return nil
}

func (r *problemRepo) RecentProblems(ctx context.Context, subject exam.Subject, opts QueryOpts) ([]ProblemRecord, error) {
	where, args := opts.where("sequence", "created_at")
	if subject != "" {
		if where == "" {
			where = " WHERE subject = ?"
		} else {
			where += " AND subject = ?"
		}
		args = append(args, string(subject))
	}

	q := `SELECT id, sequence, created_at, subject, difficulty, question, answer, explanation,
		response_type, keywords FROM problems` + where + ` ORDER BY sequence DESC`
	if opts.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query problems: %w", err)
	}
	defer rows.Close()

	var out []ProblemRecord
	for rows.Next() {
		var (
			rec                  ProblemRecord
			subj, diff, respType string
			keywords             string
		)
		if err := rows.Scan(&rec.ID, &rec.Sequence, &rec.CreatedAt, &subj, &diff, &rec.Question,
			&rec.Answer, &rec.Explanation, &respType, &keywords); err != nil {
			return nil, fmt.Errorf("scan problem: %w", err)
		}
		rec.Subject = exam.Subject(subj)
		rec.Difficulty = exam.Difficulty(diff)
		rec.Type = exam.ResponseType(respType)
		if err := json.Unmarshal([]byte(keywords), &rec.Keywords); err != nil {
			return nil, fmt.Errorf("decode keywords of %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
