package bank

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osamahm/biosphere/internal/domain"
)

// pgLoader reads the catalogue from postgres in insertion order.
type pgLoader struct {
	db *pgxpool.Pool
}

func (l *pgLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.db.Query(ctx, `
SELECT question_id, sphere, prompt, options, correct_index, explanation, context
FROM questions ORDER BY ordinal;`)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Question, error) {
		return scanQuestion(r)
	})
}

type row interface {
	Scan(dest ...any) error
}

func scanQuestion(r row) (domain.Question, error) {
	var (
		q    domain.Question
		opts []byte
	)
	if err := r.Scan(&q.ID, &q.Sphere, &q.Prompt, &opts, &q.CorrectIndex, &q.Explanation, &q.Context); err != nil {
		return domain.Question{}, err
	}
	if err := json.Unmarshal(opts, &q.Options); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal options for %s: %w", q.ID, err)
	}
	return q, nil
}

func isUniqueViolation(err error) bool {
	const codeUniqueViolation = "23505"
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
