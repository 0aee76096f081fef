package bank

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"github.com/osamahm/biosphere/internal/domain"
	"github.com/osamahm/biosphere/internal/errors"
)

const defaultTTL = 10 * time.Minute

// Loader fetches the full catalogue from a backing store.
type Loader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

type Config struct {
	// DB holds the catalogue tables. When nil the service runs read-only on
	// top of the Loader.
	DB *pgxpool.Pool
	// Loader overrides the postgres loader; defaults to the seed catalogue
	// when DB is nil too.
	Loader Loader
	// TTL bounds how long a loaded catalogue is served before reloading.
	TTL time.Duration
}

// Service is the question bank: a TTL-cached view of the catalogue plus the
// teacher-facing CRUD. Reads are stable in insertion order; an unknown sphere
// yields an empty slice, never an error.
type Service struct {
	db     *pgxpool.Pool
	loader Loader
	ttl    time.Duration

	sf singleflight.Group

	mu        sync.RWMutex
	all       []domain.Question
	bySphere  map[domain.Sphere][]domain.Question
	expiresAt time.Time
}

func NewService(c Config) *Service {
	if c.TTL <= 0 {
		c.TTL = defaultTTL
	}
	if c.Loader == nil {
		if c.DB != nil {
			c.Loader = &pgLoader{db: c.DB}
		} else {
			c.Loader = NewStaticLoader(Seed())
		}
	}

	return &Service{
		db:     c.DB,
		loader: c.Loader,
		ttl:    c.TTL,
	}
}

// QuestionsBySphere returns the sphere's questions in insertion order.
func (s *Service) QuestionsBySphere(ctx context.Context, sphere domain.Sphere) ([]domain.Question, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bySphere[sphere], nil
}

// AllQuestions returns the whole catalogue in insertion order.
func (s *Service) AllQuestions(ctx context.Context) ([]domain.Question, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.all, nil
}

func (s *Service) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	fresh := s.all != nil && time.Now().Before(s.expiresAt)
	s.mu.RUnlock()
	if fresh {
		return nil
	}

	_, err, _ := s.sf.Do("catalogue", func() (any, error) {
		s.mu.RLock()
		fresh := s.all != nil && time.Now().Before(s.expiresAt)
		s.mu.RUnlock()
		if fresh {
			return nil, nil
		}

		qs, err := s.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, fmt.Errorf("bank: load questions: %w", err)
		}

		bySphere := make(map[domain.Sphere][]domain.Question)
		for _, q := range qs {
			bySphere[q.Sphere] = append(bySphere[q.Sphere], q)
		}

		s.mu.Lock()
		s.all = qs
		s.bySphere = bySphere
		s.expiresAt = time.Now().Add(s.ttl)
		s.mu.Unlock()
		return nil, nil
	})
	return err
}

func (s *Service) invalidate() {
	s.mu.Lock()
	s.all = nil
	s.bySphere = nil
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

type CreateQuestionRequest struct {
	ID           string
	Sphere       domain.Sphere
	Prompt       string
	Options      []string
	CorrectIndex int
	Explanation  string
	Context      string
}

// CreateQuestion inserts a new question into the catalogue.
func (s *Service) CreateQuestion(ctx context.Context, req CreateQuestionRequest) error {
	if err := s.writable(); err != nil {
		return err
	}
	if req.ID == "" {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("question id must not be empty"))
	}
	if err := validateQuestion(req.Sphere, req.Options, req.CorrectIndex); err != nil {
		return err
	}

	opts, err := json.Marshal(req.Options)
	if err != nil {
		return fmt.Errorf("bank: marshal options: %w", err)
	}

	const stmt = `
INSERT INTO questions (question_id, sphere, prompt, options, correct_index, explanation, context)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	_, err = s.db.Exec(ctx, stmt, req.ID, req.Sphere, req.Prompt, opts, req.CorrectIndex, req.Explanation, req.Context)
	if isUniqueViolation(err) {
		return errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("question already exists: %s", req.ID),
			errors.WithCause(err))
	}
	if err != nil {
		return fmt.Errorf("bank: insert question: %w", err)
	}

	s.invalidate()
	return nil
}

type UpdateQuestionRequest struct {
	ID           string
	Prompt       *string
	Options      []string
	CorrectIndex *int
	Explanation  *string
	Context      *string
}

// UpdateQuestion applies a partial update to an existing question. The merged
// result must still satisfy the bank invariants.
func (s *Service) UpdateQuestion(ctx context.Context, req UpdateQuestionRequest) (err error) {
	if err := s.writable(); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("bank: begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	q, err := scanQuestion(tx.QueryRow(ctx, `
SELECT question_id, sphere, prompt, options, correct_index, explanation, context
FROM questions WHERE question_id = $1 FOR UPDATE;`, req.ID))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return errors.New(errors.CodeNotFound, errors.WithMessagef("question not found: %s", req.ID))
	}
	if err != nil {
		return fmt.Errorf("bank: select question: %w", err)
	}

	if req.Prompt != nil {
		q.Prompt = *req.Prompt
	}
	if req.Options != nil {
		q.Options = req.Options
	}
	if req.CorrectIndex != nil {
		q.CorrectIndex = *req.CorrectIndex
	}
	if req.Explanation != nil {
		q.Explanation = *req.Explanation
	}
	if req.Context != nil {
		q.Context = *req.Context
	}

	if err := validateQuestion(q.Sphere, q.Options, q.CorrectIndex); err != nil {
		return err
	}

	opts, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("bank: marshal options: %w", err)
	}

	_, err = tx.Exec(ctx, `
UPDATE questions SET prompt = $2, options = $3, correct_index = $4, explanation = $5, context = $6
WHERE question_id = $1;`, q.ID, q.Prompt, opts, q.CorrectIndex, q.Explanation, q.Context)
	if err != nil {
		return fmt.Errorf("bank: update question: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.invalidate()
	return nil
}

// DeleteQuestion removes a question from the catalogue.
func (s *Service) DeleteQuestion(ctx context.Context, id string) error {
	if err := s.writable(); err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM questions WHERE question_id = $1;`, id)
	if err != nil {
		return fmt.Errorf("bank: delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.CodeNotFound, errors.WithMessagef("question not found: %s", id))
	}

	s.invalidate()
	return nil
}

func (s *Service) writable() error {
	if s.db == nil {
		return errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("question catalogue is read-only without a database"))
	}
	return nil
}

func validateQuestion(sphere domain.Sphere, options []string, correctIndex int) error {
	if !sphere.Valid() {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unknown sphere: %q", sphere))
	}
	if len(options) < 2 {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("a question needs at least 2 options, got %d", len(options)))
	}
	if correctIndex < 0 || correctIndex >= len(options) {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("correct index %d out of bounds for %d options", correctIndex, len(options)))
	}
	return nil
}
