package record

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/osamahm/biosphere/internal/domain"
	"github.com/osamahm/biosphere/internal/errors"
	"github.com/osamahm/biosphere/internal/event"
)

type Config struct {
	DB       *pgxpool.Pool
	EventBus *event.Bus
}

// Service persists game sessions and their per-sphere and per-question result
// rows. It also handles the terminal game-completed report: a one-shot,
// best-effort update that never blocks or corrupts live game state.
type Service struct {
	db *pgxpool.Pool
	eb *event.Bus
}

func NewService(c Config) *Service {
	s := &Service{
		db: c.DB,
		eb: c.EventBus,
	}

	if s.eb != nil {
		s.eb.Subscribe(domain.EventNameGameCompleted, func(ctx context.Context, e event.Event) error {
			return s.handleGameCompleted(ctx, e.(domain.EventGameCompleted))
		})
	}

	return s
}

type CreateSessionRequest struct {
	StudentID int64
}

// CreateSession opens a new play-through record and returns it with its real
// identifier, which callers thread through to completion.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*domain.GameSession, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("record: generate session ID: %w", err)
	}

	var session domain.GameSession
	err = s.db.QueryRow(ctx, `
INSERT INTO sessions (session_id, student_id, start_time) VALUES ($1, $2, now())
RETURNING session_id, student_id, total_score, completed_spheres, completed, start_time, create_time;`,
		id, req.StudentID).
		Scan(&session.SessionID, &session.StudentID, &session.TotalScore,
			&session.CompletedSpheres, &session.Completed, &session.StartTime, &session.CreateTime)
	if err != nil {
		return nil, fmt.Errorf("record: insert session: %w", err)
	}

	return &session, nil
}

type UpdateSessionRequest struct {
	SessionID        string
	TotalScore       int
	CompletedSpheres int
	EndTime          time.Time
	Completed        bool
}

// UpdateSession writes the final outcome fields of a session.
func (s *Service) UpdateSession(ctx context.Context, req UpdateSessionRequest) error {
	tag, err := s.db.Exec(ctx, `
UPDATE sessions
SET total_score = $2, completed_spheres = $3, end_time = $4, completed = $5
WHERE session_id = $1;`,
		req.SessionID, req.TotalScore, req.CompletedSpheres, req.EndTime, req.Completed)
	if err != nil {
		return fmt.Errorf("record: update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.CodeNotFound,
			errors.WithMessagef("session not found: %s", req.SessionID))
	}
	return nil
}

// RecordSphereResult logs the per-sphere outcome row. A sphere completes at
// most once per session, so a retried submission keeps the first row.
func (s *Service) RecordSphereResult(ctx context.Context, r domain.SphereResult) error {
	if !r.Sphere.Valid() {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("unknown sphere: %q", r.Sphere))
	}

	_, err := s.db.Exec(ctx, `
INSERT INTO sphere_results (session_id, sphere, questions_attempted, correct_answers, sphere_score, complete_time)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (session_id, sphere) DO NOTHING;`,
		r.SessionID, r.Sphere, r.QuestionsAttempted, r.CorrectAnswers, r.SphereScore, r.CompleteTime)
	if err != nil {
		return fmt.Errorf("record: insert sphere result: %w", err)
	}
	return nil
}

// RecordResponse logs one per-question response row. SelectedIndex below zero
// and ResponseTimeMs of zero are stored as NULL.
func (s *Service) RecordResponse(ctx context.Context, r domain.QuestionResponse) error {
	if !r.Sphere.Valid() {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("unknown sphere: %q", r.Sphere))
	}

	var (
		selected *int
		rt       *int
	)
	if r.SelectedIndex >= 0 {
		selected = &r.SelectedIndex
	}
	if r.ResponseTimeMs > 0 {
		rt = &r.ResponseTimeMs
	}

	_, err := s.db.Exec(ctx, `
INSERT INTO question_responses (session_id, question_id, sphere, selected_index, is_correct, response_time_ms)
VALUES ($1, $2, $3, $4, $5, $6);`,
		r.SessionID, r.QuestionID, r.Sphere, selected, r.IsCorrect, rt)
	if err != nil {
		return fmt.Errorf("record: insert response: %w", err)
	}
	return nil
}

// SessionDetail is a session plus its result rows.
type SessionDetail struct {
	Session   domain.GameSession
	Results   []domain.SphereResult
	Responses []domain.QuestionResponse
}

// GetSession returns a session with its per-sphere and per-question rows.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*SessionDetail, error) {
	var (
		d       SessionDetail
		endTime *time.Time
	)
	err := s.db.QueryRow(ctx, `
SELECT session_id, student_id, total_score, completed_spheres, completed, start_time, end_time, create_time
FROM sessions WHERE session_id = $1;`, sessionID).
		Scan(&d.Session.SessionID, &d.Session.StudentID, &d.Session.TotalScore,
			&d.Session.CompletedSpheres, &d.Session.Completed, &d.Session.StartTime, &endTime, &d.Session.CreateTime)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("session not found: %s", sessionID))
	}
	if err != nil {
		return nil, fmt.Errorf("record: select session: %w", err)
	}
	if endTime != nil {
		d.Session.EndTime = *endTime
	}

	d.Results, err = s.sessionResults(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	d.Responses, err = s.sessionResponses(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &d, nil
}

func (s *Service) sessionResults(ctx context.Context, sessionID string) ([]domain.SphereResult, error) {
	rows, err := s.db.Query(ctx, `
SELECT session_id, sphere, questions_attempted, correct_answers, sphere_score, complete_time
FROM sphere_results WHERE session_id = $1 ORDER BY complete_time;`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("record: select sphere results: %w", err)
	}

	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.SphereResult, error) {
		var sr domain.SphereResult
		err := r.Scan(&sr.SessionID, &sr.Sphere, &sr.QuestionsAttempted, &sr.CorrectAnswers, &sr.SphereScore, &sr.CompleteTime)
		return sr, err
	})
}

func (s *Service) sessionResponses(ctx context.Context, sessionID string) ([]domain.QuestionResponse, error) {
	rows, err := s.db.Query(ctx, `
SELECT session_id, question_id, sphere, selected_index, is_correct, response_time_ms, create_time
FROM question_responses WHERE session_id = $1 ORDER BY create_time;`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("record: select responses: %w", err)
	}

	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.QuestionResponse, error) {
		var (
			qr       domain.QuestionResponse
			selected *int
			rt       *int
		)
		err := r.Scan(&qr.SessionID, &qr.QuestionID, &qr.Sphere, &selected, &qr.IsCorrect, &rt, &qr.CreateTime)
		if selected != nil {
			qr.SelectedIndex = *selected
		} else {
			qr.SelectedIndex = -1
		}
		if rt != nil {
			qr.ResponseTimeMs = *rt
		}
		return qr, err
	})
}

// SessionSummary is the dashboard row: a session plus aggregated accuracy.
type SessionSummary struct {
	Session            domain.GameSession
	QuestionsAttempted int
	CorrectAnswers     int
	Accuracy           decimal.Decimal
}

type ListSessionsRequest struct {
	// StudentID filters by student when set.
	StudentID *int64
}

// ListSessions returns sessions ordered by recency, with per-session accuracy
// aggregated from the sphere result rows.
func (s *Service) ListSessions(ctx context.Context, req ListSessionsRequest) ([]SessionSummary, error) {
	const stmt = `
SELECT s.session_id, s.student_id, s.total_score, s.completed_spheres, s.completed,
       s.start_time, s.end_time, s.create_time,
       COALESCE(SUM(r.questions_attempted), 0) AS attempted,
       COALESCE(SUM(r.correct_answers), 0) AS correct
FROM sessions s
LEFT JOIN sphere_results r ON r.session_id = s.session_id
WHERE ($1::bigint IS NULL OR s.student_id = $1)
GROUP BY s.session_id, s.student_id, s.total_score, s.completed_spheres, s.completed,
         s.start_time, s.end_time, s.create_time
ORDER BY s.create_time DESC;`

	rows, err := s.db.Query(ctx, stmt, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("record: list sessions: %w", err)
	}

	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (SessionSummary, error) {
		var (
			sum     SessionSummary
			endTime *time.Time
		)
		err := r.Scan(&sum.Session.SessionID, &sum.Session.StudentID, &sum.Session.TotalScore,
			&sum.Session.CompletedSpheres, &sum.Session.Completed,
			&sum.Session.StartTime, &endTime, &sum.Session.CreateTime,
			&sum.QuestionsAttempted, &sum.CorrectAnswers)
		if err != nil {
			return SessionSummary{}, err
		}
		if endTime != nil {
			sum.Session.EndTime = *endTime
		}
		sum.Accuracy = domain.SphereResult{
			QuestionsAttempted: sum.QuestionsAttempted,
			CorrectAnswers:     sum.CorrectAnswers,
		}.Accuracy()
		return sum, nil
	})
}

// handleGameCompleted is the one-shot completion report. Failures are logged
// by the event bus and must not disturb live game state.
func (s *Service) handleGameCompleted(ctx context.Context, e domain.EventGameCompleted) error {
	r := e.Report

	err := s.UpdateSession(ctx, UpdateSessionRequest{
		SessionID:        r.SessionID,
		TotalScore:       r.FinalScore,
		CompletedSpheres: r.CompletedSpheres,
		EndTime:          r.EndTime,
		Completed:        true,
	})
	if err != nil {
		return fmt.Errorf("record: report completion for %s: %w", r.SessionID, err)
	}

	slog.InfoContext(ctx, "record: game completion persisted",
		"session", r.SessionID,
		"score", r.FinalScore,
		"tier", r.Tier,
	)
	return nil
}
