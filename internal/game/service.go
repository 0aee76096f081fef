package game

import (
	"context"
	"sync"
	"time"

	"github.com/osamahm/biosphere/internal/domain"
	"github.com/osamahm/biosphere/internal/errors"
	"github.com/osamahm/biosphere/internal/event"
)

// Bank is the question catalogue the controller validates transitions against.
type Bank interface {
	QuestionsBySphere(ctx context.Context, sphere domain.Sphere) ([]domain.Question, error)
	AllQuestions(ctx context.Context) ([]domain.Question, error)
}

type Config struct {
	Bank     Bank
	EventBus *event.Bus
	Rules    Rules
	// Now is test-only, for deterministic timestamps.
	Now func() time.Time
}

// Service is the game flow controller. It owns the live session per persisted
// session id and is the only mutation entry point for session state.
type Service struct {
	bank  Bank
	eb    *event.Bus
	rules Rules
	now   func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewService(c Config) *Service {
	if c.Rules == (Rules{}) {
		c.Rules = DefaultRules()
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	return &Service{
		bank:     c.Bank,
		eb:       c.EventBus,
		rules:    c.Rules,
		now:      c.Now,
		sessions: make(map[string]*Session),
	}
}

// create returns the live session for an id, creating it on first use.
// StartGame is the only creation point, so unknown ids cannot grow the map
// through other transitions.
func (s *Service) create(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ss, ok := s.sessions[id]; ok {
		return ss
	}
	ss := newSession()
	s.sessions[id] = ss
	return ss
}

// lookup returns the live session for an id.
func (s *Service) lookup(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ss, ok := s.sessions[id]; ok {
		return ss, nil
	}
	return nil, errors.New(errors.CodeNotFound,
		errors.WithMessagef("no live session: %s", id))
}

type GetStateRequest struct {
	SessionID string
}

// GetState returns a copy of the live session state.
func (s *Service) GetState(_ context.Context, req GetStateRequest) (Session, error) {
	ss, err := s.lookup(req.SessionID)
	if err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return ss.snapshot(), nil
}

type StartGameRequest struct {
	SessionID  string
	PlayerName string
}

// StartGame records the player's name and stamps the start time on the first
// call. The name is last-write-wins; the start time is set exactly once.
func (s *Service) StartGame(_ context.Context, req StartGameRequest) (Session, error) {
	if req.PlayerName == "" {
		return Session{}, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("player name must not be empty"))
	}

	ss := s.create(req.SessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	ss.PlayerName = req.PlayerName
	if ss.StartedAt.IsZero() {
		ss.StartedAt = s.now()
	}
	return ss.snapshot(), nil
}

type StartSphereRequest struct {
	SessionID string
	Sphere    domain.Sphere
}

// StartSphere activates a sphere and resets the position. Re-entering a sphere
// that is in progress but not completed is allowed: the position restarts at
// zero and earlier log entries for that sphere stay in the log under the
// previous attempt number.
func (s *Service) StartSphere(_ context.Context, req StartSphereRequest) (Session, error) {
	if !req.Sphere.Valid() {
		return Session{}, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("unknown sphere: %q", req.Sphere))
	}

	ss, err := s.lookup(req.SessionID)
	if err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ss.Progress[req.Sphere].Completed {
		return Session{}, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("sphere already completed: %s", req.Sphere))
	}

	ss.ActiveSphere = req.Sphere
	ss.Position = 0
	ss.attempts[req.Sphere]++
	return ss.snapshot(), nil
}

type AnswerQuestionRequest struct {
	SessionID     string
	QuestionID    string
	SelectedIndex int
}

type AnswerQuestionResponse struct {
	Correct      bool
	CorrectIndex int
	Explanation  string
	Score        int
}

// AnswerQuestion scores the answer to the current question and appends one
// record to the answer log. It does not advance the position; Advance is a
// separate transition. The supplied question id must match the question at the
// current position.
func (s *Service) AnswerQuestion(ctx context.Context, req AnswerQuestionRequest) (*AnswerQuestionResponse, error) {
	ss, err := s.lookup(req.SessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	active, pos := ss.ActiveSphere, ss.Position
	s.mu.Unlock()

	if active == "" {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("no active sphere: %s", req.SessionID))
	}

	qs, err := s.bank.QuestionsBySphere(ctx, active)
	if err != nil {
		return nil, err
	}
	if pos >= len(qs) {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("no current question: sphere=%s position=%d", active, pos))
	}

	q := qs[pos]
	if q.ID != req.QuestionID {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("question mismatch: got %s, current is %s", req.QuestionID, q.ID))
	}
	if req.SelectedIndex < 0 || req.SelectedIndex >= len(q.Options) {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("selected index out of range: %d", req.SelectedIndex))
	}

	correct := req.SelectedIndex == q.CorrectIndex

	s.mu.Lock()
	if ss.ActiveSphere != active || ss.Position != pos {
		s.mu.Unlock()
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("session advanced while answering: %s", req.SessionID))
	}
	ss.Score = s.rules.Apply(ss.Score, correct)
	ss.Answers = append(ss.Answers, AnswerRecord{
		QuestionID: q.ID,
		Sphere:     active,
		Attempt:    ss.attempts[active],
		Answered:   true,
		Correct:    correct,
	})
	score := ss.Score
	s.mu.Unlock()

	return &AnswerQuestionResponse{
		Correct:      correct,
		CorrectIndex: q.CorrectIndex,
		Explanation:  q.Explanation,
		Score:        score,
	}, nil
}

type AdvanceRequest struct {
	SessionID string
}

type AdvanceResponse struct {
	Position       int
	SphereFinished bool
}

// Advance moves to the next question of the active sphere. SphereFinished set
// means the position reached the end and the caller must complete the sphere.
func (s *Service) Advance(ctx context.Context, req AdvanceRequest) (*AdvanceResponse, error) {
	ss, err := s.lookup(req.SessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	active := ss.ActiveSphere
	s.mu.Unlock()

	if active == "" {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("no active sphere: %s", req.SessionID))
	}

	qs, err := s.bank.QuestionsBySphere(ctx, active)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ss.Position >= len(qs) {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("already past the last question: sphere=%s", active))
	}
	ss.Position++

	return &AdvanceResponse{
		Position:       ss.Position,
		SphereFinished: ss.Position == len(qs),
	}, nil
}

type CompleteSphereRequest struct {
	SessionID string
	Sphere    domain.Sphere
}

// CompleteSphere marks the sphere completed, capturing the cumulative score at
// this moment. The sphere must be the session's active sphere. Completion is
// one-way: a second call for the same sphere is a no-op and never overwrites
// the captured score. The active sphere is cleared afterwards.
func (s *Service) CompleteSphere(_ context.Context, req CompleteSphereRequest) (*domain.SphereResult, error) {
	if !req.Sphere.Valid() {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("unknown sphere: %q", req.Sphere))
	}

	ss, err := s.lookup(req.SessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ss.Progress[req.Sphere].Completed {
		// One-way transition, repeat calls keep the original capture.
		attempted, correct := ss.sphereTally(req.Sphere)
		return &domain.SphereResult{
			SessionID:          req.SessionID,
			Sphere:             req.Sphere,
			QuestionsAttempted: attempted,
			CorrectAnswers:     correct,
			SphereScore:        ss.Progress[req.Sphere].Score,
			CompleteTime:       s.now(),
		}, nil
	}

	if ss.ActiveSphere != req.Sphere {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("sphere %s is not active", req.Sphere))
	}

	ss.Progress[req.Sphere] = SphereProgress{
		Completed: true,
		Score:     ss.Score,
	}
	ss.ActiveSphere = ""
	ss.Position = 0

	attempted, correct := ss.sphereTally(req.Sphere)
	return &domain.SphereResult{
		SessionID:          req.SessionID,
		Sphere:             req.Sphere,
		QuestionsAttempted: attempted,
		CorrectAnswers:     correct,
		SphereScore:        ss.Progress[req.Sphere].Score,
		CompleteTime:       s.now(),
	}, nil
}

type CompleteGameRequest struct {
	SessionID string
}

// CompleteGame stamps the end time once every sphere is completed and emits
// the terminal report. The first completion publishes exactly one
// game-completed event; repeat calls restamp the end time without reporting
// again.
func (s *Service) CompleteGame(ctx context.Context, req CompleteGameRequest) (*domain.GameReport, error) {
	ss, err := s.lookup(req.SessionID)
	if err != nil {
		return nil, err
	}

	maxScore, err := s.maxScore(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()

	if !ss.AllComplete() {
		s.mu.Unlock()
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("not all spheres completed: %d of %d",
				ss.CompletedSpheres(), len(domain.Spheres())))
	}

	first := ss.EndedAt.IsZero()
	ss.EndedAt = s.now()

	report := &domain.GameReport{
		SessionID:        req.SessionID,
		PlayerName:       ss.PlayerName,
		FinalScore:       ss.Score,
		CompletedSpheres: ss.CompletedSpheres(),
		Tier:             string(ClassifyPerformance(ss.Score, maxScore)),
		StartTime:        ss.StartedAt,
		EndTime:          ss.EndedAt,
	}
	for _, sp := range domain.Spheres() {
		attempted, correct := ss.sphereTally(sp)
		report.SphereResults = append(report.SphereResults, domain.SphereResult{
			SessionID:          req.SessionID,
			Sphere:             sp,
			QuestionsAttempted: attempted,
			CorrectAnswers:     correct,
			SphereScore:        ss.Progress[sp].Score,
			CompleteTime:       ss.EndedAt,
		})
	}
	s.mu.Unlock()

	if first && s.eb != nil {
		s.eb.Publish(ctx, domain.EventGameCompleted{Report: *report})
	}

	return report, nil
}

type ResetRequest struct {
	SessionID string
}

// Reset discards the live session, from any state. A later StartGame for the
// same id begins from a fresh session, and abandoned games stop occupying
// memory. Resetting an unknown session is a no-op.
func (s *Service) Reset(_ context.Context, req ResetRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, req.SessionID)
	return nil
}

// maxScore is the attainable maximum for the current bank.
func (s *Service) maxScore(ctx context.Context) (int, error) {
	qs, err := s.bank.AllQuestions(ctx)
	if err != nil {
		return 0, err
	}
	return len(qs) * s.rules.CorrectDelta, nil
}
