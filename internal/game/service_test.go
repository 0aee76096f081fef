package game_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/osamahm/biosphere/internal/domain"
	"github.com/osamahm/biosphere/internal/errors"
	"github.com/osamahm/biosphere/internal/event"
	"github.com/osamahm/biosphere/internal/game"
)

func TestService_StartGame(t *testing.T) {
	t.Parallel()

	s := makeService(t)

	_, err := s.StartGame(context.Background(), game.StartGameRequest{SessionID: "s1"})
	require.Error(t, err, "empty name must be rejected")
	require.Equal(t, errors.CodeInvalidArgument, errors.Convert(err).Code)

	first, err := s.StartGame(context.Background(), game.StartGameRequest{SessionID: "s1", PlayerName: "Ada"})
	require.NoError(t, err)
	require.Equal(t, "Ada", first.PlayerName)
	require.False(t, first.StartedAt.IsZero())

	// Name is last-write-wins, start time is stamped once.
	second, err := s.StartGame(context.Background(), game.StartGameRequest{SessionID: "s1", PlayerName: "Grace"})
	require.NoError(t, err)
	require.Equal(t, "Grace", second.PlayerName)
	require.Equal(t, first.StartedAt, second.StartedAt)
}

func TestService_StartSphere_Guards(t *testing.T) {
	t.Parallel()

	s := makeService(t)
	ctx := context.Background()

	_, err := s.StartSphere(ctx, game.StartSphereRequest{SessionID: "s1", Sphere: "geology"})
	require.Equal(t, errors.CodeInvalidArgument, errors.Convert(err).Code)

	_, err = s.StartSphere(ctx, game.StartSphereRequest{SessionID: "s1", Sphere: domain.SphereChemistry})
	require.Equal(t, errors.CodeNotFound, errors.Convert(err).Code, "game not started yet")

	_, err = s.StartGame(ctx, game.StartGameRequest{SessionID: "s1", PlayerName: "Ada"})
	require.NoError(t, err)

	playSphere(t, s, "s1", domain.SphereChemistry, allCorrect)

	_, err = s.StartSphere(ctx, game.StartSphereRequest{SessionID: "s1", Sphere: domain.SphereChemistry})
	require.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code, "completed sphere cannot restart")
}

func TestService_AnswerQuestion_MismatchRejected(t *testing.T) {
	t.Parallel()

	s := makeService(t)
	ctx := context.Background()

	_, err := s.StartGame(ctx, game.StartGameRequest{SessionID: "s1", PlayerName: "Ada"})
	require.NoError(t, err)
	_, err = s.StartSphere(ctx, game.StartSphereRequest{SessionID: "s1", Sphere: domain.SpherePhysics})
	require.NoError(t, err)

	_, err = s.AnswerQuestion(ctx, game.AnswerQuestionRequest{
		SessionID:     "s1",
		QuestionID:    "not-the-current-question",
		SelectedIndex: 0,
	})
	require.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code)
}

func TestService_AnswerQuestion_ScoreFloorClamp(t *testing.T) {
	t.Parallel()

	// +3/-5 makes a score of exactly 3 reachable, matching the clamp scenario.
	s := makeService(t, withRules(game.Rules{CorrectDelta: 3, IncorrectDelta: 5}))
	ctx := context.Background()

	_, err := s.StartGame(ctx, game.StartGameRequest{SessionID: "s1", PlayerName: "Ada"})
	require.NoError(t, err)
	_, err = s.StartSphere(ctx, game.StartSphereRequest{SessionID: "s1", Sphere: domain.SphereLifeSciences})
	require.NoError(t, err)

	resp, err := s.AnswerQuestion(ctx, game.AnswerQuestionRequest{
		SessionID:     "s1",
		QuestionID:    questionID(domain.SphereLifeSciences, 0),
		SelectedIndex: correctIndex,
	})
	require.NoError(t, err)
	require.Equal(t, 3, resp.Score)

	_, err = s.Advance(ctx, game.AdvanceRequest{SessionID: "s1"})
	require.NoError(t, err)

	resp, err = s.AnswerQuestion(ctx, game.AnswerQuestionRequest{
		SessionID:     "s1",
		QuestionID:    questionID(domain.SphereLifeSciences, 1),
		SelectedIndex: wrongIndex,
	})
	require.NoError(t, err)
	require.Equal(t, 0, resp.Score, "3 - 5 clamps to 0, not -2")
}

func TestService_CompleteSphere_CapturesScoreOnce(t *testing.T) {
	t.Parallel()

	s := makeService(t)
	ctx := context.Background()

	_, err := s.StartGame(ctx, game.StartGameRequest{SessionID: "s1", PlayerName: "Ada"})
	require.NoError(t, err)

	result := playSphere(t, s, "s1", domain.SphereLifeSciences, allCorrect)
	require.Equal(t, questionsPerSphere, result.QuestionsAttempted)
	require.Equal(t, questionsPerSphere, result.CorrectAnswers)
	require.Equal(t, questionsPerSphere*10, result.SphereScore)

	captured := result.SphereScore

	// Scoring in a later sphere must not retroactively change the capture.
	_, err = s.StartSphere(ctx, game.StartSphereRequest{SessionID: "s1", Sphere: domain.SphereChemistry})
	require.NoError(t, err)
	_, err = s.AnswerQuestion(ctx, game.AnswerQuestionRequest{
		SessionID:     "s1",
		QuestionID:    questionID(domain.SphereChemistry, 0),
		SelectedIndex: correctIndex,
	})
	require.NoError(t, err)

	state, err := s.GetState(ctx, game.GetStateRequest{SessionID: "s1"})
	require.NoError(t, err)
	require.Equal(t, captured, state.Progress[domain.SphereLifeSciences].Score)
	require.Greater(t, state.Score, captured)

	// Completion is one-way: the repeat call keeps the original capture.
	again, err := s.CompleteSphere(ctx, game.CompleteSphereRequest{SessionID: "s1", Sphere: domain.SphereLifeSciences})
	require.NoError(t, err)
	require.Equal(t, captured, again.SphereScore)
}

func TestService_CompleteGame_RequiresAllSpheres(t *testing.T) {
	t.Parallel()

	s := makeService(t)
	ctx := context.Background()

	_, err := s.StartGame(ctx, game.StartGameRequest{SessionID: "s1", PlayerName: "Ada"})
	require.NoError(t, err)
	playSphere(t, s, "s1", domain.SphereLifeSciences, allCorrect)

	_, err = s.CompleteGame(ctx, game.CompleteGameRequest{SessionID: "s1"})
	require.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code)
}

func TestService_FullPlaythrough(t *testing.T) {
	t.Parallel()

	eb := event.NewBus()

	var (
		mu      sync.Mutex
		reports []domain.GameReport
	)
	eb.Subscribe(domain.EventNameGameCompleted, func(ctx context.Context, e event.Event) error {
		mu.Lock()
		reports = append(reports, e.(domain.EventGameCompleted).Report)
		mu.Unlock()
		return nil
	})

	s := makeService(t, withEventBus(eb))
	ctx := context.Background()

	_, err := s.StartGame(ctx, game.StartGameRequest{SessionID: "s1", PlayerName: "Ada"})
	require.NoError(t, err)

	for _, sphere := range domain.Spheres() {
		playSphere(t, s, "s1", sphere, allCorrect)
	}

	report, err := s.CompleteGame(ctx, game.CompleteGameRequest{SessionID: "s1"})
	require.NoError(t, err)
	require.Equal(t, 3*questionsPerSphere*10, report.FinalScore)
	require.Equal(t, 3, report.CompletedSpheres)
	require.Equal(t, string(game.TierMasterScientist), report.Tier)
	require.False(t, report.EndTime.IsZero())

	// Repeat completion restamps the end time but reports only once.
	_, err = s.CompleteGame(ctx, game.CompleteGameRequest{SessionID: "s1"})
	require.NoError(t, err)

	eb.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reports, 1)
	require.Equal(t, report.FinalScore, reports[0].FinalScore)
}

func TestService_ResetThenStart(t *testing.T) {
	t.Parallel()

	s := makeService(t)
	ctx := context.Background()

	_, err := s.StartGame(ctx, game.StartGameRequest{SessionID: "s1", PlayerName: "Grace"})
	require.NoError(t, err)
	playSphere(t, s, "s1", domain.SphereChemistry, allCorrect)

	require.NoError(t, s.Reset(ctx, game.ResetRequest{SessionID: "s1"}))

	// Reset discards the live session entirely.
	_, err = s.GetState(ctx, game.GetStateRequest{SessionID: "s1"})
	require.True(t, errors.IsCode(err, errors.CodeNotFound))

	restarted, err := s.StartGame(ctx, game.StartGameRequest{SessionID: "s1", PlayerName: "Ada"})
	require.NoError(t, err)

	_, err = s.StartGame(ctx, game.StartGameRequest{SessionID: "fresh", PlayerName: "Ada"})
	require.NoError(t, err)
	fresh, err := s.GetState(ctx, game.GetStateRequest{SessionID: "fresh"})
	require.NoError(t, err)

	// Identical to a freshly constructed session except the timestamps.
	restarted.StartedAt = fresh.StartedAt
	require.Equal(t, fresh, restarted)
}

func TestService_UnknownSessionRejected(t *testing.T) {
	t.Parallel()

	s := makeService(t)
	ctx := context.Background()

	// Only StartGame creates a live session; every other transition on an
	// unknown id is rejected instead of conjuring state.
	_, err := s.GetState(ctx, game.GetStateRequest{SessionID: "ghost"})
	require.True(t, errors.IsCode(err, errors.CodeNotFound))

	_, err = s.StartSphere(ctx, game.StartSphereRequest{SessionID: "ghost", Sphere: domain.SpherePhysics})
	require.True(t, errors.IsCode(err, errors.CodeNotFound))

	_, err = s.AnswerQuestion(ctx, game.AnswerQuestionRequest{
		SessionID:     "ghost",
		QuestionID:    questionID(domain.SpherePhysics, 0),
		SelectedIndex: correctIndex,
	})
	require.True(t, errors.IsCode(err, errors.CodeNotFound))

	_, err = s.Advance(ctx, game.AdvanceRequest{SessionID: "ghost"})
	require.True(t, errors.IsCode(err, errors.CodeNotFound))

	_, err = s.CompleteSphere(ctx, game.CompleteSphereRequest{SessionID: "ghost", Sphere: domain.SpherePhysics})
	require.True(t, errors.IsCode(err, errors.CodeNotFound))

	_, err = s.CompleteGame(ctx, game.CompleteGameRequest{SessionID: "ghost"})
	require.True(t, errors.IsCode(err, errors.CodeNotFound))

	// None of the rejected calls left a session behind.
	_, err = s.GetState(ctx, game.GetStateRequest{SessionID: "ghost"})
	require.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestService_RestartSphere_KeepsLogExcludesStaleTally(t *testing.T) {
	t.Parallel()

	s := makeService(t)
	ctx := context.Background()

	_, err := s.StartGame(ctx, game.StartGameRequest{SessionID: "s1", PlayerName: "Ada"})
	require.NoError(t, err)
	_, err = s.StartSphere(ctx, game.StartSphereRequest{SessionID: "s1", Sphere: domain.SpherePhysics})
	require.NoError(t, err)

	// Answer two questions, then abandon the run.
	for i := 0; i < 2; i++ {
		_, err = s.AnswerQuestion(ctx, game.AnswerQuestionRequest{
			SessionID:     "s1",
			QuestionID:    questionID(domain.SpherePhysics, i),
			SelectedIndex: correctIndex,
		})
		require.NoError(t, err)
		_, err = s.Advance(ctx, game.AdvanceRequest{SessionID: "s1"})
		require.NoError(t, err)
	}

	state, err := s.GetState(ctx, game.GetStateRequest{SessionID: "s1"})
	require.NoError(t, err)
	require.Len(t, state.Answers, 2)

	// Restarting resets the position but keeps the earlier log entries.
	restarted, err := s.StartSphere(ctx, game.StartSphereRequest{SessionID: "s1", Sphere: domain.SpherePhysics})
	require.NoError(t, err)
	require.Equal(t, 0, restarted.Position)
	require.Len(t, restarted.Answers, 2)

	result := answerOut(t, s, "s1", domain.SpherePhysics, allCorrect)

	// The stale attempt's records stay in the log but not in the tally.
	state, err = s.GetState(ctx, game.GetStateRequest{SessionID: "s1"})
	require.NoError(t, err)
	require.Len(t, state.Answers, 2+questionsPerSphere)
	require.Equal(t, questionsPerSphere, result.QuestionsAttempted)
	require.Equal(t, questionsPerSphere, result.CorrectAnswers)
}

const (
	questionsPerSphere = 10
	correctIndex       = 1
	wrongIndex         = 0
)

func questionID(sphere domain.Sphere, i int) string {
	return fmt.Sprintf("%s-%03d", sphere, i+1)
}

// stubBank serves questionsPerSphere questions per sphere, option 1 correct.
type stubBank struct{}

func (stubBank) QuestionsBySphere(_ context.Context, sphere domain.Sphere) ([]domain.Question, error) {
	if !sphere.Valid() {
		return nil, nil
	}
	qs := make([]domain.Question, 0, questionsPerSphere)
	for i := 0; i < questionsPerSphere; i++ {
		qs = append(qs, domain.Question{
			ID:           questionID(sphere, i),
			Sphere:       sphere,
			Prompt:       fmt.Sprintf("question %d", i+1),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: correctIndex,
		})
	}
	return qs, nil
}

func (b stubBank) AllQuestions(ctx context.Context) ([]domain.Question, error) {
	var all []domain.Question
	for _, sphere := range domain.Spheres() {
		qs, _ := b.QuestionsBySphere(ctx, sphere)
		all = append(all, qs...)
	}
	return all, nil
}

type answers func(i int) int

func allCorrect(int) int { return correctIndex }

// playSphere starts a sphere, answers every question and completes it.
func playSphere(t *testing.T, s *game.Service, sessionID string, sphere domain.Sphere, pick answers) *domain.SphereResult {
	t.Helper()
	ctx := context.Background()

	_, err := s.StartSphere(ctx, game.StartSphereRequest{SessionID: sessionID, Sphere: sphere})
	require.NoError(t, err)

	return answerOut(t, s, sessionID, sphere, pick)
}

// answerOut answers every remaining question of the active sphere and
// completes it.
func answerOut(t *testing.T, s *game.Service, sessionID string, sphere domain.Sphere, pick answers) *domain.SphereResult {
	t.Helper()
	ctx := context.Background()

	for i := 0; i < questionsPerSphere; i++ {
		_, err := s.AnswerQuestion(ctx, game.AnswerQuestionRequest{
			SessionID:     sessionID,
			QuestionID:    questionID(sphere, i),
			SelectedIndex: pick(i),
		})
		require.NoError(t, err)

		adv, err := s.Advance(ctx, game.AdvanceRequest{SessionID: sessionID})
		require.NoError(t, err)
		require.Equal(t, i == questionsPerSphere-1, adv.SphereFinished)
	}

	result, err := s.CompleteSphere(ctx, game.CompleteSphereRequest{SessionID: sessionID, Sphere: sphere})
	require.NoError(t, err)
	return result
}

type options func(c *game.Config)

func withRules(r game.Rules) options {
	return func(c *game.Config) { c.Rules = r }
}

func withEventBus(eb *event.Bus) options {
	return func(c *game.Config) { c.EventBus = eb }
}

func makeService(t *testing.T, opts ...options) *game.Service {
	t.Helper()

	// Deterministic clock ticking one second per call, so set-once semantics
	// are observable.
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	c := game.Config{
		Bank: stubBank{},
		Now: func() time.Time {
			now = now.Add(time.Second)
			return now
		},
	}
	for _, opt := range opts {
		opt(&c)
	}

	return game.NewService(c)
}
