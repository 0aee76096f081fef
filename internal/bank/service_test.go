package bank_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osamahm/biosphere/internal/bank"
	"github.com/osamahm/biosphere/internal/domain"
	"github.com/osamahm/biosphere/internal/errors"
)

func TestService_QuestionsBySphere(t *testing.T) {
	t.Parallel()

	s := bank.NewService(bank.Config{})

	for _, sphere := range domain.Spheres() {
		qs, err := s.QuestionsBySphere(context.Background(), sphere)
		require.NoError(t, err)
		require.Len(t, qs, 10)

		for _, q := range qs {
			require.Equal(t, sphere, q.Sphere)
			require.GreaterOrEqual(t, len(q.Options), 2)
			require.GreaterOrEqual(t, q.CorrectIndex, 0)
			require.Less(t, q.CorrectIndex, len(q.Options))
		}
	}
}

func TestService_QuestionsBySphere_StableOrder(t *testing.T) {
	t.Parallel()

	s := bank.NewService(bank.Config{})

	first, err := s.QuestionsBySphere(context.Background(), domain.SphereChemistry)
	require.NoError(t, err)
	second, err := s.QuestionsBySphere(context.Background(), domain.SphereChemistry)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestService_QuestionsBySphere_UnknownSphereIsEmpty(t *testing.T) {
	t.Parallel()

	s := bank.NewService(bank.Config{})

	qs, err := s.QuestionsBySphere(context.Background(), "astrology")
	require.NoError(t, err, "an unknown sphere yields an empty sequence, not an error")
	require.Empty(t, qs)
}

func TestService_AllQuestions(t *testing.T) {
	t.Parallel()

	s := bank.NewService(bank.Config{
		Loader: bank.NewStaticLoader([]domain.Question{
			{ID: "q1", Sphere: domain.SpherePhysics, Prompt: "p", Options: []string{"a", "b"}, CorrectIndex: 0},
			{ID: "q2", Sphere: domain.SphereChemistry, Prompt: "p", Options: []string{"a", "b"}, CorrectIndex: 1},
		}),
	})

	qs, err := s.AllQuestions(context.Background())
	require.NoError(t, err)
	require.Len(t, qs, 2)
	require.Equal(t, "q1", qs[0].ID)
	require.Equal(t, "q2", qs[1].ID)
}

func TestService_MutationsRequireDatabase(t *testing.T) {
	t.Parallel()

	s := bank.NewService(bank.Config{})
	ctx := context.Background()

	err := s.CreateQuestion(ctx, bank.CreateQuestionRequest{
		ID:           "q1",
		Sphere:       domain.SpherePhysics,
		Prompt:       "p",
		Options:      []string{"a", "b"},
		CorrectIndex: 0,
	})
	require.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code)

	err = s.DeleteQuestion(ctx, "q1")
	require.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code)
}
