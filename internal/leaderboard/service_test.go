package leaderboard_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/osamahm/biosphere/internal/domain"
	stderrors "github.com/osamahm/biosphere/internal/errors"
	"github.com/osamahm/biosphere/internal/event"
	"github.com/osamahm/biosphere/internal/leaderboard"
)

func TestService_RecordCompletion(t *testing.T) {
	s := makeService(t)

	err := s.RecordCompletion(context.Background(), domain.EventGameCompleted{
		Report: domain.GameReport{
			SessionID:  "s1",
			PlayerName: "Ada",
			FinalScore: 280,
		},
	})
	require.NoError(t, err)

	err = s.RecordCompletion(context.Background(), domain.EventGameCompleted{
		Report: domain.GameReport{
			SessionID:  "s2",
			PlayerName: "Grace",
			FinalScore: 300,
		},
	})
	require.NoError(t, err)

	l, err := s.GetLeaderboard(context.Background(), leaderboard.GetLeaderboardRequest{})
	require.NoError(t, err)

	want := &domain.Leaderboard{
		Entries: []domain.LeaderboardEntry{
			{SessionID: "s2", PlayerName: "Grace", Score: 300},
			{SessionID: "s1", PlayerName: "Ada", Score: 280},
		},
	}
	require.Equal(t, want, l)
}

func TestService_GetLeaderboard_Empty(t *testing.T) {
	s := makeService(t)

	_, err := s.GetLeaderboard(context.Background(), leaderboard.GetLeaderboardRequest{})
	require.Equal(t, stderrors.CodeNotFound, stderrors.Convert(err).Code)
}

func TestService_PublishesUpdateOnCompletion(t *testing.T) {
	eb := event.NewBus()

	var (
		mu      sync.Mutex
		updates []domain.EventLeaderboardUpdated
	)
	eb.Subscribe(domain.EventNameLeaderboardUpdated, func(ctx context.Context, e event.Event) error {
		mu.Lock()
		updates = append(updates, e.(domain.EventLeaderboardUpdated))
		mu.Unlock()
		return nil
	})

	makeService(t, withEventBus(eb))

	// Publishing through the bus exercises the subscription end to end.
	eb.Publish(context.Background(), domain.EventGameCompleted{
		Report: domain.GameReport{
			SessionID:  "s1",
			PlayerName: "Ada",
			FinalScore: 150,
		},
	})
	eb.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, updates, 1)
	require.Equal(t, []domain.LeaderboardEntry{
		{SessionID: "s1", PlayerName: "Ada", Score: 150},
	}, updates[0].Leaderboard.Entries)
}

func makeService(t *testing.T, opts ...options) *leaderboard.Service {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	c := leaderboard.Config{
		EventBus: event.NewBus(),
		Redis:    rc,
		Prefix:   "biosphere-test",
	}

	for _, opt := range opts {
		opt(&c)
	}

	return leaderboard.NewService(c)
}

type options func(c *leaderboard.Config)

func withEventBus(eb *event.Bus) options {
	return func(c *leaderboard.Config) {
		c.EventBus = eb
	}
}
