package leaderboard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/osamahm/biosphere/internal/domain"
	"github.com/osamahm/biosphere/internal/errors"
	"github.com/osamahm/biosphere/internal/event"
)

const defaultLimit = 50

type Config struct {
	EventBus *event.Bus
	Redis    redis.UniversalClient
	Prefix   string
}

// Service keeps the board of final scores for the teacher dashboard. Every
// completed game lands on the board once, keyed by session id so two
// play-throughs by the same player rank independently.
type Service struct {
	eb     *event.Bus
	redis  redis.UniversalClient
	prefix string
}

func NewService(c Config) *Service {
	s := &Service{
		eb:     c.EventBus,
		redis:  c.Redis,
		prefix: c.Prefix,
	}

	s.eb.Subscribe(domain.EventNameGameCompleted, func(ctx context.Context, e event.Event) error {
		return s.RecordCompletion(ctx, e.(domain.EventGameCompleted))
	})

	return s
}

type GetLeaderboardRequest struct {
	// Limit caps the number of entries; defaults to 50.
	Limit int
}

// GetLeaderboard returns the board ordered by final score, best first.
func (s *Service) GetLeaderboard(ctx context.Context, req GetLeaderboardRequest) (*domain.Leaderboard, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	res, err := s.redis.ZRevRangeWithScores(ctx, s.boardKey(), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}

	if len(res) == 0 {
		return nil, errors.New(errors.CodeNotFound, errors.WithMessagef("leaderboard is empty"))
	}

	entries := make([]domain.LeaderboardEntry, 0, len(res))
	for _, z := range res {
		session := z.Member.(string)
		name, err := s.redis.HGet(ctx, s.namesKey(), session).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("get player name: %w", err)
		}
		entries = append(entries, domain.LeaderboardEntry{
			SessionID:  session,
			PlayerName: name,
			Score:      int(z.Score),
		})
	}

	return &domain.Leaderboard{Entries: entries}, nil
}

// RecordCompletion puts a finished game on the board and announces the new
// standing. Completions are rare, so every one publishes an update.
func (s *Service) RecordCompletion(ctx context.Context, e domain.EventGameCompleted) error {
	r := e.Report

	if err := s.redis.ZAdd(ctx, s.boardKey(), redis.Z{
		Score:  float64(r.FinalScore),
		Member: r.SessionID,
	}).Err(); err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}
	if err := s.redis.HSet(ctx, s.namesKey(), r.SessionID, r.PlayerName).Err(); err != nil {
		return fmt.Errorf("store player name: %w", err)
	}

	l, err := s.GetLeaderboard(ctx, GetLeaderboardRequest{})
	if err != nil {
		return fmt.Errorf("publish leaderboard: %w", err)
	}

	s.eb.Publish(ctx, domain.EventLeaderboardUpdated{Leaderboard: *l})
	return nil
}

func (s *Service) boardKey() string {
	return fmt.Sprintf("%s:final-scores", s.prefix)
}

func (s *Service) namesKey() string {
	return fmt.Sprintf("%s:player-names", s.prefix)
}
