package api

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/osamahm/biosphere/internal/domain"
)

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	Leaderboard struct {
		Entries []LeaderboardEntry `json:"entries"`
	}

	LeaderboardEntry struct {
		SessionID  string `json:"session_id"`
		PlayerName string `json:"player_name"`
		Score      int    `json:"score"`
	}
)

func toLeaderboardPayload(l domain.Leaderboard) Leaderboard {
	data := Leaderboard{
		Entries: make([]LeaderboardEntry, 0, len(l.Entries)),
	}
	for _, entry := range l.Entries {
		data.Entries = append(data.Entries, LeaderboardEntry{
			SessionID:  entry.SessionID,
			PlayerName: entry.PlayerName,
			Score:      entry.Score,
		})
	}
	return data
}

// PublishLeaderboardUpdated fans a board update out to the redis channel and to
// every connected websocket client.
func (a *API) PublishLeaderboardUpdated(ctx context.Context, e domain.EventLeaderboardUpdated) error {
	n := Notification{
		Event: e.Name(),
		Data:  toLeaderboardPayload(e.Leaderboard),
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", e.Name(), err)
	}

	var eg errgroup.Group
	eg.Go(func() error {
		if a.redis == nil {
			return nil
		}
		return a.redis.Publish(ctx, fmt.Sprintf("%s:leaderboard", a.prefix), b).Err()
	})
	eg.Go(func() error {
		a.hub.broadcast(b)
		return nil
	})

	return eg.Wait()
}
