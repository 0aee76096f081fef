//go:build integration_test

package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/osamahm/biosphere/internal/api"
	"github.com/osamahm/biosphere/internal/domain"
)

const baseURL = "http://localhost:8080/v1"

// TestPlaythrough drives one full game against a running server: log in,
// open a session, clear every sphere, complete the game and watch the
// leaderboard update arrive on the pubsub channel.
func TestPlaythrough(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	wg := new(sync.WaitGroup)
	subscribeLeaderboard(t, makeRedis(t), wg)

	// Student login
	var studentID int64
	{
		var resp struct {
			Student struct {
				ID int64 `json:"id"`
			} `json:"student"`
		}
		post(t, ctx, "/students/login", map[string]any{
			"student_number": "S-1024",
			"student_name":   "Riley",
		}, &resp)
		studentID = resp.Student.ID
	}

	// Open a session
	var session string
	{
		var resp struct {
			Session struct {
				SessionID string `json:"session_id"`
			} `json:"session"`
		}
		post(t, ctx, "/sessions", map[string]any{"student_id": studentID}, &resp)
		session = resp.Session.SessionID
	}

	post(t, ctx, fmt.Sprintf("/sessions/%s/start", session), map[string]any{
		"player_name": "Riley",
	}, nil)

	for _, sphere := range domain.Spheres() {
		t.Logf("Starting sphere %q", sphere)

		var started struct {
			Questions []struct {
				ID      string   `json:"id"`
				Options []string `json:"options"`
			} `json:"questions"`
		}
		post(t, ctx, fmt.Sprintf("/sessions/%s/spheres/%s/start", session, sphere), map[string]any{}, &started)
		require.NotEmpty(t, started.Questions)

		for _, q := range started.Questions {
			var answered struct {
				Correct bool `json:"correct"`
				Score   int  `json:"score"`
			}
			post(t, ctx, fmt.Sprintf("/sessions/%s/answers", session), map[string]any{
				"question_id":    q.ID,
				"selected_index": 0,
			}, &answered)
			t.Logf("Answered %q: correct=%v score=%d", q.ID, answered.Correct, answered.Score)

			post(t, ctx, fmt.Sprintf("/sessions/%s/advance", session), map[string]any{}, nil)
		}

		post(t, ctx, fmt.Sprintf("/sessions/%s/spheres/%s/complete", session, sphere), map[string]any{}, nil)
	}

	// A retried sphere completion must not add a second result row.
	post(t, ctx, fmt.Sprintf("/sessions/%s/spheres/%s/complete", session, domain.SphereLifeSciences), map[string]any{}, nil)

	var report struct {
		Report struct {
			FinalScore int    `json:"final_score"`
			Tier       string `json:"tier"`
		} `json:"report"`
	}
	post(t, ctx, fmt.Sprintf("/sessions/%s/complete", session), map[string]any{}, &report)
	t.Logf("Game complete: score=%d tier=%q", report.Report.FinalScore, report.Report.Tier)

	var detail struct {
		Results []struct {
			Sphere string `json:"sphere"`
		} `json:"results"`
	}
	get(t, ctx, fmt.Sprintf("/sessions/%s", session), &detail)
	require.Len(t, detail.Results, len(domain.Spheres()), "one result row per sphere")

	wg.Wait()
}

func post(t *testing.T, ctx context.Context, path string, body any, out any) {
	t.Helper()

	b, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Less(t, resp.StatusCode, 300, "POST %s", path)

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

func get(t *testing.T, ctx context.Context, path string, out any) {
	t.Helper()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Less(t, resp.StatusCode, 300, "GET %s", path)

	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func subscribeLeaderboard(t *testing.T, rc redis.UniversalClient, wg *sync.WaitGroup) {
	wg.Add(1)
	sub := rc.Subscribe(context.Background(), "local:pubsub:leaderboard")

	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	go func() {
		defer wg.Done()
		defer sub.Close()

		for msg := range sub.Channel() {
			var n struct {
				Event string          `json:"event"`
				Data  json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				t.Logf("unmarshal notification: %v", err)
				continue
			}

			if n.Event != domain.EventNameLeaderboardUpdated {
				continue
			}

			var l api.Leaderboard
			if err := json.Unmarshal(n.Data, &l); err != nil {
				t.Logf("unmarshal leaderboard: %v", err)
				continue
			}

			for i, e := range l.Entries {
				t.Logf("#%d %s: %d", i+1, e.PlayerName, e.Score)
			}
			return
		}
	}()
}

func makeRedis(t *testing.T) redis.UniversalClient {
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{"localhost:6379"},
	})
	require.NoError(t, rc.Ping(context.Background()).Err())
	return rc
}
