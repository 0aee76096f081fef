package domain

const (
	EventNameGameCompleted      = "game.completed"
	EventNameLeaderboardUpdated = "leaderboard.updated"
)

type EventGameCompleted struct {
	Report GameReport
}

func (EventGameCompleted) Name() string { return EventNameGameCompleted }

type EventLeaderboardUpdated struct {
	Leaderboard Leaderboard
}

func (EventLeaderboardUpdated) Name() string { return EventNameLeaderboardUpdated }
