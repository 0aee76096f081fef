package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sphere is one of the fixed subject groupings partitioning the question bank.
type Sphere string

const (
	SphereLifeSciences Sphere = "life-sciences"
	SphereChemistry    Sphere = "chemistry"
	SpherePhysics      Sphere = "physics"
)

// Spheres returns every sphere in catalogue order.
func Spheres() []Sphere {
	return []Sphere{SphereLifeSciences, SphereChemistry, SpherePhysics}
}

// Valid reports whether s is a known sphere.
func (s Sphere) Valid() bool {
	switch s {
	case SphereLifeSciences, SphereChemistry, SpherePhysics:
		return true
	}
	return false
}

func (s Sphere) String() string { return string(s) }

// Question is one immutable entry of the bank. CorrectIndex is always within
// bounds of Options.
type Question struct {
	ID           string
	Sphere       Sphere
	Prompt       string
	Options      []string
	CorrectIndex int
	Explanation  string
	Context      string
}

// Student is a stable identity created on first login.
type Student struct {
	ID            int64
	StudentNumber string
	Name          string
	CreateTime    time.Time
}

// Teacher is a pre-provisioned account, matched by code and password.
type Teacher struct {
	ID   int64
	Code string
	Name string
}

// GameSession is the persisted record of one play-through.
type GameSession struct {
	SessionID        string
	StudentID        int64
	TotalScore       int
	CompletedSpheres int
	Completed        bool
	StartTime        time.Time
	EndTime          time.Time
	CreateTime       time.Time
}

// SphereResult is the per-sphere outcome row logged when a sphere completes.
type SphereResult struct {
	SessionID          string
	Sphere             Sphere
	QuestionsAttempted int
	CorrectAnswers     int
	SphereScore        int
	CompleteTime       time.Time
}

// Accuracy is the fraction of attempted questions answered correctly.
func (r SphereResult) Accuracy() decimal.Decimal {
	if r.QuestionsAttempted == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(r.CorrectAnswers)).
		Div(decimal.NewFromInt(int64(r.QuestionsAttempted)))
}

// QuestionResponse is the per-question log row. SelectedIndex is negative when
// the client did not report a selection, ResponseTimeMs zero when unknown.
type QuestionResponse struct {
	SessionID      string
	QuestionID     string
	Sphere         Sphere
	SelectedIndex  int
	IsCorrect      bool
	ResponseTimeMs int
	CreateTime     time.Time
}

// GameReport is the terminal outcome of a session, emitted exactly once when
// the game completes.
type GameReport struct {
	SessionID        string
	PlayerName       string
	FinalScore       int
	CompletedSpheres int
	Tier             string
	SphereResults    []SphereResult
	StartTime        time.Time
	EndTime          time.Time
}

// Leaderboard is the ordered board of final scores, best first.
type Leaderboard struct {
	Entries []LeaderboardEntry
}

type LeaderboardEntry struct {
	SessionID  string
	PlayerName string
	Score      int
}
