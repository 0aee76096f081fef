package game

import (
	"time"

	"github.com/osamahm/biosphere/internal/domain"
)

// AnswerRecord is one entry of the append-only answer log. Attempt counts the
// sphere entries, so records from an abandoned run of a sphere can be told
// apart from the run that completed it.
type AnswerRecord struct {
	QuestionID string
	Sphere     domain.Sphere
	Attempt    int
	Answered   bool
	Correct    bool
}

// SphereProgress is the one-way completion marker for a sphere. Score captures
// the session's cumulative score at the moment of completion and never changes
// afterwards.
type SphereProgress struct {
	Completed bool
	Score     int
}

// Session is the in-memory state of one play-through. It is mutated only
// through Service transitions; callers receive copies.
type Session struct {
	PlayerName   string
	ActiveSphere domain.Sphere
	Position     int
	Score        int
	StartedAt    time.Time
	EndedAt      time.Time
	Answers      []AnswerRecord
	Progress     map[domain.Sphere]SphereProgress

	attempts map[domain.Sphere]int
}

func newSession() *Session {
	s := &Session{
		Progress: make(map[domain.Sphere]SphereProgress, len(domain.Spheres())),
		attempts: make(map[domain.Sphere]int, len(domain.Spheres())),
	}
	for _, sp := range domain.Spheres() {
		s.Progress[sp] = SphereProgress{}
	}
	return s
}

// AllComplete reports whether every sphere's progress entry is completed.
func (s *Session) AllComplete() bool {
	for _, sp := range domain.Spheres() {
		if !s.Progress[sp].Completed {
			return false
		}
	}
	return true
}

// CompletedSpheres counts the completed progress entries.
func (s *Session) CompletedSpheres() int {
	n := 0
	for _, sp := range domain.Spheres() {
		if s.Progress[sp].Completed {
			n++
		}
	}
	return n
}

// sphereTally aggregates the answer log for a sphere, counting only the latest
// attempt. Records from earlier abandoned runs stay in the log but are
// excluded from result rows.
func (s *Session) sphereTally(sphere domain.Sphere) (attempted, correct int) {
	latest := s.attempts[sphere]
	for _, a := range s.Answers {
		if a.Sphere != sphere || a.Attempt != latest {
			continue
		}
		attempted++
		if a.Correct {
			correct++
		}
	}
	return attempted, correct
}

// snapshot returns a deep copy safe to hand out.
func (s *Session) snapshot() Session {
	out := *s
	out.Answers = append([]AnswerRecord(nil), s.Answers...)
	out.Progress = make(map[domain.Sphere]SphereProgress, len(s.Progress))
	for k, v := range s.Progress {
		out.Progress[k] = v
	}
	out.attempts = nil
	return out
}
