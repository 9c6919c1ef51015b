package leaderboarddomain

import (
	"sort"
	"time"

	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
)

// ScoredSubmission is the slice of a stored submission the leaderboard needs.
type ScoredSubmission struct {
	StudentID   string
	Score       float64
	SubmittedAt time.Time
}

// Entry is one student's row on the leaderboard. It is derived on read and never stored.
type Entry struct {
	Rank             int       `json:"rank"`
	StudentID        string    `json:"student_id"`
	BestScore        float64   `json:"best_score"`
	SubmissionCount  int       `json:"submission_count"`
	LastSubmissionAt time.Time `json:"last_submission_at"`
	BestAchievedAt   time.Time `json:"best_achieved_at"`
}

// Build reduces submissions to one entry per student, ordered best first under
// direction. Equal best scores go to whoever reached that score first, then to
// the lower student id. Ranks are 1-based and unique.
func Build(submissions []ScoredSubmission, direction scoringdomain.Direction) []Entry {
	byStudent := make(map[string]*Entry)
	order := make([]string, 0)

	for _, sub := range submissions {
		if sub.StudentID == "" {
			continue
		}
		e, ok := byStudent[sub.StudentID]
		if !ok {
			byStudent[sub.StudentID] = &Entry{
				StudentID:        sub.StudentID,
				BestScore:        sub.Score,
				SubmissionCount:  1,
				LastSubmissionAt: sub.SubmittedAt,
				BestAchievedAt:   sub.SubmittedAt,
			}
			order = append(order, sub.StudentID)
			continue
		}

		e.SubmissionCount++
		if sub.SubmittedAt.After(e.LastSubmissionAt) {
			e.LastSubmissionAt = sub.SubmittedAt
		}
		switch {
		case direction.Better(sub.Score, e.BestScore):
			e.BestScore = sub.Score
			e.BestAchievedAt = sub.SubmittedAt
		case sub.Score == e.BestScore && sub.SubmittedAt.Before(e.BestAchievedAt):
			e.BestAchievedAt = sub.SubmittedAt
		}
	}

	entries := make([]Entry, 0, len(order))
	for _, id := range order {
		entries = append(entries, *byStudent[id])
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.BestScore != b.BestScore {
			return direction.Better(a.BestScore, b.BestScore)
		}
		if !a.BestAchievedAt.Equal(b.BestAchievedAt) {
			return a.BestAchievedAt.Before(b.BestAchievedAt)
		}
		return a.StudentID < b.StudentID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Top returns at most n entries. n <= 0 means all of them.
func Top(entries []Entry, n int) []Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}
