// Package scores implements race scoring and the shapes persisted to the
// leaderboard store.
package scores

import "time"

// ScoreStep is the base scoring unit. A finish is worth ScoreStep per
// player still racing (the earlier you finish, the more you earn);
// rounding a checkpoint is worth half a step.
const (
	ScoreStep        = 10.0
	CheckpointPoints = ScoreStep / 2
)

// FinishBonus is the bonus earned by finishing while stillRacing players
// (including the finisher) have not yet arrived.
func FinishBonus(stillRacing int) float64 {
	return ScoreStep * float64(stillRacing)
}

// LivePoints is a player's current score within one race.
func LivePoints(checkpointsReached int, bonus float64) float64 {
	return CheckpointPoints*float64(checkpointsReached) + bonus
}

// TeamScore is one row of the cumulative leaderboard.
type TeamScore struct {
	Team        string
	Points      float64
	RacesPlayed int
}

// FastestTime is a team's best finish in real seconds.
type FastestTime struct {
	Team    string
	Seconds float64
}

// PlayerResult is one team's outcome in a single race.
type PlayerResult struct {
	Team               string
	Points             float64
	CheckpointsReached int
	DistanceKm         float64
	// FinishSeconds is the real-time finish, nil when the team did not
	// complete the course.
	FinishSeconds *float64
}

// RaceRecord is everything persisted when a race ends.
type RaceRecord struct {
	RaceID   string
	PlayedAt time.Time
	Results  []PlayerResult
}
