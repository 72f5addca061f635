package race

import (
	"sort"

	"github.com/capesail/vendeeglobe/internal/geo"
	"github.com/capesail/vendeeglobe/internal/scores"
)

// PlayerState is one boat's public state inside a snapshot.
type PlayerState struct {
	Team               string         `json:"team"`
	Color              string         `json:"color"`
	Latitude           float64        `json:"latitude"`
	Longitude          float64        `json:"longitude"`
	Heading            float64        `json:"heading"`
	SpeedKmh           float64        `json:"speed_kmh"`
	DistanceKm         float64        `json:"distance_km"`
	CheckpointsReached int            `json:"checkpoints_reached"`
	Arrived            bool           `json:"arrived"`
	Points             float64        `json:"points"`
	Track              []geo.Location `json:"track,omitempty"`
}

// Snapshot is the immutable public view of the race published after
// every tick. Spectator surfaces (the HTTP API and the windowed view)
// only ever read snapshots.
type Snapshot struct {
	RaceID           string  `json:"race_id"`
	Test             bool    `json:"test"`
	ElapsedSeconds   float64 `json:"elapsed_seconds"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	Paused           bool    `json:"paused"`
	Finished         bool    `json:"finished"`

	Course Course `json:"course"`
	// Players is ordered by standing: points, then distance travelled.
	Players []PlayerState `json:"players"`

	// Tracer rings, newest first; omitted from JSON to keep the API
	// payload small.
	TracerLats [][]float64 `json:"-"`
	TracerLons [][]float64 `json:"-"`
}

// buildPlayerStates captures and ranks the public player states.
func buildPlayerStates(players []*Player) []PlayerState {
	out := make([]PlayerState, 0, len(players))
	for _, p := range players {
		out = append(out, PlayerState{
			Team:               p.Team,
			Color:              p.Color,
			Latitude:           p.Latitude,
			Longitude:          p.Longitude,
			Heading:            p.Heading,
			SpeedKmh:           p.Speed,
			DistanceKm:         p.DistanceTravelled,
			CheckpointsReached: p.CheckpointsReached(),
			Arrived:            p.Arrived,
			Points:             scores.LivePoints(p.CheckpointsReached(), p.Bonus),
			Track:              append([]geo.Location(nil), p.Track...),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm > out[j].DistanceKm
		}
		return out[i].Team < out[j].Team
	})
	return out
}
