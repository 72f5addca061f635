// Package race implements the sailing race engine: players, the course,
// movement integration, turn scheduling, and the tick loop.
package race

import "github.com/capesail/vendeeglobe/internal/geo"

// Checkpoint is a gate players must pass within the given radius.
type Checkpoint struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
	Reached   bool
}

// Location returns the checkpoint center.
func (c Checkpoint) Location() geo.Location {
	return geo.Location{Latitude: c.Latitude, Longitude: c.Longitude}
}

// Course describes the race: a start gate that doubles as the finish,
// and the checkpoints to round in between.
type Course struct {
	Start         geo.Location
	StartRadiusKm float64
	Checkpoints   []Checkpoint
}

// DefaultCourse is the round-the-world course: start and finish at
// Les Sables-d'Olonne with a south Pacific gate and an Indian Ocean gate.
func DefaultCourse() Course {
	return Course{
		Start:         geo.Location{Latitude: 46.5, Longitude: -1.8},
		StartRadiusKm: 20,
		Checkpoints: []Checkpoint{
			{Latitude: 2.8, Longitude: -168.9, RadiusKm: 1990},
			{Latitude: -15.7, Longitude: 77.7, RadiusKm: 1190},
		},
	}
}

// Waypoints returns the checkpoint centers followed by the start, the
// naive route the reference bot sails.
func (c Course) Waypoints() []geo.Location {
	out := make([]geo.Location, 0, len(c.Checkpoints)+1)
	for _, ch := range c.Checkpoints {
		out = append(out, ch.Location())
	}
	return append(out, c.Start)
}
