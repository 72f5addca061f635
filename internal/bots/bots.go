// Package bots defines the competitor interface.
//
// A bot is called once per turn with the state of its own boat, the
// current weather forecast, and a terrain lookup. It answers with a
// steering decision. Bots never see the live wind field and never touch
// engine state directly.
package bots

import (
	"github.com/capesail/vendeeglobe/internal/geo"
	"github.com/capesail/vendeeglobe/internal/weather"
)

// TerrainFunc reports 1 for sea and 0 for land under each position.
type TerrainFunc func(lats, lons []float64) []int

// Input is the per-turn view of the race handed to a bot. Times are
// in-game hours.
type Input struct {
	T  float64
	DT float64

	Latitude  float64
	Longitude float64
	Heading   float64
	Speed     float64
	Vector    geo.Vec

	Forecast *weather.Forecast
	Terrain  TerrainFunc
}

// Decision is a bot's steering answer. All fields are optional; a target
// Location takes precedence over Vector, which takes precedence over
// Heading. Sail trims the sail in [0, 1].
type Decision struct {
	Location *geo.Location
	Heading  *float64
	Vector   *geo.Vec
	Sail     *float64
}

// Bot steers one boat through the race.
type Bot interface {
	// Team returns the team name; it must be stable and unique.
	Team() string
	// Run decides the next turn. Errors forfeit the turn in safe mode.
	Run(input Input) (Decision, error)
}

// WaypointBot is the reference competitor: it sails full-sail through a
// fixed list of waypoints, advancing whenever it gets close enough to
// the current one.
type WaypointBot struct {
	team      string
	waypoints []geo.Location
	radiusKm  float64
	next      int
}

// NewWaypointBot builds a reference bot for the given course. reachKm is
// how close the boat must get before targeting the next waypoint.
func NewWaypointBot(team string, waypoints []geo.Location, reachKm float64) *WaypointBot {
	if reachKm <= 0 {
		reachKm = 150
	}
	return &WaypointBot{team: team, waypoints: waypoints, radiusKm: reachKm}
}

// Team returns the bot's team name.
func (b *WaypointBot) Team() string {
	return b.team
}

// Run targets the current waypoint, cycling back to the first after the
// last so the boat returns home.
func (b *WaypointBot) Run(input Input) (Decision, error) {
	if len(b.waypoints) == 0 {
		return Decision{}, nil
	}
	target := b.waypoints[b.next%len(b.waypoints)]
	d := geo.DistanceOnSurface(input.Longitude, input.Latitude, target.Longitude, target.Latitude)
	if d < b.radiusKm {
		b.next++
		target = b.waypoints[b.next%len(b.waypoints)]
	}
	sail := 1.0
	return Decision{Location: &target, Sail: &sail}, nil
}
