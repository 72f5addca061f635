package race

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"math"

	"github.com/capesail/vendeeglobe/internal/bots"
	"github.com/capesail/vendeeglobe/internal/geo"
)

// ErrInvalidSail indicates a sail trim outside [0, 1].
var ErrInvalidSail = errors.New("sail trim must be between 0 and 1")

// ErrInvalidDecision indicates a decision with non-finite values.
var ErrInvalidDecision = errors.New("decision contains non-finite values")

// Player is one boat in the race.
type Player struct {
	Team  string
	Color string

	Latitude  float64
	Longitude float64
	Heading   float64 // degrees, 0 = east, counterclockwise
	Sail      float64 // trim in [0, 1]
	Speed     float64 // km/h over the last tick

	DistanceTravelled float64
	Checkpoints       []Checkpoint
	Arrived           bool
	Bonus             float64
	// FinishSeconds is the real-time finish, set on arrival.
	FinishSeconds float64

	// Track is the sailed path, capped at maxTrackLength points.
	Track []geo.Location
}

// NewPlayer creates a boat at the course start with its team color.
func NewPlayer(team string, course Course) *Player {
	checkpoints := make([]Checkpoint, len(course.Checkpoints))
	copy(checkpoints, course.Checkpoints)
	p := &Player{
		Team:        team,
		Color:       teamColor(team),
		Latitude:    course.Start.Latitude,
		Longitude:   course.Start.Longitude,
		Heading:     180.0,
		Sail:        1.0,
		Checkpoints: checkpoints,
	}
	p.appendTrack()
	return p
}

// teamColor derives a stable display color from the team name.
func teamColor(team string) string {
	sum := md5.Sum([]byte(team))
	return "#" + hex.EncodeToString(sum[:])[:6]
}

// Vector returns the boat's heading as a unit direction.
func (p *Player) Vector() geo.Vec {
	return geo.HeadingToVector(p.Heading)
}

// ApplyDecision validates and applies a bot decision. Precedence: a
// target location wins over a vector, which wins over a heading.
func (p *Player) ApplyDecision(d bots.Decision) error {
	if d.Sail != nil {
		if math.IsNaN(*d.Sail) || *d.Sail < 0 || *d.Sail > 1 {
			return ErrInvalidSail
		}
		p.Sail = *d.Sail
	}
	switch {
	case d.Location != nil:
		if !finite(d.Location.Latitude) || !finite(d.Location.Longitude) {
			return ErrInvalidDecision
		}
		p.Heading = geo.HeadingTowards(p.Latitude, p.Longitude, d.Location.Latitude, d.Location.Longitude)
	case d.Vector != nil:
		if !finite(d.Vector.Lat) || !finite(d.Vector.Lon) || d.Vector.Norm() == 0 {
			return ErrInvalidDecision
		}
		p.Heading = geo.VectorToHeading(*d.Vector)
	case d.Heading != nil:
		if !finite(*d.Heading) {
			return ErrInvalidDecision
		}
		h := math.Mod(*d.Heading, 360.0)
		if h < 0 {
			h += 360.0
		}
		p.Heading = h
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Path integrates the boat's movement over dt in-game hours under the
// given wind and returns the candidate positions at each substep. The
// engine walks the result against the terrain and stops the boat before
// it runs aground.
func (p *Player) Path(dtHours, windU, windV float64) (lats, lons []float64) {
	force := geo.WindForce(p.Vector(), geo.Vec{Lon: windU, Lat: windV}).Scale(p.Sail)
	p.Speed = force.Norm()

	lats = make([]float64, pathSubSteps)
	lons = make([]float64, pathSubSteps)
	lat, lon := p.Latitude, p.Longitude
	step := dtHours / float64(pathSubSteps)
	for i := 0; i < pathSubSteps; i++ {
		dLon := geo.LonDegsFromKm(force.Lon*step, lat)
		dLat := geo.LatDegsFromKm(force.Lat * step)
		lat, lon = geo.Wrap(lat+dLat, lon+dLon)
		lats[i] = lat
		lons[i] = lon
	}
	return lats, lons
}

// MoveTo advances the boat to a new position, accumulating distance and
// extending the track.
func (p *Player) MoveTo(lat, lon float64) {
	p.DistanceTravelled += geo.DistanceOnSurface(p.Longitude, p.Latitude, lon, lat)
	p.Latitude = lat
	p.Longitude = lon
	p.appendTrack()
}

// Aground stops the boat for the current tick.
func (p *Player) Aground() {
	p.Speed = 0
}

// CheckpointsReached counts the gates already rounded.
func (p *Player) CheckpointsReached() int {
	n := 0
	for _, ch := range p.Checkpoints {
		if ch.Reached {
			n++
		}
	}
	return n
}

// AllCheckpointsReached reports whether every gate has been rounded.
func (p *Player) AllCheckpointsReached() bool {
	return p.CheckpointsReached() == len(p.Checkpoints)
}

func (p *Player) appendTrack() {
	p.Track = append(p.Track, geo.Location{Latitude: p.Latitude, Longitude: p.Longitude})
	if len(p.Track) > maxTrackLength {
		p.Track = p.Track[len(p.Track)-maxTrackLength:]
	}
}
