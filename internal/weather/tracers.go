package weather

import (
	"math/rand"

	"github.com/capesail/vendeeglobe/internal/geo"
)

// tracerDrift scales how far tracers advect relative to the true wind,
// tuned for readability rather than physical accuracy.
const tracerDrift = 0.3

// respawnPerStep is how many tracers are recycled to fresh random
// positions on every update.
const respawnPerStep = 5

// Tracers is a ring of wind-borne particles for the map view. Row zero is
// the newest generation; older rows fade out in the renderer.
type Tracers struct {
	lifetime int
	count    int
	lat      [][]float64
	lon      [][]float64
	respawn  int
	rng      *rand.Rand
}

func newTracers(rng *rand.Rand, lifetime, count int) *Tracers {
	t := &Tracers{
		lifetime: lifetime,
		count:    count,
		lat:      make([][]float64, lifetime),
		lon:      make([][]float64, lifetime),
		rng:      rng,
	}
	for i := 0; i < lifetime; i++ {
		t.lat[i] = make([]float64, count)
		t.lon[i] = make([]float64, count)
		for j := 0; j < count; j++ {
			t.lat[i][j] = rng.Float64()*180.0 - 90.0
			t.lon[i][j] = rng.Float64()*360.0 - 180.0
		}
	}
	return t
}

// Tracers exposes the particle ring.
func (w *Weather) Tracers() *Tracers {
	return w.tracers
}

// Lifetime returns the number of generations kept.
func (t *Tracers) Lifetime() int {
	return t.lifetime
}

// Count returns the number of particles per generation.
func (t *Tracers) Count() int {
	return t.count
}

// UpdateTracers advances the tracer ring one step: the ring rolls
// forward, the newest row advects the previous generation with the wind,
// and a small batch respawns at random positions.
func (w *Weather) UpdateTracers(tHours, dtHours float64) {
	tr := w.tracers
	if tr == nil || tr.lifetime < 2 {
		return
	}

	// Roll the ring: the oldest row becomes the slot for the newest.
	last := tr.lifetime - 1
	newestLat, newestLon := tr.lat[last], tr.lon[last]
	for i := last; i >= 1; i-- {
		tr.lat[i] = tr.lat[i-1]
		tr.lon[i] = tr.lon[i-1]
	}
	tr.lat[0], tr.lon[0] = newestLat, newestLon

	us, vs := w.UV(tr.lat[1], tr.lon[1], tHours)
	for j := 0; j < tr.count; j++ {
		incrLon := geo.LonDegsFromKm(us[j]*dtHours*tracerDrift, tr.lat[1][j])
		incrLat := geo.LatDegsFromKm(vs[j] * dtHours * tracerDrift)
		lat, lon := geo.Wrap(tr.lat[1][j]+incrLat, tr.lon[1][j]+incrLon)
		tr.lat[0][j] = lat
		tr.lon[0][j] = lon
	}

	// Recycle a rolling batch so the ocean never runs dry of particles.
	for i := 0; i < respawnPerStep; i++ {
		j := (tr.respawn + i) % tr.count
		tr.lat[0][j] = tr.rng.Float64()*180.0 - 90.0
		tr.lon[0][j] = tr.rng.Float64()*360.0 - 180.0
	}
	tr.respawn = (tr.respawn + respawnPerStep) % tr.count
}

// Positions copies the current ring into flat slices ordered newest
// first, for snapshotting. The copies are safe to hand across
// goroutines.
func (t *Tracers) Positions() (lats, lons [][]float64) {
	lats = make([][]float64, t.lifetime)
	lons = make([][]float64, t.lifetime)
	for i := 0; i < t.lifetime; i++ {
		lats[i] = append([]float64(nil), t.lat[i]...)
		lons[i] = append([]float64(nil), t.lon[i]...)
	}
	return lats, lons
}
