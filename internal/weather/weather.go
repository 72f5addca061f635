// Package weather generates and serves the global wind field.
//
// The field is built once per race from a seed: random spikes in a
// (time, lat, lon) grid are smoothed into a continuous scalar field whose
// value sets the wind angle and whose gradient slows the wind near fronts.
// The live field is immutable after generation; bots only ever see
// forecasts, which degrade in resolution with lead time.
package weather

import (
	"math"
	"math/rand"

	"github.com/capesail/vendeeglobe/internal/grid"
)

// Grid resolution and generation tuning.
const (
	GridRows = 128
	GridCols = 256

	fieldSeeds   = 300
	fieldSigma   = 8.0
	maxWindSpeed = 200.0 // km/h
)

// DefaultIntervalHours is how often the weather advances one frame, in
// in-game hours.
const DefaultIntervalHours = 12.0

// Options configures weather generation.
type Options struct {
	// Seed drives the random field. The same seed always produces the
	// same weather.
	Seed int64
	// TimeLimitHours is the race duration in in-game hours; it sets the
	// number of weather frames.
	TimeLimitHours float64
	// IntervalHours is the in-game time between frames. Defaults to
	// DefaultIntervalHours.
	IntervalHours float64
	// ForecastSteps is the number of forecast lead times. Defaults to 8.
	ForecastSteps int
	// TracerCount and TracerLifetime size the wind tracer ring. Defaults
	// are 1000 particles over 50 steps.
	TracerCount    int
	TracerLifetime int
}

func (o Options) withDefaults() Options {
	if o.IntervalHours <= 0 {
		o.IntervalHours = DefaultIntervalHours
	}
	if o.TimeLimitHours <= 0 {
		o.TimeLimitHours = 8 * 60
	}
	if o.ForecastSteps <= 0 {
		o.ForecastSteps = 8
	}
	if o.TracerCount <= 0 {
		o.TracerCount = 1000
	}
	if o.TracerLifetime <= 0 {
		o.TracerLifetime = 50
	}
	return o
}

// Weather holds the generated wind field for one race.
type Weather struct {
	rows   int
	cols   int
	frames int
	dt     float64 // hours per frame
	dlat   float64
	dlon   float64

	u []float64 // frames*rows*cols
	v []float64

	// Degraded copies for forecasting, one per lead step. Index zero is
	// the live field.
	forecastU [][]float64
	forecastV [][]float64

	tracers *Tracers
}

// New generates the wind field for a race.
func New(opts Options) *Weather {
	opts = opts.withDefaults()
	rng := rand.New(rand.NewSource(opts.Seed))

	rows, cols := GridRows, GridCols
	frames := int(opts.TimeLimitHours / opts.IntervalHours)
	if frames < 1 {
		frames = 1
	}

	// Seed spikes away from the poles, then smooth into a rolling field.
	field := make([]float64, frames*rows*cols)
	margin := rows / 6
	for i := 0; i < fieldSeeds; i++ {
		t := rng.Intn(frames)
		y := margin + rng.Intn(rows-2*margin)
		x := rng.Intn(cols)
		field[t*rows*cols+y*cols+x] = 10000
	}
	smooth := grid.SmoothWrap3(field, frames, rows, cols, fieldSigma)
	max := grid.Max(smooth)
	if max == 0 {
		max = 1
	}

	u := make([]float64, len(smooth))
	v := make([]float64, len(smooth))
	for i, val := range smooth {
		angle := math.Mod(val/max*360.0+180.0, 360.0) * math.Pi / 180.0
		u[i] = math.Cos(angle)
		v[i] = math.Sin(angle)
		smooth[i] = val / max
	}

	// Wind slows where the angle field changes fast.
	div := grid.GradientMagSum3(smooth, frames, rows, cols)
	divMax := grid.Max(div)
	if divMax == 0 {
		divMax = 1
	}
	for i := range u {
		speed := (1.0 - div[i]/divMax) * maxWindSpeed
		u[i] *= speed
		v[i] *= speed
	}

	w := &Weather{
		rows:   rows,
		cols:   cols,
		frames: frames,
		dt:     opts.IntervalHours,
		dlat:   180.0 / float64(rows),
		dlon:   360.0 / float64(cols),
		u:      u,
		v:      v,
	}
	w.buildForecasts(opts.ForecastSteps)
	w.tracers = newTracers(rng, opts.TracerLifetime, opts.TracerCount)
	return w
}

// buildForecasts precomputes degraded copies of the field. Level k is the
// live field subsampled with stride k+1 and repeated back to full size,
// so longer lead times see coarser weather.
func (w *Weather) buildForecasts(steps int) {
	w.forecastU = make([][]float64, steps)
	w.forecastV = make([][]float64, steps)
	w.forecastU[0] = w.u
	w.forecastV[0] = w.v
	for k := 1; k < steps; k++ {
		stride := k + 1
		fu := make([]float64, len(w.u))
		fv := make([]float64, len(w.v))
		for t := 0; t < w.frames; t++ {
			base := t * w.rows * w.cols
			for y := 0; y < w.rows; y++ {
				sy := (y / stride) * stride
				for x := 0; x < w.cols; x++ {
					sx := (x / stride) * stride
					fu[base+y*w.cols+x] = w.u[base+sy*w.cols+sx]
					fv[base+y*w.cols+x] = w.v[base+sy*w.cols+sx]
				}
			}
		}
		w.forecastU[k] = fu
		w.forecastV[k] = fv
	}
}

// Frames returns the number of weather frames.
func (w *Weather) Frames() int {
	return w.frames
}

// IntervalHours returns the in-game hours between frames.
func (w *Weather) IntervalHours() float64 {
	return w.dt
}

// cell maps a position to grid indices, clamping latitude at the poles
// and wrapping longitude.
func (w *Weather) cell(lat, lon float64) (int, int) {
	y := int((lat + 90.0) / w.dlat)
	if y < 0 {
		y = 0
	}
	if y >= w.rows {
		y = w.rows - 1
	}
	lon = math.Mod(lon+180.0, 360.0)
	if lon < 0 {
		lon += 360.0
	}
	x := int(lon / w.dlon)
	if x >= w.cols {
		x = w.cols - 1
	}
	return y, x
}

// frameAt returns the frame index for an in-game time in hours.
func (w *Weather) frameAt(tHours float64) int {
	it := int(tHours/w.dt) % w.frames
	if it < 0 {
		it += w.frames
	}
	return it
}

// UV samples the live wind under each position at in-game time tHours.
// The result units are km/h.
func (w *Weather) UV(lats, lons []float64, tHours float64) ([]float64, []float64) {
	it := w.frameAt(tHours)
	base := it * w.rows * w.cols
	n := len(lats)
	if len(lons) < n {
		n = len(lons)
	}
	us := make([]float64, n)
	vs := make([]float64, n)
	for i := 0; i < n; i++ {
		y, x := w.cell(lats[i], lons[i])
		us[i] = w.u[base+y*w.cols+x]
		vs[i] = w.v[base+y*w.cols+x]
	}
	return us, vs
}

// Forecast captures the degraded future view of the field handed to bots.
// It is immutable and safe to share between bot goroutines.
type Forecast struct {
	rows   int
	cols   int
	frames int
	dt     float64
	dlat   float64
	dlon   float64
	// One full-resolution grid per lead step, already degraded.
	u [][]float64
	v [][]float64
}

// GetForecast builds the forecast as seen at in-game time tHours. Lead
// step k covers tHours + k*interval and is degraded accordingly.
func (w *Weather) GetForecast(tHours float64) *Forecast {
	steps := len(w.forecastU)
	fu := make([][]float64, steps)
	fv := make([][]float64, steps)
	size := w.rows * w.cols
	for k := 0; k < steps; k++ {
		it := w.frameAt(tHours + float64(k)*w.dt)
		base := it * size
		fu[k] = w.forecastU[k][base : base+size]
		fv[k] = w.forecastV[k][base : base+size]
	}
	return &Forecast{
		rows:   w.rows,
		cols:   w.cols,
		frames: w.frames,
		dt:     w.dt,
		dlat:   w.dlat,
		dlon:   w.dlon,
		u:      fu,
		v:      fv,
	}
}

// Steps returns the number of forecast lead steps.
func (f *Forecast) Steps() int {
	return len(f.u)
}

// IntervalHours returns the in-game hours between lead steps.
func (f *Forecast) IntervalHours() float64 {
	return f.dt
}

// UV samples the forecast wind at a position for a lead time in hours.
// Lead times beyond the final step clamp to the coarsest view.
func (f *Forecast) UV(lat, lon, aheadHours float64) (float64, float64) {
	k := int(aheadHours / f.dt)
	if k < 0 {
		k = 0
	}
	if k >= len(f.u) {
		k = len(f.u) - 1
	}
	y := int((lat + 90.0) / f.dlat)
	if y < 0 {
		y = 0
	}
	if y >= f.rows {
		y = f.rows - 1
	}
	lon = math.Mod(lon+180.0, 360.0)
	if lon < 0 {
		lon += 360.0
	}
	x := int(lon / f.dlon)
	if x >= f.cols {
		x = f.cols - 1
	}
	return f.u[k][y*f.cols+x], f.v[k][y*f.cols+x]
}
