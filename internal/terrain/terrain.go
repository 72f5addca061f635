// Package terrain provides the global land/sea mask the race is sailed on.
//
// The mask is an equirectangular grid with row zero at the south pole. It
// is immutable once built, so the engine, bots, and the windowed view can
// all read it concurrently.
package terrain

import (
	"fmt"
	"image"
	"image/png"
	"math/rand"
	"os"
	"sort"

	"github.com/capesail/vendeeglobe/internal/geo"
	"github.com/capesail/vendeeglobe/internal/grid"
)

// Default grid resolution, matching the weather grid.
const (
	DefaultRows = 128
	DefaultCols = 256
)

// Generation tuning. More seeds and a larger sigma make fewer, bigger
// continents; the fraction sets how much of the globe ends up as land.
const (
	landSeeds    = 80
	landSigma    = 6.0
	landFraction = 0.28
)

// ErrEmptyMask indicates a loaded mask image had no pixels.
var ErrEmptyMask = fmt.Errorf("terrain mask image is empty")

// Mask is a global sea mask.
type Mask struct {
	rows int
	cols int
	dlat float64
	dlon float64
	sea  []bool
}

// Generate builds a procedural mask from a seed. The same seed always
// produces the same continents. The area around safeHarbor is carved to
// open water so the race start is never landlocked.
func Generate(seed int64, safeHarbor geo.Location, harborRadiusKm float64) *Mask {
	rng := rand.New(rand.NewSource(seed))

	rows, cols := DefaultRows, DefaultCols
	field := make([]float64, rows*cols)
	margin := rows / 8 // keep continents off the poles
	for i := 0; i < landSeeds; i++ {
		y := margin + rng.Intn(rows-2*margin)
		x := rng.Intn(cols)
		field[y*cols+x] = 10000
	}
	smooth := grid.SmoothWrap2(field, rows, cols, landSigma)

	// Threshold at the requested land fraction.
	sorted := make([]float64, len(smooth))
	copy(sorted, smooth)
	sort.Float64s(sorted)
	cut := sorted[int(float64(len(sorted))*(1.0-landFraction))]

	m := &Mask{
		rows: rows,
		cols: cols,
		dlat: 180.0 / float64(rows),
		dlon: 360.0 / float64(cols),
		sea:  make([]bool, rows*cols),
	}
	for i, v := range smooth {
		m.sea[i] = v < cut
	}
	m.carveSea(safeHarbor, harborRadiusKm)
	return m
}

// LoadPNG loads a mask from a grayscale image where bright pixels are sea.
// Row zero of the image is the north pole, as in common map renders.
func LoadPNG(path string) (*Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open terrain mask: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode terrain mask: %w", err)
	}
	return FromImage(img)
}

// FromImage builds a mask from a decoded image. Luminance above half scale
// counts as sea.
func FromImage(img image.Image) (*Mask, error) {
	bounds := img.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()
	if rows == 0 || cols == 0 {
		return nil, ErrEmptyMask
	}
	m := &Mask{
		rows: rows,
		cols: cols,
		dlat: 180.0 / float64(rows),
		dlon: 360.0 / float64(cols),
		sea:  make([]bool, rows*cols),
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			lum := (299*r + 587*g + 114*b) / 1000
			// Flip vertically: image row 0 is the north pole, mask row 0
			// is the south pole.
			m.sea[(rows-1-y)*cols+x] = lum > 0x7FFF
		}
	}
	return m, nil
}

// carveSea opens water in a disc around the given location.
func (m *Mask) carveSea(center geo.Location, radiusKm float64) {
	if radiusKm <= 0 {
		return
	}
	for y := 0; y < m.rows; y++ {
		lat := -90.0 + (float64(y)+0.5)*m.dlat
		for x := 0; x < m.cols; x++ {
			lon := -180.0 + (float64(x)+0.5)*m.dlon
			d := geo.DistanceOnSurface(lon, lat, center.Longitude, center.Latitude)
			if d <= radiusKm {
				m.sea[y*m.cols+x] = true
			}
		}
	}
}

// Size returns the mask resolution as (rows, cols).
func (m *Mask) Size() (int, int) {
	return m.rows, m.cols
}

// index maps a position to a cell, wrapping longitude and clamping
// latitude at the poles.
func (m *Mask) index(lat, lon float64) int {
	lat, lon = geo.Wrap(lat, lon)
	y := int((lat + 90.0) / m.dlat)
	if y < 0 {
		y = 0
	}
	if y >= m.rows {
		y = m.rows - 1
	}
	x := int((lon + 180.0) / m.dlon)
	if x < 0 {
		x = 0
	}
	if x >= m.cols {
		x = m.cols - 1
	}
	return y*m.cols + x
}

// IsSea reports whether the cell under the position is open water.
func (m *Mask) IsSea(lat, lon float64) bool {
	return m.sea[m.index(lat, lon)]
}

// Terrain returns 1 for sea and 0 for land under each position. This is
// the lookup handed to bots.
func (m *Mask) Terrain(lats, lons []float64) []int {
	n := len(lats)
	if len(lons) < n {
		n = len(lons)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		if m.IsSea(lats[i], lons[i]) {
			out[i] = 1
		}
	}
	return out
}

// SeaFraction reports the fraction of the globe that is open water.
func (m *Mask) SeaFraction() float64 {
	count := 0
	for _, s := range m.sea {
		if s {
			count++
		}
	}
	return float64(count) / float64(len(m.sea))
}

// CellCenter returns the lat/lon center of a grid cell, for rendering.
func (m *Mask) CellCenter(row, col int) (float64, float64) {
	lat := -90.0 + (float64(row)+0.5)*m.dlat
	lon := -180.0 + (float64(col)+0.5)*m.dlon
	return lat, lon
}
