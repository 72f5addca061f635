// Package ui renders a race in a desktop window: the terrain map,
// drifting wind tracers, boat tracks and a standings overlay. The view
// is a pure spectator; it only ever reads published snapshots.
package ui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/capesail/vendeeglobe/internal/race"
	"github.com/capesail/vendeeglobe/internal/terrain"
)

const (
	mapWidth  = 720
	mapHeight = 360
)

// SnapshotSource yields the latest published race state.
type SnapshotSource interface {
	Snapshot() *race.Snapshot
}

// Config tunes the windowed view.
type Config struct {
	Title string
	// Scale multiplies the window size; zero means 2.
	Scale int
	// HighContrast switches to a black-and-white map for projectors.
	HighContrast bool
}

// Run opens the race window. It blocks until the window closes.
func Run(source SnapshotSource, mask *terrain.Mask, cfg Config) error {
	if cfg.Title == "" {
		cfg.Title = "Vendee Globe"
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 2
	}

	g := &game{
		source:       source,
		normal:       renderTerrain(mask, false),
		contrast:     renderTerrain(mask, true),
		highContrast: cfg.HighContrast,
		showTracers:  true,
		frame:        image.NewRGBA(image.Rect(0, 0, mapWidth, mapHeight)),
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(mapWidth*cfg.Scale, mapHeight*cfg.Scale)
	ebiten.SetTPS(30)
	return ebiten.RunGame(g)
}

type game struct {
	source       SnapshotSource
	normal       *image.RGBA
	contrast     *image.RGBA
	highContrast bool
	showTracers  bool
	frame        *image.RGBA
	screenImg    *ebiten.Image
	snap         *race.Snapshot
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		g.showTracers = !g.showTracers
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.highContrast = !g.highContrast
	}
	g.snap = g.source.Snapshot()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	background := g.normal
	if g.highContrast {
		background = g.contrast
	}
	copy(g.frame.Pix, background.Pix)

	snap := g.snap
	if snap != nil {
		if g.showTracers {
			g.drawTracers(snap)
		}
		g.drawPlayers(snap)
	}

	if g.screenImg == nil {
		g.screenImg = ebiten.NewImage(mapWidth, mapHeight)
	}
	g.screenImg.WritePixels(g.frame.Pix)
	screen.DrawImage(g.screenImg, nil)

	if snap != nil {
		ebitenutil.DebugPrint(screen, hud(snap))
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return mapWidth, mapHeight
}

// drawTracers plots the wind tracer rings, fading older rings out.
func (g *game) drawTracers(snap *race.Snapshot) {
	for ring := len(snap.TracerLats) - 1; ring >= 0; ring-- {
		age := float64(ring) / float64(len(snap.TracerLats))
		shade := uint8(200 - 140*age)
		c := color.RGBA{R: shade, G: shade, B: shade, A: 0xFF}
		lats := snap.TracerLats[ring]
		lons := snap.TracerLons[ring]
		for i := range lats {
			x, y := project(lats[i], lons[i])
			g.setPixel(x, y, c)
		}
	}
}

// drawPlayers plots each boat's track, its current position, and the
// course gates.
func (g *game) drawPlayers(snap *race.Snapshot) {
	gate := color.RGBA{R: 0xFF, G: 0xD7, B: 0x00, A: 0xFF}
	for _, ch := range snap.Course.Checkpoints {
		g.drawMarker(ch.Latitude, ch.Longitude, gate)
	}
	g.drawMarker(snap.Course.Start.Latitude, snap.Course.Start.Longitude, gate)

	for _, p := range snap.Players {
		c := teamColor(p.Color)
		for _, loc := range p.Track {
			x, y := project(loc.Latitude, loc.Longitude)
			g.setPixel(x, y, c)
		}
		g.drawMarker(p.Latitude, p.Longitude, c)
	}
}

func (g *game) drawMarker(lat, lon float64, c color.RGBA) {
	x, y := project(lat, lon)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			g.setPixel(x+dx, y+dy, c)
		}
	}
}

func (g *game) setPixel(x, y int, c color.RGBA) {
	if y < 0 || y >= mapHeight {
		return
	}
	// Longitude wraps around the frame edges.
	x = ((x % mapWidth) + mapWidth) % mapWidth
	i := (y*mapWidth + x) * 4
	g.frame.Pix[i+0] = c.R
	g.frame.Pix[i+1] = c.G
	g.frame.Pix[i+2] = c.B
	g.frame.Pix[i+3] = c.A
}

// project maps latitude and longitude to frame pixels, north up.
func project(lat, lon float64) (int, int) {
	x := int((lon + 180) / 360 * mapWidth)
	y := int((90 - lat) / 180 * mapHeight)
	if y == mapHeight {
		y = mapHeight - 1
	}
	return x, y
}

// renderTerrain rasterizes the sea/land mask into the background image.
func renderTerrain(mask *terrain.Mask, highContrast bool) *image.RGBA {
	sea := color.RGBA{R: 0x10, G: 0x2A, B: 0x43, A: 0xFF}
	land := color.RGBA{R: 0xC2, G: 0xA8, B: 0x6B, A: 0xFF}
	if highContrast {
		sea = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xFF}
		land = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	}

	img := image.NewRGBA(image.Rect(0, 0, mapWidth, mapHeight))
	for y := 0; y < mapHeight; y++ {
		lat := 90 - (float64(y)+0.5)/mapHeight*180
		for x := 0; x < mapWidth; x++ {
			lon := (float64(x)+0.5)/mapWidth*360 - 180
			c := land
			if mask == nil || mask.IsSea(lat, lon) {
				c = sea
			}
			i := (y*mapWidth + x) * 4
			img.Pix[i+0] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
		}
	}
	return img
}

// teamColor parses a #rrggbb string, falling back to white.
func teamColor(hex string) color.RGBA {
	c := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	if len(hex) != 7 || hex[0] != '#' {
		return c
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return c
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}

// hud renders the standings overlay text.
func hud(snap *race.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "elapsed %.0fs  remaining %.0fs", snap.ElapsedSeconds, snap.RemainingSeconds)
	if snap.Paused {
		b.WriteString("  [paused]")
	}
	if snap.Finished {
		b.WriteString("  [finished]")
	}
	b.WriteByte('\n')
	for i, p := range snap.Players {
		status := fmt.Sprintf("%d/%d gates", p.CheckpointsReached, len(snap.Course.Checkpoints))
		if p.Arrived {
			status = "finished"
		}
		fmt.Fprintf(&b, "%d. %s  %.1f pts  %.0f km  %s\n", i+1, p.Team, p.Points, p.DistanceKm, status)
	}
	return b.String()
}
