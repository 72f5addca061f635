// Package luabot runs competitor scripts written in Lua.
//
// A script declares a global team name and a run function:
//
//	team = "GoldenDuck"
//
//	function run(input)
//	    return { heading = 180, sail = 1 }
//	end
//
// The input table carries the boat state (t, dt, latitude, longitude,
// heading, speed, vector) plus two callbacks: forecast(lat, lon, ahead)
// returning the predicted u, v wind components, and terrain(lat, lon)
// returning 1 for sea and 0 for land. The returned table may set
// heading, vector = {east, north}, location = {latitude=, longitude=}
// and sail; nil forfeits the turn.
package luabot

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/capesail/vendeeglobe/internal/bots"
	"github.com/capesail/vendeeglobe/internal/geo"
)

// Bot adapts one Lua script to the bots.Bot interface. Each bot owns its
// interpreter state, so scripts can keep globals between turns but never
// see each other.
type Bot struct {
	team  string
	state *lua.State
}

// Load compiles and runs a Lua script, returning the bot it defines.
// The script must define a run function; the team global defaults to
// the file name.
func Load(path string) (*Bot, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	if err := lua.DoFile(state, path); err != nil {
		return nil, fmt.Errorf("load bot script %s: %w", path, err)
	}

	state.Global("run")
	isFunc := state.IsFunction(-1)
	state.Pop(1)
	if !isFunc {
		return nil, fmt.Errorf("bot script %s must define a run function", path)
	}

	state.Global("team")
	team, _ := state.ToString(-1)
	state.Pop(1)
	if strings.TrimSpace(team) == "" {
		team = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return &Bot{team: team, state: state}, nil
}

// LoadDir loads every *.lua file in dir, sorted by file name.
func LoadDir(dir string) ([]bots.Bot, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return nil, fmt.Errorf("list bot scripts: %w", err)
	}
	sort.Strings(paths)

	out := make([]bots.Bot, 0, len(paths))
	for _, path := range paths {
		bot, err := Load(path)
		if err != nil {
			return nil, err
		}
		out = append(out, bot)
	}
	return out, nil
}

// Team returns the script's team name.
func (b *Bot) Team() string {
	return b.team
}

// Run calls the script's run function with the turn input.
func (b *Bot) Run(input bots.Input) (bots.Decision, error) {
	state := b.state

	state.Global("run")
	if !state.IsFunction(-1) {
		state.Pop(1)
		return bots.Decision{}, fmt.Errorf("bot %s: run is no longer a function", b.team)
	}
	pushInput(state, input)
	if err := state.ProtectedCall(1, 1, 0); err != nil {
		state.Pop(1) // the error object
		return bots.Decision{}, fmt.Errorf("bot %s: %w", b.team, err)
	}
	defer state.Pop(1)
	return decisionFromLua(state, -1)
}

// pushInput builds the turn input table on top of the stack.
func pushInput(state *lua.State, input bots.Input) {
	state.NewTable()

	pushNumberField(state, "t", input.T)
	pushNumberField(state, "dt", input.DT)
	pushNumberField(state, "latitude", input.Latitude)
	pushNumberField(state, "longitude", input.Longitude)
	pushNumberField(state, "heading", input.Heading)
	pushNumberField(state, "speed", input.Speed)

	state.NewTable()
	state.PushNumber(input.Vector.Lon)
	state.RawSetInt(-2, 1)
	state.PushNumber(input.Vector.Lat)
	state.RawSetInt(-2, 2)
	state.SetField(-2, "vector")

	forecast := input.Forecast
	state.PushGoFunction(func(s *lua.State) int {
		lat := lua.CheckNumber(s, 1)
		lon := lua.CheckNumber(s, 2)
		ahead := lua.OptNumber(s, 3, 0)
		if forecast == nil {
			s.PushNumber(0)
			s.PushNumber(0)
			return 2
		}
		u, v := forecast.UV(lat, lon, ahead)
		s.PushNumber(u)
		s.PushNumber(v)
		return 2
	})
	state.SetField(-2, "forecast")

	terrain := input.Terrain
	state.PushGoFunction(func(s *lua.State) int {
		lat := lua.CheckNumber(s, 1)
		lon := lua.CheckNumber(s, 2)
		if terrain == nil {
			s.PushInteger(1)
			return 1
		}
		cells := terrain([]float64{lat}, []float64{lon})
		s.PushInteger(cells[0])
		return 1
	})
	state.SetField(-2, "terrain")
}

func pushNumberField(state *lua.State, name string, value float64) {
	state.PushNumber(value)
	state.SetField(-2, name)
}

// decisionFromLua reads the script's returned table. A nil return means
// no instructions this turn.
func decisionFromLua(state *lua.State, index int) (bots.Decision, error) {
	var decision bots.Decision
	if state.IsNoneOrNil(index) {
		return decision, nil
	}
	if state.TypeOf(index) != lua.TypeTable {
		return decision, fmt.Errorf("run must return a table or nil")
	}
	index = state.AbsIndex(index)

	if value, ok := numberField(state, index, "heading"); ok {
		decision.Heading = &value
	}
	if value, ok := numberField(state, index, "sail"); ok {
		decision.Sail = &value
	}

	state.Field(index, "vector")
	if state.TypeOf(-1) == lua.TypeTable {
		vec := geo.Vec{}
		vec.Lon = numberAt(state, -1, 1)
		vec.Lat = numberAt(state, -1, 2)
		decision.Vector = &vec
	}
	state.Pop(1)

	state.Field(index, "location")
	if state.TypeOf(-1) == lua.TypeTable {
		loc := geo.Location{}
		lat, latOK := numberField(state, state.AbsIndex(-1), "latitude")
		lon, lonOK := numberField(state, state.AbsIndex(-1), "longitude")
		if latOK && lonOK {
			loc.Latitude = lat
			loc.Longitude = lon
			decision.Location = &loc
		}
	}
	state.Pop(1)

	return decision, nil
}

// numberField reads table[name] as a number.
func numberField(state *lua.State, index int, name string) (float64, bool) {
	state.Field(index, name)
	defer state.Pop(1)
	if state.TypeOf(-1) != lua.TypeNumber {
		return 0, false
	}
	value, _ := state.ToNumber(-1)
	return value, true
}

// numberAt reads table[i] as a number, defaulting to zero.
func numberAt(state *lua.State, index, i int) float64 {
	index = state.AbsIndex(index)
	state.RawGetInt(index, i)
	defer state.Pop(1)
	value, _ := state.ToNumber(-1)
	return value
}
