package luabot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/capesail/vendeeglobe/internal/bots"
	"github.com/capesail/vendeeglobe/internal/geo"
)

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestLoadRequiresRunFunction(t *testing.T) {
	path := writeScript(t, "norun.lua", `team = "ghost"`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for script without run")
	}
}

func TestLoadTeamDefaultsToFileName(t *testing.T) {
	path := writeScript(t, "drifter.lua", `function run(input) return nil end`)
	bot, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if bot.Team() != "drifter" {
		t.Fatalf("expected team drifter, got %q", bot.Team())
	}
}

// TestRunReadsDecisionTable ensures heading, sail, vector and location
// all round-trip from the script.
func TestRunReadsDecisionTable(t *testing.T) {
	path := writeScript(t, "bot.lua", `
team = "lua-crew"

function run(input)
    return {
        heading = 90,
        sail = 0.5,
        vector = {1, 0},
        location = { latitude = 2.8, longitude = -168.9 },
    }
end
`)
	bot, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if bot.Team() != "lua-crew" {
		t.Fatalf("expected team lua-crew, got %q", bot.Team())
	}

	decision, err := bot.Run(bots.Input{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if decision.Heading == nil || *decision.Heading != 90 {
		t.Fatalf("unexpected heading: %v", decision.Heading)
	}
	if decision.Sail == nil || *decision.Sail != 0.5 {
		t.Fatalf("unexpected sail: %v", decision.Sail)
	}
	if decision.Vector == nil || (*decision.Vector != geo.Vec{Lon: 1, Lat: 0}) {
		t.Fatalf("unexpected vector: %v", decision.Vector)
	}
	if decision.Location == nil || decision.Location.Latitude != 2.8 || decision.Location.Longitude != -168.9 {
		t.Fatalf("unexpected location: %v", decision.Location)
	}
}

// TestRunSeesBoatState ensures the input table carries the boat state.
func TestRunSeesBoatState(t *testing.T) {
	path := writeScript(t, "echo.lua", `
team = "echo"

function run(input)
    return { heading = input.heading + input.t, sail = input.vector[1] }
end
`)
	bot, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	decision, err := bot.Run(bots.Input{
		T:       2,
		Heading: 45,
		Vector:  geo.Vec{Lon: 1, Lat: 0},
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if decision.Heading == nil || *decision.Heading != 47 {
		t.Fatalf("expected heading 47, got %v", decision.Heading)
	}
	if decision.Sail == nil || *decision.Sail != 1 {
		t.Fatalf("expected sail 1, got %v", decision.Sail)
	}
}

// TestRunCallsTerrainCallback ensures scripts can probe for land.
func TestRunCallsTerrainCallback(t *testing.T) {
	path := writeScript(t, "prober.lua", `
team = "prober"

function run(input)
    if input.terrain(input.latitude, input.longitude + 1) == 0 then
        return { heading = 180 }
    end
    return { heading = 0 }
end
`)
	bot, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	landAhead := func(lats, lons []float64) []int {
		out := make([]int, len(lats))
		for i := range lons {
			if lons[i] > 0 {
				out[i] = 0
			} else {
				out[i] = 1
			}
		}
		return out
	}

	decision, err := bot.Run(bots.Input{Longitude: 0.5, Terrain: landAhead})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if decision.Heading == nil || *decision.Heading != 180 {
		t.Fatalf("expected the bot to turn south off land, got %v", decision.Heading)
	}

	decision, err = bot.Run(bots.Input{Longitude: -3, Terrain: landAhead})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if decision.Heading == nil || *decision.Heading != 0 {
		t.Fatalf("expected open water heading, got %v", decision.Heading)
	}
}

// TestRunForecastWithoutData ensures the forecast callback degrades to
// calm air instead of failing.
func TestRunForecastWithoutData(t *testing.T) {
	path := writeScript(t, "windless.lua", `
team = "windless"

function run(input)
    local u, v = input.forecast(input.latitude, input.longitude, 6)
    return { heading = u + v }
end
`)
	bot, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	decision, err := bot.Run(bots.Input{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if decision.Heading == nil || *decision.Heading != 0 {
		t.Fatalf("expected zero wind, got %v", decision.Heading)
	}
}

// TestRunKeepsScriptState ensures globals persist across turns.
func TestRunKeepsScriptState(t *testing.T) {
	path := writeScript(t, "counter.lua", `
team = "counter"
turns = 0

function run(input)
    turns = turns + 1
    return { heading = turns }
end
`)
	bot, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	for want := 1.0; want <= 3; want++ {
		decision, err := bot.Run(bots.Input{})
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if decision.Heading == nil || *decision.Heading != want {
			t.Fatalf("expected heading %f, got %v", want, decision.Heading)
		}
	}
}

func TestRunNilForfeitsTurn(t *testing.T) {
	path := writeScript(t, "idle.lua", `function run(input) return nil end`)
	bot, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	decision, err := bot.Run(bots.Input{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if decision.Heading != nil || decision.Vector != nil || decision.Location != nil || decision.Sail != nil {
		t.Fatalf("expected empty decision, got %+v", decision)
	}
}

func TestRunSurfacesScriptErrors(t *testing.T) {
	path := writeScript(t, "crash.lua", `
function run(input)
    error("man overboard")
end
`)
	bot, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if _, err := bot.Run(bots.Input{}); err == nil {
		t.Fatal("expected script error to surface")
	}
}

// TestRunFailureLeavesStackBalanced ensures a script that errors every
// turn does not grow the interpreter stack over a long race.
func TestRunFailureLeavesStackBalanced(t *testing.T) {
	path := writeScript(t, "sinker.lua", `
function run(input)
    error("taking on water")
end
`)
	bot, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	top := bot.state.Top()
	for i := 0; i < 100; i++ {
		if _, err := bot.Run(bots.Input{}); err == nil {
			t.Fatal("expected script error to surface")
		}
	}
	if got := bot.state.Top(); got != top {
		t.Fatalf("stack grew from %d to %d over failing turns", top, got)
	}
}

func TestLoadDirLoadsEveryScript(t *testing.T) {
	dir := t.TempDir()
	scripts := map[string]string{
		"beta.lua":  `team = "beta" function run(input) return nil end`,
		"alpha.lua": `team = "alpha" function run(input) return nil end`,
	}
	for name, body := range scripts {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write script: %v", err)
		}
	}

	loaded, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir returned error: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 bots, got %d", len(loaded))
	}
	if loaded[0].Team() != "alpha" || loaded[1].Team() != "beta" {
		t.Fatalf("expected alphabetical order, got %s, %s", loaded[0].Team(), loaded[1].Team())
	}
}
