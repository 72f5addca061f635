package race

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/capesail/vendeeglobe/internal/bots"
	"github.com/capesail/vendeeglobe/internal/geo"
	"github.com/capesail/vendeeglobe/internal/scores"
	"github.com/capesail/vendeeglobe/internal/terrain"
	"github.com/capesail/vendeeglobe/internal/weather"
)

// ErrNoBots indicates a race cannot start without competitors.
var ErrNoBots = errors.New("at least one bot is required")

// ErrDuplicateTeam indicates two bots claimed the same team name.
var ErrDuplicateTeam = errors.New("team names must be unique")

// ScoreStore is the slice of the leaderboard store the engine needs.
type ScoreStore interface {
	FastestTimes(ctx context.Context, teams []string) (map[string]float64, error)
	RecordRace(ctx context.Context, record scores.RaceRecord) error
}

// Config tunes one race.
type Config struct {
	// Seed drives weather and terrain generation. The same seed and bots
	// replay the same race.
	Seed int64
	// TimeLimit is the real-time race duration. Defaults to
	// DefaultTimeLimit.
	TimeLimit time.Duration
	// Speedup scales the game clock; zero or one runs in real time.
	Speedup float64
	// Test races run with bot errors surfaced and are never persisted.
	Test bool
	// Course defaults to DefaultCourse when it has no checkpoints.
	Course Course
	// Store persists scores and fastest times; nil disables persistence.
	Store ScoreStore
	// Mask overrides the generated terrain, for custom maps.
	Mask *terrain.Mask
	// Weather overrides the generated weather, for tests.
	Weather *weather.Weather
}

// Engine drives one race to completion.
type Engine struct {
	raceID  string
	test    bool
	safe    bool
	speedup float64
	limit   time.Duration

	course  Course
	mask    *terrain.Mask
	weather *weather.Weather

	players    []*Player
	botByTeam  map[string]bots.Bot
	groups     [][]string
	groupIndex int

	forecast     *weather.Forecast
	fastest      map[string]float64
	store        ScoreStore
	notArrived   int
	lastStanding int // countdown used for finish bonuses

	mu        sync.Mutex
	started   bool
	paused    bool
	finished  bool
	botErr    error
	elapsed   float64 // game-clock seconds (scaled by speedup)
	prevClock time.Time

	lastForecastAt float64

	snapshot atomic.Pointer[Snapshot]
}

// New prepares a race for the given bots.
func New(botList []bots.Bot, cfg Config) (*Engine, error) {
	if len(botList) == 0 {
		return nil, ErrNoBots
	}
	if cfg.TimeLimit <= 0 {
		cfg.TimeLimit = DefaultTimeLimit
	}
	if cfg.Speedup <= 0 {
		cfg.Speedup = 1
	}
	if len(cfg.Course.Checkpoints) == 0 {
		cfg.Course = DefaultCourse()
	}

	e := &Engine{
		raceID:  uuid.NewString(),
		test:    cfg.Test,
		safe:    !cfg.Test,
		speedup: cfg.Speedup,
		limit:   cfg.TimeLimit,
		course:  cfg.Course,
		store:   cfg.Store,
	}

	e.botByTeam = make(map[string]bots.Bot, len(botList))
	for _, b := range botList {
		team := b.Team()
		if team == "" {
			return nil, fmt.Errorf("%w: empty team name", ErrDuplicateTeam)
		}
		if _, ok := e.botByTeam[team]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTeam, team)
		}
		e.botByTeam[team] = b
	}

	teams := make([]string, 0, len(e.botByTeam))
	for team := range e.botByTeam {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	t0 := time.Now()
	log.Printf("generating terrain and weather (seed %d)...", cfg.Seed)
	e.mask = cfg.Mask
	if e.mask == nil {
		e.mask = terrain.Generate(cfg.Seed, e.course.Start, 10*e.course.StartRadiusKm)
	}
	e.weather = cfg.Weather
	if e.weather == nil {
		e.weather = weather.New(weather.Options{
			Seed:           cfg.Seed,
			TimeLimitHours: cfg.TimeLimit.Seconds() * HoursPerSecond,
		})
	}
	log.Printf("world ready [%.2f s]", time.Since(t0).Seconds())

	for _, team := range teams {
		e.players = append(e.players, NewPlayer(team, e.course))
	}
	e.notArrived = len(e.players)
	e.lastStanding = len(e.players)

	e.fastest = make(map[string]float64, len(teams))
	for _, team := range teams {
		e.fastest[team] = inf
	}
	if e.store != nil {
		stored, err := e.store.FastestTimes(context.Background(), teams)
		if err != nil {
			return nil, fmt.Errorf("read fastest times: %w", err)
		}
		for team, seconds := range stored {
			e.fastest[team] = seconds
		}
	}

	e.forecast = e.weather.GetForecast(0)
	e.groups = balanceGroups(teams, e.probeBots(teams), scheduleGroups)
	e.publishSnapshot()
	return e, nil
}

// RaceID returns the unique identifier of this race.
func (e *Engine) RaceID() string {
	return e.raceID
}

// Mask returns the race terrain, for rendering.
func (e *Engine) Mask() *terrain.Mask {
	return e.mask
}

// probeBots times one dry run of every bot, feeding the scheduler.
func (e *Engine) probeBots(teams []string) map[string]time.Duration {
	cost := make(map[string]time.Duration, len(teams))
	for _, team := range teams {
		p := e.playerByTeam(team)
		start := time.Now()
		e.runBot(p, 0, 0)
		cost[team] = time.Since(start)
	}
	return cost
}

func (e *Engine) playerByTeam(team string) *Player {
	for _, p := range e.players {
		if p.Team == team {
			return p
		}
	}
	return nil
}

// Snapshot returns the latest published race state.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

// Pause suspends the game clock between ticks.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = true
}

// Resume releases a paused race.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = false
	e.prevClock = time.Now()
}

// Stop ends the race at the next tick, scoring it as-is.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.finished {
		e.finishLocked()
	}
}

// Finished reports whether the race is over.
func (e *Engine) Finished() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finished
}

// Run drives the race to completion or context cancellation.
func (e *Engine) Run(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Limit(TicksPerSecond), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		done, err := e.Step(time.Now())
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Step advances the race one tick. It returns true when the race is
// finished. The error is non-nil only for test races where a bot failed.
func (e *Engine) Step(now time.Time) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.finished {
		return true, e.botErr
	}
	if !e.started {
		e.started = true
		e.prevClock = now
		log.Printf("race %s started: %d players, time limit %s", e.raceID, len(e.players), e.limit)
	}
	if e.paused {
		e.prevClock = now
		e.publishSnapshot()
		return false, nil
	}

	dtReal := now.Sub(e.prevClock).Seconds()
	e.prevClock = now
	if dtReal < 0 {
		dtReal = 0
	}
	dtReal *= e.speedup
	e.elapsed += dtReal
	dtHours := dtReal * HoursPerSecond
	tHours := e.elapsed * HoursPerSecond

	if e.elapsed >= e.limit.Seconds() {
		e.finishLocked()
		return true, e.botErr
	}

	if e.elapsed-e.lastForecastAt >= forecastRefreshSeconds {
		e.forecast = e.weather.GetForecast(tHours)
		e.lastForecastAt = e.elapsed
	}

	e.callBotGroup(tHours, dtHours)
	e.movePlayers(tHours, dtHours)
	e.weather.UpdateTracers(tHours, dtHours)
	e.publishSnapshot()

	if e.notArrived == 0 {
		e.finishLocked()
		return true, e.botErr
	}
	if e.botErr != nil && !e.safe {
		e.finishLocked()
		return true, e.botErr
	}
	return false, nil
}

// callBotGroup runs one scheduling group's bots for this tick.
func (e *Engine) callBotGroup(tHours, dtHours float64) {
	if len(e.groups) == 0 {
		return
	}
	group := e.groups[e.groupIndex%len(e.groups)]
	e.groupIndex++
	for _, team := range group {
		p := e.playerByTeam(team)
		if p == nil || p.Arrived {
			continue
		}
		e.runBot(p, tHours, dtHours)
	}
}

// runBot executes one bot turn. In safe mode a panicking or failing bot
// forfeits the turn; otherwise the first failure is recorded and ends a
// test race.
func (e *Engine) runBot(p *Player, tHours, dtHours float64) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("bot %s panicked: %v", p.Team, r)
			if e.safe {
				log.Printf("%v (turn forfeited)", err)
				return
			}
			e.botErr = err
		}
	}()

	input := bots.Input{
		T:         tHours,
		DT:        dtHours,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Heading:   p.Heading,
		Speed:     p.Speed,
		Vector:    p.Vector(),
		Forecast:  e.forecast,
		Terrain:   e.mask.Terrain,
	}
	decision, err := e.botByTeam[p.Team].Run(input)
	if err == nil {
		err = p.ApplyDecision(decision)
	}
	if err != nil {
		if e.safe {
			log.Printf("bot %s: %v (turn forfeited)", p.Team, err)
			return
		}
		if e.botErr == nil {
			e.botErr = fmt.Errorf("bot %s: %w", p.Team, err)
		}
	}
}

// movePlayers integrates every active boat against wind and terrain,
// then checks gates and finishes.
func (e *Engine) movePlayers(tHours, dtHours float64) {
	active := make([]*Player, 0, len(e.players))
	lats := make([]float64, 0, len(e.players))
	lons := make([]float64, 0, len(e.players))
	for _, p := range e.players {
		if p.Arrived {
			continue
		}
		active = append(active, p)
		lats = append(lats, p.Latitude)
		lons = append(lons, p.Longitude)
	}
	if len(active) == 0 {
		return
	}
	us, vs := e.weather.UV(lats, lons, tHours)

	for i, p := range active {
		pathLats, pathLons := p.Path(dtHours, us[i], vs[i])
		cells := e.mask.Terrain(pathLats, pathLons)

		// Stop at the last open-water position before land.
		ind := len(cells) - 1
		for j, sea := range cells {
			if sea == 0 {
				ind = j - 1
				break
			}
		}
		if ind > 0 {
			p.MoveTo(pathLats[ind], pathLons[ind])
		} else {
			p.Aground()
		}

		for j := range p.Checkpoints {
			ch := &p.Checkpoints[j]
			if ch.Reached {
				continue
			}
			d := geo.DistanceOnSurface(p.Longitude, p.Latitude, ch.Longitude, ch.Latitude)
			if d < ch.RadiusKm {
				ch.Reached = true
				log.Printf("%s reached checkpoint %d", p.Team, j+1)
			}
		}

		distToFinish := geo.DistanceOnSurface(p.Longitude, p.Latitude, e.course.Start.Longitude, e.course.Start.Latitude)
		if distToFinish < e.course.StartRadiusKm && p.AllCheckpointsReached() {
			e.finishPlayer(p)
		}
	}
}

// finishPlayer records an arrival: bonus, fastest time, standings log.
func (e *Engine) finishPlayer(p *Player) {
	p.Arrived = true
	p.Bonus = scores.FinishBonus(e.notArrived)
	p.FinishSeconds = e.elapsed
	position := len(e.players) - e.notArrived + 1
	e.notArrived--
	if e.elapsed < e.fastest[p.Team] {
		e.fastest[p.Team] = e.elapsed
	}
	log.Printf("%s finished in %s position!", p.Team, ordinal(position))
}

// finishLocked ends the race and persists results. Callers hold e.mu.
func (e *Engine) finishLocked() {
	if e.finished {
		return
	}
	e.finished = true

	record := scores.RaceRecord{
		RaceID:   e.raceID,
		PlayedAt: time.Now().UTC(),
		Results:  make([]scores.PlayerResult, 0, len(e.players)),
	}
	for _, p := range e.players {
		result := scores.PlayerResult{
			Team:               p.Team,
			Points:             scores.LivePoints(p.CheckpointsReached(), p.Bonus),
			CheckpointsReached: p.CheckpointsReached(),
			DistanceKm:         p.DistanceTravelled,
		}
		if p.Arrived {
			finish := p.FinishSeconds
			result.FinishSeconds = &finish
		}
		record.Results = append(record.Results, result)
	}

	if e.store != nil && !e.test {
		if err := e.store.RecordRace(context.Background(), record); err != nil {
			log.Printf("record race %s: %v", e.raceID, err)
		}
	}

	e.publishSnapshot()
	for i, state := range e.Snapshot().Players {
		log.Printf("%d. %s: %.1f points, %.0f km", i+1, state.Team, state.Points, state.DistanceKm)
	}
	log.Printf("race %s over after %.0f s", e.raceID, e.elapsed)
}

// publishSnapshot captures the public race state. Callers hold e.mu.
func (e *Engine) publishSnapshot() {
	tracerLats, tracerLons := e.weather.Tracers().Positions()
	remaining := e.limit.Seconds() - e.elapsed
	if remaining < 0 {
		remaining = 0
	}
	snap := &Snapshot{
		RaceID:           e.raceID,
		Test:             e.test,
		ElapsedSeconds:   e.elapsed,
		RemainingSeconds: remaining,
		Paused:           e.paused,
		Finished:         e.finished,
		Course:           e.course,
		Players:          buildPlayerStates(e.players),
		TracerLats:       tracerLats,
		TracerLons:       tracerLons,
	}
	e.snapshot.Store(snap)
}

// ordinal renders 1 as "1st", 2 as "2nd" and so on.
func ordinal(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

var inf = math.Inf(1)
